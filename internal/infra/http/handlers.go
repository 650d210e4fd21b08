package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"todod/internal/domain"

	"github.com/gin-gonic/gin"
)

type todoResponse struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
}

func toTodoResponse(t domain.Todo) todoResponse {
	return todoResponse{ID: t.ID, Content: t.Content}
}

type createTodoRequest struct {
	ID      *int64  `json:"id"`
	Content *string `json:"content" binding:"required"`
}

// updateTodoRequest ignores id: a todo keeps the id it was created with.
type updateTodoRequest struct {
	ID      *int64         `json:"id"`
	Content optionalString `json:"content"`
}

// optionalString tells an absent field apart from an explicit null.
type optionalString struct {
	Set   bool
	Null  bool
	Value string
}

func (o *optionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Null = true
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, []string{"Todo App!"})
}

func (s *Server) handleCreateTodo(c *gin.Context) {
	var req createTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidation(c, bindingIssues(err)...)
		return
	}
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	todo := domain.Todo{Content: *req.Content}
	if req.ID != nil {
		todo.ID = *req.ID
	}
	created, err := s.todos.Create(c.Request.Context(), sess, todo)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTodoResponse(created))
}

func (s *Server) handleListTodos(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	todos, err := s.todos.List(c.Request.Context(), sess)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]todoResponse, 0, len(todos))
	for _, t := range todos {
		resp = append(resp, toTodoResponse(t))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleUpdateTodo(c *gin.Context) {
	id, ok := todoIDParam(c)
	if !ok {
		return
	}
	var req updateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidation(c, bindingIssues(err)...)
		return
	}
	if req.Content.Null {
		writeValidation(c, validationIssue{
			Loc:  []any{"body", "content"},
			Msg:  "Input should be a valid string",
			Type: "string_type",
		})
		return
	}
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var patch domain.TodoPatch
	if req.Content.Set {
		content := req.Content.Value
		patch.Content = &content
	}
	updated, err := s.todos.Update(c.Request.Context(), sess, id, patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTodoResponse(updated))
}

func (s *Server) handleDeleteTodo(c *gin.Context) {
	id, ok := todoIDParam(c)
	if !ok {
		return
	}
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	deleted, err := s.todos.Delete(c.Request.Context(), sess, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTodoResponse(deleted))
}

func todoIDParam(c *gin.Context) (int64, bool) {
	raw := c.Param("todo_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeValidation(c, invalidPathID(raw))
		return 0, false
	}
	return id, true
}
