package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"todod/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type detailResponse struct {
	Detail any `json:"detail"`
}

// validationIssue is one entry of a 422 detail list.
type validationIssue struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

func writeError(c *gin.Context, err error) {
	status, detail := http.StatusInternalServerError, "Internal Server Error"
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, detail = http.StatusNotFound, "Todo not found"
	case errors.Is(err, domain.ErrConflict):
		status, detail = http.StatusConflict, "Todo already exists"
	case errors.Is(err, domain.ErrUnavailable):
		status, detail = http.StatusServiceUnavailable, "Database unavailable"
	case errors.Is(err, domain.ErrInvalidArgument):
		writeValidation(c, validationIssue{Loc: []any{"body"}, Msg: err.Error(), Type: "value_error"})
		return
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	writeDetail(c, status, detail)
}

func writeDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, detailResponse{Detail: detail})
}

func writeValidation(c *gin.Context, issues ...validationIssue) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, detailResponse{Detail: issues})
}

func invalidPathID(raw string) validationIssue {
	return validationIssue{
		Loc:  []any{"path", "todo_id"},
		Msg:  fmt.Sprintf("Input should be a valid integer, unable to parse string as an integer: %q", raw),
		Type: "int_parsing",
	}
}

// bindingIssues turns a ShouldBindJSON failure into 422 detail entries.
func bindingIssues(err error) []validationIssue {
	var (
		verrs     validator.ValidationErrors
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.Is(err, io.EOF):
		return []validationIssue{{Loc: []any{"body"}, Msg: "Field required", Type: "missing"}}
	case errors.As(err, &verrs):
		issues := make([]validationIssue, 0, len(verrs))
		for _, fe := range verrs {
			issues = append(issues, fieldIssue(fe))
		}
		return issues
	case errors.As(err, &typeErr):
		loc := []any{"body"}
		if typeErr.Field != "" {
			for _, part := range strings.Split(typeErr.Field, ".") {
				loc = append(loc, part)
			}
		}
		msg, kind := "Input should be a valid "+typeErr.Type.String(), typeErr.Type.String()+"_type"
		switch typeErr.Type.Kind() {
		case reflect.String:
			msg, kind = "Input should be a valid string", "string_type"
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			msg, kind = "Input should be a valid integer", "int_type"
		case reflect.Struct, reflect.Map:
			msg, kind = "Input should be a valid dictionary", "model_attributes_type"
		}
		return []validationIssue{{Loc: loc, Msg: msg, Type: kind}}
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return []validationIssue{{Loc: []any{"body"}, Msg: "JSON decode error", Type: "json_invalid"}}
	default:
		return []validationIssue{{Loc: []any{"body"}, Msg: err.Error(), Type: "value_error"}}
	}
}

func fieldIssue(fe validator.FieldError) validationIssue {
	loc := []any{"body", fe.Field()}
	if fe.Tag() == "required" {
		return validationIssue{Loc: loc, Msg: "Field required", Type: "missing"}
	}
	return validationIssue{Loc: loc, Msg: fmt.Sprintf("failed %q validation", fe.Tag()), Type: fe.Tag()}
}

var registerTagNames sync.Once

// useJSONFieldNames makes validator report the json name of a field, which is
// what clients see in the request body.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return field.Name
			}
			return name
		})
	})
}
