package db

import "todod/internal/domain"

type TodoModel struct {
	ID      int64  `gorm:"primaryKey;autoIncrement"`
	Content string `gorm:"type:varchar;not null;index:ix_todo_content"`
}

func (TodoModel) TableName() string {
	return "todo"
}

func (m TodoModel) toDomain() domain.Todo {
	return domain.Todo{ID: m.ID, Content: m.Content}
}

func todoModelFrom(t domain.Todo) TodoModel {
	return TodoModel{ID: t.ID, Content: t.Content}
}
