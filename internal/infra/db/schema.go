package db

import (
	"context"
	"errors"
	"fmt"
)

var errDBUnavailable = errors.New("db unavailable")

// EnsureSchema creates the todo table and its content index when they do not
// exist yet. Existing tables are left as they are.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errDBUnavailable
	}
	migrator := s.DB.WithContext(ctx).Migrator()
	if !migrator.HasTable(&TodoModel{}) {
		if err := migrator.CreateTable(&TodoModel{}); err != nil {
			return fmt.Errorf("create todo table: %w", err)
		}
	}
	if !migrator.HasIndex(&TodoModel{}, "ix_todo_content") {
		if err := migrator.CreateIndex(&TodoModel{}, "ix_todo_content"); err != nil {
			return fmt.Errorf("create todo content index: %w", err)
		}
	}
	return nil
}
