package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"todod/internal/usecase"

	"gorm.io/gorm"
)

// OpenSession begins a transaction, which checks one connection out of the
// pool until Commit or Close.
func (s *Store) OpenSession(ctx context.Context) (usecase.Session, error) {
	if s == nil || s.DB == nil {
		return nil, errDBUnavailable
	}
	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin: %w", tx.Error)
	}
	return &session{tx: tx}, nil
}

type session struct {
	tx   *gorm.DB
	done bool
}

func (s *session) Todos() usecase.TodoRepository {
	return NewTodoRepository(s.tx)
}

func (s *session) Commit() error {
	if s.done {
		return sql.ErrTxDone
	}
	s.done = true
	return s.tx.Commit().Error
}

func (s *session) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	err := s.tx.Rollback().Error
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

var _ usecase.SessionProvider = (*Store)(nil)
