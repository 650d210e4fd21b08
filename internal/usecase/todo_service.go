package usecase

import (
	"context"
	"errors"
	"fmt"

	"todod/internal/domain"
)

type TodoService struct {
	Sessions SessionProvider
}

func NewTodoService(sessions SessionProvider) *TodoService {
	return &TodoService{Sessions: sessions}
}

// OpenSession wraps provider failures in domain.ErrUnavailable so callers can
// tell a connectivity problem apart from a failed statement.
func (s *TodoService) OpenSession(ctx context.Context) (Session, error) {
	if s == nil || s.Sessions == nil {
		return nil, errors.New("session provider is required")
	}
	sess, err := s.Sessions.OpenSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: open session: %v", domain.ErrUnavailable, err)
	}
	return sess, nil
}

func (s *TodoService) Create(ctx context.Context, sess Session, todo domain.Todo) (domain.Todo, error) {
	created, err := sess.Todos().Create(ctx, todo)
	if err != nil {
		return domain.Todo{}, err
	}
	if err := sess.Commit(); err != nil {
		return domain.Todo{}, fmt.Errorf("commit create: %w", err)
	}
	return created, nil
}

func (s *TodoService) List(ctx context.Context, sess Session) ([]domain.Todo, error) {
	todos, err := sess.Todos().List(ctx)
	if err != nil {
		return nil, err
	}
	if todos == nil {
		todos = []domain.Todo{}
	}
	return todos, nil
}

func (s *TodoService) Update(ctx context.Context, sess Session, id int64, patch domain.TodoPatch) (domain.Todo, error) {
	repo := sess.Todos()
	current, err := repo.Get(ctx, id)
	if err != nil {
		return domain.Todo{}, err
	}
	if patch.IsEmpty() {
		return current, nil
	}
	updated, err := repo.Update(ctx, current.Apply(patch))
	if err != nil {
		return domain.Todo{}, err
	}
	if err := sess.Commit(); err != nil {
		return domain.Todo{}, fmt.Errorf("commit update: %w", err)
	}
	return updated, nil
}

// Delete removes the row and returns its last known values.
func (s *TodoService) Delete(ctx context.Context, sess Session, id int64) (domain.Todo, error) {
	repo := sess.Todos()
	current, err := repo.Get(ctx, id)
	if err != nil {
		return domain.Todo{}, err
	}
	if err := repo.Delete(ctx, id); err != nil {
		return domain.Todo{}, err
	}
	if err := sess.Commit(); err != nil {
		return domain.Todo{}, fmt.Errorf("commit delete: %w", err)
	}
	return current, nil
}
