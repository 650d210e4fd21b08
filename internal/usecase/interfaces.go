package usecase

import (
	"context"

	"todod/internal/domain"
)

type TodoRepository interface {
	Create(ctx context.Context, todo domain.Todo) (domain.Todo, error)
	List(ctx context.Context) ([]domain.Todo, error)
	Get(ctx context.Context, id int64) (domain.Todo, error)
	Update(ctx context.Context, todo domain.Todo) (domain.Todo, error)
	Delete(ctx context.Context, id int64) error
}

// Session is a unit of work bound to one pooled connection. Writes become
// visible to other sessions only after Commit. Close releases the connection
// and discards anything not committed; it is safe to call after Commit.
type Session interface {
	Todos() TodoRepository
	Commit() error
	Close() error
}

type SessionProvider interface {
	OpenSession(ctx context.Context) (Session, error)
}
