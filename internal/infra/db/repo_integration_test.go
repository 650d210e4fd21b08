//go:build integration
// +build integration

package db

import (
	"context"
	"errors"
	"testing"

	"todod/internal/domain"
	"todod/internal/infra/db/testdb"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	pool, cleanup := testdb.NewDatabase(t)
	t.Cleanup(cleanup)
	store, err := NewStoreFromPool(pool, Options{})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return store
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	store := setupStore(t)
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("second ensure schema: %v", err)
	}
	migrator := store.DB.Migrator()
	if !migrator.HasTable("todo") {
		t.Fatalf("todo table missing")
	}
	if !migrator.HasIndex(&TodoModel{}, "ix_todo_content") {
		t.Fatalf("content index missing")
	}
}

func TestSessionCommitAndRollback(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	sess, err := store.OpenSession(ctx)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := sess.Todos().Create(ctx, domain.Todo{Content: "discarded"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	sess, _ = store.OpenSession(ctx)
	created, err := sess.Todos().Create(ctx, domain.Todo{Content: "buy milk"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := sess.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("close after commit: %v", err)
	}

	reader, _ := store.OpenSession(ctx)
	defer reader.Close()
	todos, err := reader.Todos().List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(todos) != 1 || todos[0] != created {
		t.Fatalf("expected only committed row, got %+v", todos)
	}
}

func TestTodoRepositoryCRUD(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	repo := NewTodoRepository(store.DB)

	first, err := repo.Create(ctx, domain.Todo{Content: "a"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := repo.Create(ctx, domain.Todo{Content: "a"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.ID == 0 || first.ID == second.ID {
		t.Fatalf("expected distinct ids, got %d and %d", first.ID, second.ID)
	}

	updated, err := repo.Update(ctx, domain.Todo{ID: first.ID, Content: "b"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Content != "b" {
		t.Fatalf("expected b, got %q", updated.Content)
	}
	if _, err := repo.Update(ctx, domain.Todo{ID: 9999, Content: "x"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := repo.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, first.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	if _, err := repo.Get(ctx, first.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTodoRepositoryExplicitIDConflict(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	repo := NewTodoRepository(store.DB)

	if _, err := repo.Create(ctx, domain.Todo{ID: 500, Content: "explicit"}); err != nil {
		t.Fatalf("create explicit id: %v", err)
	}
	if _, err := repo.Create(ctx, domain.Todo{ID: 500, Content: "again"}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}
