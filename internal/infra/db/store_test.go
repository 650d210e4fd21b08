package db

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"todod/internal/config"
	"todod/internal/domain"
	"todod/internal/logging"

	"gorm.io/gorm"
)

type failingCloser struct{}

func (failingCloser) Close() error { return errors.New("conn busy") }

func TestNewStoreRequiresDatabaseURL(t *testing.T) {
	_, err := NewStore(context.Background(), config.Config{}, Options{})
	if err == nil {
		t.Fatalf("expected error for missing DATABASE_URL")
	}
}

func TestNewStoreRejectsUnsupportedScheme(t *testing.T) {
	_, err := NewStore(context.Background(), config.Config{DatabaseURL: "mysql://u:p@localhost/db"}, Options{})
	if err == nil {
		t.Fatalf("expected error for mysql url")
	}
}

func TestNewStoreFromPoolRequiresPool(t *testing.T) {
	if _, err := NewStoreFromPool(nil, Options{}); err == nil {
		t.Fatalf("expected error for nil pool")
	}
}

func TestNilStoreIsSafe(t *testing.T) {
	var s *Store
	s.Close()
	if err := s.EnsureSchema(context.Background()); !errors.Is(err, errDBUnavailable) {
		t.Fatalf("expected errDBUnavailable, got %v", err)
	}
	if _, err := s.OpenSession(context.Background()); !errors.Is(err, errDBUnavailable) {
		t.Fatalf("expected errDBUnavailable, got %v", err)
	}
}

func TestTranslate(t *testing.T) {
	if err := translate("get", gorm.ErrRecordNotFound); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := translate("create", gorm.ErrDuplicatedKey); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	boom := errors.New("boom")
	if err := translate("list", boom); !errors.Is(err, boom) || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
}

func TestTodoModelTableName(t *testing.T) {
	if got := (TodoModel{}).TableName(); got != "todo" {
		t.Fatalf("expected table todo, got %q", got)
	}
	m := todoModelFrom(domain.Todo{ID: 4, Content: "x"})
	if m.toDomain() != (domain.Todo{ID: 4, Content: "x"}) {
		t.Fatalf("model round trip mismatch")
	}
}

func TestCloseLogsThroughStoreLogger(t *testing.T) {
	var buf bytes.Buffer
	s := &Store{sql: failingCloser{}, logger: logging.NewWithWriter(&buf, "info", "json")}
	s.Close()
	out := buf.String()
	if !strings.Contains(out, "close sql handle") || !strings.Contains(out, "conn busy") {
		t.Fatalf("expected close failure in store logger output, got %q", out)
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("expected configured json format, got %q", out)
	}
}
