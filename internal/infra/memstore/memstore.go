// Package memstore is an in-memory usecase.SessionProvider. Sessions stage
// their writes and apply them on Commit, mirroring the transactional store.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"todod/internal/domain"
	"todod/internal/usecase"
)

var errSessionClosed = errors.New("session closed")

type Store struct {
	mu     sync.RWMutex
	rows   map[int64]string
	nextID int64
	open   int

	// OpenErr, when set, is returned by every OpenSession call.
	OpenErr error
}

func New() *Store {
	return &Store{
		rows:   make(map[int64]string),
		nextID: 1,
	}
}

func (s *Store) OpenSession(ctx context.Context) (usecase.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.OpenErr != nil {
		return nil, s.OpenErr
	}
	s.open++
	return &session{store: s}, nil
}

// OpenSessions reports how many sessions have been opened and not closed.
func (s *Store) OpenSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.open
}

// Snapshot returns the committed rows ordered by id.
func (s *Store) Snapshot() []domain.Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedTodos(s.rows)
}

func (s *Store) allocateID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	return id
}

type opKind int

const (
	opPut opKind = iota
	opDelete
)

type op struct {
	kind opKind
	todo domain.Todo
}

type session struct {
	store     *Store
	staged    []op
	committed bool
	closed    bool
}

func (s *session) Todos() usecase.TodoRepository {
	return &repo{sess: s}
}

func (s *session) Commit() error {
	if s.closed {
		return errSessionClosed
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	for _, o := range s.staged {
		switch o.kind {
		case opPut:
			s.store.rows[o.todo.ID] = o.todo.Content
		case opDelete:
			delete(s.store.rows, o.todo.ID)
		}
	}
	s.staged = nil
	s.committed = true
	return nil
}

func (s *session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.staged = nil
	s.store.mu.Lock()
	s.store.open--
	s.store.mu.Unlock()
	return nil
}

// view is the committed table with this session's staged writes replayed on top.
func (s *session) view() map[int64]string {
	s.store.mu.RLock()
	rows := make(map[int64]string, len(s.store.rows))
	for id, content := range s.store.rows {
		rows[id] = content
	}
	s.store.mu.RUnlock()
	for _, o := range s.staged {
		switch o.kind {
		case opPut:
			rows[o.todo.ID] = o.todo.Content
		case opDelete:
			delete(rows, o.todo.ID)
		}
	}
	return rows
}

type repo struct {
	sess *session
}

func (r *repo) Create(ctx context.Context, todo domain.Todo) (domain.Todo, error) {
	if r.sess.closed {
		return domain.Todo{}, errSessionClosed
	}
	if todo.ID == 0 {
		todo.ID = r.sess.store.allocateID()
	}
	if _, exists := r.sess.view()[todo.ID]; exists {
		return domain.Todo{}, fmt.Errorf("create todo %d: %w", todo.ID, domain.ErrConflict)
	}
	r.sess.staged = append(r.sess.staged, op{kind: opPut, todo: todo})
	return todo, nil
}

func (r *repo) List(ctx context.Context) ([]domain.Todo, error) {
	if r.sess.closed {
		return nil, errSessionClosed
	}
	return sortedTodos(r.sess.view()), nil
}

func (r *repo) Get(ctx context.Context, id int64) (domain.Todo, error) {
	if r.sess.closed {
		return domain.Todo{}, errSessionClosed
	}
	content, ok := r.sess.view()[id]
	if !ok {
		return domain.Todo{}, domain.ErrNotFound
	}
	return domain.Todo{ID: id, Content: content}, nil
}

func (r *repo) Update(ctx context.Context, todo domain.Todo) (domain.Todo, error) {
	if _, err := r.Get(ctx, todo.ID); err != nil {
		return domain.Todo{}, err
	}
	r.sess.staged = append(r.sess.staged, op{kind: opPut, todo: todo})
	return todo, nil
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	r.sess.staged = append(r.sess.staged, op{kind: opDelete, todo: domain.Todo{ID: id}})
	return nil
}

func sortedTodos(rows map[int64]string) []domain.Todo {
	out := make([]domain.Todo, 0, len(rows))
	for id, content := range rows {
		out = append(out, domain.Todo{ID: id, Content: content})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var _ usecase.SessionProvider = (*Store)(nil)
