package todos

import (
	"context"
	"sort"
	"sync"
)

// Store is the document store the service runs against. Implementations
// must treat Update as conditional on existence (ErrNotFound otherwise) and
// Delete as idempotent.
type Store interface {
	Put(ctx context.Context, t Todo) error
	// Get returns ok=false when no record has the id.
	Get(ctx context.Context, id string) (t Todo, ok bool, err error)
	Scan(ctx context.Context) ([]Todo, error)
	Update(ctx context.Context, id string, p Patch) (Todo, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

type MemoryStore struct {
	mu    sync.RWMutex
	store map[string]Todo
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		store: make(map[string]Todo),
	}
}

func (s *MemoryStore) Put(_ context.Context, t Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store[t.ID] = t.normalize()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Todo, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.store[id]
	return t, ok, nil
}

func (s *MemoryStore) Scan(_ context.Context) ([]Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Todo, 0, len(s.store))
	for _, t := range s.store {
		out = append(out, t)
	}
	sortTodos(out)
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, p Patch) (Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.store[id]
	if !ok {
		return Todo{}, ErrNotFound
	}
	p.apply(&t)
	s.store[id] = t
	return t, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.store, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// sortTodos orders by creation time, then id. UUIDv7 ids are time-ordered so
// the tie-break keeps insertion order.
func sortTodos(ts []Todo) {
	sort.Slice(ts, func(i, j int) bool {
		if !ts[i].CreatedAt.Equal(ts[j].CreatedAt) {
			return ts[i].CreatedAt.Before(ts[j].CreatedAt)
		}
		return ts[i].ID < ts[j].ID
	})
}
