// Package testutil provides in-memory repository implementations and fakes
// used by service and handler tests.
package testutil

import (
	"context"
	"sync"

	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
)

// InMemoryStore is a generic thread-safe keyed store the typed stores build
// on.
type InMemoryStore[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

func NewInMemoryStore[T any]() *InMemoryStore[T] {
	return &InMemoryStore[T]{items: make(map[string]T)}
}

func (s *InMemoryStore[T]) Create(ctx context.Context, key string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[key]; ok {
		// A plain INSERT hitting a unique constraint aborts the surrounding
		// Postgres transaction, so a swallowed duplicate must still surface
		// at commit.
		MarkTxAborted(ctx)
		return ierr.NewError("item already exists").
			WithReportableDetails(map[string]interface{}{"key": key}).
			Mark(ierr.ErrAlreadyExists)
	}
	s.items[key] = item
	return nil
}

func (s *InMemoryStore[T]) Get(ctx context.Context, key string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[key]
	if !ok {
		var zero T
		return zero, ierr.NewError("item not found").
			WithReportableDetails(map[string]interface{}{"key": key}).
			Mark(ierr.ErrNotFound)
	}
	return item, nil
}

func (s *InMemoryStore[T]) Set(ctx context.Context, key string, item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = item
}

func (s *InMemoryStore[T]) Delete(ctx context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

// All returns a snapshot of the stored items.
func (s *InMemoryStore[T]) All(ctx context.Context) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]T, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	return items
}

// Count returns the number of stored items.
func (s *InMemoryStore[T]) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Clear removes every item.
func (s *InMemoryStore[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]T)
}
