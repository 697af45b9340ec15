package mocks

import (
	"context"
	"sync"

	"group-service/internal/store"
)

// InterleavingStore wraps a MemoryStore and runs Before once, just ahead of
// the first commit whose batch deletes an existing record in Collection.
// Before should write through the inner store so it does not re-enter.
type InterleavingStore struct {
	*store.MemoryStore
	Collection string
	Before     func()

	once  sync.Once
	fired bool
}

func (s *InterleavingStore) Commit(ctx context.Context, b *store.Batch) error {
	if s.matches(b) {
		s.once.Do(func() {
			s.fired = true
			s.Before()
		})
	}
	return s.MemoryStore.Commit(ctx, b)
}

// Fired reports whether Before has run.
func (s *InterleavingStore) Fired() bool {
	return s.fired
}

func (s *InterleavingStore) matches(b *store.Batch) bool {
	for _, w := range b.Writes() {
		if w.Kind == store.WriteDeleteExisting && w.Collection == s.Collection {
			return true
		}
	}
	return false
}
