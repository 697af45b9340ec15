package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store. A batch is staged against copies of the
// documents it touches and swapped in only after every write has applied.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document

	failAt  int
	failErr error
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]Document), failAt: -1}
}

// FailNextCommitAt makes the next Commit fail with err while staging the write at index i.
func (s *MemoryStore) FailNextCommitAt(i int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAt = i
	s.failErr = err
}

// Count returns the number of documents held in collection.
func (s *MemoryStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return cloneDocument(doc), nil
}

func (s *MemoryStore) Query(ctx context.Context, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	var out []Document
	for _, doc := range s.collections[q.Collection] {
		if matches(doc, q.Filters) {
			out = append(out, cloneDocument(doc))
		}
	}
	s.mu.RUnlock()

	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			a, b := lookup(out[i], q.OrderBy), lookup(out[j], q.OrderBy)
			if q.Descending {
				return lessValue(b, a)
			}
			return lessValue(a, b)
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *MemoryStore) Commit(ctx context.Context, b *Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	failAt, failErr := s.failAt, s.failErr
	s.failAt, s.failErr = -1, nil

	type key struct{ collection, id string }
	staged := make(map[key]Document)
	deleted := make(map[key]bool)

	current := func(k key) (Document, bool) {
		if deleted[k] {
			return nil, false
		}
		if doc, ok := staged[k]; ok {
			return doc, true
		}
		doc, ok := s.collections[k.collection][k.id]
		return doc, ok
	}

	for i, w := range b.Writes() {
		if i == failAt {
			return fmt.Errorf("write %d (%s %s/%s): %w", i, w.Kind, w.Collection, w.ID, failErr)
		}
		k := key{w.Collection, w.ID}
		doc, exists := current(k)
		switch w.Kind {
		case WriteCreate:
			if exists {
				return fmt.Errorf("%s/%s: %w", w.Collection, w.ID, ErrAlreadyExists)
			}
			staged[k] = cloneDocument(normalizeDocument(w.Data))
			delete(deleted, k)
		case WriteSet:
			staged[k] = cloneDocument(normalizeDocument(w.Data))
			delete(deleted, k)
		case WriteUpdate:
			if !exists {
				return fmt.Errorf("%s/%s: %w", w.Collection, w.ID, ErrNotFound)
			}
			next, err := applyUpdate(doc, w.Fields, w.Conditions)
			if err != nil {
				return fmt.Errorf("%s/%s: %w", w.Collection, w.ID, err)
			}
			staged[k] = next
		case WriteDelete:
			delete(staged, k)
			deleted[k] = true
		case WriteDeleteExisting:
			if !exists {
				return fmt.Errorf("%s/%s: %w", w.Collection, w.ID, ErrNotFound)
			}
			for _, c := range w.Conditions {
				if err := c.check(doc); err != nil {
					return fmt.Errorf("%s/%s: %w", w.Collection, w.ID, err)
				}
			}
			delete(staged, k)
			deleted[k] = true
		default:
			return fmt.Errorf("unsupported write kind %d", w.Kind)
		}
	}

	for k := range deleted {
		delete(s.collections[k.collection], k.id)
	}
	for k, doc := range staged {
		coll, ok := s.collections[k.collection]
		if !ok {
			coll = make(map[string]Document)
			s.collections[k.collection] = coll
		}
		coll[k.id] = doc
	}
	return nil
}

func normalizeDocument(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = normalize(v)
	}
	return out
}

func matches(doc Document, filters []Filter) bool {
	for _, f := range filters {
		v := lookup(doc, f.Field)
		switch f.Op {
		case OpEqual:
			if !valuesEqual(v, f.Value) {
				return false
			}
		case OpArrayContains:
			arr, err := toStrings(v)
			if err != nil {
				return false
			}
			want, _ := f.Value.(string)
			found := false
			for _, item := range arr {
				if item == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case OpIn:
			values, err := toStrings(normalize(f.Value))
			if err != nil {
				return false
			}
			found := false
			for _, item := range values {
				if valuesEqual(v, item) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func lessValue(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa < fb
		}
	}
	sa, _ := a.(string)
	sb, _ := b.(string)
	return sa < sb
}
