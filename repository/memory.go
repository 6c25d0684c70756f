package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// MatchFunc reports whether row satisfies the store-specific part of q.
type MatchFunc[T Entity] func(row T, q Query) bool

// MemoryStore is an in-memory Store. Rows are ordered by ID.
type MemoryStore[T Entity] struct {
	mu    sync.RWMutex
	rows  map[string]T
	match MatchFunc[T]
}

// NewMemoryStore creates an empty store. match may be nil, in which case
// Query.Filter is ignored.
func NewMemoryStore[T Entity](match MatchFunc[T]) *MemoryStore[T] {
	return &MemoryStore[T]{
		rows:  make(map[string]T),
		match: match,
	}
}

func (s *MemoryStore[T]) Get(_ context.Context, id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return row, nil
}

func (s *MemoryStore[T]) Find(_ context.Context, q Query) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []T
	for id, row := range s.rows {
		if len(q.IDs) > 0 && !slices.Contains(q.IDs, id) {
			continue
		}
		if s.match != nil && !s.match(row, q) {
			continue
		}
		out = append(out, row)
	}

	slices.SortFunc(out, func(a, b T) int {
		return cmp.Compare(a.EntityID(), b.EntityID())
	})
	if q.Sort == "desc" {
		slices.Reverse(out)
	}

	if q.Limit > 0 {
		page := max(q.Page, 1)
		start := (page - 1) * q.Limit
		if start >= len(out) {
			return nil, nil
		}
		end := min(start+q.Limit, len(out))
		out = out[start:end]
	}
	return out, nil
}

func (s *MemoryStore[T]) Create(_ context.Context, row T) (T, error) {
	var zero T
	id := row.EntityID()
	if id == "" {
		return zero, ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; ok {
		return zero, ErrConflict
	}
	s.rows[id] = row
	return row, nil
}

func (s *MemoryStore[T]) Update(_ context.Context, id string, row T) (T, error) {
	var zero T
	if id == "" || row.EntityID() != id {
		return zero, ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return zero, ErrNotFound
	}
	s.rows[id] = row
	return row, nil
}

func (s *MemoryStore[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

// Len returns the number of stored rows.
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// Ensure MemoryStore implements Store
var _ Store[Entity] = (*MemoryStore[Entity])(nil)
