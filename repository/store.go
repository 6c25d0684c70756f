package repository

import "context"

// Entity is a stored row with a stable string ID.
type Entity interface {
	EntityID() string
}

// Query selects rows for Find. It is hashed into the cache key, so two
// queries with the same fields share a cache entry.
type Query struct {
	// IDs restricts results to these IDs when non-empty.
	IDs []string `json:"ids,omitempty"`

	// Filter holds store-specific predicates.
	Filter map[string]any `json:"filter,omitempty"`

	// Sort is "asc" (default) or "desc".
	Sort string `json:"sort,omitempty"`

	// Page is 1-based. Zero means the first page.
	Page int `json:"page,omitempty"`

	// Limit caps the page size. Zero means no limit.
	Limit int `json:"limit,omitempty"`
}

// Store is the persistence boundary Cached sits in front of.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Errors: Get and Update return ErrNotFound for unknown IDs. Delete of an
//     unknown ID is not an error.
type Store[T Entity] interface {
	Get(ctx context.Context, id string) (T, error)
	Find(ctx context.Context, q Query) ([]T, error)
	Create(ctx context.Context, row T) (T, error)
	Update(ctx context.Context, id string, row T) (T, error)
	Delete(ctx context.Context, id string) error
}
