package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/tagcache/cache"
	"github.com/jonwraymond/tagcache/observe"
)

// Option configures a Cached repository.
type Option func(*options)

type options struct {
	ttl    time.Duration
	guard  cache.Guard
	keyer  cache.Keyer
	logger observe.Logger
}

// WithTTL sets the TTL for cached rows and lists. Default: the cache
// policy's default TTL.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithGuard runs every store call through guard.
func WithGuard(guard cache.Guard) Option {
	return func(o *options) {
		o.guard = guard
	}
}

// WithKeyer replaces the query keyer. Default: cache.NewQueryKeyer().
func WithKeyer(k cache.Keyer) Option {
	return func(o *options) {
		if k != nil {
			o.keyer = k
		}
	}
}

// WithLogger sets the logger used for write-back failures.
func WithLogger(l observe.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Cached is a read-through, write-through cache in front of a Store.
type Cached[T Entity] struct {
	store     Store[T]
	cache     cache.Cache
	loader    *cache.Loader
	namespace string
	opts      options
}

// NewCached wraps store with c. namespace prefixes every key, for example
// "database:example".
func NewCached[T Entity](store Store[T], c cache.Cache, namespace string, opts ...Option) (*Cached[T], error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if c == nil {
		return nil, ErrNilCache
	}
	if namespace == "" {
		return nil, ErrInvalidNamespace
	}

	o := options{
		keyer:  cache.NewQueryKeyer(),
		logger: observe.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.With(observe.Field{Key: "repository.namespace", Value: namespace})

	return &Cached[T]{
		store:     store,
		cache:     c,
		loader:    cache.NewLoader(c, nil),
		namespace: namespace,
		opts:      o,
	}, nil
}

// RowKey returns the cache key and tag for the row with id.
func (r *Cached[T]) RowKey(id string) string {
	return cache.RowKey(r.namespace, id)
}

// FindKey returns the cache key for q.
func (r *Cached[T]) FindKey(q Query) (string, error) {
	return r.opts.keyer.Key(cache.FindNamespace(r.namespace), q)
}

// Get returns the row with id, from the cache when present. Missing rows
// are reported as ErrNotFound and not cached.
func (r *Cached[T]) Get(ctx context.Context, id string) (T, error) {
	key := r.RowKey(id)
	return cache.Load(ctx, r.loader, key, r.opts.ttl, func(ctx context.Context) (T, []string, bool, error) {
		var row T
		err := r.guarded(ctx, func(ctx context.Context) error {
			var err error
			row, err = r.store.Get(ctx, id)
			return err
		})
		if err != nil {
			return row, nil, false, err
		}
		return row, []string{key}, true, nil
	})
}

// Find returns the rows matching q. Non-empty results are cached and
// tagged with the row key of every returned row.
func (r *Cached[T]) Find(ctx context.Context, q Query) ([]T, error) {
	key, err := r.FindKey(q)
	if err != nil {
		return nil, fmt.Errorf("repository: find key: %w", err)
	}
	return cache.Load(ctx, r.loader, key, r.opts.ttl, func(ctx context.Context) ([]T, []string, bool, error) {
		var rows []T
		err := r.guarded(ctx, func(ctx context.Context) error {
			var err error
			rows, err = r.store.Find(ctx, q)
			return err
		})
		if err != nil {
			return nil, nil, false, err
		}
		tags := make([]string, len(rows))
		for i, row := range rows {
			tags[i] = r.RowKey(row.EntityID())
		}
		return rows, tags, len(rows) > 0, nil
	})
}

// Create stores row and caches it under its row key.
func (r *Cached[T]) Create(ctx context.Context, row T) (T, error) {
	var created T
	err := r.guarded(ctx, func(ctx context.Context) error {
		var err error
		created, err = r.store.Create(ctx, row)
		return err
	})
	if err != nil {
		return created, err
	}
	r.writeBack(ctx, created)
	return created, nil
}

// Update replaces the row with id and caches the result. If the row was
// cached, the overwrite purges every cached list that contained it.
func (r *Cached[T]) Update(ctx context.Context, id string, row T) (T, error) {
	var updated T
	err := r.guarded(ctx, func(ctx context.Context) error {
		var err error
		updated, err = r.store.Update(ctx, id, row)
		return err
	})
	if err != nil {
		return updated, err
	}
	r.writeBack(ctx, updated)
	return updated, nil
}

// Delete removes the row with id from the store, then drops its cached
// value and every cached list that contained it.
func (r *Cached[T]) Delete(ctx context.Context, id string) error {
	err := r.guarded(ctx, func(ctx context.Context) error {
		return r.store.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	return r.cache.InvalidateTag(ctx, r.RowKey(id))
}

// Invalidate drops the cached row with id and every list containing it
// without touching the store.
func (r *Cached[T]) Invalidate(ctx context.Context, id string) error {
	return r.cache.InvalidateTag(ctx, r.RowKey(id))
}

// writeBack caches row under its own key and tag. The tag is invalidated
// first: a list may carry it while the row itself was never cached, and
// then the overwrite alone would not reach the list. The store write has
// already committed, so cache failures are logged rather than returned.
func (r *Cached[T]) writeBack(ctx context.Context, row T) {
	key := r.RowKey(row.EntityID())
	if err := r.cache.InvalidateTag(ctx, key); err != nil {
		r.opts.logger.Warn(ctx, "row tag not invalidated",
			observe.Field{Key: "cache.tag", Value: key},
			observe.Field{Key: "error", Value: err.Error()},
		)
	}
	if err := r.cache.Set(ctx, key, row, r.opts.ttl, key); err != nil {
		r.opts.logger.Warn(ctx, "row not cached",
			observe.Field{Key: "cache.key", Value: key},
			observe.Field{Key: "error", Value: err.Error()},
		)
	}
}

// guarded runs op through the configured guard. Store answers such as
// ErrNotFound are results, not failures, so they pass through the guard
// without triggering retries or breaker accounting.
func (r *Cached[T]) guarded(ctx context.Context, op func(context.Context) error) error {
	if r.opts.guard == nil {
		return op(ctx)
	}
	var answer error
	err := r.opts.guard(ctx, func(ctx context.Context) error {
		err := op(ctx)
		if isAnswer(err) {
			answer = err
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	return answer
}

func isAnswer(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrInvalidID)
}
