package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// LoadResult is what a LoadFunc produces on a miss.
type LoadResult struct {
	// Value is cached under the requested key.
	Value any

	// Tags are registered for Value. They should name the entities Value
	// was derived from, so a write to any of them invalidates it.
	Tags []string

	// NoCache returns Value to the caller without storing it.
	NoCache bool
}

// LoadFunc loads a value on a cache miss.
type LoadFunc func(ctx context.Context) (LoadResult, error)

// Guard wraps a load, for example with retries or a circuit breaker.
// resilience.Executor.Execute satisfies it.
type Guard func(ctx context.Context, op func(context.Context) error) error

// Loader implements read-through caching over a Cache. Concurrent misses
// for the same key share one load. Errors are NOT cached.
//
// A value loaded while one of its tags is being invalidated may still be
// stored afterwards; callers that cannot tolerate this should invalidate
// after their write commits, as the repository package does.
type Loader struct {
	cache Cache
	guard Guard
	group singleflight.Group
}

// NewLoader creates a Loader. guard may be nil.
func NewLoader(c Cache, guard Guard) *Loader {
	return &Loader{cache: c, guard: guard}
}

// Cache returns the underlying cache.
func (l *Loader) Cache() Cache {
	return l.cache
}

// GetOrLoad returns the cached value for key. On a miss it calls load,
// stores the result under ttl with its tags, and returns it. A caller whose
// ctx ends returns ctx.Err() at once; the load keeps running for the other
// callers and still fills the cache. Bound the load with the guard.
func (l *Loader) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load LoadFunc) (any, error) {
	if l == nil || l.cache == nil {
		return nil, ErrNilCache
	}
	if load == nil {
		return nil, ErrNilLoader
	}

	if v, ok := l.cache.Get(ctx, key); ok {
		return v, nil
	}

	// The shared load is detached from the first caller's cancellation so
	// the callers collapsed onto it are not failed by one that left.
	loadCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan(key, func() (any, error) {
		ctx := loadCtx
		// Another caller may have filled the key while we waited.
		if v, ok := l.cache.Get(ctx, key); ok {
			return v, nil
		}

		var res LoadResult
		op := func(ctx context.Context) error {
			var err error
			res, err = load(ctx)
			return err
		}

		var err error
		if l.guard != nil {
			err = l.guard(ctx, op)
		} else {
			err = op(ctx)
		}
		if err != nil {
			return nil, err
		}

		if !res.NoCache {
			if err := l.cache.Set(ctx, key, res.Value, ttl, res.Tags...); err != nil {
				return nil, err
			}
		}
		return res.Value, nil
	})

	select {
	case r := <-ch:
		return r.Val, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Load is the typed form of GetOrLoad. A cached value of another type
// yields ErrTypeMismatch. fn reports whether its result may be cached.
func Load[T any](ctx context.Context, l *Loader, key string, ttl time.Duration, fn func(context.Context) (T, []string, bool, error)) (T, error) {
	var zero T
	if l == nil || l.cache == nil {
		return zero, ErrNilCache
	}
	if fn == nil {
		return zero, ErrNilLoader
	}
	if v, ok := GetAs[T](ctx, l.cache, key); ok {
		return v, nil
	}

	v, err := l.GetOrLoad(ctx, key, ttl, func(ctx context.Context) (LoadResult, error) {
		value, tags, cacheable, err := fn(ctx)
		if err != nil {
			return LoadResult{}, err
		}
		return LoadResult{Value: value, Tags: tags, NoCache: !cacheable}, nil
	})
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, ErrTypeMismatch
	}
	return typed, nil
}
