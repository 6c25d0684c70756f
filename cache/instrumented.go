package cache

import (
	"context"
	"time"

	"github.com/jonwraymond/tagcache/observe"
)

// Instrumented wraps a Cache with tracing, metrics and logging for every
// operation. Get reports a hit or miss; writes report errors only.
type Instrumented struct {
	cache Cache
	name  string
	mw    *observe.Middleware
}

// NewInstrumented wraps c. name labels every span, metric and log entry.
// A nil middleware records nothing.
func NewInstrumented(c Cache, name string, mw *observe.Middleware) (*Instrumented, error) {
	if c == nil {
		return nil, ErrNilCache
	}
	if mw == nil {
		mw = observe.NewMiddleware(nil, nil, nil)
	}
	return &Instrumented{cache: c, name: name, mw: mw}, nil
}

// Unwrap returns the wrapped cache.
func (i *Instrumented) Unwrap() Cache {
	return i.cache
}

func (i *Instrumented) Get(ctx context.Context, key string) (any, bool) {
	var (
		value any
		ok    bool
	)
	_, _ = i.mw.Wrap(func(ctx context.Context, _ observe.OpMeta) (observe.Outcome, error) {
		value, ok = i.cache.Get(ctx, key)
		if !ok {
			return observe.OutcomeMiss, nil
		}
		return observe.OutcomeHit, nil
	})(ctx, observe.OpMeta{Cache: i.name, Op: observe.OpGet, Key: key})
	return value, ok
}

func (i *Instrumented) Set(ctx context.Context, key string, value any, ttl time.Duration, tags ...string) error {
	_, err := i.mw.Wrap(func(ctx context.Context, _ observe.OpMeta) (observe.Outcome, error) {
		return observe.OutcomeNone, i.cache.Set(ctx, key, value, ttl, tags...)
	})(ctx, observe.OpMeta{Cache: i.name, Op: observe.OpSet, Key: key, Tags: tags})
	return err
}

func (i *Instrumented) Remove(ctx context.Context, key string) error {
	_, err := i.mw.Wrap(func(ctx context.Context, _ observe.OpMeta) (observe.Outcome, error) {
		return observe.OutcomeNone, i.cache.Remove(ctx, key)
	})(ctx, observe.OpMeta{Cache: i.name, Op: observe.OpRemove, Key: key})
	return err
}

func (i *Instrumented) InvalidateTag(ctx context.Context, tag string) error {
	_, err := i.mw.Wrap(func(ctx context.Context, _ observe.OpMeta) (observe.Outcome, error) {
		return observe.OutcomeNone, i.cache.InvalidateTag(ctx, tag)
	})(ctx, observe.OpMeta{Cache: i.name, Op: observe.OpInvalidateTag, Tag: tag})
	return err
}

func (i *Instrumented) Clear(ctx context.Context) error {
	_, err := i.mw.Wrap(func(ctx context.Context, _ observe.OpMeta) (observe.Outcome, error) {
		return observe.OutcomeNone, i.cache.Clear(ctx)
	})(ctx, observe.OpMeta{Cache: i.name, Op: observe.OpClear})
	return err
}

// EvictionMetrics returns a listener that counts evictions per reason under
// cacheName. Pass it to WithEvictionListener.
func EvictionMetrics(m observe.Metrics, cacheName string) EvictionListener {
	if m == nil {
		m = observe.NewNoopMetrics()
	}
	return func(ev Eviction) {
		m.RecordEviction(context.Background(), cacheName, ev.Reason.String(), 1)
	}
}

// Ensure Instrumented implements Cache
var _ Cache = (*Instrumented)(nil)
