package cache

import (
	"time"

	"github.com/jonwraymond/tagcache/observe"
)

// Option configures a TagCache.
type Option func(*TagCache)

// WithPolicy sets the expiry policy. Default: DefaultPolicy().
func WithPolicy(p Policy) Option {
	return func(c *TagCache) {
		c.policy = p
	}
}

// WithClock replaces time.Now. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *TagCache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger used for reaper and invalidation events.
func WithLogger(l observe.Logger) Option {
	return func(c *TagCache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithEvictionListener adds a listener notified of every eviction.
func WithEvictionListener(fn EvictionListener) Option {
	return func(c *TagCache) {
		if fn != nil {
			c.listeners = append(c.listeners, fn)
		}
	}
}

// WithName sets the cache name used in logs, stats and telemetry.
func WithName(name string) Option {
	return func(c *TagCache) {
		if name != "" {
			c.name = name
		}
	}
}
