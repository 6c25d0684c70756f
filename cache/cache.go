package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key or tag.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilCache     = errors.New("cache: cache is nil")
	ErrInvalidKey   = errors.New("cache: key is invalid")
	ErrInvalidTag   = errors.New("cache: tag is invalid")
	ErrKeyTooLong   = errors.New("cache: key exceeds max length")
	ErrNilLoader    = errors.New("cache: loader func is nil")
	ErrTypeMismatch = errors.New("cache: cached value has unexpected type")
)

// Cache is a key/value cache with TTL expiry and tag-based cascading
// invalidation.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use. Every
//     operation is atomic with respect to every other operation.
//   - Context: in-process implementations do not block and ignore ctx.
//   - Errors: only Set may fail, and only on invalid input. Unknown keys
//     and tags resolve to a miss or a no-op.
//   - Cascade: Remove, TTL expiry and an overwriting Set invalidate every
//     tag the key carried. Invalidating a tag removes its member keys but
//     does not chase their other tags.
type Cache interface {
	// Get retrieves a cached value. Returns (nil, false) on miss or expiry.
	Get(ctx context.Context, key string) (any, bool)

	// Set stores value under key with the given tags. TTL<=0 selects the
	// policy default.
	Set(ctx context.Context, key string, value any, ttl time.Duration, tags ...string) error

	// Remove deletes key and invalidates every tag it was stored with.
	Remove(ctx context.Context, key string) error

	// InvalidateTag removes every key currently registered under tag.
	InvalidateTag(ctx context.Context, tag string) error

	// Clear drops all entries, tags and metadata without cascading.
	Clear(ctx context.Context) error
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	return validateName(key, ErrInvalidKey)
}

// ValidateTag checks if a tag is valid. Tags follow the key rules.
func ValidateTag(tag string) error {
	return validateName(tag, ErrInvalidTag)
}

func validateName(s string, invalid error) error {
	if s == "" || strings.TrimSpace(s) == "" {
		return invalid
	}
	if len(s) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject newlines or carriage returns
	if strings.ContainsAny(s, "\n\r") {
		return invalid
	}
	return nil
}

// GetAs retrieves key from c and asserts the value to T. A value of another
// type is reported as a miss.
func GetAs[T any](ctx context.Context, c Cache, key string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	v, ok := c.Get(ctx, key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
