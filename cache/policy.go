package cache

import (
	"errors"
	"time"
)

// Policy configures expiry behavior.
type Policy struct {
	// DefaultTTL is the TTL to use when Set is called with ttl<=0.
	// Must be positive.
	DefaultTTL time.Duration

	// MaxTTL is the maximum allowed TTL. Explicit TTLs are clamped to this.
	// If zero, no maximum is enforced.
	MaxTTL time.Duration

	// SweepInterval is how often the reaper expires lapsed entries.
	// If zero, no reaper runs and expiry happens lazily on the next operation.
	SweepInterval time.Duration
}

// Policy validation errors.
var (
	ErrInvalidDefaultTTL = errors.New("cache: default TTL must be positive")
	ErrInvalidMaxTTL     = errors.New("cache: max TTL must not be below default TTL")
	ErrInvalidSweep      = errors.New("cache: sweep interval must not be negative")
)

// DefaultPolicy returns the default policy.
// DefaultTTL: 60 seconds, MaxTTL: none, SweepInterval: 1 second
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL:    60 * time.Second,
		MaxTTL:        0,
		SweepInterval: time.Second,
	}
}

// Validate checks the policy for consistency.
func (p Policy) Validate() error {
	if p.DefaultTTL <= 0 {
		return ErrInvalidDefaultTTL
	}
	if p.MaxTTL > 0 && p.MaxTTL < p.DefaultTTL {
		return ErrInvalidMaxTTL
	}
	if p.SweepInterval < 0 {
		return ErrInvalidSweep
	}
	return nil
}

// EffectiveTTL returns the TTL to use, applying defaults and clamping.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	// Use default if no override (or negative override)
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}

	// Clamp to MaxTTL if set
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}

	return ttl
}
