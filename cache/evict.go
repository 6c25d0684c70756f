package cache

// EvictReason describes why an entry left the cache.
type EvictReason int

const (
	// EvictRemoved means the key was removed directly with Remove.
	EvictRemoved EvictReason = iota
	// EvictExpired means the key's own TTL lapsed.
	EvictExpired
	// EvictCascade means the key shared a tag with a key that was removed,
	// expired or overwritten.
	EvictCascade
	// EvictInvalidated means the key was under a tag passed to InvalidateTag.
	EvictInvalidated
	// EvictOverwritten means the key's previous value was replaced by Set.
	EvictOverwritten
)

// String returns the string representation of the reason.
func (r EvictReason) String() string {
	switch r {
	case EvictRemoved:
		return "removed"
	case EvictExpired:
		return "expired"
	case EvictCascade:
		return "cascade"
	case EvictInvalidated:
		return "invalidated"
	case EvictOverwritten:
		return "overwritten"
	default:
		return "unknown"
	}
}

// Eviction records a single key leaving the cache.
type Eviction struct {
	Key    string
	Reason EvictReason
}

// EvictionListener is notified after an operation completes, once per
// evicted key. Listeners run outside the cache lock and may call back into
// the cache.
type EvictionListener func(ev Eviction)

// batch collects evictions made while the lock is held so they can be
// dispatched after it is released.
type batch struct {
	evictions []Eviction
}

func (b *batch) add(key string, reason EvictReason) {
	b.evictions = append(b.evictions, Eviction{Key: key, Reason: reason})
}

func (b *batch) count(reason EvictReason) int {
	n := 0
	for _, ev := range b.evictions {
		if ev.Reason == reason {
			n++
		}
	}
	return n
}
