package cache

import "time"

// counters are guarded by TagCache.mu.
type counters struct {
	hits      uint64
	misses    uint64
	sets      uint64
	clears    uint64
	evictions map[EvictReason]uint64
}

// Stats is a point-in-time snapshot of a TagCache.
type Stats struct {
	Name       string
	InstanceID string

	// Entries counts stored entries, including lapsed ones not yet swept.
	Entries int
	// Tags counts tags with at least one member.
	Tags int

	Hits   uint64
	Misses uint64
	Sets   uint64
	Clears uint64

	// Evictions counts keys evicted per reason.
	Evictions map[EvictReason]uint64

	// ReaperRunning is false when no reaper was configured or Close was called.
	ReaperRunning bool

	// NextExpiry is the soonest entry expiry. Zero when the cache is empty.
	NextExpiry time.Time
}

// HitRatio returns hits / (hits + misses), or 0 with no lookups.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// TotalEvictions sums evictions across all reasons.
func (s Stats) TotalEvictions() uint64 {
	var n uint64
	for _, v := range s.Evictions {
		n += v
	}
	return n
}

// Stats returns a snapshot of the cache counters.
func (c *TagCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	evictions := make(map[EvictReason]uint64, len(c.stats.evictions))
	for r, n := range c.stats.evictions {
		evictions[r] = n
	}
	next, _ := c.entries.nextExpiry()

	return Stats{
		Name:          c.name,
		InstanceID:    c.id,
		Entries:       c.entries.len(),
		Tags:          c.tags.len(),
		Hits:          c.stats.hits,
		Misses:        c.stats.misses,
		Sets:          c.stats.sets,
		Clears:        c.stats.clears,
		Evictions:     evictions,
		ReaperRunning: c.reaper != nil && c.reaper.running(),
		NextExpiry:    next,
	}
}
