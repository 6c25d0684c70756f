package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/tagcache/cache"
)

// StatsSource is the part of a cache a CacheChecker reads.
// *cache.TagCache satisfies it.
type StatsSource interface {
	Stats() cache.Stats
}

// CacheCheckerConfig configures a CacheChecker.
type CacheCheckerConfig struct {
	// Name overrides the checker name. Default "cache".
	Name string

	// MaxEntries degrades the check once the stored entry count exceeds
	// it. Zero disables the ceiling.
	MaxEntries int

	// ExpectReaper degrades the check when the background reaper is not
	// running. Without it, lapsed entries linger until the next operation.
	ExpectReaper bool
}

// CacheChecker reports the state of a tag cache.
type CacheChecker struct {
	src StatsSource
	cfg CacheCheckerConfig
}

// NewCacheChecker creates a checker over src.
func NewCacheChecker(src StatsSource, cfg CacheCheckerConfig) (*CacheChecker, error) {
	if src == nil {
		return nil, ErrNilCache
	}
	if cfg.Name == "" {
		cfg.Name = "cache"
	}
	return &CacheChecker{src: src, cfg: cfg}, nil
}

func (c *CacheChecker) Name() string {
	return c.cfg.Name
}

func (c *CacheChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context done", err)
	}

	s := c.src.Stats()
	details := map[string]any{
		"name":           s.Name,
		"instance_id":    s.InstanceID,
		"entries":        s.Entries,
		"tags":           s.Tags,
		"hits":           s.Hits,
		"misses":         s.Misses,
		"hit_ratio":      s.HitRatio(),
		"sets":           s.Sets,
		"evictions":      evictionDetails(s.Evictions),
		"reaper_running": s.ReaperRunning,
	}
	if !s.NextExpiry.IsZero() {
		details["next_expiry"] = s.NextExpiry.UTC().Format(time.RFC3339Nano)
	}

	if c.cfg.ExpectReaper && !s.ReaperRunning {
		return Degraded("reaper not running").WithDetails(details)
	}
	if c.cfg.MaxEntries > 0 && s.Entries > c.cfg.MaxEntries {
		return Degraded(fmt.Sprintf("%d entries exceed ceiling of %d", s.Entries, c.cfg.MaxEntries)).
			WithDetails(details)
	}
	return Healthy(fmt.Sprintf("%d entries, %d tags", s.Entries, s.Tags)).WithDetails(details)
}

func evictionDetails(ev map[cache.EvictReason]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(ev))
	for reason, n := range ev {
		out[reason.String()] = n
	}
	return out
}
