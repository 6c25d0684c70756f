package health

import (
	"context"
	"fmt"
	"runtime"
)

// MemoryCheckerConfig configures the memory health checker.
type MemoryCheckerConfig struct {
	// MaxHeap is the heap size in bytes treated as 100%. Zero measures
	// against the bytes obtained from the OS.
	MaxHeap uint64

	// WarnRatio degrades the check. Default 0.8.
	WarnRatio float64

	// CriticalRatio fails the check. Default 0.95.
	CriticalRatio float64
}

// MemoryChecker watches heap usage of the process holding the cache. The
// cache has no size bound, so heap growth is the signal that TTLs are too
// long for the write rate.
type MemoryChecker struct {
	cfg     MemoryCheckerConfig
	readMem func(*runtime.MemStats)
}

// NewMemoryChecker creates a memory checker, filling out-of-range ratios
// with defaults.
func NewMemoryChecker(cfg MemoryCheckerConfig) *MemoryChecker {
	if cfg.WarnRatio <= 0 || cfg.WarnRatio >= 1 {
		cfg.WarnRatio = 0.8
	}
	if cfg.CriticalRatio <= 0 || cfg.CriticalRatio > 1 {
		cfg.CriticalRatio = 0.95
	}
	if cfg.CriticalRatio < cfg.WarnRatio {
		cfg.CriticalRatio = cfg.WarnRatio
	}
	return &MemoryChecker{cfg: cfg, readMem: runtime.ReadMemStats}
}

func (m *MemoryChecker) Name() string {
	return "memory"
}

func (m *MemoryChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context done", err)
	}

	var ms runtime.MemStats
	m.readMem(&ms)

	limit := m.cfg.MaxHeap
	if limit == 0 {
		limit = ms.Sys
	}
	details := map[string]any{
		"heap_alloc":   ms.HeapAlloc,
		"heap_objects": ms.HeapObjects,
		"sys":          ms.Sys,
		"num_gc":       ms.NumGC,
		"goroutines":   runtime.NumGoroutine(),
	}
	if limit == 0 {
		return Healthy("memory stats unavailable").WithDetails(details)
	}

	ratio := float64(ms.HeapAlloc) / float64(limit)
	details["limit"] = limit
	details["usage_ratio"] = ratio
	pct := ratio * 100

	switch {
	case ratio >= m.cfg.CriticalRatio:
		return Unhealthy(fmt.Sprintf("heap usage critical: %.1f%%", pct), ErrCheckFailed).WithDetails(details)
	case ratio >= m.cfg.WarnRatio:
		return Degraded(fmt.Sprintf("heap usage high: %.1f%%", pct)).WithDetails(details)
	default:
		return Healthy(fmt.Sprintf("heap usage %.1f%%", pct)).WithDetails(details)
	}
}
