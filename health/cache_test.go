package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/tagcache/cache"
)

type fixedStats cache.Stats

func (f fixedStats) Stats() cache.Stats { return cache.Stats(f) }

func TestNewCacheChecker_NilSource(t *testing.T) {
	if _, err := NewCacheChecker(nil, CacheCheckerConfig{}); !errors.Is(err, ErrNilCache) {
		t.Errorf("NewCacheChecker(nil) error = %v, want ErrNilCache", err)
	}
}

func TestCacheChecker_Name(t *testing.T) {
	cc, _ := NewCacheChecker(fixedStats{}, CacheCheckerConfig{})
	if cc.Name() != "cache" {
		t.Errorf("default Name() = %q, want cache", cc.Name())
	}
	cc, _ = NewCacheChecker(fixedStats{}, CacheCheckerConfig{Name: "sessions"})
	if cc.Name() != "sessions" {
		t.Errorf("Name() = %q, want sessions", cc.Name())
	}
}

func TestCacheChecker_Status(t *testing.T) {
	tests := []struct {
		name  string
		stats cache.Stats
		cfg   CacheCheckerConfig
		want  Status
	}{
		{
			name:  "healthy",
			stats: cache.Stats{Entries: 10, ReaperRunning: true},
			cfg:   CacheCheckerConfig{MaxEntries: 100, ExpectReaper: true},
			want:  StatusHealthy,
		},
		{
			name:  "reaper stopped",
			stats: cache.Stats{Entries: 10},
			cfg:   CacheCheckerConfig{ExpectReaper: true},
			want:  StatusDegraded,
		},
		{
			name:  "reaper not expected",
			stats: cache.Stats{Entries: 10},
			cfg:   CacheCheckerConfig{},
			want:  StatusHealthy,
		},
		{
			name:  "over ceiling",
			stats: cache.Stats{Entries: 101, ReaperRunning: true},
			cfg:   CacheCheckerConfig{MaxEntries: 100},
			want:  StatusDegraded,
		},
		{
			name:  "at ceiling",
			stats: cache.Stats{Entries: 100},
			cfg:   CacheCheckerConfig{MaxEntries: 100},
			want:  StatusHealthy,
		},
		{
			name:  "no ceiling",
			stats: cache.Stats{Entries: 1 << 20},
			cfg:   CacheCheckerConfig{},
			want:  StatusHealthy,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc, err := NewCacheChecker(fixedStats(tt.stats), tt.cfg)
			if err != nil {
				t.Fatalf("NewCacheChecker() error = %v", err)
			}
			res := cc.Check(context.Background())
			if res.Status != tt.want {
				t.Errorf("Check() status = %v (%s), want %v", res.Status, res.Message, tt.want)
			}
		})
	}
}

func TestCacheChecker_Details(t *testing.T) {
	stats := cache.Stats{
		Name:       "users",
		InstanceID: "abc",
		Entries:    2,
		Tags:       1,
		Hits:       3,
		Misses:     1,
		Evictions:  map[cache.EvictReason]uint64{cache.EvictExpired: 4},
		NextExpiry: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	cc, _ := NewCacheChecker(fixedStats(stats), CacheCheckerConfig{})
	res := cc.Check(context.Background())

	if res.Details["entries"] != 2 || res.Details["tags"] != 1 {
		t.Errorf("entries/tags details = %v/%v", res.Details["entries"], res.Details["tags"])
	}
	if res.Details["hit_ratio"] != 0.75 {
		t.Errorf("hit_ratio = %v, want 0.75", res.Details["hit_ratio"])
	}
	ev, ok := res.Details["evictions"].(map[string]uint64)
	if !ok || ev[cache.EvictExpired.String()] != 4 {
		t.Errorf("evictions detail = %v", res.Details["evictions"])
	}
	if res.Details["next_expiry"] != "2026-01-02T03:04:05Z" {
		t.Errorf("next_expiry = %v", res.Details["next_expiry"])
	}
}

func TestCacheChecker_ContextDone(t *testing.T) {
	cc, _ := NewCacheChecker(fixedStats{}, CacheCheckerConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if res := cc.Check(ctx); res.Status != StatusUnhealthy {
		t.Errorf("Check(cancelled) status = %v, want unhealthy", res.Status)
	}
}

func TestCacheChecker_TagCache(t *testing.T) {
	tc, err := cache.New(cache.WithPolicy(cache.Policy{DefaultTTL: time.Minute, SweepInterval: time.Hour}))
	if err != nil {
		t.Fatalf("cache.New() error = %v", err)
	}
	ctx := context.Background()
	_ = tc.Set(ctx, "k", "v", 0, "t")

	cc, err := NewCacheChecker(tc, CacheCheckerConfig{ExpectReaper: true})
	if err != nil {
		t.Fatalf("NewCacheChecker() error = %v", err)
	}
	if res := cc.Check(ctx); res.Status != StatusHealthy {
		t.Fatalf("Check() with reaper = %v (%s), want healthy", res.Status, res.Message)
	}

	_ = tc.Close()
	if res := cc.Check(ctx); res.Status != StatusDegraded {
		t.Errorf("Check() after Close = %v, want degraded", res.Status)
	}
}
