package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jonwraymond/tagcache/cache"
	"github.com/jonwraymond/tagcache/config"
	"github.com/jonwraymond/tagcache/health"
	"github.com/jonwraymond/tagcache/observe"
	"github.com/jonwraymond/tagcache/observe/exporters"
	"github.com/jonwraymond/tagcache/repository"
	"github.com/jonwraymond/tagcache/resilience"
)

// itemsNamespace prefixes every item cache key and tag.
const itemsNamespace = "database:items"

// app holds everything serve wires together.
type app struct {
	cfg     config.Config
	obs     observe.Observer
	logger  observe.Logger
	cache   *cache.TagCache
	exec    *resilience.Executor
	items   *repository.Cached[Item]
	health  *health.Aggregator
	handler http.Handler
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	if cfg.Observe.Version == "" {
		cfg.Observe.Version = version
	}
	obs, err := observe.NewObserver(ctx, cfg.Observe)
	if err != nil {
		return nil, fmt.Errorf("observer: %w", err)
	}
	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, fmt.Errorf("middleware: %w", err)
	}
	logger := obs.Logger()

	tc, err := cache.New(
		cache.WithName(cfg.Cache.Name),
		cache.WithPolicy(cfg.CachePolicy()),
		cache.WithLogger(logger),
		cache.WithEvictionListener(cache.EvictionMetrics(mw.Metrics(), cfg.Cache.Name)),
	)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, fmt.Errorf("cache: %w", err)
	}
	fail := func(err error) (*app, error) {
		_ = tc.Close()
		_ = obs.Shutdown(ctx)
		return nil, err
	}
	instrumented, err := cache.NewInstrumented(tc, cfg.Cache.Name, mw)
	if err != nil {
		return fail(err)
	}

	exec := newExecutor(cfg.Store, logger)
	items, err := repository.NewCached[Item](
		repository.NewMemoryStore(matchItem),
		instrumented,
		itemsNamespace,
		repository.WithGuard(exec.Execute),
		repository.WithLogger(logger),
	)
	if err != nil {
		return fail(err)
	}

	agg, err := newHealth(cfg, tc, exec)
	if err != nil {
		return fail(err)
	}

	a := &app{
		cfg:    cfg,
		obs:    obs,
		logger: logger,
		cache:  tc,
		exec:   exec,
		items:  items,
		health: agg,
	}
	a.handler = a.routes()
	return a, nil
}

func newExecutor(cfg config.StoreConfig, logger observe.Logger) *resilience.Executor {
	opts := []resilience.ExecutorOption{
		resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			MaxFailures:  cfg.BreakerFailures,
			ResetTimeout: cfg.BreakerReset,
			OnStateChange: func(from, to resilience.State) {
				logger.Warn(context.Background(), "store circuit changed state",
					observe.Field{Key: "from", Value: from.String()},
					observe.Field{Key: "to", Value: to.String()},
				)
			},
		})),
		resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts: cfg.MaxAttempts,
			Jitter:      true,
		})),
		resilience.WithTimeout(cfg.Timeout),
	}
	if cfg.RateLimit > 0 {
		opts = append(opts, resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Rate:  cfg.RateLimit,
			Burst: cfg.RateBurst,
		})))
	}
	return resilience.NewExecutor(opts...)
}

func newHealth(cfg config.Config, tc *cache.TagCache, exec *resilience.Executor) (*health.Aggregator, error) {
	agg := health.NewAggregator(cfg.Health.CheckTimeout)

	cc, err := health.NewCacheChecker(tc, health.CacheCheckerConfig{
		MaxEntries:   cfg.Health.MaxEntries,
		ExpectReaper: cfg.Cache.SweepInterval > 0,
	})
	if err != nil {
		return nil, err
	}
	agg.Register(cc)
	agg.Register(health.NewMemoryChecker(health.MemoryCheckerConfig{MaxHeap: cfg.Health.MemoryMaxHeap}))
	agg.Register(storeChecker(exec.CircuitBreaker()))
	return agg, nil
}

// storeChecker reports the store breaker. Cached reads still succeed while
// it is open, so an open breaker only degrades the service.
func storeChecker(cb *resilience.CircuitBreaker) health.Checker {
	return health.NewCheckerFunc("store", func(context.Context) health.Result {
		m := cb.Metrics()
		details := map[string]any{
			"state":    m.State.String(),
			"failures": m.Failures,
			"rejected": m.Rejected,
		}
		if m.State == resilience.StateClosed {
			return health.Healthy("circuit closed").WithDetails(details)
		}
		return health.Degraded("circuit " + m.State.String()).WithDetails(details)
	})
}

func (a *app) routes() http.Handler {
	mux := http.NewServeMux()
	health.RegisterHandlers(mux, a.health)
	if a.cfg.Observe.Metrics.Enabled && a.cfg.Observe.Metrics.Exporter == "prometheus" {
		mux.Handle("GET /metrics", exporters.PrometheusHandler(nil))
	}
	mux.HandleFunc("GET /debug/cache/stats", a.handleStats)
	a.registerItems(mux)
	return mux
}

// statsView is the JSON form of cache.Stats.
type statsView struct {
	Name          string            `json:"name"`
	InstanceID    string            `json:"instance_id"`
	Entries       int               `json:"entries"`
	Tags          int               `json:"tags"`
	Hits          uint64            `json:"hits"`
	Misses        uint64            `json:"misses"`
	HitRatio      float64           `json:"hit_ratio"`
	Sets          uint64            `json:"sets"`
	Clears        uint64            `json:"clears"`
	Evictions     map[string]uint64 `json:"evictions"`
	ReaperRunning bool              `json:"reaper_running"`
	NextExpiry    *time.Time        `json:"next_expiry,omitempty"`
}

func (a *app) handleStats(w http.ResponseWriter, _ *http.Request) {
	s := a.cache.Stats()
	view := statsView{
		Name:          s.Name,
		InstanceID:    s.InstanceID,
		Entries:       s.Entries,
		Tags:          s.Tags,
		Hits:          s.Hits,
		Misses:        s.Misses,
		HitRatio:      s.HitRatio(),
		Sets:          s.Sets,
		Clears:        s.Clears,
		Evictions:     make(map[string]uint64, len(s.Evictions)),
		ReaperRunning: s.ReaperRunning,
	}
	for reason, n := range s.Evictions {
		view.Evictions[reason.String()] = n
	}
	if !s.NextExpiry.IsZero() {
		view.NextExpiry = &s.NextExpiry
	}
	writeJSON(w, http.StatusOK, view)
}

// close stops the reaper and flushes telemetry.
func (a *app) close(ctx context.Context) error {
	return errors.Join(a.cache.Close(), a.obs.Shutdown(ctx))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
