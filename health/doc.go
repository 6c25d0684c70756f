// Package health reports whether a tag cache process can serve traffic.
//
// A Checker reports one component as healthy, degraded or unhealthy. The
// package ships two: CacheChecker reads a cache's Stats and degrades when
// the reaper has stopped or the entry count crosses a ceiling, and
// MemoryChecker watches heap usage. Degraded components still pass
// readiness; only unhealthy ones fail it.
//
// An Aggregator runs registered checkers in parallel, each under a timeout,
// and Overall folds the results into the worst status seen:
//
//	agg := health.NewAggregator(2 * time.Second)
//	cc, _ := health.NewCacheChecker(tc, health.CacheCheckerConfig{ExpectReaper: true})
//	agg.Register(cc)
//	agg.Register(health.NewMemoryChecker(health.MemoryCheckerConfig{}))
//
//	status := health.Overall(agg.CheckAll(ctx))
//
// RegisterHandlers mounts the probe endpoints on a ServeMux:
//
//	/healthz         liveness, always 200
//	/readyz          overall status as text, 503 when unhealthy
//	/health          JSON Report of every check
//	/health/{name}   JSON CheckReport of one check
package health
