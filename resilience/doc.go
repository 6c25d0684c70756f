// Package resilience guards calls to a backing store.
//
// A cache miss turns into a store call, and a burst of misses against a
// failing store should neither hammer it nor pile up waiting callers. The
// package provides four guards that compose through an Executor:
//
//   - RateLimiter: a token bucket (golang.org/x/time/rate) in front of the
//     store.
//   - CircuitBreaker: fails fast with ErrCircuitOpen after repeated
//     failures, then probes for recovery.
//   - Retry: retries transient failures with exponential, linear or
//     constant backoff (github.com/cenkalti/backoff/v5).
//   - Timeout: bounds each attempt.
//
// Executor.Execute has the signature of cache.Guard, so an executor can be
// handed straight to a cache.Loader or a repository:
//
//	exec := resilience.NewExecutor(
//	    resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 200, Burst: 20})),
//	    resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{MaxFailures: 5})),
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 3})),
//	    resilience.WithTimeout(2*time.Second),
//	)
//	repo, err := repository.NewCached(store, c, "database:user", repository.WithGuard(exec.Execute))
package resilience
