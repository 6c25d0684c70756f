package resilience

import (
	"context"
	"errors"
	"time"
)

// Executor composes the guards around a store call.
type Executor struct {
	rateLimiter    *RateLimiter
	circuitBreaker *CircuitBreaker
	retry          *Retry
	timeout        time.Duration
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates a new resilience executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithCircuitBreaker adds a circuit breaker to the executor.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) {
		e.circuitBreaker = cb
	}
}

// WithRetry adds retry logic to the executor.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) {
		e.retry = r
	}
}

// WithRateLimiter adds rate limiting to the executor.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) {
		e.rateLimiter = rl
	}
}

// WithTimeout bounds each attempt. The operation must honor ctx for the
// bound to take effect. Zero disables it.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = d
	}
}

// CircuitBreaker returns the configured breaker, or nil.
func (e *Executor) CircuitBreaker() *CircuitBreaker {
	return e.circuitBreaker
}

// Execute runs op through every configured guard, outermost first:
// rate limiter, circuit breaker, retry, per-attempt timeout.
//
// The breaker sees one outcome per Execute, after retries, so a transient
// failure that a retry absorbs never counts against it.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	execute := op

	if e.timeout > 0 {
		inner := execute
		execute = func(ctx context.Context) error {
			return withTimeout(ctx, e.timeout, inner)
		}
	}

	if e.retry != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.retry.Execute(ctx, inner)
		}
	}

	if e.circuitBreaker != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.circuitBreaker.Execute(ctx, inner)
		}
	}

	if e.rateLimiter != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.rateLimiter.Execute(ctx, inner)
		}
	}

	return execute(ctx)
}

// withTimeout runs op with a deadline. An attempt that runs out of time
// reports ErrTimeout; cancellation of the parent context is passed through.
func withTimeout(ctx context.Context, d time.Duration, op func(context.Context) error) error {
	attemptCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	err := op(attemptCtx)
	if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}
