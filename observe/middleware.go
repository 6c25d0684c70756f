package observe

import (
	"context"
	"time"
)

// ExecuteFunc is the signature of an instrumented cache operation. It
// reports whether a lookup hit or missed, or OutcomeNone for writes.
type ExecuteFunc func(ctx context.Context, meta OpMeta) (Outcome, error)

// Middleware wraps cache operations with observability (tracing, metrics, logging).
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe ExecuteFunc.
//   - Context: Propagates context through tracing spans.
//   - Errors: Errors from wrapped function are recorded and propagated unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NewNoopTracer()
	}
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Metrics returns the metrics recorder, for callers that record evictions.
func (m *Middleware) Metrics() Metrics {
	return m.metrics
}

// Wrap wraps an ExecuteFunc with tracing, metrics, and logging.
// Successful operations log at debug; failures log at error.
func (m *Middleware) Wrap(fn ExecuteFunc) ExecuteFunc {
	return func(ctx context.Context, meta OpMeta) (Outcome, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		outcome, err := fn(ctx, meta)

		duration := time.Since(start)
		m.tracer.EndSpan(span, outcome, err)
		m.metrics.RecordOp(ctx, meta, duration, outcome, err)

		fields := []Field{
			{Key: "cache.op", Value: meta.Op},
			{Key: "duration_ms", Value: float64(duration) / float64(time.Millisecond)},
		}
		if meta.Cache != "" {
			fields = append(fields, Field{Key: "cache.name", Value: meta.Cache})
		}
		if meta.Key != "" {
			fields = append(fields, Field{Key: "cache.key", Value: meta.Key})
		}
		if meta.Tag != "" {
			fields = append(fields, Field{Key: "cache.tag", Value: meta.Tag})
		}
		if outcome != OutcomeNone {
			fields = append(fields, Field{Key: "cache.outcome", Value: outcome.String()})
		}

		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			m.logger.Error(ctx, "cache operation failed", fields...)
		} else {
			m.logger.Debug(ctx, "cache operation completed", fields...)
		}

		return outcome, err
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
