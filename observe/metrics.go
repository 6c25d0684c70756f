package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome is the lookup result of an operation.
type Outcome int

const (
	// OutcomeNone marks operations that do not look anything up.
	OutcomeNone Outcome = iota
	// OutcomeHit marks a lookup that found a value.
	OutcomeHit
	// OutcomeMiss marks a lookup that found nothing.
	OutcomeMiss
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeHit:
		return "hit"
	case OutcomeMiss:
		return "miss"
	default:
		return "none"
	}
}

// Metrics records cache operation metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordOp records an operation with its duration, outcome and error status.
	RecordOp(ctx context.Context, meta OpMeta, duration time.Duration, outcome Outcome, err error)

	// RecordEviction records n keys evicted from cacheName for reason.
	RecordEviction(ctx context.Context, cacheName, reason string, n int64)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	totalCount    metric.Int64Counter
	errorCount    metric.Int64Counter
	hitCount      metric.Int64Counter
	missCount     metric.Int64Counter
	evictionCount metric.Int64Counter
	durationHist  metric.Float64Histogram
}

// NewMetrics creates a Metrics instance with the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	return newMetrics(meter)
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	m := &metricsImpl{}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&m.totalCount, "cache.op.total", "Total number of cache operations", "{op}"},
		{&m.errorCount, "cache.op.errors", "Total number of failed cache operations", "{error}"},
		{&m.hitCount, "cache.hits", "Lookups that found a live value", "{lookup}"},
		{&m.missCount, "cache.misses", "Lookups that found no live value", "{lookup}"},
		{&m.evictionCount, "cache.evictions", "Keys evicted, by reason", "{key}"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name,
			metric.WithDescription(c.desc),
			metric.WithUnit(c.unit),
		)
		if err != nil {
			return nil, err
		}
	}

	m.durationHist, err = meter.Float64Histogram(
		"cache.op.duration_ms",
		metric.WithDescription("Cache operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordOp records metrics for a cache operation.
func (m *metricsImpl) RecordOp(ctx context.Context, meta OpMeta, duration time.Duration, outcome Outcome, err error) {
	opt := metric.WithAttributes(meta.attributes()...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}

	switch outcome {
	case OutcomeHit:
		m.hitCount.Add(ctx, 1, opt)
	case OutcomeMiss:
		m.missCount.Add(ctx, 1, opt)
	}

	m.durationHist.Record(ctx, float64(duration)/float64(time.Millisecond), opt)
}

// RecordEviction records evicted keys.
func (m *metricsImpl) RecordEviction(ctx context.Context, cacheName, reason string, n int64) {
	if n <= 0 {
		return
	}
	m.evictionCount.Add(ctx, n, metric.WithAttributes(
		attribute.String("cache.name", cacheName),
		attribute.String("cache.evict_reason", reason),
	))
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

// NewNoopMetrics returns a Metrics that records nothing.
func NewNoopMetrics() Metrics {
	return noopMetrics{}
}

func (noopMetrics) RecordOp(context.Context, OpMeta, time.Duration, Outcome, error) {}
func (noopMetrics) RecordEviction(context.Context, string, string, int64)          {}
