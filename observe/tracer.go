package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Cache operation names.
const (
	OpGet           = "get"
	OpSet           = "set"
	OpRemove        = "remove"
	OpInvalidateTag = "invalidate_tag"
	OpClear         = "clear"
	OpLoad          = "load"
)

// OpMeta describes one cache operation for telemetry purposes.
type OpMeta struct {
	Cache string   // Cache name (optional)
	Op    string   // Operation name (required)
	Key   string   // Key operated on (optional)
	Tag   string   // Tag operated on (optional)
	Tags  []string // Tags written by set (optional)
}

// SpanName returns the deterministic span name for this operation.
// Format: cache.<op>
func (m OpMeta) SpanName() string {
	return "cache." + m.Op
}

// Validate checks the metadata is usable.
func (m OpMeta) Validate() error {
	if m.Op == "" {
		return ErrMissingOperation
	}
	return nil
}

func (m OpMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("cache.op", m.Op),
	}
	if m.Cache != "" {
		attrs = append(attrs, attribute.String("cache.name", m.Cache))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with cache-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a cache operation.
	StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording the outcome and any error.
	EndSpan(span trace.Span, outcome Outcome, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with operation metadata as attributes.
// Keys and tags are identifiers chosen by the caller, never values.
func (t *tracerImpl) StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span) {
	attrs := meta.attributes()
	if meta.Key != "" {
		attrs = append(attrs, attribute.String("cache.key", meta.Key))
	}
	if meta.Tag != "" {
		attrs = append(attrs, attribute.String("cache.tag", meta.Tag))
	}
	if len(meta.Tags) > 0 {
		attrs = append(attrs, attribute.StringSlice("cache.tags", meta.Tags))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan ends the span and records hit/miss and error status.
func (t *tracerImpl) EndSpan(span trace.Span, outcome Outcome, err error) {
	if outcome != OutcomeNone {
		span.SetAttributes(attribute.Bool("cache.hit", outcome == OutcomeHit))
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// NewNoopTracer creates a no-op tracer.
func NewNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, _ Outcome, _ error) {
	span.End()
}
