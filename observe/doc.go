// Package observe provides observability primitives for cache operations.
//
// It is a pure instrumentation library: no caching, no transport, no I/O
// beyond exporter setup. An Observer bundles an OpenTelemetry tracer and
// meter with a structured Logger; a Middleware wraps each cache operation
// in a span, records its metrics and logs its outcome.
//
// Span names follow cache.<op> (for example cache.get, cache.invalidate_tag).
// Metrics:
//
//	cache.op.total        counter    every operation
//	cache.op.errors       counter    failed operations
//	cache.op.duration_ms  histogram  operation latency
//	cache.hits            counter    lookups that found a value
//	cache.misses          counter    lookups that did not
//	cache.evictions       counter    evicted keys, by reason
package observe
