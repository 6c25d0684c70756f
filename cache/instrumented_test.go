package cache

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/tagcache/observe"
)

type recordedOp struct {
	op      string
	key     string
	tag     string
	tags    []string
	outcome observe.Outcome
	err     error
}

type recordingMetrics struct {
	mu        sync.Mutex
	ops       []recordedOp
	evictions map[string]int64
}

func (m *recordingMetrics) RecordOp(_ context.Context, meta observe.OpMeta, _ time.Duration, outcome observe.Outcome, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, recordedOp{op: meta.Op, key: meta.Key, tag: meta.Tag, tags: meta.Tags, outcome: outcome, err: err})
}

func (m *recordingMetrics) RecordEviction(_ context.Context, _ string, reason string, n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.evictions == nil {
		m.evictions = make(map[string]int64)
	}
	m.evictions[reason] += n
}

func TestInstrumented_RecordsOutcomes(t *testing.T) {
	c, _ := newTestCache(t)
	metrics := &recordingMetrics{}
	ic, err := NewInstrumented(c, "queries", observe.NewMiddleware(nil, metrics, nil))
	if err != nil {
		t.Fatalf("NewInstrumented() error = %v", err)
	}
	ctx := context.Background()

	mustSet(t, ic, "a", 1, 0, "T")
	assertHit(t, ic, "a", 1)
	assertMiss(t, ic, "b")
	_ = ic.InvalidateTag(ctx, "T")
	_ = ic.Remove(ctx, "a")
	_ = ic.Clear(ctx)
	if err := ic.Set(ctx, "", 1, 0); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Set(\"\") error = %v", err)
	}

	want := []recordedOp{
		{op: observe.OpSet, key: "a", tags: []string{"T"}},
		{op: observe.OpGet, key: "a", outcome: observe.OutcomeHit},
		{op: observe.OpGet, key: "b", outcome: observe.OutcomeMiss},
		{op: observe.OpInvalidateTag, tag: "T"},
		{op: observe.OpRemove, key: "a"},
		{op: observe.OpClear},
		{op: observe.OpSet, key: "", err: ErrInvalidKey},
	}
	if len(metrics.ops) != len(want) {
		t.Fatalf("recorded %d ops, want %d: %+v", len(metrics.ops), len(want), metrics.ops)
	}
	for i, w := range want {
		got := metrics.ops[i]
		if got.op != w.op || got.key != w.key || got.tag != w.tag || got.outcome != w.outcome || !errors.Is(got.err, w.err) {
			t.Errorf("op %d = %+v, want %+v", i, got, w)
		}
	}
	if ic.Unwrap() != c {
		t.Error("Unwrap() should return the wrapped cache")
	}
}

func TestInstrumented_LogsFailures(t *testing.T) {
	c, _ := newTestCache(t)
	var buf bytes.Buffer
	mw := observe.NewMiddleware(nil, nil, observe.NewLoggerWithWriter("info", &buf))
	ic, _ := NewInstrumented(c, "queries", mw)

	_ = ic.Set(context.Background(), "k", "secret-value", 0)
	if buf.Len() != 0 {
		t.Errorf("successful ops should log at debug only, got %s", buf.String())
	}

	_ = ic.Set(context.Background(), "bad\nkey", 1, 0)
	out := buf.String()
	if !strings.Contains(out, "cache operation failed") || !strings.Contains(out, `"cache.name":"queries"`) {
		t.Errorf("failure log = %s", out)
	}
	if strings.Contains(out, "secret-value") {
		t.Error("values must never be logged")
	}
}

func TestNewInstrumented_NilCache(t *testing.T) {
	if _, err := NewInstrumented(nil, "x", nil); !errors.Is(err, ErrNilCache) {
		t.Errorf("NewInstrumented(nil) error = %v", err)
	}
}

func TestEvictionMetrics(t *testing.T) {
	metrics := &recordingMetrics{}
	c, _ := newTestCache(t, WithEvictionListener(EvictionMetrics(metrics, "queries")))

	mustSet(t, c, "a", 1, 0, "T")
	mustSet(t, c, "b", 1, 0, "T")
	mustSet(t, c, "c", 1, 0, "T")
	_ = c.Remove(context.Background(), "a")

	if metrics.evictions["removed"] != 1 || metrics.evictions["cascade"] != 2 {
		t.Errorf("evictions = %v", metrics.evictions)
	}
}
