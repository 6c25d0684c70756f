package cache

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoader_LoadsOnceAndCaches(t *testing.T) {
	c, _ := newTestCache(t)
	l := NewLoader(c, nil)
	ctx := context.Background()

	var calls atomic.Int32
	load := func(context.Context) (LoadResult, error) {
		calls.Add(1)
		return LoadResult{Value: "alice", Tags: []string{"users:get:1"}}, nil
	}

	for range 3 {
		v, err := l.GetOrLoad(ctx, "users:get:1", 0, load)
		if err != nil || v != "alice" {
			t.Fatalf("GetOrLoad() = (%v, %v)", v, err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("load called %d times, want 1", calls.Load())
	}
	if got := c.TagsOf("users:get:1"); !slices.Equal(got, []string{"users:get:1"}) {
		t.Errorf("TagsOf() = %v", got)
	}
}

func TestLoader_CancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	c, _ := newTestCache(t)
	l := NewLoader(c, nil)

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	load := func(ctx context.Context) (LoadResult, error) {
		calls.Add(1)
		close(started)
		select {
		case <-release:
			return LoadResult{Value: "alice"}, nil
		case <-ctx.Done():
			return LoadResult{}, ctx.Err()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := l.GetOrLoad(ctx, "users:get:1", 0, load)
		firstErr <- err
	}()
	<-started

	type result struct {
		v   any
		err error
	}
	second := make(chan result, 1)
	go func() {
		v, err := l.GetOrLoad(context.Background(), "users:get:1", 0, load)
		second <- result{v, err}
	}()

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller error = %v, want context.Canceled", err)
	}
	close(release)

	r := <-second
	if r.err != nil || r.v != "alice" {
		t.Fatalf("waiting caller = (%v, %v), want alice", r.v, r.err)
	}
	if calls.Load() != 1 {
		t.Errorf("load called %d times, want 1", calls.Load())
	}
	assertHit(t, c, "users:get:1", "alice")
}

func TestLoader_CollapsesConcurrentMisses(t *testing.T) {
	c, _ := newTestCache(t)
	l := NewLoader(c, nil)

	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (LoadResult, error) {
		calls.Add(1)
		<-release
		return LoadResult{Value: 7}, nil
	}

	const n = 16
	var wg sync.WaitGroup
	started := make(chan struct{}, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			v, err := l.GetOrLoad(context.Background(), "k", 0, load)
			if err != nil || v != 7 {
				t.Errorf("GetOrLoad() = (%v, %v)", v, err)
			}
		}()
	}
	for range n {
		<-started
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("load called %d times, want 1", got)
	}
}

func TestLoader_ErrorsNotCached(t *testing.T) {
	c, _ := newTestCache(t)
	l := NewLoader(c, nil)
	ctx := context.Background()
	boom := errors.New("store down")

	_, err := l.GetOrLoad(ctx, "k", 0, func(context.Context) (LoadResult, error) {
		return LoadResult{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("GetOrLoad() error = %v, want %v", err, boom)
	}
	if c.Has("k") {
		t.Fatal("failed load was cached")
	}

	v, err := l.GetOrLoad(ctx, "k", 0, func(context.Context) (LoadResult, error) {
		return LoadResult{Value: "ok"}, nil
	})
	if err != nil || v != "ok" {
		t.Errorf("retry GetOrLoad() = (%v, %v)", v, err)
	}
}

func TestLoader_NoCache(t *testing.T) {
	c, _ := newTestCache(t)
	l := NewLoader(c, nil)

	v, err := l.GetOrLoad(context.Background(), "k", 0, func(context.Context) (LoadResult, error) {
		return LoadResult{Value: []string{}, NoCache: true}, nil
	})
	if err != nil || v == nil {
		t.Fatalf("GetOrLoad() = (%v, %v)", v, err)
	}
	if c.Has("k") {
		t.Error("NoCache result was stored")
	}
}

func TestLoader_Guard(t *testing.T) {
	c, _ := newTestCache(t)
	var guarded atomic.Int32
	guard := func(ctx context.Context, op func(context.Context) error) error {
		guarded.Add(1)
		// Retry once on failure.
		if err := op(ctx); err != nil {
			return op(ctx)
		}
		return nil
	}
	l := NewLoader(c, guard)

	attempts := 0
	v, err := l.GetOrLoad(context.Background(), "k", 0, func(context.Context) (LoadResult, error) {
		attempts++
		if attempts == 1 {
			return LoadResult{}, errors.New("transient")
		}
		return LoadResult{Value: "v"}, nil
	})
	if err != nil || v != "v" {
		t.Fatalf("GetOrLoad() = (%v, %v)", v, err)
	}
	if guarded.Load() != 1 || attempts != 2 {
		t.Errorf("guard calls = %d, attempts = %d", guarded.Load(), attempts)
	}
}

func TestLoader_InvalidKeyFailsSet(t *testing.T) {
	c, _ := newTestCache(t)
	l := NewLoader(c, nil)

	_, err := l.GetOrLoad(context.Background(), " ", 0, func(context.Context) (LoadResult, error) {
		return LoadResult{Value: 1}, nil
	})
	if !errors.Is(err, ErrInvalidKey) {
		t.Errorf("GetOrLoad() error = %v, want ErrInvalidKey", err)
	}
}

func TestLoader_NilArguments(t *testing.T) {
	var nilLoader *Loader
	if _, err := nilLoader.GetOrLoad(context.Background(), "k", 0, nil); !errors.Is(err, ErrNilCache) {
		t.Errorf("nil loader error = %v", err)
	}
	c, _ := newTestCache(t)
	if _, err := NewLoader(c, nil).GetOrLoad(context.Background(), "k", 0, nil); !errors.Is(err, ErrNilLoader) {
		t.Errorf("nil load func error = %v", err)
	}
}

func TestLoad_Typed(t *testing.T) {
	c, _ := newTestCache(t)
	l := NewLoader(c, nil)
	ctx := context.Background()

	n, err := Load(ctx, l, "count", 0, func(context.Context) (int, []string, bool, error) {
		return 3, []string{"counts"}, true, nil
	})
	if err != nil || n != 3 {
		t.Fatalf("Load() = (%v, %v)", n, err)
	}
	if got, ok := GetAs[int](ctx, c, "count"); !ok || got != 3 {
		t.Errorf("cached value = (%v, %v)", got, ok)
	}

	mustSet(t, c, "name", "alice", 0)
	_, err = Load(ctx, l, "name", 0, func(context.Context) (int, []string, bool, error) {
		return 0, nil, true, nil
	})
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Load() on mistyped value error = %v, want ErrTypeMismatch", err)
	}
}

func TestLoad_NotCacheable(t *testing.T) {
	c, _ := newTestCache(t)
	l := NewLoader(c, nil)

	rows, err := Load(context.Background(), l, "users:find:empty", 0, func(context.Context) ([]string, []string, bool, error) {
		return nil, nil, false, nil
	})
	if err != nil || len(rows) != 0 {
		t.Fatalf("Load() = (%v, %v)", rows, err)
	}
	if c.Has("users:find:empty") {
		t.Error("non-cacheable result was stored")
	}
}
