package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/tagcache/observe"
)

// reaper periodically sweeps lapsed entries. Each tick runs Sweep, which
// takes the same lock as every other operation, so an expiry can never
// interleave with a concurrent Set on the same key.
type reaper struct {
	cache    *TagCache
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func newReaper(c *TagCache, interval time.Duration) *reaper {
	ctx, cancel := context.WithCancel(context.Background())
	return &reaper{
		cache:    c,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (r *reaper) start() {
	r.wg.Add(1)
	go r.loop()
	r.cache.logger.Info(r.ctx, "reaper started",
		observe.Field{Key: "cache.sweep_interval", Value: r.interval.String()},
	)
}

func (r *reaper) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.cache.Sweep(r.ctx)
		}
	}
}

// stop cancels the loop and waits for an in-flight sweep to finish.
func (r *reaper) stop() {
	r.once.Do(func() {
		r.cancel()
		r.wg.Wait()
		r.cache.logger.Info(context.Background(), "reaper stopped")
	})
}

func (r *reaper) running() bool {
	return r.ctx.Err() == nil
}
