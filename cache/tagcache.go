package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/tagcache/observe"
)

// DefaultName is the cache name used when WithName is not given.
const DefaultName = "default"

// TagCache is an in-process Cache with TTL expiry and tag-based cascading
// invalidation.
//
// Three structures hold its state: the entry store (key -> value, expiry),
// the tag index (tag -> keys) and the key-tag metadata (key -> tags). A
// single mutex guards all three, so every operation, cascade included, is
// observed as one atomic step.
type TagCache struct {
	name      string
	id        string
	policy    Policy
	now       func() time.Time
	logger    observe.Logger
	listeners []EvictionListener

	mu      sync.Mutex
	entries *entryStore
	tags    *tagIndex
	meta    *keyTags
	stats   counters

	reaper *reaper
}

// New creates a TagCache and starts its reaper when the policy has a
// positive SweepInterval. Call Close to stop the reaper.
func New(opts ...Option) (*TagCache, error) {
	c := &TagCache{
		name:    DefaultName,
		id:      uuid.NewString(),
		policy:  DefaultPolicy(),
		now:     time.Now,
		logger:  observe.NewNopLogger(),
		entries: newEntryStore(),
		tags:    newTagIndex(),
		meta:    newKeyTags(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.policy.Validate(); err != nil {
		return nil, err
	}
	c.stats.evictions = make(map[EvictReason]uint64)
	c.logger = c.logger.With(
		observe.Field{Key: "cache.name", Value: c.name},
		observe.Field{Key: "cache.instance", Value: c.id},
	)

	if c.policy.SweepInterval > 0 {
		c.reaper = newReaper(c, c.policy.SweepInterval)
		c.reaper.start()
	}
	return c, nil
}

// Name returns the cache name.
func (c *TagCache) Name() string {
	return c.name
}

// Policy returns the expiry policy in effect.
func (c *TagCache) Policy() Policy {
	return c.policy
}

// Get retrieves a value. Returns (nil, false) on miss or expiry.
func (c *TagCache) Get(_ context.Context, key string) (any, bool) {
	var b batch

	c.mu.Lock()
	now := c.now()
	c.expireDueLocked(now, &b)
	e, ok := c.entries.get(key, now)
	var value any
	if ok {
		value = e.value
		c.stats.hits++
	} else {
		c.stats.misses++
	}
	c.mu.Unlock()

	c.dispatch(&b)
	return value, ok
}

// Has reports whether key holds a live value without counting a hit or miss.
func (c *TagCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries.get(key, c.now())
	return ok
}

// Set stores value under key for ttl (policy default when ttl<=0) and
// registers it under tags.
//
// If key already holds a value, every tag of the old value is invalidated
// first: replacing what a key means spoils everything cached alongside the
// old meaning, even when the new value no longer carries those tags.
func (c *TagCache) Set(_ context.Context, key string, value any, ttl time.Duration, tags ...string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	for _, tag := range tags {
		if err := ValidateTag(tag); err != nil {
			return err
		}
	}
	tags = dedupeTags(tags)
	ttl = c.policy.EffectiveTTL(ttl)

	var b batch

	c.mu.Lock()
	now := c.now()
	c.expireDueLocked(now, &b)
	if c.entries.has(key) {
		c.cascadeLocked(key, EvictOverwritten, &b)
	}
	c.entries.put(key, value, now.Add(ttl))
	c.meta.setTags(key, tags)
	for _, tag := range tags {
		c.tags.addMembership(tag, key)
	}
	c.stats.sets++
	c.mu.Unlock()

	c.dispatch(&b)
	return nil
}

// Remove deletes key and invalidates every tag it carried, removing all
// keys that shared any of them. Unknown keys are a no-op.
func (c *TagCache) Remove(_ context.Context, key string) error {
	var b batch

	c.mu.Lock()
	c.expireDueLocked(c.now(), &b)
	if c.entries.has(key) {
		c.cascadeLocked(key, EvictRemoved, &b)
	}
	c.mu.Unlock()

	c.dispatch(&b)
	return nil
}

// InvalidateTag removes every key registered under tag, then drops the tag.
// The removed keys' other tags are cleaned of those keys but not
// invalidated. Unknown tags are a no-op.
func (c *TagCache) InvalidateTag(ctx context.Context, tag string) error {
	var b batch

	c.mu.Lock()
	c.expireDueLocked(c.now(), &b)
	c.invalidateTagLocked(tag, EvictInvalidated, &b)
	c.mu.Unlock()

	if n := b.count(EvictInvalidated); n > 0 {
		c.logger.Debug(ctx, "tag invalidated",
			observe.Field{Key: "cache.tag", Value: tag},
			observe.Field{Key: "cache.keys", Value: n},
		)
	}
	c.dispatch(&b)
	return nil
}

// Clear empties the cache without cascade semantics or eviction events.
func (c *TagCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	n := c.entries.len()
	c.entries.clear()
	c.tags.clear()
	c.meta.clear()
	c.stats.clears++
	c.mu.Unlock()

	c.logger.Debug(ctx, "cache cleared", observe.Field{Key: "cache.keys", Value: n})
	return nil
}

// Sweep runs the expiry callback for every entry whose TTL has lapsed and
// returns the number of keys that expired. The reaper calls Sweep on every
// tick; it may also be called directly.
func (c *TagCache) Sweep(ctx context.Context) int {
	var b batch

	c.mu.Lock()
	c.expireDueLocked(c.now(), &b)
	c.mu.Unlock()

	expired := b.count(EvictExpired)
	if expired > 0 {
		c.logger.Debug(ctx, "expired entries swept",
			observe.Field{Key: "cache.expired", Value: expired},
			observe.Field{Key: "cache.cascaded", Value: b.count(EvictCascade)},
		)
	}
	c.dispatch(&b)
	return expired
}

// TagsOf returns the tags key was stored with, sorted.
func (c *TagCache) TagsOf(key string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries.get(key, c.now()); !ok {
		return nil
	}
	tags := slices.Clone(c.meta.tagsOf(key))
	slices.Sort(tags)
	return tags
}

// KeysOf returns the live keys registered under tag, sorted.
func (c *TagCache) KeysOf(tag string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	var keys []string
	for _, k := range c.tags.keysOf(tag) {
		if _, ok := c.entries.get(k, now); ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

// Keys returns every live key, sorted.
func (c *TagCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	keys := make([]string, 0, c.entries.len())
	for k, e := range c.entries.entries {
		if !e.expired(now) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of stored entries, including lapsed entries the
// reaper has not dropped yet.
func (c *TagCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.len()
}

// Close stops the reaper. The cache stays usable; expiry then happens
// lazily on the next operation. Close is idempotent.
func (c *TagCache) Close() error {
	if c.reaper != nil {
		c.reaper.stop()
	}
	return nil
}

// expireDueLocked runs the expiry callback for every lapsed entry, one
// expiry instant at a time.
func (c *TagCache) expireDueLocked(now time.Time, b *batch) {
	for _, group := range c.entries.due(now) {
		c.expireGroupLocked(group, b)
	}
}

// expireGroupLocked expires keys that lapsed at the same instant. Every
// key's tags are read before any key is dropped, so a key removed by a
// sibling's cascade still cascades its own tags. Keys already dropped by
// an earlier instant are skipped.
func (c *TagCache) expireGroupLocked(keys []string, b *batch) {
	var tagSets [][]string
	for _, key := range keys {
		if !c.entries.has(key) {
			continue
		}
		tagSets = append(tagSets, slices.Clone(c.meta.tagsOf(key)))
	}
	for _, key := range keys {
		if c.entries.has(key) {
			c.dropKeyLocked(key, EvictExpired, b)
		}
	}
	for _, tags := range tagSets {
		for _, tag := range tags {
			c.invalidateTagLocked(tag, EvictCascade, b)
		}
	}
}

// cascadeLocked drops key and invalidates every tag it carried. The tag set
// is read before the key's metadata is discarded.
func (c *TagCache) cascadeLocked(key string, reason EvictReason, b *batch) {
	tags := c.meta.tagsOf(key)
	c.dropKeyLocked(key, reason, b)
	for _, tag := range tags {
		c.invalidateTagLocked(tag, EvictCascade, b)
	}
}

// invalidateTagLocked drops every member of tag. It is one hop: members'
// other tags lose the member but are not invalidated themselves.
func (c *TagCache) invalidateTagLocked(tag string, reason EvictReason, b *batch) {
	for _, key := range c.tags.keysOf(tag) {
		c.dropKeyLocked(key, reason, b)
	}
	c.tags.dropTag(tag)
}

// dropKeyLocked removes key from all three structures.
func (c *TagCache) dropKeyLocked(key string, reason EvictReason, b *batch) {
	for _, tag := range c.meta.tagsOf(key) {
		c.tags.removeMembership(tag, key)
	}
	c.meta.deleteTags(key)
	if c.entries.delete(key) {
		c.stats.evictions[reason]++
		b.add(key, reason)
	}
}

func (c *TagCache) dispatch(b *batch) {
	if len(c.listeners) == 0 || len(b.evictions) == 0 {
		return
	}
	for _, ev := range b.evictions {
		for _, fn := range c.listeners {
			fn(ev)
		}
	}
}

// Ensure TagCache implements Cache
var _ Cache = (*TagCache)(nil)
