// Package cache provides an in-process cache with TTL expiry and tag-based
// cascading invalidation.
//
// Every entry is stored under a key with a set of tags. Removing a key,
// letting it expire, or overwriting it invalidates every tag it carried,
// which removes every other key registered under any of those tags.
// Invalidating a tag directly removes its member keys but does not follow
// their other tags: invalidation is one hop.
//
// The usual pattern tags a list query result with the row key of every row
// it returned. Writing a row then overwrites the row key, and the overwrite
// purges every list result that contained the row:
//
//	c, _ := cache.New()
//	defer c.Close()
//
//	_ = c.Set(ctx, "users:get:1", user1, 0, "users:get:1")
//	_ = c.Set(ctx, "users:find:all", all, 0, "users:get:1", "users:get:2")
//	_ = c.Set(ctx, "users:get:1", updated, 0, "users:get:1") // drops users:find:all
//
// TagCache guards its entry store, tag index and key-tag metadata with one
// mutex, so each operation, its cascade included, is atomic. A background
// reaper expires lapsed entries every Policy.SweepInterval; every operation
// also expires due entries first, so a stale value is never returned.
//
// Loader adds read-through loading with singleflight deduplication,
// QueryKeyer derives deterministic keys from query parameters, and
// Instrumented adds OpenTelemetry spans and metrics to any Cache.
package cache
