// Package cache stores API response bodies keyed by request and labeled with
// resource tags.
//
// Two implementations share the Cache interface:
//
//   - Memory: an in-process LRU with a capacity limit, per-entry expiry and a
//     tag index. Stats reports hits, misses and evictions.
//   - Redis: shared between processes. Keys are namespaced by a generation
//     counter so Reset is a single INCR; tag membership is kept in sets.
//
// Reads are labeled with the tags they depend on and mutations invalidate by
// tag:
//
//	c := cache.NewMemory(cache.WithCapacity(256), cache.WithDefaultTTL(5*time.Minute))
//
//	_ = c.Set(ctx, "/orders?page=1", body, 0, cache.TagOrders, cache.TagCustomers)
//
//	if body, ok, err := c.Get(ctx, "/orders?page=1"); err == nil && ok {
//		// serve from cache
//	}
//
//	// after creating an order
//	_ = c.InvalidateTags(ctx, cache.TagOrders)
//
// Reset must run whenever the authenticated identity changes so one user's
// responses are never served to another. The apiclient package wires this to
// session login events.
//
// NewFromConfig picks the driver from CACHE_DRIVER (memory or redis).
package cache
