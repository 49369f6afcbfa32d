// Package cache implements the cache policy shared by both cache tiers:
// the edge response tier (in-process, keyed by canonical upstream URL) and
// the manifest tier (persistent with in-process fallback, keyed
// "manifest:<type>").
//
// One Manager implements the policy; the tiers differ only in the Store
// adapter behind it and their key scheme, so the two cannot drift.
//
// Entries carry two horizons: ExpiresAt, after which the entry is stale and
// must be revalidated, and StaleUntil, up to which a stale copy may still be
// served when revalidation fails (stale-while-revalidate). The invariant
// ExpiresAt <= StaleUntil is enforced at construction.
//
// # Basic Usage
//
//	backing := store.NewFallback(redisStore, store.NewMemoryStore(), logger)
//	manifests := cache.NewManager(backing, "store", logger)
//
//	entry, status := manifests.Lookup(ctx, store.ManifestKey("concert"))
//	switch status {
//	case cache.StatusHit:
//		// serve entry.Data
//	case cache.StatusStale:
//		// revalidate; serve entry.Data if the refetch fails
//	case cache.StatusMiss:
//		// fetch upstream and Store a fresh entry
//	}
//
// # Content Fingerprints
//
// Every stored entry carries a validator: the upstream ETag when the source
// provided one, otherwise a stable hash of the payload prefixed by the
// manifest type. Conditional requests whose If-None-Match matches the stored
// validator short-circuit to 304 Not Modified.
//
// # Metrics
//
// The package exports Prometheus metrics:
//
//   - mccal_cache_hits_total{tier} - cache hits by tier
//   - mccal_cache_misses_total{tier} - cache misses by tier
//   - mccal_cache_stale_served_total - stale entries served after failed revalidation
//   - mccal_not_modified_total - conditional requests answered with 304
//   - mccal_cache_errors_total{operation} - cache operation errors
package cache
