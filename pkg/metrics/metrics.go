// Package metrics provides the centralized Prometheus registry reference for
// the manifest server. All metrics are defined in their owning packages
// (store, cache, manifest, ratelimit, invalidation) to maintain modularity
// and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the manifest server.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Store Metrics (pkg/store):
//   - mccal_store_errors_total{backend, operation} (Counter): Swallowed backend errors
//   - mccal_store_degraded_total (Counter): Reads answered by the fallback tier
//
// Cache Metrics (pkg/cache):
//   - mccal_cache_hits_total{tier} (Counter): Cache hits by tier (edge, store)
//   - mccal_cache_misses_total{tier} (Counter): Cache misses by tier
//   - mccal_cache_stale_served_total (Counter): Stale entries served after failed revalidation
//   - mccal_cache_not_modified_total (Counter): Conditional requests answered with 304
//   - mccal_cache_errors_total{operation} (Counter): Cache encode/decode errors
//
// Upstream Metrics (pkg/manifest):
//   - mccal_upstream_requests_total{type, outcome} (Counter): Upstream fetches by outcome
//   - mccal_upstream_request_duration_seconds{type} (Histogram): Upstream fetch duration
//
// Rate Limit Metrics (pkg/ratelimit):
//   - mccal_rate_limit_checks_total{outcome} (Counter): Checks by outcome (allowed, blocked, fail_open)
//   - mccal_rate_limit_blocks_total (Counter): Requests rejected over the ceiling
//
// Invalidation Metrics (pkg/invalidation):
//   - mccal_invalidation_ops_total{op, outcome} (Counter): Purge/warm/refresh operations
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(mccal_cache_hits_total[5m])) /
//   (sum(rate(mccal_cache_hits_total[5m])) + sum(rate(mccal_cache_misses_total[5m])))
//
//   # Stale Serve Rate (upstream health proxy)
//   rate(mccal_cache_stale_served_total[5m])
//
//   # Fail-Open Rate (limiter store health)
//   rate(mccal_rate_limit_checks_total{outcome="fail_open"}[5m])
//
//   # P95 Upstream Latency
//   histogram_quantile(0.95, rate(mccal_upstream_request_duration_seconds_bucket[5m]))
//
//   # 304 Response Rate
//   rate(mccal_cache_not_modified_total[5m])
