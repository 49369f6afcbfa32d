package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by tier (edge, store).
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mccal_cache_hits_total",
			Help: "Total number of cache hits by tier",
		},
		[]string{"tier"},
	)

	// CacheMisses tracks cache misses by tier.
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mccal_cache_misses_total",
			Help: "Total number of cache misses by tier",
		},
		[]string{"tier"},
	)

	// StaleServed tracks stale entries served after a failed revalidation.
	StaleServed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mccal_cache_stale_served_total",
			Help: "Total number of stale cache entries served after failed revalidation",
		},
	)

	// NotModified tracks conditional requests answered with 304.
	NotModified = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mccal_not_modified_total",
			Help: "Total number of conditional requests answered with 304 Not Modified",
		},
	)

	// CacheErrors tracks cache operation errors.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mccal_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "decode", "encode"
	)
)
