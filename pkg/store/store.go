// Package store provides the key-value cache store abstraction with a
// persistent Redis backend, an in-process fallback, and a composite that
// degrades between them.
//
// Backend failures are absorbed here: operations report a miss or a failed
// write instead of returning an error, and the degraded state is logged.
// Callers fall through to the next cache tier, ultimately to a live fetch.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Key prefixes for the persisted key layout.
const (
	manifestKeyPrefix  = "manifest:"
	rateLimitKeyPrefix = "ratelimit:"
)

// ManifestKey returns the store key for a manifest type.
func ManifestKey(manifestType string) string {
	return manifestKeyPrefix + manifestType
}

// RateLimitKey returns the store key for a rate-limit client.
func RateLimitKey(clientID string) string {
	return rateLimitKeyPrefix + clientID
}

// Prometheus metrics for store operations.
var (
	storeErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mccal_store_errors_total",
		Help: "Total store backend errors by backend and operation",
	}, []string{"backend", "operation"})

	storeDegradedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mccal_store_degraded_total",
		Help: "Total operations served by the in-process fallback while the persistent store was unreachable",
	})
)

// Store is the key-value cache store contract. A single logical value per
// key, last write wins. Implementations never raise backend errors: Get
// returns nil on miss or failure, Set and Del report success, Keys returns
// the matching keys it could enumerate.
type Store interface {
	Get(ctx context.Context, key string) []byte
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool
	Del(ctx context.Context, key string) bool
	Keys(ctx context.Context, pattern string) []string
}

// matchPattern reports whether key matches a glob pattern. Only the
// trailing-asterisk form used by the cache tiers ("manifest:*") is
// supported; anything else is an exact match.
func matchPattern(pattern, key string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(key, prefix)
	}
	return pattern == key
}
