package ratelimit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/McCal-Codes/mccal-api-sub001/pkg/store"
)

// Prometheus metrics for rate limiting.
var (
	rateLimitChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mccal_rate_limit_checks_total",
		Help: "Total rate limit checks by outcome",
	}, []string{"outcome"}) // "allowed", "blocked", "fail_open"

	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mccal_rate_limit_blocks_total",
		Help: "Total requests blocked by the rate limiter",
	})
)

// Result is the outcome of a rate limit check.
type Result struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// Remaining is the number of requests left in the window.
	Remaining int

	// ResetAt is when the current window closes.
	ResetAt time.Time
}

// Limiter gates public read requests per client against the shared store.
type Limiter struct {
	store   store.Store
	ceiling int
	window  time.Duration
	logger  zerolog.Logger
}

// NewLimiter creates a rate limiter. Non-positive ceiling or window fall
// back to the defaults.
func NewLimiter(backing store.Store, ceiling int, window time.Duration, logger zerolog.Logger) *Limiter {
	if backing == nil {
		panic("backing store cannot be nil")
	}
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		store:   backing,
		ceiling: ceiling,
		window:  window,
		logger:  logger,
	}
}

// Check counts a request for clientID and reports whether it may proceed.
//
// The store absorbs its own failures, so an unreachable backend presents as
// a missing counter here: every check opens a fresh window and the limiter
// effectively fails open. Soft limiting is the documented contract.
func (l *Limiter) Check(ctx context.Context, clientID string) Result {
	key := store.RateLimitKey(clientID)
	now := time.Now()

	counter := l.load(ctx, key)
	if counter == nil || counter.Expired(l.window) {
		counter = &Counter{ClientKey: clientID, WindowStart: now}
	}
	counter.Count++

	// Persist with the remaining window as TTL so the store's expiry,
	// not this code, reclaims the counter.
	ttl := time.Until(counter.ResetAt(l.window))
	if data, err := json.Marshal(counter); err == nil {
		if !l.store.Set(ctx, key, data, ttl) {
			rateLimitChecksTotal.WithLabelValues("fail_open").Inc()
			l.logger.Warn().Str("client", clientID).Msg("Rate limit store write failed, failing open")
			return Result{Allowed: true, Remaining: l.ceiling - 1, ResetAt: counter.ResetAt(l.window)}
		}
	}

	remaining := l.ceiling - counter.Count
	if remaining < 0 {
		remaining = 0
	}

	result := Result{
		Allowed:   counter.Count <= l.ceiling,
		Remaining: remaining,
		ResetAt:   counter.ResetAt(l.window),
	}

	if result.Allowed {
		rateLimitChecksTotal.WithLabelValues("allowed").Inc()
	} else {
		rateLimitChecksTotal.WithLabelValues("blocked").Inc()
		rateLimitBlocksTotal.Inc()
		l.logger.Debug().
			Str("client", clientID).
			Int("count", counter.Count).
			Time("reset_at", result.ResetAt).
			Msg("Request blocked by rate limiter")
	}

	return result
}

// load reads the client's counter, or nil when absent or unreadable.
func (l *Limiter) load(ctx context.Context, key string) *Counter {
	data := l.store.Get(ctx, key)
	if data == nil {
		return nil
	}
	var counter Counter
	if err := json.Unmarshal(data, &counter); err != nil {
		l.logger.Warn().Err(err).Str("key", key).Msg("Corrupt rate limit counter, resetting window")
		return nil
	}
	return &counter
}
