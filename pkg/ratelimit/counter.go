// Package ratelimit implements a windowed per-client request counter backed
// by the shared cache store.
//
// The limiter exists for abuse mitigation, not precise accounting: counters
// are updated via independent read-modify-write cycles, so heavy concurrent
// bursts may under- or over-count slightly. When the backing store is
// unreachable the limiter fails open and allows the request, a deliberate
// availability-over-strictness tradeoff.
package ratelimit

import (
	"time"
)

// Defaults for the public read endpoints.
const (
	// DefaultCeiling is the max requests per client per window.
	DefaultCeiling = 100

	// DefaultWindow is the counting window length.
	DefaultWindow = 60 * time.Second
)

// Counter is the per-client window state persisted in the store. At most
// one live counter exists per client; the store's own expiry reclaims it.
type Counter struct {
	// ClientKey identifies the client, typically its source IP.
	ClientKey string `json:"client_key"`

	// WindowStart is when the current window opened.
	WindowStart time.Time `json:"window_start"`

	// Count is the number of requests seen in the window.
	Count int `json:"count"`
}

// Expired reports whether the window has elapsed; the next request opens a
// fresh window.
func (c *Counter) Expired(window time.Duration) bool {
	return time.Since(c.WindowStart) > window
}

// ResetAt returns when the current window closes.
func (c *Counter) ResetAt(window time.Duration) time.Time {
	return c.WindowStart.Add(window)
}
