package cache

import (
	"time"
)

// Entry represents a cached manifest payload or rendered response.
type Entry struct {
	// Data is the serialized manifest payload.
	Data []byte `json:"data"`

	// ETag is the content fingerprint used for conditional requests.
	ETag string `json:"etag"`

	// SourceURL is the canonical upstream URL the data was fetched from.
	SourceURL string `json:"source_url"`

	// FetchedAt is when the data was retrieved from upstream.
	FetchedAt time.Time `json:"fetched_at"`

	// ExpiresAt is when the entry becomes stale.
	ExpiresAt time.Time `json:"expires_at"`

	// StaleUntil is the end of the stale-while-revalidate window.
	// Invariant: ExpiresAt <= StaleUntil.
	StaleUntil time.Time `json:"stale_until"`
}

// NewEntry creates an entry that is fresh for ttl and may be served stale
// for staleWindow beyond that. A negative staleWindow is treated as zero,
// preserving the ExpiresAt <= StaleUntil invariant.
func NewEntry(data []byte, etag, sourceURL string, ttl, staleWindow time.Duration) *Entry {
	if staleWindow < 0 {
		staleWindow = 0
	}
	now := time.Now()
	return &Entry{
		Data:       data,
		ETag:       etag,
		SourceURL:  sourceURL,
		FetchedAt:  now,
		ExpiresAt:  now.Add(ttl),
		StaleUntil: now.Add(ttl + staleWindow),
	}
}

// IsExpired returns true once the entry has passed its freshness horizon.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// IsServableStale returns true if the entry is expired but still within the
// stale-while-revalidate window.
func (e *Entry) IsServableStale() bool {
	now := time.Now()
	return now.After(e.ExpiresAt) && !now.After(e.StaleUntil)
}

// IsDead returns true once even the stale window has passed.
func (e *Entry) IsDead() bool {
	return time.Now().After(e.StaleUntil)
}

// TTL returns the remaining store lifetime: time until StaleUntil, so a
// stale copy survives in the store for revalidation fallback.
// Returns 0 if the entry is dead.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.StaleUntil)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// FreshFor returns the remaining freshness, or 0 if already expired.
func (e *Entry) FreshFor() time.Duration {
	d := time.Until(e.ExpiresAt)
	if d < 0 {
		return 0
	}
	return d
}
