package cache

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/McCal-Codes/mccal-api-sub001/pkg/store"
)

// Status classifies a cache lookup result.
type Status string

const (
	// StatusHit means a fresh entry was found.
	StatusHit Status = "HIT"

	// StatusMiss means no usable entry exists.
	StatusMiss Status = "MISS"

	// StatusStale means an expired entry within its stale window was
	// found; callers should revalidate and may serve it on failure.
	StatusStale Status = "STALE"
)

// Manager implements the cache policy over a Store adapter. The same policy
// backs both tiers; only the adapter and key scheme differ.
type Manager struct {
	store  store.Store
	tier   string
	logger zerolog.Logger
}

// NewManager creates a cache manager. tier labels metrics and logs
// ("edge" or "store").
func NewManager(backing store.Store, tier string, logger zerolog.Logger) *Manager {
	if backing == nil {
		panic("backing store cannot be nil")
	}
	return &Manager{
		store:  backing,
		tier:   tier,
		logger: logger,
	}
}

// Lookup retrieves the entry for key and classifies it. The entry is
// non-nil for StatusHit and StatusStale, nil for StatusMiss. Entries past
// their stale window count as misses; the store's own expiry reclaims them.
func (m *Manager) Lookup(ctx context.Context, key string) (*Entry, Status) {
	data := m.store.Get(ctx, key)
	if data == nil {
		CacheMisses.WithLabelValues(m.tier).Inc()
		return nil, StatusMiss
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("decode").Inc()
		m.logger.Warn().Err(err).Str("key", key).Str("tier", m.tier).Msg("Corrupt cache entry, treating as miss")
		m.store.Del(ctx, key)
		CacheMisses.WithLabelValues(m.tier).Inc()
		return nil, StatusMiss
	}

	if entry.IsDead() {
		m.store.Del(ctx, key)
		CacheMisses.WithLabelValues(m.tier).Inc()
		return nil, StatusMiss
	}

	if entry.IsExpired() {
		m.logger.Debug().Str("key", key).Str("tier", m.tier).Msg("Cache entry stale")
		return &entry, StatusStale
	}

	CacheHits.WithLabelValues(m.tier).Inc()
	return &entry, StatusHit
}

// Store replaces the entry for key atomically. The store TTL runs to
// StaleUntil so a stale copy remains available for revalidation fallback.
// Dead entries are not written.
func (m *Manager) Store(ctx context.Context, key string, entry *Entry) bool {
	if entry == nil || entry.TTL() <= 0 {
		return false
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("encode").Inc()
		m.logger.Warn().Err(err).Str("key", key).Str("tier", m.tier).Msg("Failed to encode cache entry")
		return false
	}

	return m.store.Set(ctx, key, data, entry.TTL())
}

// Delete removes the entry for key. Idempotent.
func (m *Manager) Delete(ctx context.Context, key string) bool {
	return m.store.Del(ctx, key)
}

// Keys lists stored keys matching pattern.
func (m *Manager) Keys(ctx context.Context, pattern string) []string {
	return m.store.Keys(ctx, pattern)
}
