package store

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryStore is the in-process Store backend, used as the fallback tier
// when the persistent store is unreachable and as the edge response cache.
// Expiry is timestamp-based per entry; reads never extend an entry's TTL.
type MemoryStore struct {
	cache *ttlcache.Cache[string, []byte]
}

// NewMemoryStore creates an in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: ttlcache.New(
			ttlcache.WithDisableTouchOnHit[string, []byte](),
		),
	}
}

// Get retrieves the value for key, or nil if absent or expired.
func (s *MemoryStore) Get(_ context.Context, key string) []byte {
	item := s.cache.Get(key)
	if item == nil {
		return nil
	}
	return item.Value()
}

// Set stores value under key with a TTL.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	s.cache.Set(key, value, ttl)
	return true
}

// Del removes key.
func (s *MemoryStore) Del(_ context.Context, key string) bool {
	s.cache.Delete(key)
	return true
}

// Keys returns live keys matching pattern.
func (s *MemoryStore) Keys(_ context.Context, pattern string) []string {
	var keys []string
	for _, key := range s.cache.Keys() {
		if !matchPattern(pattern, key) {
			continue
		}
		// Keys() may still report lazily-expired entries.
		if s.cache.Get(key) == nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}
