package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Fallback composes a persistent primary store with an in-process fallback.
// Writes go to both tiers so the fallback can serve reads when the primary
// is unreachable. A nil primary degrades to the fallback alone.
type Fallback struct {
	primary  Store
	fallback Store
	logger   zerolog.Logger
}

// NewFallback creates a composite store. primary may be nil.
func NewFallback(primary Store, fallback Store, logger zerolog.Logger) *Fallback {
	if fallback == nil {
		panic("fallback store cannot be nil")
	}
	return &Fallback{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Get reads from the primary first, then the fallback. A primary miss and a
// primary failure look the same here; either way the fallback answers.
func (f *Fallback) Get(ctx context.Context, key string) []byte {
	if f.primary != nil {
		if data := f.primary.Get(ctx, key); data != nil {
			return data
		}
	}
	data := f.fallback.Get(ctx, key)
	if data != nil && f.primary != nil {
		storeDegradedTotal.Inc()
		f.logger.Debug().Str("key", key).Msg("Served from in-process fallback store")
	}
	return data
}

// Set writes through to both tiers. Succeeds when at least one tier
// accepted the write.
func (f *Fallback) Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	ok := f.fallback.Set(ctx, key, value, ttl)
	if f.primary != nil {
		ok = f.primary.Set(ctx, key, value, ttl) || ok
	}
	return ok
}

// Del removes key from both tiers.
func (f *Fallback) Del(ctx context.Context, key string) bool {
	ok := f.fallback.Del(ctx, key)
	if f.primary != nil {
		ok = f.primary.Del(ctx, key) && ok
	}
	return ok
}

// Keys returns the union of matching keys across both tiers.
func (f *Fallback) Keys(ctx context.Context, pattern string) []string {
	seen := make(map[string]struct{})
	var keys []string

	add := func(ks []string) {
		for _, k := range ks {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}

	if f.primary != nil {
		add(f.primary.Keys(ctx, pattern))
	}
	add(f.fallback.Keys(ctx, pattern))

	return keys
}
