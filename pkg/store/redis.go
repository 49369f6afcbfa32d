package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisStore is the persistent Store backend. Backend errors are swallowed
// and logged as degraded-mode notices; callers see a miss or a failed write.
type RedisStore struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client, logger zerolog.Logger) *RedisStore {
	if client == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{
		client: client,
		logger: logger,
	}
}

// Get retrieves the value for key, or nil on miss or backend failure.
func (s *RedisStore) Get(ctx context.Context, key string) []byte {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			storeErrorsTotal.WithLabelValues("redis", "get").Inc()
			s.logger.Warn().Err(err).Str("key", key).Msg("Redis get failed, store degraded")
		}
		return nil
	}
	return data
}

// Set stores value under key with a TTL. A non-positive TTL skips the write
// (the value would be born expired).
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		storeErrorsTotal.WithLabelValues("redis", "set").Inc()
		s.logger.Warn().Err(err).Str("key", key).Msg("Redis set failed, store degraded")
		return false
	}
	return true
}

// Del removes key. Deleting an absent key is a success (idempotent).
func (s *RedisStore) Del(ctx context.Context, key string) bool {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		storeErrorsTotal.WithLabelValues("redis", "del").Inc()
		s.logger.Warn().Err(err).Str("key", key).Msg("Redis del failed, store degraded")
		return false
	}
	return true
}

// Keys returns keys matching pattern, or nil on backend failure.
func (s *RedisStore) Keys(ctx context.Context, pattern string) []string {
	keys, err := s.client.Keys(ctx, pattern).Result()
	if err != nil {
		storeErrorsTotal.WithLabelValues("redis", "keys").Inc()
		s.logger.Warn().Err(err).Str("pattern", pattern).Msg("Redis keys failed, store degraded")
		return nil
	}
	return keys
}
