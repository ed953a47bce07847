package idempotency

import (
	"context"
	"time"

	"github.com/codearena/mcq-backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// RedisStore claims fingerprints with SET NX EX, so the claim and its
// expiry are a single atomic operation shared across server instances.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a RedisStore.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Claim implements Store.
func (s *RedisStore) Claim(ctx context.Context, fingerprint string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, config.CacheKey.DuplicateActionKey(fingerprint), 1, ttl).Result()
}
