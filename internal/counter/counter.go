// Package counter wraps the shared Redis instance used for claim rate limiting
// and single-use cooldown locks. Counter state is a hint layer with TTL expiry;
// authoritative caps are always re-derived from the ledger.
package counter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store exposes the two admission primitives the rewards engine needs: a
// windowed counter for claim-rate limiting and a set-if-not-exists lock for
// ad cooldowns. Implementations must treat backend failure as denial.
type Store interface {
	Admit(ctx context.Context, key string, limit int64, window time.Duration) (bool, error)
	TryAcquireCooldown(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseCooldown(ctx context.Context, key string) error
}

// RedisStore implements Store on top of Redis atomic increments.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore builds a Store backed by the provided Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Admit increments the counter for the current time bucket of key and reports
// whether the post-increment count is within limit. The bucket key expires
// after twice the window so a bucket never outlives its relevance. Any Redis
// error is returned alongside false: an unreachable counter store must deny,
// never wave claims through.
func (s *RedisStore) Admit(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	windowSec := int64(window / time.Second)
	if windowSec <= 0 {
		windowSec = 1
	}
	bucket := time.Now().Unix() / windowSec
	bucketKey := fmt.Sprintf("rl:%s:%d", key, bucket)

	count, err := s.client.Incr(ctx, bucketKey).Result()
	if err != nil {
		return false, fmt.Errorf("incr %s: %w", bucketKey, err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, bucketKey, 2*window).Err(); err != nil {
			return false, fmt.Errorf("expire %s: %w", bucketKey, err)
		}
	}
	return count <= limit, nil
}

// TryAcquireCooldown atomically claims a single-use lock with the given TTL.
// It reports true only for the first caller within the TTL. Redis failure
// reports false with the error (fail closed).
func (s *RedisStore) TryAcquireCooldown(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	acquired, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", key, err)
	}
	return acquired, nil
}

// ReleaseCooldown frees a held lock before its TTL expires. Callers use it to
// give back a lock whose grant never committed; a failed delete just leaves
// the TTL to clear the lock.
func (s *RedisStore) ReleaseCooldown(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}
