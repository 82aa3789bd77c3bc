package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JovenGabriel/users-api/internal/repository"
)

// RedisAttemptStore counts failed login attempts in Redis with a rolling
// expiry window per key.
type RedisAttemptStore struct {
	client redis.UniversalClient
}

var _ repository.AttemptStore = (*RedisAttemptStore)(nil)

// NewRedisAttemptStore constructs a Redis-backed attempt counter.
func NewRedisAttemptStore(client redis.UniversalClient) *RedisAttemptStore {
	return &RedisAttemptStore{client: client}
}

// Incr bumps the counter for key and refreshes its expiry window, returning
// the new count.
func (s *RedisAttemptStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	redisKey := attemptKey(key)
	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, fmt.Errorf("incr attempts: %w", err)
	}
	if err := s.client.Expire(ctx, redisKey, window).Err(); err != nil {
		return 0, fmt.Errorf("expire attempts: %w", err)
	}
	return count, nil
}

// Reset clears the counter for key.
func (s *RedisAttemptStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, attemptKey(key)).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("reset attempts: %w", err)
	}
	return nil
}

func attemptKey(key string) string {
	return "login_attempts:" + key
}
