package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed window limiter shared by every instance that uses
// the same Redis.
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: "casa:ratelimit:"}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	k := l.prefix + key
	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("incr %s: %w", k, err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, k, window).Err(); err != nil {
			return false, fmt.Errorf("expire %s: %w", k, err)
		}
	}
	return count <= int64(limit), nil
}
