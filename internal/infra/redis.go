package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPingDeadline = 3 * time.Second

// NewRedisClient configures a Redis client and verifies connectivity. Counter
// lookups sit on the claim hot path and fail closed, so timeouts are kept
// tight: a slow backend surfaces as a fast denial, not a hung request.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url is required")
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opt.DialTimeout = 2 * time.Second
	opt.ReadTimeout = 500 * time.Millisecond
	opt.WriteTimeout = 500 * time.Millisecond
	opt.MaxRetries = 1

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingDeadline)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
