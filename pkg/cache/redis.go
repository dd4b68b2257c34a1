package cache

import (
	"context"
	"fmt"
	"time"

	"myvillage-api/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// NewRedis connects to REDIS_URL. An empty URL yields (nil, nil) and callers
// run without Redis-backed features.
func NewRedis(ctx context.Context, config utils.RedisConfig) (*redis.Client, error) {
	if config.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.PoolSize = 20
	opts.MinIdleConns = 2
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
