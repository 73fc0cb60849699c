// Package redis manages the Redis client lifecycle.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clipgate/clipgate/internal/config"
	"github.com/clipgate/clipgate/pkg/errors"
)

// Connect creates a Redis client and verifies connectivity.
func Connect(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, errors.ErrInternal("redis connect").WithCause(err)
	}

	return client, nil
}
