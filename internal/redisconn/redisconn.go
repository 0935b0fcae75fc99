// Package redisconn opens the shared Redis client used by the counter store and the response cache.
package redisconn

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options 描述 Redis 连接参数。
type Options struct {
	Addr     string
	Password string
	DB       int
	// Timeout bounds dial, read and write; request paths also use per call deadlines.
	Timeout time.Duration
}

// Connect creates a client and verifies the connection with PING.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		PoolSize:     20,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}
