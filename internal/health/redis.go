// Package health provides health check implementations for external dependencies.
package health

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// defaultRedisTimeout bounds a single PING when the caller's context has no deadline.
const defaultRedisTimeout = 2 * time.Second

// RedisChecker implements health checking for the Redis instance backing the
// shared rate limiter.
type RedisChecker struct {
	client  redis.UniversalClient
	timeout time.Duration
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{
		client:  client,
		timeout: defaultRedisTimeout,
	}
}

// Name identifies the dependency in readiness reports.
func (r *RedisChecker) Name() string {
	return "redis"
}

// HealthCheck sends a PING and expects PONG.
func (r *RedisChecker) HealthCheck(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	pong, err := r.client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	if pong != "PONG" {
		return fmt.Errorf("redis ping: unexpected reply %q", pong)
	}
	return nil
}
