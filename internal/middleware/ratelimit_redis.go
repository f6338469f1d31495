package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces rate limit counters in Redis.
const redisKeyPrefix = "spk:ratelimit:"

// redisTimeout bounds each Redis round trip so a slow Redis cannot stall requests.
const redisTimeout = 100 * time.Millisecond

// RedisRateLimitStore implements RateLimitStore with a fixed window counter in
// Redis, so that limits are shared by every API instance.
// Redis errors fail open: the request is allowed and the error is counted.
type RedisRateLimitStore struct {
	client  redis.UniversalClient
	metrics *Metrics
}

// NewRedisRateLimitStore creates a Redis-backed rate limit store.
func NewRedisRateLimitStore(client redis.UniversalClient) *RedisRateLimitStore {
	return &RedisRateLimitStore{client: client}
}

// WithMetrics sets the metrics used to count fail-open events.
func (s *RedisRateLimitStore) WithMetrics(m *Metrics) *RedisRateLimitStore {
	s.metrics = m
	return s
}

// Allow implements RateLimitStore.
func (s *RedisRateLimitStore) Allow(ctx context.Context, key string, config RateLimitConfig) (bool, int, int) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	k := redisKeyPrefix + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		s.failOpen(ctx, key, err)
		return true, config.RequestsPerWindow, 0
	}

	window := ttl.Val()
	if window <= 0 {
		// First request of the window (or a key that lost its expiry).
		if err := s.client.PExpire(ctx, k, config.WindowDuration).Err(); err != nil {
			s.failOpen(ctx, key, err)
		}
		window = config.WindowDuration
	}

	count := int(incr.Val())
	if count <= config.RequestsPerWindow {
		return true, config.RequestsPerWindow - count, 0
	}
	return false, 0, retryAfterSeconds(window)
}

func (s *RedisRateLimitStore) failOpen(ctx context.Context, key string, err error) {
	slog.WarnContext(ctx, "rate limit store unavailable, allowing request", "key", key, "error", err)
	if s.metrics != nil {
		s.metrics.IncRateLimitRedisErrors()
	}
}
