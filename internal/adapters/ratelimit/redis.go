// Package ratelimit provides a Redis-backed store for echo's rate limiter so
// every API instance counts against the same budget.
package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskmaster/kanban/internal/infrastructure/logger"
)

const keyPrefix = "kanban:rl:"

// RedisStore is a fixed-window counter: INCR per request, EXPIRE on the
// first hit of each window.
type RedisStore struct {
	rdb     *redis.Client
	limit   int
	window  time.Duration
	timeout time.Duration
	logger  *logger.Logger
}

func NewRedisStore(rdb *redis.Client, limit int, window time.Duration, log *logger.Logger) *RedisStore {
	return &RedisStore{
		rdb:     rdb,
		limit:   limit,
		window:  window,
		timeout: 200 * time.Millisecond,
		logger:  log.WithComponent("ratelimit"),
	}
}

// Allow implements middleware.RateLimiterStore. Redis errors let the request
// through.
func (s *RedisStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	slot := time.Now().UnixNano() / int64(s.window)
	key := keyPrefix + strconv.FormatInt(slot, 10) + ":" + identifier

	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warnw("Rate limit check failed", "error", err)
		return true, nil
	}

	return incr.Val() <= int64(s.limit), nil
}
