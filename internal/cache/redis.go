// Package cache provides Redis caching utilities for the application.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/observability"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// errorHook counts failed commands per command name. A cache miss
// (redis.Nil) is not a failure.
type errorHook struct{}

func (errorHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (errorHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		countError(cmd.Name(), err)
		return err
	}
}

func (errorHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		countError("pipeline", err)
		return err
	}
}

func countError(name string, err error) {
	if err != nil && !errors.Is(err, redis.Nil) {
		observability.RedisErrorRate.WithLabelValues(name).Inc()
	}
}

// NewClient builds a Redis client for addr, which may be host:port or a redis:// URL.
func NewClient(addr string) (*redis.Client, error) {
	opts := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		opts = parsed
	}

	rdb := redis.NewClient(opts)
	rdb.AddHook(errorHook{})
	return rdb, nil
}

// InitRedis connects the shared client and returns it. An empty or
// unreachable addr leaves the shared client nil: pages are then rendered
// uncached and logout cannot revoke tokens early.
func InitRedis(addr string) *redis.Client {
	client = nil
	if addr == "" {
		middleware.Logger.Warn("REDIS_URL not set, running without cache")
		return nil
	}

	rdb, err := NewClient(addr)
	if err != nil {
		middleware.Logger.Warn("invalid REDIS_URL, running without cache",
			slog.String("addr", addr), slog.String("error", err.Error()))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		middleware.Logger.Warn("redis unreachable, running without cache",
			slog.String("addr", addrOf(rdb)), slog.String("error", err.Error()))
		_ = rdb.Close()
		return nil
	}

	middleware.Logger.Info("redis connected", slog.String("addr", addrOf(rdb)))
	client = rdb
	return rdb
}

func addrOf(rdb *redis.Client) string {
	return rdb.Options().Addr
}

// GetClient returns the shared client, nil when Redis is unavailable.
func GetClient() *redis.Client {
	return client
}

// SetClient replaces the shared client.
func SetClient(rdb *redis.Client) {
	client = rdb
}
