package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// rateLimitExempt lists APP_ENV values where limits are not enforced.
// An unset APP_ENV counts as development.
var rateLimitExempt = map[string]bool{"": true, "development": true, "test": true}

// CheckRateLimit counts one hit for id against resource in a fixed window
// and reports whether the hit is still within limit.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rateLimitExempt[os.Getenv("APP_ENV")] {
		return true, nil
	}
	if rdb == nil {
		return false, errors.New("rate limit: redis client is nil")
	}

	key := "rl:" + resource + ":" + id
	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return cnt <= int64(limit), nil
}

// RateLimit returns a Fiber middleware enforcing limit requests per window,
// keyed by the authenticated user when known, otherwise by remote IP.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name string, policy FailPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id string
		if uid := c.Locals(LocalUserID); uid != nil {
			id = fmt.Sprintf("user:%v", uid)
		} else {
			id = fmt.Sprintf("ip:%s", c.IP())
		}

		resource := name
		if resource == "" {
			resource = c.Path()
		}

		allowed, err := CheckRateLimit(c.UserContext(), rdb, resource, id, limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable, failing closed",
					slog.String("resource", resource), slog.String("error", err.Error()))
				return fiber.NewError(fiber.StatusServiceUnavailable, "rate limit unavailable")
			}
			return c.Next()
		}
		if !allowed {
			return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
		}
		return c.Next()
	}
}
