package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRateLimit_Bypass(t *testing.T) {
	for _, env := range []string{"test", "development", ""} {
		t.Run("env="+env, func(t *testing.T) {
			t.Setenv("APP_ENV", env)
			allowed, err := CheckRateLimit(context.Background(), nil, "login", "ip:1", 1, time.Minute)
			assert.NoError(t, err)
			assert.True(t, allowed)
		})
	}
}

func TestCheckRateLimit_NilRedis(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	allowed, err := CheckRateLimit(context.Background(), nil, "login", "ip:1", 1, time.Minute)
	assert.Error(t, err)
	assert.False(t, allowed)
}

func TestCheckRateLimit_Counts(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := CheckRateLimit(ctx, rdb, "login", "ip:1", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, err := CheckRateLimit(ctx, rdb, "login", "ip:1", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.True(t, mr.TTL("rl:login:ip:1") > 0)

	mr.FastForward(time.Minute + time.Second)
	allowed, err = CheckRateLimit(ctx, rdb, "login", "ip:1", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimitMiddleware(t *testing.T) {
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	status := func(t *testing.T, app *fiber.App, path string) int {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, path, nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp.StatusCode
	}

	t.Run("bypass in test mode", func(t *testing.T) {
		t.Setenv("APP_ENV", "test")
		app := fiber.New()
		app.Post("/login", RateLimit(nil, 1, time.Minute, "login", FailClosed), ok)
		assert.Equal(t, http.StatusOK, status(t, app, "/login"))
		assert.Equal(t, http.StatusOK, status(t, app, "/login"))
	})

	t.Run("fail open with nil redis", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		app := fiber.New()
		app.Post("/login", RateLimit(nil, 1, time.Minute, "login", FailOpen), ok)
		assert.Equal(t, http.StatusOK, status(t, app, "/login"))
	})

	t.Run("fail closed with nil redis", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		app := fiber.New()
		app.Post("/login", RateLimit(nil, 1, time.Minute, "login", FailClosed), ok)
		assert.Equal(t, http.StatusServiceUnavailable, status(t, app, "/login"))
	})

	t.Run("limit exceeded", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })

		app := fiber.New()
		app.Post("/login", RateLimit(rdb, 1, time.Minute, "", FailOpen), ok)
		assert.Equal(t, http.StatusOK, status(t, app, "/login"))
		assert.Equal(t, http.StatusTooManyRequests, status(t, app, "/login"))
	})
}

func TestContextMiddleware_LoggerPicksUpValues(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger
	Logger = slog.New(&ctxHandler{slog.NewJSONHandler(&buf, nil)})
	t.Cleanup(func() { Logger = prev })

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "req-1")
		c.Locals(LocalUserID, uint(7))
		return c.Next()
	})
	app.Use(ContextMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		Logger.InfoContext(c.UserContext(), "hello")
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Contains(t, buf.String(), `"request_id":"req-1"`)
	assert.Contains(t, buf.String(), `"user_id":7`)
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger
	Logger = slog.New(&ctxHandler{slog.NewJSONHandler(&buf, nil)})
	t.Cleanup(func() { Logger = prev })

	app := fiber.New()
	app.Use(StructuredLogger())
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/boom", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "boom") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Contains(t, buf.String(), `"msg":"request processed"`)
	assert.Contains(t, buf.String(), `"path":"/ok"`)

	buf.Reset()
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Contains(t, buf.String(), `"msg":"request failed"`)
	assert.Contains(t, buf.String(), `"error":"boom"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
}
