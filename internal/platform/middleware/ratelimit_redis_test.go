package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// unreachableRedis returns a client whose every command fails fast.
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestNewRedisRateLimiter_Defaults(t *testing.T) {
	rl := NewRedisRateLimiter(nil, 0, 0, "  ")
	if rl.limit != 30 {
		t.Errorf("expected default limit 30, got %d", rl.limit)
	}
	if rl.window != time.Minute {
		t.Errorf("expected default window 1m, got %s", rl.window)
	}
	if rl.prefix != "rl" {
		t.Errorf("expected default prefix rl, got %q", rl.prefix)
	}
}

func TestRedisRateLimiter_FailOpen(t *testing.T) {
	rl := NewRedisRateLimiter(unreachableRedis(t), 5, time.Minute, "test")

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/appointments", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	h := rl.Middleware(true)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusCreated)
	})

	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected handler to run when redis is unavailable and failOpen is set")
	}
}

func TestRedisRateLimiter_FailClosed(t *testing.T) {
	rl := NewRedisRateLimiter(unreachableRedis(t), 5, time.Minute, "test")

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/appointments", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := rl.Middleware(false)(func(c echo.Context) error {
		t.Error("handler should not run")
		return nil
	})

	err := h(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", httpErr.Code)
	}
}
