package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// SecurityHeadersConfig controls the per-response security headers.
type SecurityHeadersConfig struct {
	// HSTS adds Strict-Transport-Security. Off in development, where the
	// server is reached over plain HTTP.
	HSTS bool
	// CacheablePaths hold no patient data and may be cached for
	// CacheMaxAge. Every other response is no-store.
	CacheablePaths []string
	CacheMaxAge    time.Duration
}

// SecurityHeaders sets the headers for a JSON-only API whose responses carry
// patient names and contact details.
func SecurityHeaders(cfg SecurityHeadersConfig) echo.MiddlewareFunc {
	cacheable := make(map[string]bool, len(cfg.CacheablePaths))
	for _, p := range cfg.CacheablePaths {
		cacheable[strings.TrimSuffix(p, "/")] = true
	}
	publicCache := fmt.Sprintf("public, max-age=%d", int(cfg.CacheMaxAge.Seconds()))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			h.Set("Referrer-Policy", "no-referrer")
			if cfg.HSTS {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			path := strings.TrimSuffix(c.Request().URL.Path, "/")
			if cacheable[path] && cfg.CacheMaxAge > 0 && c.Request().Method == "GET" {
				h.Set("Cache-Control", publicCache)
			} else {
				h.Set("Cache-Control", "no-store")
				h.Set("Pragma", "no-cache")
			}
			return next(c)
		}
	}
}
