package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

var testHeadersConfig = SecurityHeadersConfig{
	HSTS:           true,
	CacheablePaths: []string{"/api/v1/public/services"},
	CacheMaxAge:    time.Minute,
}

func serveWithHeaders(cfg SecurityHeadersConfig, method, path string, handler echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(method, path, nil), rec)
	err := SecurityHeaders(cfg)(handler)(c)
	return rec, err
}

func okHandler(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func TestSecurityHeaders_PatientDataNotStored(t *testing.T) {
	tests := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/v1/appointments"},
		{http.MethodGet, "/api/v1/appointments/3f1c"},
		{http.MethodGet, "/api/v1/invoices"},
		{http.MethodPost, "/api/v1/public/appointments"},
		{http.MethodGet, "/api/v1/public/end-time"},
	}
	for _, tt := range tests {
		rec, err := serveWithHeaders(testHeadersConfig, tt.method, tt.path, okHandler)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := rec.Header().Get("Cache-Control"); got != "no-store" {
			t.Errorf("%s %s: Cache-Control = %q, want no-store", tt.method, tt.path, got)
		}
		if got := rec.Header().Get("Pragma"); got != "no-cache" {
			t.Errorf("%s %s: Pragma = %q, want no-cache", tt.method, tt.path, got)
		}
	}
}

func TestSecurityHeaders_PublicCatalogCacheable(t *testing.T) {
	for _, path := range []string{"/api/v1/public/services", "/api/v1/public/services/"} {
		rec, _ := serveWithHeaders(testHeadersConfig, http.MethodGet, path, okHandler)
		if got := rec.Header().Get("Cache-Control"); got != "public, max-age=60" {
			t.Errorf("%s: Cache-Control = %q", path, got)
		}
	}

	rec, _ := serveWithHeaders(testHeadersConfig, http.MethodPost, "/api/v1/public/services", okHandler)
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("POST should never be cacheable, got %q", got)
	}

	noAge := testHeadersConfig
	noAge.CacheMaxAge = 0
	rec, _ = serveWithHeaders(noAge, http.MethodGet, "/api/v1/public/services", okHandler)
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("zero max age should fall back to no-store, got %q", got)
	}
}

func TestSecurityHeaders_HSTSOnlyWhenEnabled(t *testing.T) {
	rec, _ := serveWithHeaders(testHeadersConfig, http.MethodGet, "/health", okHandler)
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Error("expected HSTS when enabled")
	}

	rec, _ = serveWithHeaders(SecurityHeadersConfig{}, http.MethodGet, "/health", okHandler)
	if got := rec.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("expected no HSTS in development, got %q", got)
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" || rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected framing and sniffing protection regardless of config")
	}
}

func TestSecurityHeaders_SetOnErrorResponses(t *testing.T) {
	rec, err := serveWithHeaders(testHeadersConfig, http.MethodGet, "/api/v1/appointments/missing", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	})
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected handler error to pass through, got %v", err)
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("expected no-store on error responses")
	}
}
