package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// publicPaths lists route patterns reachable without credentials: health
// checks and the patient-facing booking endpoints.
var publicPaths = map[string]bool{
	"/health":                     true,
	"/health/db":                  true,
	"/api/v1/public/services":     true,
	"/api/v1/public/end-time":     true,
	"/api/v1/public/appointments": true,
}

// AuthSkipper returns true for requests whose matched route should skip
// authentication. Echo resolves the route before group middleware runs, so
// c.Path() holds the registered pattern rather than the raw URL.
func AuthSkipper(c echo.Context) bool {
	return IsPublicPath(c.Path())
}

// IsPublicPath reports whether the given route pattern is public.
func IsPublicPath(path string) bool {
	return publicPaths[strings.TrimSuffix(path, "/")] || publicPaths[path]
}
