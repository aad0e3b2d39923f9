package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats represents database connection pool statistics.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
}

// GetPoolStats returns connection pool statistics.
func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
	}
}

// Check is a named dependency probe. Ping returns nil when the dependency is
// reachable.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// PoolCheck probes the Postgres pool.
func PoolCheck(pool *pgxpool.Pool) Check {
	return Check{Name: "postgres", Ping: pool.Ping}
}

// HealthHandler runs every check with a shared five second budget and
// reports 503 when any of them fails.
func HealthHandler(checks ...Check) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		results := make(map[string]string, len(checks))
		healthy := true
		for _, chk := range checks {
			if err := chk.Ping(ctx); err != nil {
				results[chk.Name] = err.Error()
				healthy = false
				continue
			}
			results[chk.Name] = "ok"
		}

		if !healthy {
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
				"status": "unhealthy",
				"checks": results,
			})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"checks": results,
		})
	}
}

// PoolStatsHandler exposes pool statistics for operators.
func PoolStatsHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, GetPoolStats(pool))
	}
}
