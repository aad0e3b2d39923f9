package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clinic/appointments/internal/config"
	"github.com/clinic/appointments/internal/domain/billing"
	"github.com/clinic/appointments/internal/domain/booking"
	"github.com/clinic/appointments/internal/domain/healthcareservice"
	"github.com/clinic/appointments/internal/domain/scheduling"
	"github.com/clinic/appointments/internal/platform/auth"
	"github.com/clinic/appointments/internal/platform/db"
	"github.com/clinic/appointments/internal/platform/events"
	"github.com/clinic/appointments/internal/platform/middleware"
	"github.com/clinic/appointments/internal/platform/telemetry"
	"github.com/clinic/appointments/internal/platform/validation"
	"github.com/clinic/appointments/migrations"
)

func runServer(migrate bool) error {
	// Config
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Env)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.PoolConfig{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
		Schema:   cfg.DBSchema,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	if err := db.EnsureSchema(ctx, pool, cfg.DBSchema); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure schema")
	}
	if migrate {
		n, err := db.NewMigrator(pool, migrations.FS, cfg.DBSchema).Up(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
		logger.Info().Int("applied", n).Msg("migrations applied")
	}
	logger.Info().Str("schema", cfg.DBSchema).Msg("connected to database")

	checks := []db.Check{db.PoolCheck(pool)}

	// Redis (optional)
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("redis unreachable, booking rate limit fails open")
		}
		checks = append(checks, db.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}

	// Events (optional)
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to rabbitmq")
		}
		defer amqpPub.Close()
		publisher = amqpPub
		logger.Info().Str("exchange", cfg.AMQPExchange).Msg("publishing domain events")
	}

	// Metrics
	metrics := telemetry.NewProvider()
	metrics.AddGauges(func() map[string]int64 {
		st := pool.Stat()
		return map[string]int64{
			"db_pool_acquired_connections": int64(st.AcquiredConns()),
			"db_pool_idle_connections":     int64(st.IdleConns()),
			"db_pool_total_connections":    int64(st.TotalConns()),
		}
	})
	publisher = metrics.CountingPublisher(publisher)

	// Domain services
	txRunner := db.TxRunner(pool)

	catalogSvc := healthcareservice.NewService(healthcareservice.NewHealthcareServiceRepoPG(pool))

	schedSvc := scheduling.NewService(scheduling.NewAppointmentRepoPG(pool), catalogSvc)
	schedSvc.SetTxRunner(txRunner)
	schedSvc.SetPublisher(publisher)

	billingSvc := billing.NewService(
		billing.NewCustomerRepoPG(pool),
		billing.NewItemRepoPG(pool),
		billing.NewInvoiceRepoPG(pool),
		booking.NewInvoiceSource(schedSvc, catalogSvc),
		cfg.Currency,
	)
	billingSvc.SetTxRunner(txRunner)
	billingSvc.SetPublisher(publisher)

	bookingSvc := booking.NewService(schedSvc, catalogSvc, billingSvc)
	bookingSvc.SetPublisher(publisher)

	// Echo server
	e := newEcho(cfg, logger)
	e.Use(metrics.MetricsMiddleware())

	e.GET("/health", db.HealthHandler(checks...))
	e.GET("/health/db", db.PoolStatsHandler(pool))
	e.GET("/metrics", metrics.Handler(), auth.RequireRole(auth.RoleAdmin))

	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(generalRateLimit(cfg)))

	booking.NewHandler(bookingSvc).RegisterRoutes(apiV1, bookingRateLimit(cfg, rdb))
	healthcareservice.NewHandler(catalogSvc).RegisterRoutes(apiV1)
	scheduling.NewHandler(schedSvc).RegisterRoutes(apiV1)
	billing.NewHandler(billingSvc).RegisterRoutes(apiV1)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newEcho builds the server with the global middleware chain. Routes are
// registered by the caller.
func newEcho(cfg *config.Config, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(middleware.SecurityHeadersConfig{
		HSTS:           !cfg.IsDev(),
		CacheablePaths: []string{"/api/v1/public/services"},
		CacheMaxAge:    time.Minute,
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware([]byte(cfg.AuthSigningKey)))
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSigningKey),
			Skipper:    auth.AuthSkipper,
		}))
	}
	return e
}

func generalRateLimit(cfg *config.Config) middleware.RateLimitConfig {
	rl := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rl.RequestsPerSecond <= 0 {
		rl = middleware.DefaultRateLimitConfig()
	}
	return rl
}

// bookingRateLimit guards the public pages. With Redis the window is shared
// across replicas; without it each process keeps its own buckets.
func bookingRateLimit(cfg *config.Config, rdb *redis.Client) echo.MiddlewareFunc {
	if rdb != nil {
		return middleware.NewRedisRateLimiter(rdb, cfg.BookingRateLimit, cfg.BookingRateWindow, "rl:booking").Middleware(true)
	}
	window := cfg.BookingRateWindow
	if window <= 0 {
		window = time.Minute
	}
	return middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: float64(cfg.BookingRateLimit) / window.Seconds(),
		BurstSize:         cfg.BookingRateLimit,
	})
}
