package config

import (
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string        `mapstructure:"PORT"`
	Env               string        `mapstructure:"ENV"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32         `mapstructure:"DB_MIN_CONNS"`
	DBSchema          string        `mapstructure:"DB_SCHEMA"`
	RedisURL          string        `mapstructure:"REDIS_URL"`
	AMQPURL           string        `mapstructure:"AMQP_URL"`
	AMQPExchange      string        `mapstructure:"AMQP_EXCHANGE"`
	AuthIssuer        string        `mapstructure:"AUTH_ISSUER"`
	AuthAudience      string        `mapstructure:"AUTH_AUDIENCE"`
	AuthSigningKey    string        `mapstructure:"AUTH_SIGNING_KEY"`
	CORSOrigins       []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS      float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst    int           `mapstructure:"RATE_LIMIT_BURST"`
	BookingRateLimit  int           `mapstructure:"BOOKING_RATE_LIMIT"`
	BookingRateWindow time.Duration `mapstructure:"BOOKING_RATE_WINDOW"`
	RequestTimeout    time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit         string        `mapstructure:"BODY_LIMIT"`
	Currency          string        `mapstructure:"CURRENCY"`
}

var schemaPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("DB_SCHEMA", "clinic")
	v.SetDefault("AMQP_EXCHANGE", "clinic.events")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("BOOKING_RATE_LIMIT", 30)
	v.SetDefault("BOOKING_RATE_WINDOW", "1m")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("BODY_LIMIT", "64K")
	v.SetDefault("CURRENCY", "USD")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "DB_SCHEMA",
		"REDIS_URL", "AMQP_URL", "AMQP_EXCHANGE",
		"AUTH_ISSUER", "AUTH_AUDIENCE", "AUTH_SIGNING_KEY", "CORS_ORIGINS",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "BOOKING_RATE_LIMIT", "BOOKING_RATE_WINDOW",
		"REQUEST_TIMEOUT", "BODY_LIMIT", "CURRENCY",
	} {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) <= 1 {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active, unauthenticated requests get admin access.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development
// a signing key must be present so bearer tokens are actually verified.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY is required when ENV=%q", c.Env)
	}
	if c.AuthSigningKey != "" && len(c.AuthSigningKey) < 32 {
		return fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 characters, got %d", len(c.AuthSigningKey))
	}
	if !schemaPattern.MatchString(c.DBSchema) {
		return fmt.Errorf("DB_SCHEMA %q is not a valid identifier", c.DBSchema)
	}
	if c.BookingRateLimit <= 0 {
		return fmt.Errorf("BOOKING_RATE_LIMIT must be positive, got %d", c.BookingRateLimit)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("CURRENCY must be a 3-letter ISO code, got %q", c.Currency)
	}
	return nil
}
