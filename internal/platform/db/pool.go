package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig describes the connection pool. Schema is placed first on the
// search_path of every connection so unqualified table names resolve to the
// clinic's tables.
type PoolConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
	Schema   string
}

func NewPool(ctx context.Context, pc PoolConfig) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(pc.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if pc.MaxConns > 0 {
		cfg.MaxConns = pc.MaxConns
	}
	if pc.MinConns > 0 {
		cfg.MinConns = pc.MinConns
	}
	cfg.HealthCheckPeriod = 30 * time.Second
	if pc.Schema != "" {
		cfg.ConnConfig.RuntimeParams["search_path"] = pc.Schema + ", public"
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// EnsureSchema creates the clinic schema if it is missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, schema string) error {
	if !identPattern.MatchString(schema) {
		return fmt.Errorf("invalid schema name %q", schema)
	}
	if _, err := pool.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)); err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}
	return nil
}
