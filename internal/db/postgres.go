package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultApplicationName = "clinic-scheduling"

// PoolOptions configures the Postgres pool shared by every store.
type PoolOptions struct {
	DSN             string
	MaxConns        int32 // zero keeps the pgx default
	ApplicationName string
}

// poolConfig pins the session time zone to UTC: appointment dates are naive
// calendar days and must not shift with the server's zone.
func poolConfig(opts PoolOptions) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 15 * time.Minute

	name := opts.ApplicationName
	if name == "" {
		name = defaultApplicationName
	}
	cfg.ConnConfig.RuntimeParams["application_name"] = name
	cfg.ConnConfig.RuntimeParams["timezone"] = "UTC"

	return cfg, nil
}

// Connect opens the pool and pings it. A server that is down or still starting
// yields a STORE_UNAVAILABLE error.
func Connect(ctx context.Context, opts PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := poolConfig(opts)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := Ping(pool)(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// Ping returns a readiness check for pool bounded to five seconds.
func Ping(pool *pgxpool.Pool) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return Classify(pool.Ping(pingCtx), "ping postgres")
	}
}
