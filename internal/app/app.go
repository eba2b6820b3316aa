// Package app assembles the scheduler's stores, lock, cache and services from
// configuration.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/api"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/memstore"
	"github.com/hackgods/clinic-scheduling/internal/metrics"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
)

type App struct {
	Directory clinic.Directory
	Calendar  *availability.Calendar
	Arbiter   appointment.Arbiter
	Metrics   *metrics.Registry
	Checks    []api.Check

	closers []func()
}

// New connects the configured store driver. With STORE_DRIVER=postgres the
// booking lock and doctor cache live in Redis; with memory everything stays in
// process and the lock is local.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Metrics: metrics.New()}

	var (
		directory clinic.Directory
		templates availability.Repository
		ledger    appointment.Repository
		locker    appointment.Locker
	)

	switch cfg.StoreDriver {
	case config.StoreMemory:
		store := memstore.New()
		directory, templates, ledger = store, store.Templates(), store.Ledger()
		locker = appointment.NewLocalLocker(cfg.LockWait)
		a.Checks = append(a.Checks, api.Check{Name: "store", Required: true, Ping: func(context.Context) error { return nil }})
		logger.Warn("using in-memory store; data is lost on restart")

	case config.StorePostgres:
		pool, err := db.Connect(ctx, db.PoolOptions{DSN: cfg.PostgresDSN, MaxConns: cfg.PostgresMaxConn})
		if err != nil {
			return nil, fmt.Errorf("postgres connection: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		a.Checks = append(a.Checks, api.Check{Name: "postgres", Required: true, Ping: db.Ping(pool)})
		logger.Info("connected to postgres")

		rdb, err := redisclient.NewRedisClient(ctx, redisclient.Options{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis connection: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("error closing redis", zap.Error(err))
			}
		})
		a.Checks = append(a.Checks, api.Check{Name: "redis", Required: true, Ping: redisPing(rdb)})
		logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))

		directory = clinic.NewCachedDirectory(clinic.NewPgDirectory(pool), redisclient.NewCache(rdb), cfg.DoctorCacheTTL, logger, a.Metrics)
		templates = availability.NewPgRepository(pool)
		ledger = appointment.NewPgRepository(pool)
		locker = redisclient.NewBookingLocker(rdb, cfg.LockTTL, cfg.LockWait)

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	a.Directory = directory
	a.Calendar = availability.NewCalendar(templates, directory)
	a.Arbiter = appointment.NewLoggedService(
		appointment.NewService(ledger, a.Calendar, directory, locker, logger),
		logger, a.Metrics, cfg.SlowOperation,
	)

	return a, nil
}

// Close releases connections in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func redisPing(rdb *redis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}
