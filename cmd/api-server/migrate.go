package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/logger"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config load: %w", err)
			}
			if cfg.StoreDriver != config.StorePostgres {
				return errors.New("migrate requires STORE_DRIVER=postgres")
			}

			log, err := logger.New(cfg)
			if err != nil {
				return fmt.Errorf("logger init: %w", err)
			}
			defer func() { _ = log.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			pool, err := db.Connect(ctx, db.PoolOptions{DSN: cfg.PostgresDSN, MaxConns: 1, ApplicationName: "clinic-migrate"})
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := db.Migrate(ctx, pool); err != nil {
				return err
			}

			log.Info("schema applied")
			return nil
		},
	}
}
