// Package dbtest gives integration tests an isolated, migrated Postgres
// schema. Tests are skipped unless TEST_POSTGRES_DSN points at a server.
package dbtest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-scheduling/internal/db"
)

const dsnEnv = "TEST_POSTGRES_DSN"

// Pool returns a pool whose search_path starts at a fresh schema holding the
// scheduler tables. The schema is dropped when the test ends.
func Pool(t testing.TB) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skipf("%s not set, skipping Postgres integration test", dsnEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admin, err := db.Connect(ctx, db.PoolOptions{DSN: dsn, MaxConns: 2, ApplicationName: "clinic-dbtest"})
	if err != nil {
		t.Fatalf("connect %s: %v", dsnEnv, err)
	}
	defer admin.Close()

	// Extensions are database-wide; keep btree_gist in public so dropping a
	// test schema never takes it along.
	if _, err := admin.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS btree_gist WITH SCHEMA public`); err != nil && !db.IsConflict(err) {
		t.Fatalf("create btree_gist: %v", err)
	}

	schema := "test_" + strings.ReplaceAll(uuid.NewString()[:13], "-", "")
	if _, err := admin.Exec(ctx, "CREATE SCHEMA "+pgx.Identifier{schema}.Sanitize()); err != nil {
		t.Fatalf("create schema %s: %v", schema, err)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		t.Fatalf("parse %s: %v", dsnEnv, err)
	}
	cfg.MaxConns = 8
	cfg.ConnConfig.RuntimeParams["search_path"] = schema + ", public"
	cfg.ConnConfig.RuntimeParams["timezone"] = "UTC"

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("open test pool: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		dropSchema(dsn, schema)
	})

	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate %s: %v", schema, err)
	}
	return pool
}

func dropSchema(dsn, schema string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dbtest: drop schema %s: %v\n", schema, err)
		return
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, "DROP SCHEMA IF EXISTS "+pgx.Identifier{schema}.Sanitize()+" CASCADE"); err != nil {
		fmt.Fprintf(os.Stderr, "dbtest: drop schema %s: %v\n", schema, err)
	}
}
