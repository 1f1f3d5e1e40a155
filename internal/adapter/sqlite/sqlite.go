// Package sqlite implements the session repository on a single SQLite file.
//
// Uses the pure-Go modernc.org/sqlite driver through database/sql. Every
// connection enables foreign keys so item rows cascade with their session.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/abouzarnameh/bombbase-api/internal/adapter/metrics"
	"github.com/abouzarnameh/bombbase-api/internal/adapter/sqlite/migrations"
	_ "modernc.org/sqlite"
)

const pragmas = "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

// DB wraps the SQLite handle. dbMetrics may be nil.
type DB struct {
	sqlDB   *sql.DB
	metrics *metrics.DBMetrics
}

// Open opens the database file, creating it when missing, and verifies it with a ping.
func Open(ctx context.Context, path string, dbMetrics *metrics.DBMetrics) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := "file:" + filepath.Clean(path) + "?" + pragmas
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	slog.Info("Database connected", "driver", "sqlite", "path", path)
	return &DB{sqlDB: sqlDB, metrics: dbMetrics}, nil
}

// Migrate applies pending embedded migrations and reports how many ran.
func (db *DB) Migrate(ctx context.Context) (int, error) {
	slog.Info("Running database migrations", "driver", "sqlite")
	n, err := applyMigrations(ctx, db.sqlDB, migrations.FS)
	if err != nil {
		return n, fmt.Errorf("run migrations: %w", err)
	}
	return n, nil
}

func (db *DB) Close() error {
	if db == nil || db.sqlDB == nil {
		return nil
	}
	return db.sqlDB.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	return db.sqlDB.PingContext(ctx)
}

func (db *DB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := db.sqlDB.ExecContext(ctx, query, args...)
	db.metrics.Observe(query, time.Since(start).Seconds(), err)
	return res, err
}

func (db *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := db.sqlDB.QueryContext(ctx, query, args...)
	db.metrics.Observe(query, time.Since(start).Seconds(), err)
	return rows, err
}

// queryRow scans a single row into dest. sql.ErrNoRows is returned unwrapped
// and is not counted as a query error.
func (db *DB) queryRow(ctx context.Context, query string, args []any, dest ...any) error {
	start := time.Now()
	err := db.sqlDB.QueryRowContext(ctx, query, args...).Scan(dest...)
	observed := err
	if err == sql.ErrNoRows {
		observed = nil
	}
	db.metrics.Observe(query, time.Since(start).Seconds(), observed)
	return err
}
