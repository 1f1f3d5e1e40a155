// Package store opens the session repository backend named by a storage
// location and exposes its migration and shutdown hooks uniformly.
package store

import (
	"context"
	"fmt"

	"github.com/abouzarnameh/bombbase-api/internal/adapter/metrics"
	"github.com/abouzarnameh/bombbase-api/internal/adapter/postgres"
	"github.com/abouzarnameh/bombbase-api/internal/adapter/sqlite"
	"github.com/abouzarnameh/bombbase-api/internal/domain"
	"github.com/abouzarnameh/bombbase-api/internal/platform/config"
)

type Store struct {
	Sessions domain.SessionRepository
	Driver   config.StorageDriver

	migrate func(ctx context.Context) error
	close   func()
}

// Open connects to location. Postgres URLs select the pgx pool, anything
// else is opened as a SQLite file. dbMetrics may be nil.
func Open(ctx context.Context, location string, dbMetrics *metrics.DBMetrics) (*Store, error) {
	switch driver := config.DriverFor(location); driver {
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, location, dbMetrics)
		if err != nil {
			return nil, err
		}
		return &Store{
			Sessions: postgres.NewSessionRepo(pool),
			Driver:   driver,
			migrate: func(ctx context.Context) error {
				return postgres.RunMigrationsWithLock(ctx, pool)
			},
			close: pool.Close,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, location, dbMetrics)
		if err != nil {
			return nil, err
		}
		return &Store{
			Sessions: sqlite.NewSessionRepo(db),
			Driver:   driver,
			migrate: func(ctx context.Context) error {
				_, err := db.Migrate(ctx)
				return err
			},
			close: func() { _ = db.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
}

// Migrate brings the schema up to date.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate %s store: %w", s.Driver, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Sessions.Ping(ctx)
}

func (s *Store) Close() {
	s.close()
}
