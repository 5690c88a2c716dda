// Package backend opens the profile store selected by configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/Simplici0/crewpay/internal/config"
	"github.com/Simplici0/crewpay/internal/db"
	"github.com/Simplici0/crewpay/internal/logger"
	"github.com/Simplici0/crewpay/internal/migrations"
	"github.com/Simplici0/crewpay/internal/profile"
)

// Backend is an open profile store plus the resources behind it.
type Backend struct {
	Store profile.Store
	close func()
}

// Close releases the database handle or pool, if any.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Open builds the store for cfg.StoreDriver. SQLite databases are migrated and Postgres
// schemas are created before the store is returned.
func Open(ctx context.Context, cfg config.Config) (*Backend, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Log.Warn().Msg("Using in-memory profile store; profiles are lost on exit")
		return &Backend{Store: profile.NewMemoryStore()}, nil

	case config.DriverFile:
		store, err := profile.NewFileStore(cfg.ProfilesFile, cfg.ProfilesPassphrase)
		if err != nil {
			return nil, fmt.Errorf("open profiles file: %w", err)
		}
		logger.Log.Info().
			Str("file", cfg.ProfilesFile).
			Bool("encrypted", cfg.ProfilesPassphrase != "").
			Msg("Using file profile store")
		return &Backend{Store: store}, nil

	case config.DriverPostgres:
		pool, err := db.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store := profile.NewPgStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Log.Info().Msg("Using postgres profile store")
		return &Backend{Store: store, close: pool.Close}, nil

	case config.DriverSQLite:
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		if err := migrations.Up(database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run database migrations: %w", err)
		}
		logger.Log.Info().Str("db_path", cfg.DBPath).Msg("Using sqlite profile store")
		return &Backend{
			Store: profile.NewSQLiteStore(database),
			close: func() { _ = database.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
