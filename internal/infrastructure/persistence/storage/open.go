// Package storage opens the configured todo.Repository backend.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rezkam/tasks/internal/application/todo"
	"github.com/rezkam/tasks/internal/config"
	"github.com/rezkam/tasks/internal/infrastructure/persistence/fs"
	"github.com/rezkam/tasks/internal/infrastructure/persistence/gcs"
	"github.com/rezkam/tasks/internal/infrastructure/persistence/memory"
	"github.com/rezkam/tasks/internal/infrastructure/persistence/postgres"
	"github.com/rezkam/tasks/internal/infrastructure/persistence/sqlite"
)

// Open creates the repository selected by cfg.Type.
// The caller owns the result and must Close it.
func Open(ctx context.Context, cfg config.StorageConfig) (todo.Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case config.StorageMemory:
		slog.WarnContext(ctx, "using in-memory storage, state is lost on exit")
		return memory.NewStore(), nil

	case config.StorageFS:
		store, err := fs.NewStore(cfg.FSDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open fs storage: %w", err)
		}
		return store, nil

	case config.StorageSQLite:
		store, err := sqlite.NewStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite storage: %w", err)
		}
		return store, nil

	case config.StorageGCS:
		store, err := gcs.NewStore(ctx, cfg.GCSBucket, cfg.GCSPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to open gcs storage: %w", err)
		}
		return store, nil

	case config.StoragePostgres:
		store, err := postgres.NewStoreWithConfig(ctx, postgres.DBConfig{
			DSN:             cfg.DSN,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres storage: %w", err)
		}
		return store, nil
	}

	return nil, fmt.Errorf("%w: %q", config.ErrUnknownStorage, cfg.Type)
}

// Describe returns a loggable description of cfg with credentials masked.
func Describe(cfg config.StorageConfig) string {
	switch cfg.Type {
	case config.StorageFS:
		return "fs:" + cfg.FSDir
	case config.StorageSQLite:
		return "sqlite:" + cfg.SQLitePath
	case config.StorageGCS:
		return "gcs://" + cfg.GCSBucket + "/" + cfg.GCSPrefix
	case config.StoragePostgres:
		return "postgres:" + maskPassword(cfg.DSN)
	default:
		return cfg.Type
	}
}
