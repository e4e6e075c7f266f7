// Package backend selects and opens the document store implementation
// named by the configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"grana/internal/config"
	"grana/internal/storage"
)

// Type represents the kind of store backing the service
type Type string

const (
	MemoryBackend   Type = "memory"
	SQLiteBackend   Type = "sqlite"
	PostgresBackend Type = "postgres"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

// Types returns all valid backend types
func Types() []Type {
	return []Type{MemoryBackend, SQLiteBackend, PostgresBackend}
}

// Open creates the store named by cfg.DataBackend. The caller owns the
// returned store and must Close it.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch t {
	case MemoryBackend:
		logger.Info("Initialized memory backend")
		return storage.NewMemoryStore(), nil

	case SQLiteBackend:
		store, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return store, nil

	case PostgresBackend:
		store, err := storage.NewPostgresStore(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		logger.Info("Initialized Postgres backend")
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", t)
	}
}
