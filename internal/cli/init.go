// Package cli consolidates the initialization steps shared by cmd/grana
// and cmd/recurring-worker.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"grana/internal/auth"
	"grana/internal/backend"
	"grana/internal/config"
	applog "grana/internal/log"
	"grana/internal/storage"
)

// Store combines the document store contract with the credential
// persistence the auth service needs; every backend implements both.
type Store interface {
	storage.Store
	auth.UserStore
}

// Setup loads the .env file, installs the default logger and returns the
// validated configuration. Exits the process on validation failure.
func Setup(component string) (*applog.Logger, *config.Config) {
	// .env is for local development; errors are ignored in production/docker.
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New(applog.Config{
		Component: component,
		Level:     logLevel(cfg.LogLevel),
		Handler:   logHandler(cfg.LogFormat, logLevel(cfg.LogLevel)),
	})
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	return logger, cfg
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func logHandler(format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.NewTextHandler(os.Stdout, opts)
}

// OpenStore opens the configured data backend or exits the process.
func OpenStore(ctx context.Context, cfg *config.Config, logger *applog.Logger) Store {
	store, err := backend.Open(ctx, cfg, logger.WithComponent(applog.ComponentBackend).Logger)
	if err != nil {
		logger.Error("Failed to open data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	s, ok := store.(Store)
	if !ok {
		logger.Error("Data backend does not implement auth.UserStore", "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return s
}
