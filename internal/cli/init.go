// Package cli provides common CLI initialization utilities.
// This package consolidates repeated initialization patterns across
// cmd/finsight, cmd/finsight-worker, and cmd/finsight-report.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finsight/internal/config"
	"finsight/internal/ledger"
	"finsight/internal/ledger/memory"
	"finsight/internal/ledger/sqlite"
	applog "finsight/internal/log"
)

// SetupLogger initializes structured logging with default settings.
// Returns the configured logger and sets it as the default logger.
func SetupLogger() *applog.Logger {
	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenLedger wires the configured ledger backend. The sqlite backend also
// exposes its database handle so the audit store can share the same file;
// it is nil for the memory backend.
func OpenLedger(ctx context.Context, cfg *config.Config) (*ledger.Result, *sqlite.Store, error) {
	backend := ledger.BackendType(cfg.DataBackend)
	if !backend.IsValid() {
		return nil, nil, fmt.Errorf("unknown ledger backend %q", cfg.DataBackend)
	}

	switch backend {
	case ledger.SQLiteBackend:
		store, err := sqlite.Open(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite ledger: %w", err)
		}
		if cfg.SeedFile != "" {
			movements, err := memory.LoadSeedFile(cfg.SeedFile)
			if err != nil {
				store.Close()
				return nil, nil, fmt.Errorf("load seed file: %w", err)
			}
			if err := store.Seed(ctx, movements...); err != nil {
				store.Close()
				return nil, nil, fmt.Errorf("seed sqlite ledger: %w", err)
			}
		}
		return &ledger.Result{
			Reader:  store,
			Cleanup: func() error { return store.Close() },
		}, store, nil

	case ledger.MemoryBackend:
		var (
			store *memory.Store
			err   error
		)
		if cfg.SeedFile != "" {
			store, err = memory.NewFromFile(cfg.SeedFile)
			if err != nil {
				return nil, nil, fmt.Errorf("load memory ledger: %w", err)
			}
		} else {
			store = memory.New()
		}
		return &ledger.Result{
			Reader:  store,
			Cleanup: func() error { return nil },
		}, nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown ledger backend %q", cfg.DataBackend)
	}
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup()
		}

		cancel()

		select {
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		case <-time.After(2 * time.Second):
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
