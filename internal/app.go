package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/ArubikU/blobcraft/config"
	"github.com/ArubikU/blobcraft/internal/database"
	"github.com/ArubikU/blobcraft/internal/scheduler"
	"github.com/ArubikU/blobcraft/internal/service"
	"github.com/ArubikU/blobcraft/internal/transport"
)

const shutdownTimeout = 10 * time.Second

// NewConfig provides the application configuration
func NewConfig() *config.Config {
	return config.GetConfig()
}

func SetupLogger() {
	cfg := config.GetConfig().Log

	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// Start runs the server until ctx is cancelled, then shuts it down.
func Start(ctx context.Context) error {
	cfg := NewConfig()
	SetupLogger()

	db, err := database.Open(cfg.Sqlite.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	svc, err := service.NewService(cfg, db)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	if _, err := svc.PurgeOrphanChunks(ctx); err != nil {
		slog.Warn("failed to purge orphan chunks", "error", err)
	}

	cleanup := cfg.Storage.CleanupInterval
	if !cfg.Storage.EnableExpiration {
		cleanup = 0
	}
	sched, err := scheduler.New(svc, scheduler.Config{
		SweepInterval:   cfg.Upload.SweepInterval,
		CleanupInterval: cleanup,
	})
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	e, err := transport.NewEcho(svc, cfg)
	if err != nil {
		return fmt.Errorf("create echo: %w", err)
	}
	e.Server.ReadTimeout = cfg.App.ReadTimeout
	e.Server.ReadHeaderTimeout = cfg.App.ReadHeaderTimeout
	e.Server.WriteTimeout = cfg.App.WriteTimeout

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening",
			"address", cfg.App.Address,
			"env", cfg.Env,
			"objectstore", cfg.Objectstore.Type,
			"chunkSize", cfg.Upload.ChunkSize,
			"chunkThreshold", cfg.Upload.ChunkThreshold,
		)
		if err := e.Start(cfg.App.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
