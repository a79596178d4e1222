package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/glee/internal/archive"
	"github.com/JonMunkholm/glee/internal/config"
	"github.com/JonMunkholm/glee/internal/core"
	_ "github.com/JonMunkholm/glee/internal/core/tables" // Register all import kinds
	"github.com/JonMunkholm/glee/internal/logging"
	"github.com/JonMunkholm/glee/internal/session"
	"github.com/JonMunkholm/glee/internal/store"
	"github.com/JonMunkholm/glee/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	records := store.NewPGStore(pool)
	if cfg.Database.EnsureSchema {
		if err := records.EnsureSchema(ctx); err != nil {
			slog.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
	}

	sessions, closeSessions, err := openSessionStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open session store", "store", cfg.Session.Store, "error", err)
		os.Exit(1)
	}
	defer closeSessions()

	service := core.NewService(records, sessions, core.ServiceConfig{
		MaxConcurrentUploads: cfg.Upload.MaxConcurrent,
		UploadWait:           cfg.Upload.MaxWaitTime,
		MaxFileSize:          cfg.Upload.MaxFileSize,
	})
	service.SetAuditRecorder(records)

	if cfg.Archive.Enabled() {
		archiver, err := archive.NewS3Archiver(ctx, cfg.Archive)
		if err != nil {
			slog.Error("failed to configure log archive", "error", err)
			os.Exit(1)
		}
		service.SetArchiver(archiver)
		slog.Info("import log archiving enabled", "bucket", cfg.Archive.Bucket, "prefix", cfg.Archive.Prefix)
	}

	slog.Info("import kinds registered", "count", core.TableCount(), "kinds", core.Keys())

	server := web.NewServer(service, cfg)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartSessionSweeper(jobCtx, cfg.Session.SweepInterval)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.UploadStatus(); status.Active > 0 {
			slog.Info("waiting for uploads to complete", "active", status.Active)
			if err := service.WaitForUploads(shutdownCtx); err != nil {
				slog.Warn("uploads did not complete in time", "error", err)
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openSessionStore returns the configured session store and a close func.
func openSessionStore(ctx context.Context, cfg *config.Config) (core.SessionStore, func(), error) {
	if cfg.Session.Store != "redis" {
		return core.NewMemorySessionStore(cfg.Session.TTL), func() {}, nil
	}

	client, err := session.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("sessions stored in redis", "prefix", cfg.Redis.KeyPrefix)
	return session.NewRedisStore(client, cfg.Redis.KeyPrefix, cfg.Session.TTL), func() { client.Close() }, nil
}
