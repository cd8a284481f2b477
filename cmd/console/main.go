package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sallamaty/rounds-console/internal/api"
	"github.com/sallamaty/rounds-console/internal/config"
	"github.com/sallamaty/rounds-console/internal/health"
	"github.com/sallamaty/rounds-console/internal/mirror"
	"github.com/sallamaty/rounds-console/internal/reports"
	"github.com/sallamaty/rounds-console/internal/session"
	"github.com/sallamaty/rounds-console/internal/storage"
	"github.com/sallamaty/rounds-console/pkg/client"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("starting rounds-console",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"api", cfg.API.BaseURL,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	backend := client.NewClient(cfg.API.BaseURL, nil,
		client.WithTimeout(cfg.API.Timeout),
		client.WithLogger(logger.With("component", "client")),
	)

	registry := health.NewRegistry(3 * time.Second)
	registry.Register(health.NewUpstreamChecker(backend))

	// Session storage
	var sessions session.Stores
	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(initCtx).Err(); err != nil {
			slog.Error("failed to connect to redis", "address", cfg.Redis.Address, "error", err)
			os.Exit(1)
		}
		sessions = session.NewRedisStores(rdb, cfg.Session.TTL)
		registry.Register(health.NewRedisChecker(rdb))
		slog.Info("redis sessions enabled", "address", cfg.Redis.Address)
	} else {
		sessions = session.NewMemoryStores()
		slog.Warn("redis not configured, sessions are kept in memory")
	}

	// Evaluation catalog mirror
	var repo storage.Repository
	if cfg.Database.DSN != "" {
		slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
		applied, err := storage.MigrateFromDSN(initCtx, cfg.Database.DSN, cfg.Database.MigrationsDir)
		if err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("migrations complete", "applied", len(applied))

		pg, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{DSN: cfg.Database.DSN})
		if err != nil {
			slog.Error("failed to create database repository", "error", err)
			os.Exit(1)
		}
		repo = pg
		slog.Info("database connected successfully")

		checker, err := health.NewPostgresChecker(cfg.Database.DSN)
		if err != nil {
			slog.Error("failed to create postgres checker", "error", err)
			os.Exit(1)
		}
		defer checker.Close()
		registry.Register(checker)
	} else {
		repo = storage.NewMemoryRepository()
	}
	defer repo.Close()

	// Load report catalog
	catalog := reports.NewCatalog()
	if err := catalog.LoadFromDir(cfg.Reports.Dir); err != nil {
		slog.Warn("failed to load reports from dir", "dir", cfg.Reports.Dir, "error", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Mirror.Enabled {
		source := backend.WithTokens(client.NewStaticToken(cfg.Mirror.Token))
		mirror.NewSyncer(source, repo, cfg.Mirror.Interval).Start(ctx)
	}

	// Setup HTTP server
	server := api.NewServer(cfg.Server, cfg.Session, api.Deps{
		Client:   backend,
		Sessions: sessions,
		Legacy:   repo,
		Catalog:  catalog,
		Health:   registry,
	})
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}

	slog.Info("rounds-console stopped")
}
