package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harshitk-cp/pyramid/internal/api"
	"github.com/Harshitk-cp/pyramid/internal/buildconfig"
	"github.com/Harshitk-cp/pyramid/internal/config"
	"github.com/Harshitk-cp/pyramid/internal/domain"
	"github.com/Harshitk-cp/pyramid/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}

	logger := newLogger(config.LogLevel())
	defer func() { _ = logger.Sync() }()

	logger.Info("starting pyramid",
		zap.String("version", buildconfig.Version()),
		zap.String("commit", buildconfig.Commit()))

	classifierCfg, err := config.Classifier()
	if err != nil {
		logger.Fatal("invalid classifier config", zap.Error(err))
	}

	ctx := context.Background()

	var (
		stores domain.Stores
		pinger api.Pinger
	)
	switch backend := config.StoreBackend(); backend {
	case "postgres":
		dbURL := config.DatabaseURL()
		if dbURL == "" {
			logger.Fatal("DATABASE_URL is required for the postgres backend")
		}

		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			logger.Fatal("failed to ping database", zap.Error(err))
		}
		logger.Info("connected to database")

		applied, err := store.Migrate(ctx, pool, config.MigrationsPath())
		if err != nil {
			logger.Fatal("failed to apply migrations", zap.Error(err))
		}
		logger.Info("migrations applied", zap.Strings("files", applied))

		stores = store.NewPostgresStores(pool)
		pinger = pool
	default:
		logger.Warn("using in-memory store; data is lost on restart")
		stores = store.NewInMemoryStores()
	}

	app := api.NewApp(stores, pinger, classifierCfg, logger)

	// Start background services
	cascadeEnabled := config.CascadeInterval() > 0
	if cascadeEnabled {
		app.Cascade.Start()
	}

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	if cascadeEnabled {
		app.Cascade.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewExample()
	}
	return logger
}
