// Package main is the entry point for the Victoria catalog server.
// Victoria is a multi-tenant product catalog API with image attachments
// stored in an S3-compatible object store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prn-tf/victoria-catalog/internal/auth"
	"github.com/prn-tf/victoria-catalog/internal/config"
	"github.com/prn-tf/victoria-catalog/internal/handler"
	"github.com/prn-tf/victoria-catalog/internal/lock"
	"github.com/prn-tf/victoria-catalog/internal/metrics"
	"github.com/prn-tf/victoria-catalog/internal/pkg/logging"
	"github.com/prn-tf/victoria-catalog/internal/repository"
	"github.com/prn-tf/victoria-catalog/internal/repository/postgres"
	"github.com/prn-tf/victoria-catalog/internal/repository/sqlite"
	"github.com/prn-tf/victoria-catalog/internal/service"
	"github.com/prn-tf/victoria-catalog/internal/storage"
	memstore "github.com/prn-tf/victoria-catalog/internal/storage/memory"
	s3store "github.com/prn-tf/victoria-catalog/internal/storage/s3"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	logger := logging.New(cfg.Logging)

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("starting victoria catalog server")

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database and repositories
	repos, dbHealth, err := buildRepositories(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("database setup: %w", err)
	}
	defer dbHealth.Close()

	// Object store
	store, err := buildObjectStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("storage setup: %w", err)
	}

	// Lock backend
	locker, err := buildLocker(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("lock setup: %w", err)
	}

	// Services
	userService := service.NewUserService(repos.User, locker, cfg.Lock.TTL, cfg.Auth.BcryptCost, logger)
	productService := service.NewProductService(repos.Product, repos.Image, store, locker, cfg.Lock.TTL, logger)
	imageService := service.NewImageService(repos.Image, repos.Product, store, logger)

	// Metrics
	var middlewares []func(http.Handler) http.Handler
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		m := metrics.New()
		middlewares = append(middlewares, m.Middleware)

		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, m.Handler())
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: metricsMux,
		}
		go func() {
			logger.Info().Int("port", cfg.Metrics.Port).Str("path", cfg.Metrics.Path).Msg("metrics server listening")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	// HTTP API
	router := handler.NewRouter(handler.RouterConfig{
		UserHandler:    handler.NewUserHandler(userService, logger),
		ProductHandler: handler.NewProductHandler(productService, logger),
		ImageHandler:   handler.NewImageHandler(imageService, cfg.Server.MaxUploadSize, logger),
		AuthMiddleware: auth.Middleware(userService),
		Middlewares:    middlewares,
		Database:       dbHealth,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown failed")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown failed")
		}
	}

	logger.Info().Msg("shutdown complete")
	return nil
}

// buildRepositories connects to the configured database and constructs
// the repository set. SQLite migrations run automatically on startup;
// PostgreSQL schemas are managed by victoria-migrate.
func buildRepositories(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*repository.Repositories, repository.DatabaseHealth, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		db, err := sqlite.NewDB(ctx, sqlite.Config{
			Path:            cfg.Database.Path,
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			ConnMaxLifetime: time.Hour,
			JournalMode:     cfg.Database.JournalMode,
			BusyTimeout:     cfg.Database.BusyTimeout,
			SynchronousMode: cfg.Database.SynchronousMode,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return &repository.Repositories{
			User:    sqlite.NewUserRepository(db),
			Product: sqlite.NewProductRepository(db),
			Image:   sqlite.NewImageRepository(db),
		}, db, nil

	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		return &repository.Repositories{
			User:    postgres.NewUserRepository(db),
			Product: postgres.NewProductRepository(db),
			Image:   postgres.NewImageRepository(db),
		}, db, nil

	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

// buildObjectStore constructs the configured object store backend.
func buildObjectStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (storage.ObjectStore, error) {
	switch cfg.Storage.Backend {
	case "s3":
		return s3store.NewStore(ctx, cfg.Storage.S3, logger)
	case "memory":
		logger.Warn().Msg("using in-memory object store; uploads will not survive restarts")
		return memstore.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// buildLocker constructs the configured lock backend.
func buildLocker(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (lock.Locker, error) {
	switch cfg.Lock.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:        cfg.Redis.Addr(),
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			PoolSize:    cfg.Redis.PoolSize,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		logger.Info().Str("addr", cfg.Redis.Addr()).Msg("connected to redis")
		return lock.NewRedisLocker(client), nil
	case "memory":
		return lock.NewMemoryLocker(), nil
	case "none":
		return lock.NewNoOpLocker(), nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Lock.Backend)
	}
}
