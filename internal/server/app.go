// Package server wires the GophDrive service together: configuration,
// logging, persistence, the listing cache, business services and the gRPC
// transport, and runs them until a termination signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/server/cache"
	"github.com/dmitrijs2005/gophdrive/internal/server/config"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophdrive/internal/server/services"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/gophdrive/internal/server/grpc"
)

const cachePrefix = "gophdrive"

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	redis       *redis.Client
	hierarchy   *services.HierarchyService
	uploads     *services.UploadService
}

// NewApp opens storage (running migrations on PostgreSQL), connects the
// optional Redis cache and builds the services.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogBackend, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	rm, err := openRepositoryManager(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	var listing cache.ListingCache = cache.NopListingCache{}
	var rdb *redis.Client
	if c.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rm.Close()
			_ = rdb.Close()
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		listing = cache.NewRedisListingCache(rdb, cachePrefix, c.ListingCacheTTL)
		logger.Info(ctx, "Listing cache enabled", "addr", c.RedisAddr)
	}

	return &App{
		config:      c,
		logger:      logger,
		repomanager: rm,
		redis:       rdb,
		hierarchy:   services.NewHierarchyService(rm, listing, logger),
		uploads:     services.NewUploadService(c, logger),
	}, nil
}

func openRepositoryManager(ctx context.Context, c *config.Config, logger logging.Logger) (repomanager.RepositoryManager, error) {
	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "No database configured, entries are kept in memory")
		return repomanager.NewInMemoryRepositoryManager(), nil
	}

	retries := uint64(repomanager.DefaultTxMaxRetries)
	if c.TxMaxRetries >= 0 {
		retries = uint64(c.TxMaxRetries)
	}

	rm, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN, retries)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}
	return rm, nil
}

func (app *App) initSignalHandler(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// releases storage and cache connections.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := app.initSignalHandler(ctx)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.hierarchy, app.uploads, app.config.SecretKey)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Run(ctx)
	})
	g.Go(func() error {
		return app.watchDependencies(ctx, s)
	})

	err := g.Wait()
	if err != nil {
		app.logger.Error(ctx, "Server stopped with error", "error", err)
	}

	app.close(context.WithoutCancel(ctx))
	app.logger.Info(ctx, "App stopped")
	return err
}

func (app *App) close(ctx context.Context) {
	if err := app.repomanager.Close(); err != nil {
		app.logger.Error(ctx, "failed to close storage", "error", err)
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "failed to close redis", "error", err)
		}
	}
}
