// Package app provides application lifecycle management: dependency wiring,
// startup, and graceful shutdown for the API server and background workers.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/ehtisham-sadiq/social-content-api/internal/api"
	"github.com/ehtisham-sadiq/social-content-api/internal/config"
	"github.com/ehtisham-sadiq/social-content-api/internal/database"
	"github.com/ehtisham-sadiq/social-content-api/internal/linkedin"
	"github.com/ehtisham-sadiq/social-content-api/internal/logger"
	"github.com/ehtisham-sadiq/social-content-api/internal/metrics"
	"github.com/ehtisham-sadiq/social-content-api/internal/token"
	"github.com/ehtisham-sadiq/social-content-api/internal/tracker"
	"github.com/ehtisham-sadiq/social-content-api/internal/worker"
)

const (
	// DefaultShutdownTimeout is the default timeout for graceful shutdown
	DefaultShutdownTimeout = 30 * time.Second
	pingTimeout            = 5 * time.Second
	idleTimeout            = 60 * time.Second
)

// Options contains configuration for creating a new App
type Options struct {
	ConfigPath string
	Version    string

	// RunServer and RunWorkers select which components this process hosts.
	// The api and worker commands each enable one of them.
	RunServer  bool
	RunWorkers bool
}

// App represents the application with all its dependencies
type App struct {
	config      *config.Config
	logger      logger.Logger
	db          *sqlx.DB
	redisClient *redis.Client

	publishWorker *worker.PublishWorker
	syncWorker    *worker.AnalyticsSyncWorker
	httpServer    *http.Server

	opts Options
}

// New creates a new App instance with all dependencies initialized
func New(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	appLogger, err := logger.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	appLogger = appLogger.With(
		logger.String("service", "social-content-api"),
		logger.String("version", opts.Version),
	)

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		_ = appLogger.Sync()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.URL,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if pingErr := redisClient.Ping(ctx).Err(); pingErr != nil {
		_ = database.Close(db)
		_ = appLogger.Sync()
		return nil, fmt.Errorf("connect to Redis: %w", pingErr)
	}

	posts := database.NewPostRepository(db)
	accounts := database.NewAccountRepository(db)
	postMetrics := database.NewMetricsRepository(db)

	platformClient, err := linkedin.NewClient(cfg.LinkedIn, appLogger)
	if err != nil {
		_ = database.Close(db)
		_ = appLogger.Sync()
		return nil, fmt.Errorf("create platform client: %w", err)
	}
	tokens := token.NewManager(platformClient, accounts, appLogger)
	collector := metrics.NewCollector()
	activity := tracker.NewTracker(redisClient, appLogger)

	app := &App{
		config:      cfg,
		logger:      appLogger,
		db:          db,
		redisClient: redisClient,
		opts:        opts,
	}

	if opts.RunWorkers {
		app.publishWorker = worker.NewPublishWorker(
			posts, accounts, postMetrics, platformClient, tokens,
			activity, collector,
			worker.PublishWorkerConfig{
				Interval:  cfg.Worker.PublishInterval,
				Backoff:   cfg.Worker.CycleBackoff,
				DueWindow: cfg.Worker.DueWindow,
			},
			appLogger,
		)
		app.syncWorker = worker.NewAnalyticsSyncWorker(
			posts, accounts, postMetrics, platformClient, tokens,
			activity, collector,
			worker.AnalyticsSyncWorkerConfig{
				Interval:   cfg.Worker.SyncInterval,
				Backoff:    cfg.Worker.CycleBackoff,
				BatchLimit: cfg.Worker.SyncBatchLimit,
			},
			appLogger,
		)
	}

	if opts.RunServer {
		router := api.NewRouter(
			posts, postMetrics, activity, collector,
			func(ctx context.Context) error { return db.PingContext(ctx) },
			api.RedisHealthCheck(redisClient),
			appLogger,
		)
		app.httpServer = &http.Server{
			Addr:         cfg.Server.Address,
			Handler:      router.Engine(cfg.Debug),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  idleTimeout,
		}
	}

	return app, nil
}

// Run starts the enabled components and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	if a.publishWorker != nil {
		a.publishWorker.Start(ctx)
	}
	if a.syncWorker != nil {
		a.syncWorker.Start(ctx)
	}

	if a.httpServer != nil {
		go func() {
			a.logger.Info("starting HTTP server",
				logger.String("address", a.httpServer.Addr))
			if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
	}

	return a.waitForShutdown(ctx, serverErr)
}

// waitForShutdown handles graceful shutdown
func (a *App) waitForShutdown(ctx context.Context, serverErr chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var shutdownErr error

	select {
	case sig := <-sigChan:
		a.logger.Info("shutting down gracefully", logger.String("signal", sig.String()))
	case <-ctx.Done():
		a.logger.Info("shutting down, context cancelled")
	case err := <-serverErr:
		a.logger.Error("HTTP server error", logger.Error(err))
		shutdownErr = err
	}

	a.stopWorkers()
	a.shutdownHTTPServer()

	a.logger.Info("service stopped")
	return shutdownErr
}

func (a *App) stopWorkers() {
	if a.publishWorker != nil {
		a.publishWorker.Stop()
	}
	if a.syncWorker != nil {
		a.syncWorker.Stop()
	}
}

// shutdownHTTPServer gracefully shuts down the HTTP server
func (a *App) shutdownHTTPServer() {
	if a.httpServer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("server shutdown error", logger.Error(err))
	} else {
		a.logger.Info("HTTP server stopped")
	}
}

// Close cleans up resources
func (a *App) Close() error {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close Redis client", logger.Error(err))
		}
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			a.logger.Warn("failed to close database", logger.Error(err))
		}
	}
	return a.logger.Sync()
}

// Logger returns the application logger
func (a *App) Logger() logger.Logger {
	return a.logger
}
