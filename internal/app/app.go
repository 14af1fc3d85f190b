package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/lildrip/lildrip/internal/controllers/restserver"
	"github.com/lildrip/lildrip/internal/database"
	"github.com/lildrip/lildrip/internal/log"
	"github.com/lildrip/lildrip/pkg/config"
	"github.com/lildrip/lildrip/pkg/params"
)

// App represents the main application
type App struct {
	cfg    *config.Config
	logger *zap.SugaredLogger
}

// New creates a new application instance
func New(cfg *config.Config, logger *zap.SugaredLogger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Set up parameter persistence
	provider, err := params.NewProvider(a.cfg.Params.Backend, a.cfg.Params.Path)
	if err != nil {
		return err
	}
	defer provider.Close()

	// Set up optional run archival
	var db *database.Client
	if a.cfg.Storage.Postgres != nil && a.cfg.Storage.Postgres.ConnectionString != "" {
		db = database.NewClient(a.cfg.Storage.Postgres.ConnectionString, a.logger)
		if err := db.Connect(); err != nil {
			return err
		}
	}

	// Initialize the REST server controller
	ctrl, err := restserver.NewController(ctx, &wg, a.cfg, provider, db, a.logger)
	if err != nil {
		return err
	}
	if err := ctrl.StartController(); err != nil {
		return err
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}
