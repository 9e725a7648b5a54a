package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/Tiliavir/timebook/internal/config"
	"github.com/Tiliavir/timebook/internal/service"
	"github.com/Tiliavir/timebook/internal/storage"
)

// App holds the process-wide dependencies: the open store and the service
// built on it.
type App struct {
	Config  config.Config
	Store   *storage.Store
	Service *service.Service
	Logger  *log.Logger
}

// NewLogger returns the logger shared by the service and HTTP layers.
func NewLogger() *log.Logger {
	return log.New(os.Stderr, "timebook: ", log.LstdFlags|log.Lmsgprefix)
}

// Open connects to the configured store, applies migrations and wires the
// service. A nil logger discards service logs.
func Open(ctx context.Context, cfg config.Config, logger *log.Logger) (*App, error) {
	store, err := storage.Open(ctx, storage.Options{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return &App{
		Config:  cfg,
		Store:   store,
		Service: service.New(store, logger),
		Logger:  logger,
	}, nil
}

// Close cleans up application resources.
func (a *App) Close() error {
	var errs []error
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
