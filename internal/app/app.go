// Package app assembles the application: configuration, logging, the data
// pipeline services, and the HTTP server, with signal-driven graceful
// shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"merchantpulse/internal/analytics"
	"merchantpulse/internal/config"
	"merchantpulse/internal/infrastructure"
	"merchantpulse/internal/loader"
	"merchantpulse/internal/normalize"
	"merchantpulse/internal/services"
	handlers "merchantpulse/internal/transport/http"
)

// AppName identifies the service in startup logs.
const AppName = "MerchantPulse"

// Version and BuildTime are set at compile time via -ldflags.
var (
	Version   = "1.0.0"
	BuildTime = ""
)

// Application is the composed service container.
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	Router    chi.Router
	Server    *http.Server
	Data      *services.DataService
	Analytics *services.AnalyticsService
}

// New builds the application from configuration. The initial dataset load
// runs here; a failed load logs a warning and starts with empty data so the
// API stays up while the merchant fixes their files.
func New() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger := infrastructure.InitializeLogger(cfg.Logging)
	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.String("data_dir", cfg.Data.Dir))

	app := &Application{Config: cfg, Logger: logger}
	app.initServices()
	app.initRouter()
	app.initServer()

	if err := app.Data.Reload(context.Background()); err != nil {
		logger.Warn("initial dataset load failed, serving empty dataset",
			slog.String("error", err.Error()))
	}

	return app, nil
}

func (a *Application) initServices() {
	files := loader.Files{
		Transactions: a.Config.Data.TransactionsFile,
		Settlements:  a.Config.Data.SettlementsFile,
		Support:      a.Config.Data.SupportFile,
	}
	ld := loader.New(a.Config.Data.Dir, files, a.Logger)

	norm := normalize.New(normalize.Config{
		SparseThreshold:    a.Config.Normalize.SparseThreshold,
		MaxAmount:          a.Config.Normalize.MaxAmount,
		MinorUnitColumn:    a.Config.Normalize.MinorUnitColumn,
		MinorUnitThreshold: a.Config.Normalize.MinorUnitThreshold,
	}, a.Logger)

	a.Data = services.NewDataService(ld, norm, a.Logger)
	a.Analytics = services.NewAnalyticsService(a.Data, analytics.New(a.Logger), a.Logger)
}

func (a *Application) initRouter() {
	a.Router = handlers.NewRouter(handlers.RouterDeps{
		Config:    a.Config,
		Logger:    a.Logger,
		Data:      a.Data,
		Analytics: a.Analytics,
		Version:   handlers.VersionInfo{Version: Version, BuildTime: BuildTime},
	})
}

func (a *Application) initServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Run serves until the context is cancelled or an interrupt arrives, then
// shuts down gracefully within the configured timeout.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("server listening",
			slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.Logger.Info("application shutdown complete")
	return nil
}
