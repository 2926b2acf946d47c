package http

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"merchantpulse/internal/config"
	apierrors "merchantpulse/internal/errors"
	"merchantpulse/internal/middleware"
)

// RouterDeps bundles everything the router needs.
type RouterDeps struct {
	Config    *config.Config
	Logger    *slog.Logger
	Data      DataReader
	Analytics AnalyticsReader
	Version   VersionInfo
}

// NewRouter builds the API router with the full middleware chain.
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger
	cfg := deps.Config
	errorHandler := apierrors.NewErrorHandler(logger, cfg.Logging.Level == "debug")

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Compress(5))
	if cfg.Security.EnableCORS {
		r.Use(middleware.CORS(middleware.CORSConfig{
			AllowedOrigins: cfg.Security.AllowedOrigins,
			Logger:         logger,
		}))
	}
	if cfg.Security.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.Security.RateLimit.RPS, cfg.Security.RateLimit.Burst, logger)
		r.Use(limiter.Handler)
	}
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout, logger))

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	healthHandler := NewHealthHandler(deps.Data, deps.Version, logger)
	analyticsHandler := NewAnalyticsHandler(deps.Analytics, logger, errorHandler)
	dataHandler := NewDataHandler(deps.Data, deps.Analytics, logger, errorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/version", healthHandler.Version)
		r.Mount("/analytics", analyticsHandler.Routes())
		r.Mount("/data", dataHandler.Routes())
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
