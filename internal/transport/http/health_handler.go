package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// VersionInfo identifies the running build.
type VersionInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time,omitempty"`
}

// HealthHandler serves liveness and version endpoints.
type HealthHandler struct {
	data    DataReader
	version VersionInfo
	started time.Time
	logger  *slog.Logger
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(data DataReader, version VersionInfo, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		data:    data,
		version: version,
		started: time.Now(),
		logger:  logger.With(slog.String("component", "health_handler")),
	}
}

// HealthCheck handles GET /api/health. The service is healthy as long as it
// can answer; an empty dataset is reported but not unhealthy.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	summary := h.data.Summary()
	render.JSON(w, r, map[string]interface{}{
		"status":              "healthy",
		"uptime":              time.Since(h.started).String(),
		"transactions_loaded": summary.TransactionsLoaded,
		"settlements_loaded":  summary.SettlementsLoaded,
	})
}

// Version handles GET /api/version.
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.version)
}
