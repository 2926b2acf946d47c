package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "merchantpulse/internal/errors"
	"merchantpulse/internal/middleware"
)

// DataHandler serves the dataset management endpoints: summary, debug
// introspection, and reload.
type DataHandler struct {
	data         DataReader
	analytics    AnalyticsReader
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a data handler. The analytics reader is needed so a
// reload can flush memoized results.
func NewDataHandler(data DataReader, analytics AnalyticsReader, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		data:         data,
		analytics:    analytics,
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the data routes.
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/summary", h.GetSummary)
	r.Get("/debug", h.GetDebug)
	r.Get("/merchants", h.GetMerchants)
	r.Post("/reload", h.Reload)

	return r
}

// GetSummary handles GET /api/data/summary.
func (h *DataHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.data.Summary())
}

// GetDebug handles GET /api/data/debug.
func (h *DataHandler) GetDebug(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.data.Debug())
}

// GetMerchants handles GET /api/data/merchants.
func (h *DataHandler) GetMerchants(w http.ResponseWriter, r *http.Request) {
	merchants := h.data.MerchantNames()
	render.JSON(w, r, map[string]interface{}{
		"merchants": merchants,
		"count":     len(merchants),
	})
}

// Reload handles POST /api/data/reload. A successful reload flushes the
// analytics cache so the next pulse reflects the new dataset.
func (h *DataHandler) Reload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	h.logger.InfoContext(r.Context(), "dataset reload requested",
		slog.String("request_id", reqID))

	if err := h.data.Reload(r.Context()); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.DataReloadError(err))
		return
	}
	h.analytics.Invalidate()

	render.JSON(w, r, map[string]interface{}{
		"status":  "reloaded",
		"summary": h.data.Summary(),
	})
}
