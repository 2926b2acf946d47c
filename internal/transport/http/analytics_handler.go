package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "merchantpulse/internal/errors"
)

// Window bounds for the window_days query parameter.
const (
	defaultWindowDays = 30
	minWindowDays     = 1
	maxWindowDays     = 365
)

// AnalyticsHandler serves the business pulse and growth insight endpoints.
type AnalyticsHandler struct {
	service      AnalyticsReader
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAnalyticsHandler creates an analytics handler.
func NewAnalyticsHandler(service AnalyticsReader, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalyticsHandler {
	return &AnalyticsHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "analytics_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the analytics routes.
func (h *AnalyticsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/pulse", h.GetPulse)
	r.Get("/insights", h.GetInsights)

	return r
}

// GetPulse handles GET /api/analytics/pulse.
func (h *AnalyticsHandler) GetPulse(w http.ResponseWriter, r *http.Request) {
	windowDays, err := windowDaysParam(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	pulse, svcErr := h.service.BusinessPulse(r.Context(), windowDays)
	if svcErr != nil {
		h.errorHandler.HandleError(w, r, svcErr)
		return
	}
	render.JSON(w, r, pulse)
}

// GetInsights handles GET /api/analytics/insights.
func (h *AnalyticsHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	windowDays, err := windowDaysParam(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	insights, svcErr := h.service.GrowthInsights(r.Context(), windowDays)
	if svcErr != nil {
		h.errorHandler.HandleError(w, r, svcErr)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"insights": insights,
		"count":    len(insights),
	})
}

// windowDaysParam parses and bounds the window_days query parameter.
func windowDaysParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("window_days")
	if raw == "" {
		return defaultWindowDays, nil
	}

	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierrors.InvalidParameterError("window_days", "must be an integer")
	}
	if days < minWindowDays || days > maxWindowDays {
		return 0, apierrors.InvalidParameterError("window_days",
			"must be between "+strconv.Itoa(minWindowDays)+" and "+strconv.Itoa(maxWindowDays))
	}
	return days, nil
}
