package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchantpulse/internal/config"
	"merchantpulse/internal/services"
	"merchantpulse/internal/shared/testutil"
	"merchantpulse/pkg/contracts/domain"
)

type stubAnalytics struct {
	pulse       *domain.BusinessPulse
	insights    []domain.GrowthInsight
	err         error
	lastWindow  int
	invalidated int
}

func (s *stubAnalytics) BusinessPulse(ctx context.Context, windowDays int) (*domain.BusinessPulse, error) {
	s.lastWindow = windowDays
	return s.pulse, s.err
}

func (s *stubAnalytics) GrowthInsights(ctx context.Context, windowDays int) ([]domain.GrowthInsight, error) {
	s.lastWindow = windowDays
	return s.insights, s.err
}

func (s *stubAnalytics) Invalidate() { s.invalidated++ }

type stubData struct {
	summary   domain.DataSummary
	debug     services.DebugInfo
	merchants []string
	reloadErr error
	reloads   int
}

func (s *stubData) Reload(ctx context.Context) error {
	s.reloads++
	return s.reloadErr
}

func (s *stubData) Summary() domain.DataSummary { return s.summary }
func (s *stubData) Debug() services.DebugInfo   { return s.debug }
func (s *stubData) MerchantNames() []string     { return s.merchants }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           8080,
			RequestTimeout: 5 * time.Second,
		},
		Security: config.SecurityConfig{
			EnableCORS:     true,
			AllowedOrigins: []string{"*"},
			RateLimit:      config.RateLimitConfig{Enabled: false},
		},
		Logging: config.LoggingConfig{Level: "info", Format: "json"},
	}
}

func newTestServer(t *testing.T, data *stubData, analytics *stubAnalytics) *httptest.Server {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	router := NewRouter(RouterDeps{
		Config:    testConfig(),
		Logger:    logger,
		Data:      data,
		Analytics: analytics,
		Version:   VersionInfo{Version: "test"},
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestGetPulse(t *testing.T) {
	analytics := &stubAnalytics{pulse: &domain.BusinessPulse{DataSource: "CSV", TotalRecords: 5}}
	srv := newTestServer(t, &stubData{}, analytics)

	resp, err := http.Get(srv.URL + "/api/analytics/pulse")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var pulse domain.BusinessPulse
	decodeBody(t, resp, &pulse)
	assert.Equal(t, "CSV", pulse.DataSource)
	assert.Equal(t, 5, pulse.TotalRecords)
	assert.Equal(t, 30, analytics.lastWindow)
}

func TestGetPulseCustomWindow(t *testing.T) {
	analytics := &stubAnalytics{pulse: &domain.BusinessPulse{}}
	srv := newTestServer(t, &stubData{}, analytics)

	resp, err := http.Get(srv.URL + "/api/analytics/pulse?window_days=90")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 90, analytics.lastWindow)
}

func TestGetPulseInvalidWindow(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"not an integer", "window_days=abc"},
		{"zero", "window_days=0"},
		{"negative", "window_days=-5"},
		{"too large", "window_days=400"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &stubData{}, &stubAnalytics{pulse: &domain.BusinessPulse{}})

			resp, err := http.Get(srv.URL + "/api/analytics/pulse?" + tt.query)
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, resp.Header.Get("Content-Type"), "application/problem+json")

			var problem map[string]interface{}
			decodeBody(t, resp, &problem)
			assert.Equal(t, "/errors/validation", problem["type"])
			assert.Equal(t, "INVALID_PARAMETER", problem["error_code"])
		})
	}
}

func TestGetInsights(t *testing.T) {
	analytics := &stubAnalytics{insights: []domain.GrowthInsight{{
		Type:  domain.InsightHighValueFailures,
		Title: "High-Value Transaction Issues",
	}}}
	srv := newTestServer(t, &stubData{}, analytics)

	resp, err := http.Get(srv.URL + "/api/analytics/insights")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Insights []domain.GrowthInsight `json:"insights"`
		Count    int                    `json:"count"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Insights, 1)
	assert.Equal(t, domain.InsightHighValueFailures, body.Insights[0].Type)
}

func TestGetSummary(t *testing.T) {
	data := &stubData{summary: domain.DataSummary{TransactionsLoaded: 42, TotalMerchants: 3}}
	srv := newTestServer(t, data, &stubAnalytics{})

	resp, err := http.Get(srv.URL + "/api/data/summary")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var summary domain.DataSummary
	decodeBody(t, resp, &summary)
	assert.Equal(t, 42, summary.TransactionsLoaded)
	assert.Equal(t, 3, summary.TotalMerchants)
}

func TestGetMerchants(t *testing.T) {
	data := &stubData{merchants: []string{"Anand Sweets", "Chai Point"}}
	srv := newTestServer(t, data, &stubAnalytics{})

	resp, err := http.Get(srv.URL + "/api/data/merchants")
	require.NoError(t, err)

	var body struct {
		Merchants []string `json:"merchants"`
		Count     int      `json:"count"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, []string{"Anand Sweets", "Chai Point"}, body.Merchants)
}

func TestReload(t *testing.T) {
	data := &stubData{summary: domain.DataSummary{TransactionsLoaded: 7}}
	analytics := &stubAnalytics{}
	srv := newTestServer(t, data, analytics)

	resp, err := http.Post(srv.URL+"/api/data/reload", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status  string             `json:"status"`
		Summary domain.DataSummary `json:"summary"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "reloaded", body.Status)
	assert.Equal(t, 7, body.Summary.TransactionsLoaded)
	assert.Equal(t, 1, data.reloads)
	assert.Equal(t, 1, analytics.invalidated)
}

func TestReloadFailure(t *testing.T) {
	data := &stubData{reloadErr: errors.New("data directory missing")}
	analytics := &stubAnalytics{}
	srv := newTestServer(t, data, analytics)

	resp, err := http.Post(srv.URL+"/api/data/reload", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var problem map[string]interface{}
	decodeBody(t, resp, &problem)
	assert.Equal(t, "/errors/data/reload-failed", problem["type"])
	assert.Zero(t, analytics.invalidated)
}

func TestHealthAndVersion(t *testing.T) {
	data := &stubData{summary: domain.DataSummary{TransactionsLoaded: 10}}
	srv := newTestServer(t, data, &stubAnalytics{})

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]interface{}
	decodeBody(t, resp, &health)
	assert.Equal(t, "healthy", health["status"])
	assert.EqualValues(t, 10, health["transactions_loaded"])

	resp, err = http.Get(srv.URL + "/api/version")
	require.NoError(t, err)
	var version VersionInfo
	decodeBody(t, resp, &version)
	assert.Equal(t, "test", version.Version)
}

func TestUnknownRouteProblem(t *testing.T) {
	srv := newTestServer(t, &stubData{}, &stubAnalytics{})

	resp, err := http.Get(srv.URL + "/api/nope")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var problem map[string]interface{}
	decodeBody(t, resp, &problem)
	assert.Equal(t, "/errors/not-found", problem["type"])
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t, &stubData{}, &stubAnalytics{pulse: &domain.BusinessPulse{}})

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubData{}, &stubAnalytics{})

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
