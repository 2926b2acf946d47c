package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"merchantpulse/internal/analytics"
	"merchantpulse/pkg/contracts/domain"
)

// analyticsCacheTTL bounds how stale a served pulse may be. The dataset only
// changes on reload, which flushes the cache explicitly; the TTL is a
// backstop for clock-window drift (today's date rolling over).
const analyticsCacheTTL = 60 * time.Second

// TransactionSource provides windowed transactions and the dataset summary
// to the analytics layer.
type TransactionSource interface {
	Transactions(days int) []domain.Transaction
	Summary() domain.DataSummary
}

// AnalyticsService computes business pulses and growth insights on demand,
// memoized per window.
type AnalyticsService struct {
	source     TransactionSource
	aggregator *analytics.Aggregator
	cache      *gocache.Cache
	logger     *slog.Logger
}

// NewAnalyticsService creates the service with its own cache.
func NewAnalyticsService(source TransactionSource, aggregator *analytics.Aggregator, logger *slog.Logger) *AnalyticsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsService{
		source:     source,
		aggregator: aggregator,
		cache:      gocache.New(analyticsCacheTTL, 5*time.Minute),
		logger:     logger,
	}
}

// BusinessPulse returns the pulse for the trailing window, serving a cached
// result when one is fresh.
func (s *AnalyticsService) BusinessPulse(ctx context.Context, windowDays int) (*domain.BusinessPulse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("pulse:%d", windowDays)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*domain.BusinessPulse), nil
	}

	pulse := s.aggregator.BusinessPulse(s.source.Transactions(windowDays))
	// Every pulse carries the dataset summary; the aggregator itself stays
	// pure over its transaction slice.
	pulse.Summary = s.source.Summary()
	s.cache.SetDefault(key, pulse)
	return pulse, nil
}

// GrowthInsights evaluates the insight rules for the trailing window.
func (s *AnalyticsService) GrowthInsights(ctx context.Context, windowDays int) ([]domain.GrowthInsight, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("insights:%d", windowDays)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]domain.GrowthInsight), nil
	}

	insights := s.aggregator.GrowthInsights(s.source.Transactions(windowDays))
	s.cache.SetDefault(key, insights)
	return insights, nil
}

// Invalidate flushes every memoized result. Called after a dataset reload.
func (s *AnalyticsService) Invalidate() {
	s.cache.Flush()
	s.logger.Debug("analytics cache flushed")
}
