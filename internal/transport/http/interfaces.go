// Package http contains the chi HTTP handlers and the API router.
package http

import (
	"context"

	"merchantpulse/internal/services"
	"merchantpulse/pkg/contracts/domain"
)

// AnalyticsReader is the analytics surface handlers depend on.
type AnalyticsReader interface {
	BusinessPulse(ctx context.Context, windowDays int) (*domain.BusinessPulse, error)
	GrowthInsights(ctx context.Context, windowDays int) ([]domain.GrowthInsight, error)
	Invalidate()
}

// DataReader is the dataset surface handlers depend on.
type DataReader interface {
	Reload(ctx context.Context) error
	Summary() domain.DataSummary
	Debug() services.DebugInfo
	MerchantNames() []string
}
