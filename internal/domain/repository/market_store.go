package repository

import (
	"context"
	"time"

	"FXAdvisor/internal/domain/models"
)

// MarketStore provides access to bars, macro events and materialized features.
type MarketStore interface {
	// QueryBars returns bars for the pair since the given time, ascending by ts.
	QueryBars(ctx context.Context, pair string, since time.Time) ([]models.Bar, error)
	// QueryHighImpactEvents returns high-importance events for any of the
	// currencies within [from, to], ascending by ts.
	QueryHighImpactEvents(ctx context.Context, currencies []string, from, to time.Time) ([]models.MacroEvent, error)
	// RecentBars returns the latest bars for a pair in chronological order.
	RecentBars(ctx context.Context, pair string, limit int) ([]models.Bar, error)
	// InsertFeatureRows persists materialized feature rows.
	InsertFeatureRows(ctx context.Context, rows []models.FeatureRow) error
}

// ModelRegistry resolves trained model metadata.
type ModelRegistry interface {
	// LatestModelID returns the newest model id for the horizon, or "" when
	// no model has been registered.
	LatestModelID(ctx context.Context, horizon string) (string, error)
}
