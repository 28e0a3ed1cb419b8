package repository

import (
	"context"
	"time"

	"FXAdvisor/internal/domain/models"
)

// NewsStore persists news items and per-article sentiment samples.
type NewsStore interface {
	InsertNewsItems(ctx context.Context, items []models.NewsItem) error
	InsertSentimentSample(ctx context.Context, s models.SentimentSample) error
	// QuerySentimentSamples returns the most recent samples mentioning any of
	// the currencies since the given time, newest first, capped at limit.
	QuerySentimentSamples(ctx context.Context, currencies []string, since time.Time, limit int) ([]models.SentimentSample, error)
	RecentNews(ctx context.Context, limit int) ([]models.NewsItem, error)
	RecentSentiment(ctx context.Context, limit int) ([]models.SentimentSample, error)
}

// AuditStore records terminal pipeline artifacts. Write failures must be
// logged by callers, never surfaced to the requester.
type AuditStore interface {
	InsertDecision(ctx context.Context, row models.DecisionRow) error
	InsertHybridPrediction(ctx context.Context, row models.HybridRow) error
}
