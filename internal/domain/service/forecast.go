package service

import (
	"context"
	"time"

	"FXAdvisor/internal/domain/models"
)

// Predictor maps recent feature rows to a base prediction for the horizon.
// Implementations must degrade to a neutral prediction instead of failing
// when history is too short.
type Predictor interface {
	Predict(ctx context.Context, rows []models.FeatureRow, horizon string) (models.Prediction, error)
}

// SentimentAnalyzer scores a single news item. Implementations must return a
// neutral zero-confidence sample on provider failure rather than an error the
// fusion core would have to interpret.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, item models.NewsItem) (models.SentimentSample, error)
}

// NewsSource fetches recent items from one provider. Selection is by
// configuration, not inheritance.
type NewsSource interface {
	Name() string
	FetchLatest(ctx context.Context, lookback time.Duration) ([]models.NewsItem, error)
}
