package repository

import (
	"context"

	"FXAdvisor/internal/domain/models"
)

// RateStream is a live FX quote feed.
type RateStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// TickPublisher publishes raw ticks to the streaming backend.
type TickPublisher interface {
	Publish(ctx context.Context, t *models.Tick) error
	PublishBatch(ctx context.Context, ticks []*models.Tick) error
	Close() error
}

// TickStorage writes raw ticks straight to the bar store.
type TickStorage interface {
	Store(ctx context.Context, t *models.Tick) error
	StoreBatch(ctx context.Context, ticks []*models.Tick) error
	Health(ctx context.Context) error
	Close() error
}

// NewsPublisher hands fetched news items to the analysis pipeline.
type NewsPublisher interface {
	PublishNews(ctx context.Context, items []models.NewsItem) error
	Close() error
}

// Metrics is the domain-facing metrics recorder.
type Metrics interface {
	RecordIngest(backend, pair string)
	RecordError(kind string)
	RecordLastRate(pair string, mid float64)
	RecordLatency(op string, seconds float64)
	RecordForecast(pair, recommendation string)
	RecordSentimentCache(hit bool)
	RecordFusionWeight(llmWeight float64)
}
