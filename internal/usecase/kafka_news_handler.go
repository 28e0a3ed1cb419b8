package usecase

import (
	"context"
	"encoding/json"
	"time"

	"FXAdvisor/internal/domain/models"
	domrepo "FXAdvisor/internal/domain/repository"
	"FXAdvisor/internal/domain/service"
	pkgkafka "FXAdvisor/pkg/kafka"
)

// KafkaNewsHandler consumes fetched news items, scores them through the
// sentiment analyzer, and persists the resulting sample.
type KafkaNewsHandler struct {
	topic    string
	analyzer service.SentimentAnalyzer
	store    domrepo.NewsStore
	metrics  domrepo.Metrics
}

func NewKafkaNewsHandler(topic string, analyzer service.SentimentAnalyzer, store domrepo.NewsStore, metrics domrepo.Metrics) *KafkaNewsHandler {
	return &KafkaNewsHandler{topic: topic, analyzer: analyzer, store: store, metrics: metrics}
}

func (h *KafkaNewsHandler) Topic() string { return h.topic }

func (h *KafkaNewsHandler) Handle(ctx context.Context, b []byte) error {
	var item models.NewsItem
	if err := json.Unmarshal(b, &item); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if item.ID == "" || item.Headline == "" {
		return nil // skip malformed items without retry
	}

	start := time.Now()
	sample, err := h.analyzer.Analyze(ctx, item)
	h.metrics.RecordLatency("sentiment_analyze_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("sentiment_analyze")
		return err
	}

	if err := h.store.InsertSentimentSample(ctx, sample); err != nil {
		h.metrics.RecordError("sentiment_store")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaNewsHandler)(nil)
