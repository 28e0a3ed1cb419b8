package usecase

import (
	"context"
	"encoding/json"
	"time"

	"FXAdvisor/internal/domain/models"
	domrepo "FXAdvisor/internal/domain/repository"
	pkgkafka "FXAdvisor/pkg/kafka"
)

// KafkaTicksHandler consumes tick messages and writes them to the bar store.
type KafkaTicksHandler struct {
	topic   string
	storage domrepo.TickStorage
	metrics domrepo.Metrics
}

func NewKafkaTicksHandler(topic string, storage domrepo.TickStorage, metrics domrepo.Metrics) *KafkaTicksHandler {
	return &KafkaTicksHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaTicksHandler) Topic() string { return h.topic }

// incoming message schema: {pair, t, mid}
func (h *KafkaTicksHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Pair string  `json:"pair"`
		T    int64   `json:"t"`
		Mid  float64 `json:"mid"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(m.T, 0)).Seconds())

	start := time.Now()
	err := h.storage.Store(ctx, &models.Tick{Pair: m.Pair, Timestamp: m.T, Mid: m.Mid})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordIngest("clickhouse", m.Pair)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaTicksHandler)(nil)
