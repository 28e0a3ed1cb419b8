package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"FXAdvisor/internal/domain/models"
	"FXAdvisor/internal/domain/repository"
	pkgkafka "FXAdvisor/pkg/kafka"
)

// ClickHouseTickStorage writes raw ticks as one-minute bar rows.
type ClickHouseTickStorage struct {
	db    *sql.DB
	table string
}

// NewClickHouseTickStorage creates ClickHouse tick storage.
func NewClickHouseTickStorage(db *sql.DB) repository.TickStorage {
	return &ClickHouseTickStorage{db: db, table: "fx.bars_1m"}
}

func (s *ClickHouseTickStorage) Store(ctx context.Context, t *models.Tick) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, pair, mid) VALUES (?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q, time.Unix(t.Timestamp, 0).Truncate(time.Minute), t.Pair, t.Mid)
	return err
}

func (s *ClickHouseTickStorage) StoreBatch(ctx context.Context, ticks []*models.Tick) error {
	if len(ticks) == 0 {
		return nil
	}
	const chunkSize = 2000
	for start := 0; start < len(ticks); start += chunkSize {
		end := start + chunkSize
		if end > len(ticks) {
			end = len(ticks)
		}
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*3)
		for _, t := range ticks[start:end] {
			if t == nil || t.Pair == "" || t.Timestamp == 0 {
				continue
			}
			values = append(values, "(?, ?, ?)")
			args = append(args, time.Unix(t.Timestamp, 0).Truncate(time.Minute), t.Pair, t.Mid)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, pair, mid) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseTickStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseTickStorage) Close() error {
	return nil // Connection is owned by pkg/clickhouse.
}

// KafkaTickPublisher publishes raw ticks keyed by pair.
type KafkaTickPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaTickPublisher creates a Kafka tick publisher.
func NewKafkaTickPublisher(producer *pkgkafka.Producer, topic string) repository.TickPublisher {
	return &KafkaTickPublisher{producer: producer, topic: topic}
}

func (p *KafkaTickPublisher) Publish(ctx context.Context, t *models.Tick) error {
	return p.producer.Publish(ctx, p.topic, []byte(t.Pair), map[string]interface{}{
		"pair": t.Pair,
		"t":    t.Timestamp,
		"mid":  t.Mid,
	})
}

func (p *KafkaTickPublisher) PublishBatch(ctx context.Context, ticks []*models.Tick) error {
	if len(ticks) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(ticks))
	for i, t := range ticks {
		msgs[i] = pkgkafka.Message{
			Key: []byte(t.Pair),
			Value: map[string]interface{}{
				"pair": t.Pair,
				"t":    t.Timestamp,
				"mid":  t.Mid,
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaTickPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// KafkaNewsPublisher hands fetched articles to the sentiment consumer.
type KafkaNewsPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaNewsPublisher creates a Kafka news publisher.
func NewKafkaNewsPublisher(producer *pkgkafka.Producer, topic string) repository.NewsPublisher {
	return &KafkaNewsPublisher{producer: producer, topic: topic}
}

func (p *KafkaNewsPublisher) PublishNews(ctx context.Context, items []models.NewsItem) error {
	if len(items) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(items))
	for i, it := range items {
		msgs[i] = pkgkafka.Message{Key: []byte(it.ID), Value: it}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaNewsPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
