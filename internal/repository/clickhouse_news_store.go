package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"FXAdvisor/internal/domain/models"
	"FXAdvisor/internal/domain/repository"
)

// Per-currency sentiment columns in fx.sentiment_scores, in table order.
var sentimentCurrencies = []string{"USD", "INR", "EUR", "GBP", "JPY"}

// ClickHouseNewsStore implements NewsStore over fx.news_items and
// fx.sentiment_scores.
type ClickHouseNewsStore struct {
	db             *sql.DB
	newsTable      string
	sentimentTable string
}

// NewClickHouseNewsStore creates a ClickHouse-backed news store.
func NewClickHouseNewsStore(db *sql.DB) repository.NewsStore {
	return &ClickHouseNewsStore{
		db:             db,
		newsTable:      "fx.news_items",
		sentimentTable: "fx.sentiment_scores",
	}
}

func (s *ClickHouseNewsStore) InsertNewsItems(ctx context.Context, items []models.NewsItem) error {
	if len(items) == 0 {
		return nil
	}
	values := make([]string, 0, len(items))
	args := make([]interface{}, 0, len(items)*7)
	for _, it := range items {
		if it.ID == "" || it.Headline == "" {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
		args = append(args, it.ID, it.Ts, it.Source, it.Headline, it.Content, it.URL, it.Author)
	}
	if len(values) == 0 {
		return nil
	}
	q := fmt.Sprintf(
		"INSERT INTO %s (id, ts, source, headline, content, url, author) VALUES %s",
		s.newsTable, strings.Join(values, ","),
	)
	_, err := s.db.ExecContext(ctx, q, args...)
	return err
}

func (s *ClickHouseNewsStore) InsertSentimentSample(ctx context.Context, sample models.SentimentSample) error {
	q := fmt.Sprintf(
		"INSERT INTO %s (news_id, ts, model, sentiment_score, sentiment_usd, sentiment_inr, sentiment_eur, sentiment_gbp, sentiment_jpy, currencies, confidence, impact_score, urgency, explanation) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		s.sentimentTable,
	)
	args := []interface{}{sample.NewsID, sample.Ts, sample.Model, sample.Overall}
	for _, c := range sentimentCurrencies {
		args = append(args, sample.PerCurrency[c])
	}
	args = append(args, sample.Currencies, sample.Confidence, sample.ImpactScore, string(sample.Urgency), sample.Explanation)
	_, err := s.db.ExecContext(ctx, q, args...)
	return err
}

func (s *ClickHouseNewsStore) QuerySentimentSamples(ctx context.Context, currencies []string, since time.Time, limit int) ([]models.SentimentSample, error) {
	if limit <= 0 {
		limit = 20
	}
	where := "ts >= ?"
	args := []interface{}{since}
	if len(currencies) > 0 {
		conds := make([]string, 0, len(currencies))
		for _, c := range currencies {
			conds = append(conds, "has(currencies, ?)")
			args = append(args, c)
		}
		where += " AND (" + strings.Join(conds, " OR ") + ")"
	}
	args = append(args, limit)
	q := fmt.Sprintf(
		"SELECT news_id, ts, model, sentiment_score, sentiment_usd, sentiment_inr, sentiment_eur, sentiment_gbp, sentiment_jpy, currencies, confidence, impact_score, urgency, explanation FROM %s WHERE %s ORDER BY ts DESC LIMIT ?",
		s.sentimentTable, where,
	)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSentimentRows(rows)
}

func (s *ClickHouseNewsStore) RecentNews(ctx context.Context, limit int) ([]models.NewsItem, error) {
	if limit <= 0 {
		limit = 50
	}
	q := fmt.Sprintf(
		"SELECT id, ts, source, headline, content, url, author FROM %s ORDER BY ts DESC LIMIT ?",
		s.newsTable,
	)
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.NewsItem
	for rows.Next() {
		var it models.NewsItem
		if err := rows.Scan(&it.ID, &it.Ts, &it.Source, &it.Headline, &it.Content, &it.URL, &it.Author); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *ClickHouseNewsStore) RecentSentiment(ctx context.Context, limit int) ([]models.SentimentSample, error) {
	if limit <= 0 {
		limit = 50
	}
	q := fmt.Sprintf(
		"SELECT news_id, ts, model, sentiment_score, sentiment_usd, sentiment_inr, sentiment_eur, sentiment_gbp, sentiment_jpy, currencies, confidence, impact_score, urgency, explanation FROM %s ORDER BY ts DESC LIMIT ?",
		s.sentimentTable,
	)
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSentimentRows(rows)
}

func scanSentimentRows(rows *sql.Rows) ([]models.SentimentSample, error) {
	var samples []models.SentimentSample
	for rows.Next() {
		var (
			sample   models.SentimentSample
			perCur   = make([]float64, len(sentimentCurrencies))
			urgency  string
			mentions []string
		)
		dest := []interface{}{&sample.NewsID, &sample.Ts, &sample.Model, &sample.Overall}
		for i := range perCur {
			dest = append(dest, &perCur[i])
		}
		dest = append(dest, &mentions, &sample.Confidence, &sample.ImpactScore, &urgency, &sample.Explanation)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		sample.PerCurrency = make(map[string]float64, len(sentimentCurrencies))
		for i, c := range sentimentCurrencies {
			sample.PerCurrency[c] = perCur[i]
		}
		sample.Currencies = mentions
		sample.Urgency = models.Urgency(urgency)
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}
