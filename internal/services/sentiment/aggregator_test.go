package sentiment

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"FXAdvisor/internal/domain/models"
	"FXAdvisor/pkg/logger"
)

type stubNewsStore struct {
	samples []models.SentimentSample
	err     error
	queries int
}

func (s *stubNewsStore) InsertNewsItems(_ context.Context, _ []models.NewsItem) error { return nil }

func (s *stubNewsStore) InsertSentimentSample(_ context.Context, _ models.SentimentSample) error {
	return nil
}

func (s *stubNewsStore) QuerySentimentSamples(_ context.Context, _ []string, _ time.Time, _ int) ([]models.SentimentSample, error) {
	s.queries++
	return s.samples, s.err
}

func (s *stubNewsStore) RecentNews(_ context.Context, _ int) ([]models.NewsItem, error) {
	return nil, nil
}

func (s *stubNewsStore) RecentSentiment(_ context.Context, _ int) ([]models.SentimentSample, error) {
	return nil, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestAggregateSingleSample(t *testing.T) {
	now := time.Now().UTC()
	store := &stubNewsStore{samples: []models.SentimentSample{{
		NewsID:      "n1",
		Ts:          now.Add(-6 * time.Minute),
		Overall:     0.5,
		PerCurrency: map[string]float64{"USD": 0.6, "INR": -0.2},
		Currencies:  []string{"USD", "INR"},
		Confidence:  0.8,
		ImpactScore: 8.0,
		Urgency:     models.UrgencyHigh,
		Explanation: "Fed signals rate hold",
	}}}
	agg := NewAggregator(store, NewCache(time.Minute), nil, testLogger(t))

	got := agg.Get(context.Background(), "USDINR", time.Hour)
	if got == nil {
		t.Fatalf("expected aggregate, got nil")
	}

	// Single sample: weighted average equals the sample's net sentiment.
	wantNet := 0.6 - (-0.2)
	if math.Abs(got.SentimentScore-wantNet) > 1e-12 {
		t.Fatalf("sentiment = %v, want %v", got.SentimentScore, wantNet)
	}
	if math.Abs(got.ImpactScore-8.0) > 1e-12 {
		t.Fatalf("impact = %v, want 8", got.ImpactScore)
	}

	// confidence = total weight / sample count = recency * confidence
	recency := 1.0 - (6.0/60.0)/1.0
	wantConf := recency * 0.8
	if math.Abs(got.Confidence-wantConf) > 1e-9 {
		t.Fatalf("confidence = %v, want %v", got.Confidence, wantConf)
	}
	if got.Urgency != models.UrgencyHigh {
		t.Fatalf("urgency = %v", got.Urgency)
	}
	if !strings.Contains(got.Summary, "USD bullish vs INR") {
		t.Fatalf("summary = %q", got.Summary)
	}
	if !strings.Contains(got.Summary, "high-impact") {
		t.Fatalf("summary = %q", got.Summary)
	}
	if !strings.Contains(got.Summary, "Key: Fed signals rate hold...") {
		t.Fatalf("summary should quote the high-impact explanation, got %q", got.Summary)
	}
}

func TestAggregateRecencyFloor(t *testing.T) {
	now := time.Now().UTC()
	store := &stubNewsStore{samples: []models.SentimentSample{{
		NewsID:      "old",
		Ts:          now.Add(-59 * time.Minute),
		Overall:     1.0,
		Confidence:  1.0,
		ImpactScore: 2.0,
		Urgency:     models.UrgencyLow,
	}}}
	agg := NewAggregator(store, NewCache(time.Minute), nil, testLogger(t))

	got := agg.Get(context.Background(), "USDINR", time.Hour)
	if got == nil {
		t.Fatalf("expected aggregate")
	}
	// 59 minutes into a 60-minute window: recency just above the 0.1 floor.
	if got.Confidence < 0.1/1.0-1e-9 {
		t.Fatalf("confidence %v below floor", got.Confidence)
	}
	// No per-currency scores: base falls back to overall, quote to zero.
	if math.Abs(got.SentimentScore-1.0) > 1e-12 {
		t.Fatalf("sentiment = %v, want 1", got.SentimentScore)
	}
	if !strings.Contains(got.Summary, "low-impact") {
		t.Fatalf("summary = %q", got.Summary)
	}
}

func TestCacheHitSkipsStore(t *testing.T) {
	now := time.Now().UTC()
	store := &stubNewsStore{samples: []models.SentimentSample{{
		NewsID:     "n1",
		Ts:         now.Add(-time.Minute),
		Overall:    0.2,
		Confidence: 0.5,
	}}}
	agg := NewAggregator(store, NewCache(time.Minute), nil, testLogger(t))

	first := agg.Get(context.Background(), "USDINR", time.Hour)
	second := agg.Get(context.Background(), "USDINR", time.Hour)
	if first == nil || second == nil {
		t.Fatalf("expected aggregates")
	}
	if store.queries != 1 {
		t.Fatalf("expected 1 store query, got %d", store.queries)
	}
	if *first != *second {
		t.Fatalf("cached aggregate changed: %+v vs %+v", first, second)
	}
}

func TestNoSamplesNotCached(t *testing.T) {
	store := &stubNewsStore{}
	agg := NewAggregator(store, NewCache(time.Minute), nil, testLogger(t))

	if got := agg.Get(context.Background(), "USDINR", time.Hour); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
	if got := agg.Get(context.Background(), "USDINR", time.Hour); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
	// Absent results must not be cached: both calls hit storage.
	if store.queries != 2 {
		t.Fatalf("expected 2 store queries, got %d", store.queries)
	}
}

func TestStoreErrorDegradesToNil(t *testing.T) {
	store := &stubNewsStore{err: context.DeadlineExceeded}
	agg := NewAggregator(store, NewCache(time.Minute), nil, testLogger(t))

	if got := agg.Get(context.Background(), "USDINR", time.Hour); got != nil {
		t.Fatalf("expected nil on store error, got %+v", got)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(10 * time.Millisecond)
	c.Put("USDINR", models.AggregatedSentiment{SentimentScore: 0.4})
	if _, ok := c.Get("USDINR"); !ok {
		t.Fatalf("expected fresh entry")
	}
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("USDINR"); ok {
		t.Fatalf("expected expired entry")
	}
}
