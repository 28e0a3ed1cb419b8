package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"FXAdvisor/internal/domain/models"
	"FXAdvisor/internal/services/features"
	"FXAdvisor/internal/services/fusion"
	"FXAdvisor/internal/services/predict"
	"FXAdvisor/internal/services/sentiment"
	"FXAdvisor/pkg/logger"
)

type fakeMarketStore struct {
	bars   []models.Bar
	events []models.MacroEvent
}

func (f *fakeMarketStore) QueryBars(_ context.Context, _ string, since time.Time) ([]models.Bar, error) {
	var out []models.Bar
	for _, b := range f.bars {
		if !b.Ts.Before(since) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeMarketStore) QueryHighImpactEvents(_ context.Context, _ []string, from, to time.Time) ([]models.MacroEvent, error) {
	var out []models.MacroEvent
	for _, e := range f.events {
		if !e.Ts.Before(from) && !e.Ts.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeMarketStore) RecentBars(_ context.Context, _ string, limit int) ([]models.Bar, error) {
	if len(f.bars) > limit {
		return f.bars[len(f.bars)-limit:], nil
	}
	return f.bars, nil
}

func (f *fakeMarketStore) InsertFeatureRows(_ context.Context, _ []models.FeatureRow) error {
	return nil
}

type fakeNewsStore struct {
	samples []models.SentimentSample
}

func (f *fakeNewsStore) InsertNewsItems(context.Context, []models.NewsItem) error { return nil }
func (f *fakeNewsStore) InsertSentimentSample(context.Context, models.SentimentSample) error {
	return nil
}
func (f *fakeNewsStore) QuerySentimentSamples(context.Context, []string, time.Time, int) ([]models.SentimentSample, error) {
	return f.samples, nil
}
func (f *fakeNewsStore) RecentNews(context.Context, int) ([]models.NewsItem, error) { return nil, nil }
func (f *fakeNewsStore) RecentSentiment(context.Context, int) ([]models.SentimentSample, error) {
	return nil, nil
}

type fakeAuditStore struct {
	mu        sync.Mutex
	decisions []models.DecisionRow
	hybrids   []models.HybridRow
}

func (f *fakeAuditStore) InsertDecision(_ context.Context, row models.DecisionRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decisions = append(f.decisions, row)
	return nil
}

func (f *fakeAuditStore) InsertHybridPrediction(_ context.Context, row models.HybridRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hybrids = append(f.hybrids, row)
	return nil
}

type fakeMetrics struct{}

func (fakeMetrics) RecordIngest(string, string)    {}
func (fakeMetrics) RecordError(string)             {}
func (fakeMetrics) RecordLastRate(string, float64) {}
func (fakeMetrics) RecordLatency(string, float64)  {}
func (fakeMetrics) RecordForecast(string, string)  {}
func (fakeMetrics) RecordSentimentCache(bool)      {}
func (fakeMetrics) RecordFusionWeight(float64)     {}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

// trendingBars produces n one-minute bars with a constant per-minute
// return of ret.
func trendingBars(n int, ret float64) []models.Bar {
	start := time.Now().UTC().Add(-time.Duration(n) * time.Minute).Truncate(time.Minute)
	bars := make([]models.Bar, n)
	mid := 83.0
	for i := range bars {
		bars[i] = models.Bar{Ts: start.Add(time.Duration(i) * time.Minute), Pair: "USDINR", Mid: mid}
		mid *= 1 + ret
	}
	return bars
}

func newTestUseCase(t *testing.T, market *fakeMarketStore, news *fakeNewsStore, audit *fakeAuditStore, hybridOn bool) *ForecastUseCase {
	t.Helper()
	log := testLogger(t)
	builder := features.NewBuilder(market, 48*time.Hour)
	var agg *sentiment.Aggregator
	var engine *fusion.Engine
	if news != nil {
		agg = sentiment.NewAggregator(news, sentiment.NewCache(time.Minute), fakeMetrics{}, log)
		engine = fusion.NewEngine(0.4, 0.3, 7.0, log)
	}
	return NewForecastUseCase(
		builder,
		predict.NewBaseline(),
		nil,
		agg,
		engine,
		audit,
		fakeMetrics{},
		log,
		ForecastDefaults{
			Policy:            "expected",
			SpreadBps:         2.0,
			ProbThreshold:     0.6,
			EmbargoMinutes:    15,
			HybridEnabled:     hybridOn,
			SentimentLookback: time.Hour,
			FeatureLookback:   6 * time.Hour,
		},
	)
}

func TestForecastNoFeatures(t *testing.T) {
	market := &fakeMarketStore{bars: trendingBars(10, 1e-4)}
	uc := newTestUseCase(t, market, nil, &fakeAuditStore{}, false)

	resp, err := uc.Forecast(context.Background(), models.ForecastRequest{Pair: "USDINR", Horizon: "4h"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Recommendation != models.RecommendPartial {
		t.Fatalf("recommendation = %q, want PARTIAL", resp.Recommendation)
	}
	if len(resp.Explanation) != 1 || resp.Explanation[0] != "no features" {
		t.Fatalf("explanation = %v, want [no features]", resp.Explanation)
	}
	if resp.ProbUp != 0.5 || resp.ModelID != predict.BaselineModelID {
		t.Fatalf("degraded response = %+v", resp)
	}
}

func TestForecastBaselineUptrend(t *testing.T) {
	market := &fakeMarketStore{bars: trendingBars(60, 1e-4)}
	audit := &fakeAuditStore{}
	uc := newTestUseCase(t, market, nil, audit, false)

	resp, err := uc.Forecast(context.Background(), models.ForecastRequest{Pair: "USDINR", Horizon: "4h"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Recommendation != models.RecommendNow {
		t.Fatalf("recommendation = %q, want NOW", resp.Recommendation)
	}
	if resp.Direction != "UP" {
		t.Fatalf("direction = %q, want UP", resp.Direction)
	}
	if resp.ExpectedDeltaBps <= 2.0 {
		t.Fatalf("expected delta = %v, want > spread", resp.ExpectedDeltaBps)
	}
	if resp.Explanation[0] != "baseline: rolling mean" {
		t.Fatalf("model tag = %q", resp.Explanation[0])
	}
	if resp.Hybrid.Enabled {
		t.Fatal("hybrid should be disabled")
	}

	if len(audit.decisions) != 1 {
		t.Fatalf("decision rows = %d, want 1", len(audit.decisions))
	}
	row := audit.decisions[0]
	if row.PriorProbUp != row.PosteriorProbUp {
		t.Fatalf("prior %v != posterior %v without fusion", row.PriorProbUp, row.PosteriorProbUp)
	}
	if row.PolicyVersion != predict.BaselineModelID {
		t.Fatalf("policy version = %q", row.PolicyVersion)
	}
	if len(audit.hybrids) != 0 {
		t.Fatalf("hybrid rows = %d, want 0", len(audit.hybrids))
	}
}

func TestForecastEmbargoForcesWait(t *testing.T) {
	bars := trendingBars(60, 1e-4)
	lastTs := bars[len(bars)-1].Ts
	market := &fakeMarketStore{
		bars: bars,
		events: []models.MacroEvent{
			{Ts: lastTs.Add(10 * time.Minute), Currency: "USD", Importance: models.ImportanceHigh},
		},
	}
	uc := newTestUseCase(t, market, nil, &fakeAuditStore{}, false)

	resp, err := uc.Forecast(context.Background(), models.ForecastRequest{Pair: "USDINR", Horizon: "4h"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Recommendation != models.RecommendWait {
		t.Fatalf("recommendation = %q, want WAIT under embargo", resp.Recommendation)
	}
	found := false
	for _, part := range resp.Explanation {
		if strings.HasPrefix(part, "embargo: minutes_to_event=") {
			found = true
		}
	}
	if !found {
		t.Fatalf("embargo note missing from %v", resp.Explanation)
	}
}

func TestForecastHybridFusion(t *testing.T) {
	market := &fakeMarketStore{bars: trendingBars(60, 1e-4)}
	news := &fakeNewsStore{samples: []models.SentimentSample{{
		NewsID:      "n1",
		Ts:          time.Now().UTC().Add(-5 * time.Minute),
		Overall:     0.6,
		PerCurrency: map[string]float64{"USD": 0.6},
		Confidence:  0.8,
		ImpactScore: 8.0,
		Urgency:     models.UrgencyHigh,
		Explanation: "Fed signals rate hold",
	}}}
	audit := &fakeAuditStore{}
	uc := newTestUseCase(t, market, news, audit, true)

	resp, err := uc.Forecast(context.Background(), models.ForecastRequest{Pair: "USDINR", Horizon: "4h"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Hybrid.Enabled {
		t.Fatal("hybrid info missing")
	}
	if *resp.Hybrid.ProbUpHybrid <= *resp.Hybrid.ProbUpML {
		t.Fatalf("bullish news should raise prob: ml=%v hybrid=%v",
			*resp.Hybrid.ProbUpML, *resp.Hybrid.ProbUpHybrid)
	}
	w := resp.Hybrid.Weights
	if w == nil || w.ML+w.LLM < 0.999 || w.ML+w.LLM > 1.001 {
		t.Fatalf("weights = %+v, want sum 1", w)
	}
	if w.LLM > 0.4 {
		t.Fatalf("llm weight %v exceeds cap", w.LLM)
	}

	if len(audit.hybrids) != 1 {
		t.Fatalf("hybrid rows = %d, want 1", len(audit.hybrids))
	}
	hr := audit.hybrids[0]
	if hr.ProbUpHybrid != *resp.Hybrid.ProbUpHybrid {
		t.Fatalf("audit prob %v != response %v", hr.ProbUpHybrid, *resp.Hybrid.ProbUpHybrid)
	}
	if len(audit.decisions) != 1 {
		t.Fatalf("decision rows = %d, want 1", len(audit.decisions))
	}
	if audit.decisions[0].PriorProbUp == audit.decisions[0].PosteriorProbUp {
		t.Fatal("fusion should move posterior away from prior")
	}
}

func TestForecastQueryOverrides(t *testing.T) {
	market := &fakeMarketStore{bars: trendingBars(60, 1e-4)}
	uc := newTestUseCase(t, market, nil, &fakeAuditStore{}, false)

	// Uptrend with a probability threshold above the baseline output.
	probTh := 0.99
	policy := "prob"
	resp, err := uc.Forecast(context.Background(), models.ForecastRequest{
		Pair: "USDINR", Horizon: "4h", Policy: policy, ProbTh: &probTh,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Recommendation != models.RecommendWait {
		t.Fatalf("recommendation = %q, want WAIT under prob_th=0.99", resp.Recommendation)
	}
	if !strings.Contains(resp.Explanation[1], "policy=prob") {
		t.Fatalf("knobs line = %q", resp.Explanation[1])
	}
}

func TestForecastUseHybridFalseSkipsFusion(t *testing.T) {
	market := &fakeMarketStore{bars: trendingBars(60, 1e-4)}
	news := &fakeNewsStore{samples: []models.SentimentSample{{
		NewsID:      "n1",
		Ts:          time.Now().UTC(),
		Overall:     0.9,
		Confidence:  0.9,
		ImpactScore: 9.0,
		Urgency:     models.UrgencyCritical,
	}}}
	audit := &fakeAuditStore{}
	uc := newTestUseCase(t, market, news, audit, true)

	off := false
	resp, err := uc.Forecast(context.Background(), models.ForecastRequest{
		Pair: "USDINR", Horizon: "4h", UseHybrid: &off,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Hybrid.Enabled {
		t.Fatal("use_hybrid=false must disable fusion")
	}
	if len(audit.hybrids) != 0 {
		t.Fatalf("hybrid rows = %d, want 0", len(audit.hybrids))
	}
}
