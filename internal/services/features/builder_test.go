package features

import (
	"context"
	"math"
	"testing"
	"time"

	"FXAdvisor/internal/domain/models"
)

type stubStore struct {
	bars   []models.Bar
	events []models.MacroEvent
}

func (s *stubStore) QueryBars(_ context.Context, _ string, _ time.Time) ([]models.Bar, error) {
	return s.bars, nil
}

func (s *stubStore) QueryHighImpactEvents(_ context.Context, _ []string, _, _ time.Time) ([]models.MacroEvent, error) {
	return s.events, nil
}

func (s *stubStore) RecentBars(_ context.Context, _ string, _ int) ([]models.Bar, error) {
	return nil, nil
}

func (s *stubStore) InsertFeatureRows(_ context.Context, _ []models.FeatureRow) error {
	return nil
}

func makeBars(n int, end time.Time) []models.Bar {
	bars := make([]models.Bar, n)
	for i := 0; i < n; i++ {
		bars[i] = models.Bar{
			Ts:   end.Add(-time.Duration(n-1-i) * time.Minute),
			Pair: "USDINR",
			Mid:  83.0 + 0.01*float64(i),
		}
	}
	return bars
}

func TestBuildWarmup(t *testing.T) {
	end := time.Now().UTC().Truncate(time.Minute)
	store := &stubStore{bars: makeBars(60, end)}
	b := NewBuilder(store, 48*time.Hour)

	rows, err := b.Build(context.Background(), "USDINR", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 45 {
		t.Fatalf("expected 45 rows after warm-up, got %d", len(rows))
	}

	// First valid row corresponds to the 16th bar.
	wantTs := store.bars[15].Ts
	if !rows[0].Ts.Equal(wantTs) {
		t.Fatalf("first row ts = %v, want %v", rows[0].Ts, wantTs)
	}

	wantRet := store.bars[15].Mid/store.bars[14].Mid - 1
	if math.Abs(rows[0].Ret1m-wantRet) > 1e-12 {
		t.Fatalf("ret_1m = %v, want %v", rows[0].Ret1m, wantRet)
	}

	sum := 0.0
	for i := 11; i <= 15; i++ {
		sum += store.bars[i].Mid
	}
	wantSMA5 := sum / 5
	if math.Abs(rows[0].SMA5-wantSMA5) > 1e-12 {
		t.Fatalf("sma_5 = %v, want %v", rows[0].SMA5, wantSMA5)
	}

	if math.Abs(rows[0].Momentum15m-(store.bars[15].Mid-rows[0].SMA15)) > 1e-12 {
		t.Fatalf("momentum mismatch")
	}

	for _, r := range rows {
		if r.MinutesToEvent != -1 || r.IsHighImportance != 0 {
			t.Fatalf("expected no event join without events, got %+v", r)
		}
	}
}

func TestBuildShortHistory(t *testing.T) {
	end := time.Now().UTC().Truncate(time.Minute)
	store := &stubStore{bars: makeBars(10, end)}
	b := NewBuilder(store, 48*time.Hour)

	rows, err := b.Build(context.Background(), "USDINR", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows for short history, got %d", len(rows))
	}
}

func TestBuildEventJoin(t *testing.T) {
	end := time.Now().UTC().Truncate(time.Minute)
	bars := makeBars(60, end)
	store := &stubStore{
		bars: bars,
		events: []models.MacroEvent{
			{Ts: end.Add(30 * time.Minute), Currency: "USD", Importance: models.ImportanceHigh},
		},
	}
	b := NewBuilder(store, 48*time.Hour)

	rows, err := b.Build(context.Background(), "USDINR", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	last := rows[len(rows)-1]
	if last.MinutesToEvent != 30 {
		t.Fatalf("minutes_to_event = %d, want 30", last.MinutesToEvent)
	}
	if last.IsHighImportance != 1 {
		t.Fatalf("expected high-importance flag within 90 minutes")
	}

	// 30 + 44 minutes out: still within the 90-minute window.
	first := rows[0]
	if first.MinutesToEvent != 74 {
		t.Fatalf("minutes_to_event = %d, want 74", first.MinutesToEvent)
	}
	if first.IsHighImportance != 1 {
		t.Fatalf("expected high-importance flag at 74 minutes")
	}
}

func TestBuildEventBeyondHorizon(t *testing.T) {
	end := time.Now().UTC().Truncate(time.Minute)
	store := &stubStore{
		bars: makeBars(60, end),
		events: []models.MacroEvent{
			{Ts: end.Add(72 * time.Hour), Currency: "INR", Importance: models.ImportanceHigh},
		},
	}
	b := NewBuilder(store, 48*time.Hour)

	rows, err := b.Build(context.Background(), "USDINR", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range rows {
		if r.MinutesToEvent != -1 {
			t.Fatalf("event beyond horizon should not join, got %d", r.MinutesToEvent)
		}
	}
}

func TestRollingStdSample(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	out := rollingStd(xs, 3)
	if !math.IsNaN(out[0]) || !math.IsNaN(out[1]) {
		t.Fatalf("expected NaN warm-up")
	}
	// sample std of {1,2,3} is 1
	if math.Abs(out[2]-1) > 1e-12 {
		t.Fatalf("std = %v, want 1", out[2])
	}
}

func TestPctChangeWarmup(t *testing.T) {
	xs := []float64{100, 110, 121}
	out := pctChange(xs, 1)
	if !math.IsNaN(out[0]) {
		t.Fatalf("expected NaN at index 0")
	}
	if math.Abs(out[1]-0.1) > 1e-12 {
		t.Fatalf("pct change = %v, want 0.1", out[1])
	}
}
