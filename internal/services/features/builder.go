package features

import (
	"context"
	"fmt"
	"math"
	"time"

	"FXAdvisor/internal/domain/models"
	"FXAdvisor/internal/domain/repository"
)

const (
	// warm-up of the longest rolling window; earlier bars produce no row
	warmupBars = 15

	// minutes within which an upcoming event flags a row as high-importance
	highImportanceWindowMin = 90
)

// Builder computes per-minute feature rows from raw bars and the macro
// event calendar.
type Builder struct {
	store        repository.MarketStore
	eventHorizon time.Duration
}

// NewBuilder creates a feature builder. eventHorizon bounds how far ahead
// the event join looks.
func NewBuilder(store repository.MarketStore, eventHorizon time.Duration) *Builder {
	if eventHorizon <= 0 {
		eventHorizon = 48 * time.Hour
	}
	return &Builder{store: store, eventHorizon: eventHorizon}
}

// Build loads bars for the pair over the lookback window and returns one
// feature row per bar that has all rolling windows warmed up. The result is
// ascending by timestamp and may be empty when history is too short.
func (b *Builder) Build(ctx context.Context, pair string, lookback time.Duration) ([]models.FeatureRow, error) {
	since := time.Now().UTC().Add(-lookback)
	bars, err := b.store.QueryBars(ctx, pair, since)
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	if len(bars) <= warmupBars {
		return nil, nil
	}

	rows := computeRows(pair, bars)
	if len(rows) == 0 {
		return nil, nil
	}

	if err := b.joinEvents(ctx, pair, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// computeRows derives the rolling features and drops warm-up rows.
func computeRows(pair string, bars []models.Bar) []models.FeatureRow {
	mids := make([]float64, len(bars))
	for i, bar := range bars {
		mids[i] = bar.Mid
	}

	ret1m := pctChange(mids, 1)
	ret5m := pctChange(mids, 5)
	ret15m := pctChange(mids, 15)
	vol5m := rollingStd(ret1m, 5)
	vol15m := rollingStd(ret1m, 15)
	sma5 := rollingMean(mids, 5)
	sma15 := rollingMean(mids, 15)

	rows := make([]models.FeatureRow, 0, len(bars)-warmupBars)
	for i := range bars {
		if anyNaN(ret1m[i], ret5m[i], ret15m[i], vol5m[i], vol15m[i], sma5[i], sma15[i]) {
			continue
		}
		rows = append(rows, models.FeatureRow{
			Ts:             bars[i].Ts,
			Pair:           pair,
			Ret1m:          ret1m[i],
			Ret5m:          ret5m[i],
			Ret15m:         ret15m[i],
			Vol5m:          vol5m[i],
			Vol15m:         vol15m[i],
			SMA5:           sma5[i],
			SMA15:          sma15[i],
			Momentum15m:    mids[i] - sma15[i],
			MinutesToEvent: -1,
		})
	}
	return rows
}

// joinEvents performs an as-of join of each row against the next upcoming
// high-importance event for either currency of the pair.
func (b *Builder) joinEvents(ctx context.Context, pair string, rows []models.FeatureRow) error {
	base, quote := models.SplitPair(pair)
	from := rows[0].Ts
	to := rows[len(rows)-1].Ts.Add(b.eventHorizon)

	events, err := b.store.QueryHighImpactEvents(ctx, []string{base, quote}, from, to)
	if err != nil {
		return fmt.Errorf("query events: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	eventTs := make([]time.Time, len(events))
	for i, ev := range events {
		eventTs[i] = ev.Ts
	}

	for i := range rows {
		idx := searchSorted(eventTs, rows[i].Ts)
		if idx >= len(eventTs) {
			continue
		}
		gap := eventTs[idx].Sub(rows[i].Ts)
		if gap > b.eventHorizon {
			continue
		}
		m := int(math.Floor(gap.Minutes()))
		rows[i].MinutesToEvent = m
		if m >= 0 && m <= highImportanceWindowMin {
			rows[i].IsHighImportance = 1
		}
	}
	return nil
}

func anyNaN(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) {
			return true
		}
	}
	return false
}
