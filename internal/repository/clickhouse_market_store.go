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

// ClickHouseMarketStore implements MarketStore over fx.bars_1m,
// fx.macro_events and fx.features_1m.
type ClickHouseMarketStore struct {
	db            *sql.DB
	barsTable     string
	eventsTable   string
	featuresTable string
}

// NewClickHouseMarketStore creates a ClickHouse-backed market store.
func NewClickHouseMarketStore(db *sql.DB) repository.MarketStore {
	return &ClickHouseMarketStore{
		db:            db,
		barsTable:     "fx.bars_1m",
		eventsTable:   "fx.macro_events",
		featuresTable: "fx.features_1m",
	}
}

func (s *ClickHouseMarketStore) QueryBars(ctx context.Context, pair string, since time.Time) ([]models.Bar, error) {
	q := fmt.Sprintf("SELECT ts, pair, mid FROM %s WHERE pair = ? AND ts >= ? ORDER BY ts ASC", s.barsTable)
	rows, err := s.db.QueryContext(ctx, q, pair, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []models.Bar
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Ts, &b.Pair, &b.Mid); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

func (s *ClickHouseMarketStore) QueryHighImpactEvents(ctx context.Context, currencies []string, from, to time.Time) ([]models.MacroEvent, error) {
	if len(currencies) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(currencies)), ",")
	q := fmt.Sprintf(
		"SELECT ts, currency, importance FROM %s WHERE currency IN (%s) AND importance = ? AND ts >= ? AND ts <= ? ORDER BY ts ASC",
		s.eventsTable, placeholders,
	)
	args := make([]interface{}, 0, len(currencies)+3)
	for _, c := range currencies {
		args = append(args, c)
	}
	args = append(args, models.ImportanceHigh, from, to)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.MacroEvent
	for rows.Next() {
		var e models.MacroEvent
		if err := rows.Scan(&e.Ts, &e.Currency, &e.Importance); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *ClickHouseMarketStore) RecentBars(ctx context.Context, pair string, limit int) ([]models.Bar, error) {
	if limit <= 0 {
		limit = 100
	}
	q := fmt.Sprintf("SELECT ts, pair, mid FROM %s WHERE pair = ? ORDER BY ts DESC LIMIT ?", s.barsTable)
	rows, err := s.db.QueryContext(ctx, q, pair, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []models.Bar
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Ts, &b.Pair, &b.Mid); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Latest-N query returns newest first; flip to chronological order.
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}

func (s *ClickHouseMarketStore) InsertFeatureRows(ctx context.Context, frows []models.FeatureRow) error {
	if len(frows) == 0 {
		return nil
	}
	const chunkSize = 2000
	for start := 0; start < len(frows); start += chunkSize {
		end := start + chunkSize
		if end > len(frows) {
			end = len(frows)
		}
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*12)
		for _, r := range frows[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.Ts,
				r.Pair,
				r.Ret1m,
				r.Ret5m,
				r.Ret15m,
				r.Vol5m,
				r.Vol15m,
				r.SMA5,
				r.SMA15,
				r.Momentum15m,
				r.MinutesToEvent,
				r.IsHighImportance,
			)
		}
		q := fmt.Sprintf(
			"INSERT INTO %s (ts, pair, ret_1m, ret_5m, ret_15m, vol_5m, vol_15m, sma_5, sma_15, momentum_15m, minutes_to_event, is_high_importance) VALUES %s",
			s.featuresTable, strings.Join(values, ","),
		)
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}
