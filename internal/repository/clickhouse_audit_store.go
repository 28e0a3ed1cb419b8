package repository

import (
	"context"
	"database/sql"
	"fmt"

	"FXAdvisor/internal/domain/models"
	"FXAdvisor/internal/domain/repository"
)

// ClickHouseAuditStore implements AuditStore over fx.decisions and
// fx.hybrid_predictions.
type ClickHouseAuditStore struct {
	db             *sql.DB
	decisionsTable string
	hybridTable    string
}

// NewClickHouseAuditStore creates a ClickHouse-backed audit store.
func NewClickHouseAuditStore(db *sql.DB) repository.AuditStore {
	return &ClickHouseAuditStore{
		db:             db,
		decisionsTable: "fx.decisions",
		hybridTable:    "fx.hybrid_predictions",
	}
}

func (s *ClickHouseAuditStore) InsertDecision(ctx context.Context, row models.DecisionRow) error {
	q := fmt.Sprintf(
		"INSERT INTO %s (ts, pair, horizon, prior_prob_up, posterior_prob_up, expected_delta_bps, range_p10, range_p90, shock_level, event_impact, recommendation, explanation, policy_version) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		s.decisionsTable,
	)
	_, err := s.db.ExecContext(ctx, q,
		row.Ts,
		row.Pair,
		row.Horizon,
		row.PriorProbUp,
		row.PosteriorProbUp,
		row.ExpectedDeltaBps,
		row.RangeP10,
		row.RangeP90,
		row.ShockLevel,
		row.EventImpact,
		row.Recommendation,
		row.Explanation,
		row.PolicyVersion,
	)
	return err
}

func (s *ClickHouseAuditStore) InsertHybridPrediction(ctx context.Context, row models.HybridRow) error {
	q := fmt.Sprintf(
		"INSERT INTO %s (ts, pair, horizon, prob_up_ml, expected_delta_ml, ml_model_id, sentiment_score, sentiment_confidence, news_impact, news_summary, prob_up_hybrid, expected_delta_hybrid, fusion_weight_ml, fusion_weight_llm, recommendation, explanation, processing_time_ms) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		s.hybridTable,
	)
	_, err := s.db.ExecContext(ctx, q,
		row.Ts,
		row.Pair,
		row.Horizon,
		row.ProbUpML,
		row.ExpectedDeltaML,
		row.MLModelID,
		row.SentimentScore,
		row.SentimentConfidence,
		row.NewsImpact,
		row.NewsSummary,
		row.ProbUpHybrid,
		row.ExpectedDeltaHybrid,
		row.FusionWeightML,
		row.FusionWeightLLM,
		row.Recommendation,
		row.Explanation,
		row.ProcessingTimeMs,
	)
	return err
}

// ClickHouseModelRegistry implements ModelRegistry over fx.models.
type ClickHouseModelRegistry struct {
	db    *sql.DB
	table string
}

// NewClickHouseModelRegistry creates a ClickHouse-backed model registry.
func NewClickHouseModelRegistry(db *sql.DB) repository.ModelRegistry {
	return &ClickHouseModelRegistry{db: db, table: "fx.models"}
}

func (r *ClickHouseModelRegistry) LatestModelID(ctx context.Context, horizon string) (string, error) {
	q := fmt.Sprintf(
		"SELECT model_id FROM %s WHERE horizon = ? ORDER BY created_at DESC LIMIT 1",
		r.table,
	)
	var modelID string
	err := r.db.QueryRowContext(ctx, q, horizon).Scan(&modelID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return modelID, nil
}
