package usecase

import (
	"context"
	"time"

	domrepo "FXAdvisor/internal/domain/repository"
	"FXAdvisor/internal/services/features"
	"FXAdvisor/pkg/logger"
)

// Featurizer materializes feature rows for the configured pairs on a
// schedule so training jobs can read them without recomputation.
type Featurizer struct {
	builder  *features.Builder
	store    domrepo.MarketStore
	metrics  domrepo.Metrics
	logger   *logger.Logger
	pairs    []string
	lookback time.Duration
}

func NewFeaturizer(
	builder *features.Builder,
	store domrepo.MarketStore,
	metrics domrepo.Metrics,
	log *logger.Logger,
	pairs []string,
	lookback time.Duration,
) *Featurizer {
	if lookback <= 0 {
		lookback = 6 * time.Hour
	}
	return &Featurizer{
		builder:  builder,
		store:    store,
		metrics:  metrics,
		logger:   log,
		pairs:    pairs,
		lookback: lookback,
	}
}

// Run materializes one batch per pair. A failing pair is logged and
// skipped.
func (f *Featurizer) Run(ctx context.Context) error {
	for _, pair := range f.pairs {
		start := time.Now()
		rows, err := f.builder.Build(ctx, pair, f.lookback)
		if err != nil {
			f.metrics.RecordError("featurize_build")
			if f.logger != nil {
				f.logger.Warn("featurize build failed",
					logger.String("pair", pair), logger.Error(err))
			}
			continue
		}
		if len(rows) == 0 {
			continue
		}
		if err := f.store.InsertFeatureRows(ctx, rows); err != nil {
			f.metrics.RecordError("featurize_store")
			if f.logger != nil {
				f.logger.Warn("featurize store failed",
					logger.String("pair", pair), logger.Error(err))
			}
			continue
		}
		f.metrics.RecordLatency("featurize", time.Since(start).Seconds())
		if f.logger != nil {
			f.logger.Debug("features materialized",
				logger.String("pair", pair), logger.Int("rows", len(rows)))
		}
	}
	return nil
}
