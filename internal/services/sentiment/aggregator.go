package sentiment

import (
	"context"
	"fmt"
	"time"

	"FXAdvisor/internal/domain/models"
	"FXAdvisor/internal/domain/repository"
	"FXAdvisor/pkg/logger"
)

const (
	// at most this many recent samples enter one aggregate
	sampleLimit = 20

	// floor for the recency weight so old-but-in-window samples still count
	minRecencyWeight = 0.1

	// impact needed before a sample's explanation is quoted in the summary
	explanationImpactMin = 7.0
)

// Aggregator folds recent per-article sentiment samples into one reading per
// pair. Results are cached per pair with a TTL; an absent reading is not an
// error and is never cached.
type Aggregator struct {
	store   repository.NewsStore
	cache   *Cache
	metrics repository.Metrics
	logger  *logger.Logger
}

// NewAggregator creates a sentiment aggregator.
func NewAggregator(store repository.NewsStore, cache *Cache, metrics repository.Metrics, log *logger.Logger) *Aggregator {
	return &Aggregator{store: store, cache: cache, metrics: metrics, logger: log}
}

// Get returns the aggregated sentiment for a pair over the lookback window,
// or nil when no recent samples exist. Storage failures degrade to nil.
func (a *Aggregator) Get(ctx context.Context, pair string, lookback time.Duration) *models.AggregatedSentiment {
	if v, ok := a.cache.Get(pair); ok {
		a.recordCache(true)
		return &v
	}

	lk := a.cache.keyLock(pair)
	lk.Lock()
	defer lk.Unlock()

	// Another goroutine may have refilled the entry while we waited.
	if v, ok := a.cache.Get(pair); ok {
		a.recordCache(true)
		return &v
	}
	a.recordCache(false)

	agg, err := a.aggregate(ctx, pair, lookback)
	if err != nil {
		a.logger.Error("sentiment aggregation failed", logger.Error(err), logger.String("pair", pair))
		return nil
	}
	if agg == nil {
		a.logger.Debug("no recent sentiment", logger.String("pair", pair))
		return nil
	}

	a.cache.Put(pair, *agg)
	return agg
}

func (a *Aggregator) aggregate(ctx context.Context, pair string, lookback time.Duration) (*models.AggregatedSentiment, error) {
	base, quote := models.SplitPair(pair)
	now := time.Now().UTC()

	samples, err := a.store.QuerySentimentSamples(ctx, []string{base, quote}, now.Add(-lookback), sampleLimit)
	if err != nil {
		return nil, fmt.Errorf("query sentiment samples: %w", err)
	}
	if len(samples) == 0 {
		return nil, nil
	}

	lookbackHours := lookback.Hours()
	var (
		totalWeight       float64
		weightedSentiment float64
		weightedImpact    float64
		maxUrgency        = models.UrgencyLow
		explanations      []string
	)

	for _, s := range samples {
		ageHours := now.Sub(s.Ts).Hours()
		recency := 1.0 - ageHours/lookbackHours
		if recency < minRecencyWeight {
			recency = minRecencyWeight
		}
		weight := recency * s.Confidence

		net := s.CurrencyScore(base, true) - s.CurrencyScore(quote, false)
		weightedSentiment += net * weight
		weightedImpact += s.ImpactScore * weight
		totalWeight += weight

		if s.Urgency.Level() > maxUrgency.Level() {
			maxUrgency = s.Urgency
		}
		if s.ImpactScore >= explanationImpactMin && len(explanations) < 3 {
			explanations = append(explanations, s.Explanation)
		}
	}

	if totalWeight == 0 {
		return nil, nil
	}

	avgSentiment := weightedSentiment / totalWeight
	avgImpact := weightedImpact / totalWeight
	agg := &models.AggregatedSentiment{
		SentimentScore: avgSentiment,
		Confidence:     totalWeight / float64(len(samples)),
		ImpactScore:    avgImpact,
		Urgency:        maxUrgency,
		Summary:        buildSummary(pair, avgSentiment, avgImpact, explanations),
		SampleCount:    len(samples),
	}

	a.logger.Info("sentiment aggregated",
		logger.String("pair", pair),
		logger.Float64("sentiment", agg.SentimentScore),
		logger.Float64("impact", agg.ImpactScore),
		logger.Float64("confidence", agg.Confidence),
		logger.Int("samples", agg.SampleCount))
	return agg, nil
}

// buildSummary renders the human-readable digest attached to a reading.
func buildSummary(pair string, sentiment, impact float64, explanations []string) string {
	base, quote := models.SplitPair(pair)

	var direction string
	switch {
	case sentiment > 0.3:
		direction = fmt.Sprintf("%s bullish vs %s", base, quote)
	case sentiment < -0.3:
		direction = fmt.Sprintf("%s bearish vs %s", base, quote)
	default:
		direction = "mixed signals"
	}

	var impactDesc string
	switch {
	case impact >= 8.0:
		impactDesc = "high-impact"
	case impact >= 6.0:
		impactDesc = "moderate-impact"
	default:
		impactDesc = "low-impact"
	}

	summary := fmt.Sprintf("Recent news: %s (%s)", direction, impactDesc)
	if len(explanations) > 0 {
		key := explanations[0]
		if r := []rune(key); len(r) > 100 {
			key = string(r[:100])
		}
		summary += " | Key: " + key + "..."
	}
	return summary
}

func (a *Aggregator) recordCache(hit bool) {
	if a.metrics != nil {
		a.metrics.RecordSentimentCache(hit)
	}
}
