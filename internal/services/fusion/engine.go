package fusion

import (
	"fmt"
	"strings"

	"FXAdvisor/internal/domain/models"
	"FXAdvisor/pkg/logger"
)

// urgency weight bonuses applied on top of the confidence-scaled base weight
var urgencyBoost = map[models.Urgency]float64{
	models.UrgencyLow:      0,
	models.UrgencyMedium:   0,
	models.UrgencyHigh:     0.05,
	models.UrgencyCritical: 0.10,
}

// Engine combines a technical prediction with aggregated news sentiment via
// an asymmetric Bayesian probability update. The news weight is bounded by
// MaxLLMWeight so sentiment can tilt but never dominate the technical view.
type Engine struct {
	maxLLMWeight        float64
	minConfidence       float64
	highImpactThreshold float64
	logger              *logger.Logger
}

// NewEngine creates a fusion engine with the given bounds.
func NewEngine(maxLLMWeight, minConfidence, highImpactThreshold float64, log *logger.Logger) *Engine {
	return &Engine{
		maxLLMWeight:        maxLLMWeight,
		minConfidence:       minConfidence,
		highImpactThreshold: highImpactThreshold,
		logger:              log,
	}
}

// Fuse merges the technical prediction with sentiment. A nil or
// low-confidence sentiment degrades to an ML-only result that still carries
// the full hybrid shape, tagged with the reason.
func (e *Engine) Fuse(pred models.Prediction, sent *models.AggregatedSentiment) models.HybridPrediction {
	if sent == nil || sent.Confidence < e.minConfidence {
		return e.mlOnly(pred, sent)
	}

	weightLLM := e.llmWeight(sent)
	weightML := 1.0 - weightLLM

	probHybrid := bayesianUpdate(pred.ProbUp, sent.SentimentScore, weightLLM)
	deltaHybrid := adjustDelta(pred.ExpectedDeltaBps, sent.SentimentScore, sent.ImpactScore, weightLLM)

	out := models.HybridPrediction{
		ProbUpML:            pred.ProbUp,
		ExpectedDeltaML:     pred.ExpectedDeltaBps,
		MLModelID:           pred.ModelID,
		SentimentScore:      sent.SentimentScore,
		SentimentConfidence: sent.Confidence,
		NewsImpact:          sent.ImpactScore,
		NewsSummary:         sent.Summary,
		ProbUpHybrid:        probHybrid,
		ExpectedDeltaHybrid: deltaHybrid,
		FusionWeightML:      weightML,
		FusionWeightLLM:     weightLLM,
	}
	out.Explanation = explain(out)

	if e.logger != nil {
		e.logger.Info("fusion complete",
			logger.Float64("prob_ml", pred.ProbUp),
			logger.Float64("prob_hybrid", probHybrid),
			logger.Float64("weight_llm", weightLLM),
			logger.Float64("sentiment", sent.SentimentScore))
	}
	return out
}

// mlOnly passes the technical prediction through unchanged.
func (e *Engine) mlOnly(pred models.Prediction, sent *models.AggregatedSentiment) models.HybridPrediction {
	reason := "no recent news"
	if sent != nil {
		reason = "low news confidence"
	}
	return models.HybridPrediction{
		ProbUpML:            pred.ProbUp,
		ExpectedDeltaML:     pred.ExpectedDeltaBps,
		MLModelID:           pred.ModelID,
		NewsSummary:         fmt.Sprintf("Using ML-only prediction (%s)", reason),
		ProbUpHybrid:        pred.ProbUp,
		ExpectedDeltaHybrid: pred.ExpectedDeltaBps,
		FusionWeightML:      1.0,
		FusionWeightLLM:     0.0,
		Explanation:         fmt.Sprintf("Technical analysis only (%s)", reason),
	}
}

// llmWeight derives the news weight from confidence, impact and urgency,
// capped at the configured maximum.
func (e *Engine) llmWeight(sent *models.AggregatedSentiment) float64 {
	weight := sent.Confidence * e.maxLLMWeight

	if sent.ImpactScore >= e.highImpactThreshold {
		boost := (sent.ImpactScore - e.highImpactThreshold) * 0.02
		if boost > 0.1 {
			boost = 0.1
		}
		weight += boost
	}

	weight += urgencyBoost[sent.Urgency]

	if weight > e.maxLLMWeight {
		weight = e.maxLLMWeight
	}
	return weight
}

// bayesianUpdate shifts the prior asymmetrically: positive sentiment has
// diminishing returns near 1, negative near 0.
func bayesianUpdate(prior, sentiment, llmWeight float64) float64 {
	adj := sentiment * llmWeight
	var posterior float64
	if adj > 0 {
		posterior = prior + adj*(1.0-prior)
	} else {
		posterior = prior + adj*prior
	}
	if posterior < 0 {
		return 0
	}
	if posterior > 1 {
		return 1
	}
	return posterior
}

// adjustDelta amplifies or dampens the expected move by up to 50% depending
// on sentiment direction, impact, and the news weight.
func adjustDelta(baseDelta, sentiment, impactScore, llmWeight float64) float64 {
	impactNorm := impactScore / 10.0
	if impactNorm > 1 {
		impactNorm = 1
	}
	multiplier := 1.0 + sentiment*impactNorm*llmWeight*0.5
	return baseDelta * multiplier
}

// explain renders the human-readable fusion narrative.
func explain(h models.HybridPrediction) string {
	parts := make([]string, 0, 5)

	mlDirection := "bearish"
	if h.ProbUpML > 0.5 {
		mlDirection = "bullish"
	}
	parts = append(parts, fmt.Sprintf("Technical analysis: %s (prob=%.2f)", mlDirection, h.ProbUpML))

	if h.FusionWeightLLM > 0.05 {
		newsDirection := "bearish"
		if h.SentimentScore > 0 {
			newsDirection = "bullish"
		}
		parts = append(parts, fmt.Sprintf("News sentiment: %s (score=%+.2f, impact=%.1f/10)",
			newsDirection, h.SentimentScore, h.NewsImpact))
		if h.NewsSummary != "" {
			parts = append(parts, "Context: "+h.NewsSummary)
		}
	}

	finalDirection := "bearish"
	if h.ProbUpHybrid > 0.5 {
		finalDirection = "bullish"
	}
	parts = append(parts, fmt.Sprintf("Combined: %s (prob=%.2f, expected=%+.2f bps)",
		finalDirection, h.ProbUpHybrid, h.ExpectedDeltaHybrid))
	parts = append(parts, fmt.Sprintf("Weights: ML=%.0f%%, News=%.0f%%",
		h.FusionWeightML*100, h.FusionWeightLLM*100))

	return strings.Join(parts, " | ")
}
