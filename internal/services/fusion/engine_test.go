package fusion

import (
	"math"
	"strings"
	"testing"

	"FXAdvisor/internal/domain/models"
)

func newTestEngine() *Engine {
	return NewEngine(0.4, 0.3, 7.0, nil)
}

func mlPred(probUp, deltaBps float64) models.Prediction {
	return models.Prediction{
		ProbUp:           probUp,
		ExpectedDeltaBps: deltaBps,
		Confidence:       0.65,
		ModelID:          "lgbm_4h_a1",
	}
}

func TestFuseNoSentimentIsMLOnly(t *testing.T) {
	e := newTestEngine()
	pred := mlPred(0.62, 3.5)

	got := e.Fuse(pred, nil)
	if got.ProbUpHybrid != pred.ProbUp {
		t.Fatalf("prob_up_hybrid = %v, want ML prob %v", got.ProbUpHybrid, pred.ProbUp)
	}
	if got.ExpectedDeltaHybrid != pred.ExpectedDeltaBps {
		t.Fatalf("expected_delta_hybrid = %v, want %v", got.ExpectedDeltaHybrid, pred.ExpectedDeltaBps)
	}
	if got.FusionWeightLLM != 0 || got.FusionWeightML != 1 {
		t.Fatalf("weights = (%v, %v), want (1, 0)", got.FusionWeightML, got.FusionWeightLLM)
	}
	if !strings.Contains(got.Explanation, "no recent news") {
		t.Fatalf("explanation = %q", got.Explanation)
	}
}

func TestFuseLowConfidenceIsMLOnly(t *testing.T) {
	e := newTestEngine()
	pred := mlPred(0.62, 3.5)
	sent := &models.AggregatedSentiment{
		SentimentScore: 0.9,
		Confidence:     0.1, // below 0.3 threshold
		ImpactScore:    9,
	}

	got := e.Fuse(pred, sent)
	if got.ProbUpHybrid != pred.ProbUp {
		t.Fatalf("low-confidence sentiment must not move the prior")
	}
	if got.FusionWeightLLM != 0 {
		t.Fatalf("fusion_weight_llm = %v, want 0", got.FusionWeightLLM)
	}
	if !strings.Contains(got.Explanation, "low news confidence") {
		t.Fatalf("explanation = %q", got.Explanation)
	}

	// Identical to the no-sentiment case except for the tagged reason.
	noSent := e.Fuse(pred, nil)
	if got.ProbUpHybrid != noSent.ProbUpHybrid || got.ExpectedDeltaHybrid != noSent.ExpectedDeltaHybrid {
		t.Fatalf("low-confidence and no-sentiment paths diverged")
	}
}

func TestBayesianUpdateBranches(t *testing.T) {
	// prior 0.5, sentiment +1.0, weight 0.4: 0.5 + 0.4*(1-0.5) = 0.70
	if got := bayesianUpdate(0.5, 1.0, 0.4); math.Abs(got-0.70) > 1e-12 {
		t.Fatalf("posterior = %v, want 0.70", got)
	}
	// prior 0.5, sentiment -1.0, weight 0.4: 0.5 + (-0.4)*0.5 = 0.30
	if got := bayesianUpdate(0.5, -1.0, 0.4); math.Abs(got-0.30) > 1e-12 {
		t.Fatalf("posterior = %v, want 0.30", got)
	}
	// diminishing returns near the bounds
	if got := bayesianUpdate(0.95, 1.0, 0.4); got > 1 {
		t.Fatalf("posterior above 1: %v", got)
	}
	if got := bayesianUpdate(0.05, -1.0, 0.4); got < 0 {
		t.Fatalf("posterior below 0: %v", got)
	}
}

func TestLLMWeightCapped(t *testing.T) {
	e := newTestEngine()
	sent := &models.AggregatedSentiment{
		SentimentScore: 0.5,
		Confidence:     1.0,
		ImpactScore:    10, // boost min(0.1, 3*0.02) = 0.06
		Urgency:        models.UrgencyCritical,
	}
	if got := e.llmWeight(sent); got != 0.4 {
		t.Fatalf("weight = %v, want cap 0.4", got)
	}

	got := e.Fuse(mlPred(0.5, 2.0), sent)
	if got.FusionWeightLLM > 0.4 {
		t.Fatalf("fusion_weight_llm %v exceeds cap", got.FusionWeightLLM)
	}
	if math.Abs(got.FusionWeightML+got.FusionWeightLLM-1.0) > 1e-12 {
		t.Fatalf("weights do not sum to 1: %v + %v", got.FusionWeightML, got.FusionWeightLLM)
	}
}

func TestLLMWeightComposition(t *testing.T) {
	e := newTestEngine()
	sent := &models.AggregatedSentiment{
		Confidence:  0.5,
		ImpactScore: 8.0,
		Urgency:     models.UrgencyHigh,
	}
	// 0.5*0.4 + (8-7)*0.02 + 0.05 = 0.2 + 0.02 + 0.05 = 0.27
	if got := e.llmWeight(sent); math.Abs(got-0.27) > 1e-12 {
		t.Fatalf("weight = %v, want 0.27", got)
	}
}

func TestAdjustDeltaAmplifies(t *testing.T) {
	// sentiment +1, impact 10, weight 0.4: multiplier = 1 + 1*1*0.4*0.5 = 1.2
	if got := adjustDelta(10, 1.0, 10, 0.4); math.Abs(got-12) > 1e-12 {
		t.Fatalf("delta = %v, want 12", got)
	}
	// bearish news dampens a positive move
	if got := adjustDelta(10, -1.0, 10, 0.4); math.Abs(got-8) > 1e-12 {
		t.Fatalf("delta = %v, want 8", got)
	}
}

func TestFuseBounds(t *testing.T) {
	e := newTestEngine()
	for _, prior := range []float64{0, 0.25, 0.5, 0.75, 1} {
		for _, score := range []float64{-1, -0.5, 0, 0.5, 1} {
			sent := &models.AggregatedSentiment{
				SentimentScore: score,
				Confidence:     0.9,
				ImpactScore:    8,
				Urgency:        models.UrgencyHigh,
			}
			got := e.Fuse(mlPred(prior, 1.0), sent)
			if got.ProbUpHybrid < 0 || got.ProbUpHybrid > 1 {
				t.Fatalf("prob_up_hybrid out of range: %v (prior=%v score=%v)", got.ProbUpHybrid, prior, score)
			}
			if got.FusionWeightLLM < 0 || got.FusionWeightLLM > 0.4 {
				t.Fatalf("fusion_weight_llm out of range: %v", got.FusionWeightLLM)
			}
			if math.Abs(got.FusionWeightML-(1-got.FusionWeightLLM)) > 1e-12 {
				t.Fatalf("weights inconsistent")
			}
		}
	}
}

func TestExplainMentionsNewsOnlyWhenWeighted(t *testing.T) {
	e := newTestEngine()
	sent := &models.AggregatedSentiment{
		SentimentScore: 0.8,
		Confidence:     0.9,
		ImpactScore:    8,
		Urgency:        models.UrgencyHigh,
		Summary:        "Recent news: USD bullish vs INR (high-impact)",
	}
	got := e.Fuse(mlPred(0.6, 2.0), sent)
	if !strings.Contains(got.Explanation, "News sentiment: bullish") {
		t.Fatalf("explanation = %q", got.Explanation)
	}
	if !strings.Contains(got.Explanation, "Context: Recent news") {
		t.Fatalf("explanation = %q", got.Explanation)
	}
}
