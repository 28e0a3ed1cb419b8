package models

import "time"

// Recommendation values produced by the decision policy.
const (
	RecommendNow     = "NOW"
	RecommendWait    = "WAIT"
	RecommendPartial = "PARTIAL"
)

// Prediction is the technical (ML) estimate for one pair/horizon.
// Degraded marks a neutral fallback produced from insufficient data;
// callers must not treat it as a hard error.
type Prediction struct {
	ProbUp           float64 // 0..1
	ExpectedDeltaBps float64
	Confidence       float64 // 0..1
	RangeP10         float64 // bps
	RangeP90         float64 // bps
	ModelID          string
	Degraded         bool
	DegradedReason   string
}

// HybridPrediction is the fused technical + news estimate.
// Invariants: ProbUpHybrid in [0,1]; FusionWeightML + FusionWeightLLM == 1;
// FusionWeightLLM never exceeds the configured maximum.
type HybridPrediction struct {
	ProbUpML            float64
	ExpectedDeltaML     float64
	MLModelID           string
	SentimentScore      float64
	SentimentConfidence float64
	NewsImpact          float64
	NewsSummary         string
	ProbUpHybrid        float64
	ExpectedDeltaHybrid float64
	FusionWeightML      float64
	FusionWeightLLM     float64
	Explanation         string
}

// Decision is the terminal artifact of the pipeline.
type Decision struct {
	Recommendation string
	Explanation    string
	EmbargoApplied bool
}

// DecisionRow is the audit row persisted for every forecast.
type DecisionRow struct {
	Ts               time.Time
	Pair             string
	Horizon          string
	PriorProbUp      float64
	PosteriorProbUp  float64
	ExpectedDeltaBps float64
	RangeP10         float64
	RangeP90         float64
	ShockLevel       string
	EventImpact      float64
	Recommendation   string
	Explanation      string
	PolicyVersion    string
}

// HybridRow is the audit row persisted when fusion ran with news input.
type HybridRow struct {
	Ts                  time.Time
	Pair                string
	Horizon             string
	ProbUpML            float64
	ExpectedDeltaML     float64
	MLModelID           string
	SentimentScore      float64
	SentimentConfidence float64
	NewsImpact          float64
	NewsSummary         string
	ProbUpHybrid        float64
	ExpectedDeltaHybrid float64
	FusionWeightML      float64
	FusionWeightLLM     float64
	Recommendation      string
	Explanation         string
	ProcessingTimeMs    int64
}
