package models

// Requests and responses for the forecast HTTP endpoints. Defined in domain
// for consistency and reuse.

type ForecastRequest struct {
	Pair       string   `query:"pair" json:"pair" validate:"required,len=6,alpha"`
	Horizon    string   `query:"h" json:"h" default:"4h" validate:"oneof=30m 1h 2h 4h"`
	Policy     string   `query:"policy" json:"policy" validate:"omitempty,oneof=expected prob"`
	SpreadBps  *float64 `query:"spread_bps" json:"spread_bps" validate:"omitempty,gte=0"`
	ProbTh     *float64 `query:"prob_th" json:"prob_th" validate:"omitempty,gte=0,lte=1"`
	ModelID    string   `query:"model_id" json:"model_id"`
	EmbargoMin *int     `query:"embargo_min" json:"embargo_min" validate:"omitempty,gte=0"`
	UseHybrid  *bool    `query:"use_hybrid" json:"use_hybrid"`
}

type RecentBarsRequest struct {
	Pair  string `query:"pair" json:"pair" validate:"required,len=6,alpha"`
	Limit int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=1000"`
}

type RecentNewsRequest struct {
	Limit int `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=100"`
}

type RecentSentimentRequest struct {
	Limit int `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=100"`
}

// RangeBand is the p10/p90 expected-move band in bps.
type RangeBand struct {
	P10 float64 `json:"p10"`
	P90 float64 `json:"p90"`
}

// FusionWeights is the ml/llm share of the final estimate.
type FusionWeights struct {
	ML  float64 `json:"ml"`
	LLM float64 `json:"llm"`
}

// HybridInfo carries fusion details on the forecast response.
type HybridInfo struct {
	Enabled             bool           `json:"enabled"`
	ProbUpML            *float64       `json:"prob_up_ml,omitempty"`
	ProbUpHybrid        *float64       `json:"prob_up_hybrid,omitempty"`
	ExpectedDeltaML     *float64       `json:"expected_delta_ml,omitempty"`
	ExpectedDeltaHybrid *float64       `json:"expected_delta_hybrid,omitempty"`
	Weights             *FusionWeights `json:"fusion_weights,omitempty"`
	NewsSentiment       *float64       `json:"news_sentiment,omitempty"`
	NewsConfidence      *float64       `json:"news_confidence,omitempty"`
	NewsImpact          *float64       `json:"news_impact,omitempty"`
	NewsSummary         string         `json:"news_summary,omitempty"`
}

// ForecastResponse is the full forecast endpoint payload.
type ForecastResponse struct {
	Pair             string     `json:"pair"`
	Horizon          string     `json:"horizon"`
	ProbUp           float64    `json:"prob_up"`
	ExpectedDeltaBps float64    `json:"expected_delta_bps"`
	Range            RangeBand  `json:"range"`
	Confidence       float64    `json:"confidence"`
	Recommendation   string     `json:"recommendation"`
	Explanation      []string   `json:"explanation"`
	ModelID          string     `json:"model_id"`
	Direction        string     `json:"direction"`
	ActionHint       string     `json:"action_hint"`
	Hybrid           HybridInfo `json:"hybrid"`
}
