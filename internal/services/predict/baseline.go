package predict

import (
	"context"
	"math"

	"FXAdvisor/internal/domain/models"
)

const (
	// BaselineModelID tags predictions from the rolling-mean baseline.
	BaselineModelID = "baseline_v0"

	// minimum feature rows before the baseline trusts its drift estimate
	minRows = 25

	// drift window in one-minute returns
	driftWindow = 20

	// logistic slope mapping drift to probability; near-zero drift stays
	// close to 0.5 and larger drift saturates quickly
	logisticSlope = 50.0

	// one-sided ~90% z-score for the confidence band
	z90 = 1.2816
)

// Baseline is a rolling-mean drift predictor. It needs no trained model and
// serves as the fallback whenever a model cannot be loaded.
type Baseline struct{}

// NewBaseline creates the rolling-mean baseline predictor.
func NewBaseline() *Baseline {
	return &Baseline{}
}

// HorizonMinutes maps a horizon label to minutes, defaulting to 4h.
func HorizonMinutes(horizon string) int {
	switch horizon {
	case "30m":
		return 30
	case "1h":
		return 60
	case "2h":
		return 120
	case "4h":
		return 240
	default:
		return 240
	}
}

// Predict estimates direction and magnitude from the drift of recent
// one-minute returns. Short history degrades to a neutral prediction.
func (b *Baseline) Predict(_ context.Context, rows []models.FeatureRow, horizon string) (models.Prediction, error) {
	if len(rows) < minRows {
		return NeutralPrediction("insufficient history"), nil
	}

	drift, vol := driftAndVol(rows)
	h := float64(HorizonMinutes(horizon))

	expRet := drift * h
	expBps := expRet * 10000.0
	probUp := 1.0 / (1.0 + math.Exp(-logisticSlope*expRet))
	confidence := clamp01(math.Abs(expRet) / (vol + 1e-6))
	ci := z90 * vol * math.Sqrt(h) * 10000.0

	return models.Prediction{
		ProbUp:           probUp,
		ExpectedDeltaBps: expBps,
		Confidence:       confidence,
		RangeP10:         -ci,
		RangeP90:         ci,
		ModelID:          BaselineModelID,
	}, nil
}

// NeutralPrediction is the degraded fallback shared by all predictors.
func NeutralPrediction(reason string) models.Prediction {
	return models.Prediction{
		ProbUp:           0.5,
		ExpectedDeltaBps: 0,
		Confidence:       0,
		RangeP10:         -5.0,
		RangeP90:         5.0,
		ModelID:          BaselineModelID,
		Degraded:         true,
		DegradedReason:   reason,
	}
}

// driftAndVol returns the mean and sample standard deviation of the last
// driftWindow one-minute returns.
func driftAndVol(rows []models.FeatureRow) (float64, float64) {
	start := len(rows) - driftWindow
	if start < 0 {
		start = 0
	}
	tail := rows[start:]

	sum := 0.0
	for _, r := range tail {
		sum += r.Ret1m
	}
	mean := sum / float64(len(tail))

	if len(tail) < 2 {
		return mean, 0
	}
	ss := 0.0
	for _, r := range tail {
		d := r.Ret1m - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(tail)-1))
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
