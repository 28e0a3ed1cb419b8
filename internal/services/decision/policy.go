package decision

import (
	"fmt"
	"math"

	"FXAdvisor/internal/domain/models"
)

// Policy modes. Anything that is not "expected" behaves as "prob".
const (
	ModeExpected = "expected"
	ModeProb     = "prob"
)

// direction falls back to the probability sign when the expected move is
// below this threshold (in bps)
const directionEpsilonBps = 1e-6

// Params are the effective decision knobs for one request, after query
// overrides have been applied on top of configured defaults.
type Params struct {
	Mode           string
	SpreadBps      float64
	ProbThreshold  float64
	EmbargoMinutes int
}

// Recommend maps the final (possibly fused) prediction to NOW or WAIT.
// "expected" acts only when the move strictly beats the spread; "prob" acts
// on a bullish probability threshold.
func (p Params) Recommend(probUp, deltaBps float64) string {
	if p.Mode == ModeExpected {
		if math.Abs(deltaBps) > p.SpreadBps {
			return models.RecommendNow
		}
		return models.RecommendWait
	}
	if probUp >= p.ProbThreshold {
		return models.RecommendNow
	}
	return models.RecommendWait
}

// Apply produces the decision, forcing WAIT inside the embargo window before
// the next high-importance event. minutesToEvent of -1 means no known event.
func (p Params) Apply(probUp, deltaBps float64, minutesToEvent int) models.Decision {
	d := models.Decision{Recommendation: p.Recommend(probUp, deltaBps)}

	if p.EmbargoMinutes > 0 && minutesToEvent >= 0 && minutesToEvent <= p.EmbargoMinutes {
		d.Recommendation = models.RecommendWait
		d.EmbargoApplied = true
		d.Explanation = fmt.Sprintf("embargo: minutes_to_event=%d <= %d", minutesToEvent, p.EmbargoMinutes)
	}
	return d
}

// Direction derives the likely direction and a plain-English action hint
// from the final signal. The expected move decides the sign; probability
// breaks the tie when the move is negligible.
func Direction(pair string, probUp, deltaBps float64) (string, string) {
	base, quote := models.SplitPair(pair)

	sign := deltaBps
	if math.Abs(sign) < directionEpsilonBps {
		sign = 2.0*probUp - 1.0
	}

	if sign >= 0 {
		hint := fmt.Sprintf(
			"%s likely to strengthen vs %s. If you need to BUY %s, consider acting sooner; if you plan to SELL %s, delaying may help.",
			base, quote, base, base)
		return "UP", hint
	}
	hint := fmt.Sprintf(
		"%s likely to weaken vs %s. If you need to SELL %s, consider acting sooner; if you plan to BUY %s, waiting may help.",
		base, quote, base, base)
	return "DOWN", hint
}
