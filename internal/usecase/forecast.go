package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"FXAdvisor/internal/domain/models"
	domrepo "FXAdvisor/internal/domain/repository"
	"FXAdvisor/internal/services/decision"
	"FXAdvisor/internal/services/features"
	"FXAdvisor/internal/services/fusion"
	"FXAdvisor/internal/services/predict"
	"FXAdvisor/internal/services/sentiment"
	"FXAdvisor/pkg/logger"
)

// ForecastDefaults are the configured decision and fusion knobs; query
// parameters override them per request.
type ForecastDefaults struct {
	Policy            string
	SpreadBps         float64
	ProbThreshold     float64
	EmbargoMinutes    int
	HybridEnabled     bool
	SentimentLookback time.Duration
	FeatureLookback   time.Duration
}

// ForecastUseCase runs the full pipeline for one request: features,
// prediction, sentiment fusion, decision, audit.
type ForecastUseCase struct {
	features  *features.Builder
	baseline  *predict.Baseline
	remote    *predict.Remote
	sentiment *sentiment.Aggregator
	fusion    *fusion.Engine
	audit     domrepo.AuditStore
	metrics   domrepo.Metrics
	logger    *logger.Logger
	defaults  ForecastDefaults
}

func NewForecastUseCase(
	builder *features.Builder,
	baseline *predict.Baseline,
	remote *predict.Remote,
	agg *sentiment.Aggregator,
	engine *fusion.Engine,
	audit domrepo.AuditStore,
	metrics domrepo.Metrics,
	log *logger.Logger,
	defaults ForecastDefaults,
) *ForecastUseCase {
	if defaults.SentimentLookback <= 0 {
		defaults.SentimentLookback = time.Hour
	}
	if defaults.FeatureLookback <= 0 {
		defaults.FeatureLookback = 6 * time.Hour
	}
	return &ForecastUseCase{
		features:  builder,
		baseline:  baseline,
		remote:    remote,
		sentiment: agg,
		fusion:    engine,
		audit:     audit,
		metrics:   metrics,
		logger:    log,
		defaults:  defaults,
	}
}

func (uc *ForecastUseCase) Forecast(ctx context.Context, req models.ForecastRequest) (*models.ForecastResponse, error) {
	start := time.Now()
	pair := req.Pair
	horizon := req.Horizon

	useHybrid := uc.defaults.HybridEnabled && uc.fusion != nil && uc.sentiment != nil
	if req.UseHybrid != nil {
		useHybrid = *req.UseHybrid && uc.fusion != nil && uc.sentiment != nil
	}

	// Sentiment aggregation runs concurrently with the feature build; both
	// hit independent stores.
	var sentCh chan *models.AggregatedSentiment
	if useHybrid {
		sentCh = make(chan *models.AggregatedSentiment, 1)
		go func() {
			sentCh <- uc.sentiment.Get(ctx, pair, uc.defaults.SentimentLookback)
		}()
	}

	rows, err := uc.features.Build(ctx, pair, uc.defaults.FeatureLookback)
	if err != nil {
		uc.metrics.RecordError("features")
		return nil, fmt.Errorf("build features: %w", err)
	}
	if len(rows) == 0 {
		neutral := predict.NeutralPrediction("no features")
		return &models.ForecastResponse{
			Pair:             pair,
			Horizon:          horizon,
			ProbUp:           neutral.ProbUp,
			ExpectedDeltaBps: neutral.ExpectedDeltaBps,
			Range:            models.RangeBand{P10: neutral.RangeP10, P90: neutral.RangeP90},
			Confidence:       neutral.Confidence,
			Recommendation:   models.RecommendPartial,
			Explanation:      []string{"no features"},
			ModelID:          neutral.ModelID,
			Hybrid:           models.HybridInfo{Enabled: false},
		}, nil
	}

	pred := uc.predict(ctx, rows, horizon, req.ModelID)

	var sent *models.AggregatedSentiment
	if useHybrid {
		select {
		case sent = <-sentCh:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	probFinal := pred.ProbUp
	deltaFinal := pred.ExpectedDeltaBps
	var hybrid models.HybridPrediction
	if useHybrid {
		hybrid = uc.fusion.Fuse(pred, sent)
		probFinal = hybrid.ProbUpHybrid
		deltaFinal = hybrid.ExpectedDeltaHybrid
		uc.metrics.RecordFusionWeight(hybrid.FusionWeightLLM)
	}

	params := uc.effectiveParams(req)
	mte := rows[len(rows)-1].MinutesToEvent
	dec := params.Apply(probFinal, deltaFinal, mte)
	direction, actionHint := decision.Direction(pair, probFinal, deltaFinal)

	parts := uc.explanationParts(pred, params, useHybrid, hybrid, dec, direction, actionHint)

	uc.writeAudit(ctx, auditInput{
		pair:      pair,
		horizon:   horizon,
		pred:      pred,
		sent:      sent,
		hybrid:    hybrid,
		useHybrid: useHybrid,
		probUp:    probFinal,
		delta:     deltaFinal,
		rec:       dec.Recommendation,
		parts:     parts,
		started:   start,
	})

	uc.metrics.RecordForecast(pair, dec.Recommendation)
	uc.metrics.RecordLatency("forecast", time.Since(start).Seconds())

	resp := &models.ForecastResponse{
		Pair:             pair,
		Horizon:          horizon,
		ProbUp:           probFinal,
		ExpectedDeltaBps: deltaFinal,
		Range:            models.RangeBand{P10: pred.RangeP10, P90: pred.RangeP90},
		Confidence:       pred.Confidence,
		Recommendation:   dec.Recommendation,
		Explanation:      parts,
		ModelID:          pred.ModelID,
		Direction:        direction,
		ActionHint:       actionHint,
		Hybrid:           models.HybridInfo{Enabled: false},
	}
	if useHybrid && hybrid.FusionWeightLLM > 0 {
		resp.Hybrid = models.HybridInfo{
			Enabled:             true,
			ProbUpML:            &hybrid.ProbUpML,
			ProbUpHybrid:        &hybrid.ProbUpHybrid,
			ExpectedDeltaML:     &hybrid.ExpectedDeltaML,
			ExpectedDeltaHybrid: &hybrid.ExpectedDeltaHybrid,
			Weights:             &models.FusionWeights{ML: hybrid.FusionWeightML, LLM: hybrid.FusionWeightLLM},
			NewsSentiment:       &hybrid.SentimentScore,
			NewsConfidence:      &hybrid.SentimentConfidence,
			NewsImpact:          &hybrid.NewsImpact,
			NewsSummary:         hybrid.NewsSummary,
		}
	}
	return resp, nil
}

// predict runs the model-backed predictor when one is wired, falling back
// to the rolling-mean baseline. Predictors degrade internally and never
// return a hard error for short history.
func (uc *ForecastUseCase) predict(ctx context.Context, rows []models.FeatureRow, horizon, modelID string) models.Prediction {
	if uc.remote != nil {
		pred, err := uc.remote.PredictWithModel(ctx, rows, horizon, modelID)
		if err == nil {
			return pred
		}
		if uc.logger != nil {
			uc.logger.Warn("remote predict failed", logger.Error(err))
		}
	}
	pred, _ := uc.baseline.Predict(ctx, rows, horizon)
	return pred
}

func (uc *ForecastUseCase) effectiveParams(req models.ForecastRequest) decision.Params {
	p := decision.Params{
		Mode:           uc.defaults.Policy,
		SpreadBps:      uc.defaults.SpreadBps,
		ProbThreshold:  uc.defaults.ProbThreshold,
		EmbargoMinutes: uc.defaults.EmbargoMinutes,
	}
	if req.Policy != "" {
		p.Mode = req.Policy
	}
	if req.SpreadBps != nil {
		p.SpreadBps = *req.SpreadBps
	}
	if req.ProbTh != nil {
		p.ProbThreshold = *req.ProbTh
	}
	if req.EmbargoMin != nil {
		p.EmbargoMinutes = *req.EmbargoMin
	}
	return p
}

func (uc *ForecastUseCase) explanationParts(
	pred models.Prediction,
	params decision.Params,
	useHybrid bool,
	hybrid models.HybridPrediction,
	dec models.Decision,
	direction, actionHint string,
) []string {
	modelTag := "model=" + pred.ModelID
	if pred.ModelID == predict.BaselineModelID {
		modelTag = "baseline: rolling mean"
	}
	parts := []string{
		modelTag,
		fmt.Sprintf("policy=%s; spread_bps=%g; prob_th=%g", params.Mode, params.SpreadBps, params.ProbThreshold),
	}
	if useHybrid && hybrid.FusionWeightLLM > 0.05 {
		parts = append(parts, fmt.Sprintf("hybrid: ML=%.0f%%, News=%.0f%%",
			hybrid.FusionWeightML*100, hybrid.FusionWeightLLM*100))
		if hybrid.NewsSummary != "" {
			parts = append(parts, hybrid.NewsSummary)
		}
	}
	if dec.EmbargoApplied {
		parts = append(parts, dec.Explanation)
	}
	parts = append(parts, "dir="+direction)
	parts = append(parts, actionHint)
	return parts
}

type auditInput struct {
	pair      string
	horizon   string
	pred      models.Prediction
	sent      *models.AggregatedSentiment
	hybrid    models.HybridPrediction
	useHybrid bool
	probUp    float64
	delta     float64
	rec       string
	parts     []string
	started   time.Time
}

// writeAudit persists the decision and hybrid rows. Audit failures are
// logged and never surfaced to the requester.
func (uc *ForecastUseCase) writeAudit(ctx context.Context, in auditInput) {
	if uc.audit == nil {
		return
	}
	now := time.Now().UTC()
	explanation := strings.Join(in.parts, "; ")

	eventImpact := 0.0
	if in.sent != nil {
		eventImpact = in.sent.ImpactScore
	}
	err := uc.audit.InsertDecision(ctx, models.DecisionRow{
		Ts:               now,
		Pair:             in.pair,
		Horizon:          in.horizon,
		PriorProbUp:      in.pred.ProbUp,
		PosteriorProbUp:  in.probUp,
		ExpectedDeltaBps: in.delta,
		RangeP10:         in.pred.RangeP10,
		RangeP90:         in.pred.RangeP90,
		ShockLevel:       "none",
		EventImpact:      eventImpact,
		Recommendation:   in.rec,
		Explanation:      explanation,
		PolicyVersion:    in.pred.ModelID,
	})
	if err != nil {
		uc.metrics.RecordError("audit_decision")
		if uc.logger != nil {
			uc.logger.Error("decision audit failed", logger.Error(err), logger.String("pair", in.pair))
		}
	}

	if !in.useHybrid || in.sent == nil {
		return
	}
	err = uc.audit.InsertHybridPrediction(ctx, models.HybridRow{
		Ts:                  now,
		Pair:                in.pair,
		Horizon:             in.horizon,
		ProbUpML:            in.hybrid.ProbUpML,
		ExpectedDeltaML:     in.hybrid.ExpectedDeltaML,
		MLModelID:           in.hybrid.MLModelID,
		SentimentScore:      in.hybrid.SentimentScore,
		SentimentConfidence: in.hybrid.SentimentConfidence,
		NewsImpact:          in.hybrid.NewsImpact,
		NewsSummary:         in.hybrid.NewsSummary,
		ProbUpHybrid:        in.hybrid.ProbUpHybrid,
		ExpectedDeltaHybrid: in.hybrid.ExpectedDeltaHybrid,
		FusionWeightML:      in.hybrid.FusionWeightML,
		FusionWeightLLM:     in.hybrid.FusionWeightLLM,
		Recommendation:      in.rec,
		Explanation:         explanation,
		ProcessingTimeMs:    time.Since(in.started).Milliseconds(),
	})
	if err != nil {
		uc.metrics.RecordError("audit_hybrid")
		if uc.logger != nil {
			uc.logger.Error("hybrid audit failed", logger.Error(err), logger.String("pair", in.pair))
		}
	}
}
