package predict

import (
	"context"
	"fmt"
	"math"

	"FXAdvisor/internal/domain/models"
	"FXAdvisor/internal/domain/repository"
	xhttp "FXAdvisor/pkg/http"
	"FXAdvisor/pkg/logger"
)

// remote model confidence used downstream by the fusion engine
const remoteConfidence = 0.65

// Remote predicts with an externally trained classifier served over HTTP.
// Model resolution order: explicit id, configured default, newest registered
// model for the horizon. Any failure falls back to the baseline and is
// logged, never surfaced to the caller.
type Remote struct {
	client         *xhttp.Client
	registry       repository.ModelRegistry
	baseline       *Baseline
	logger         *logger.Logger
	serviceURL     string
	defaultModelID string
}

// NewRemote creates a model-backed predictor.
func NewRemote(client *xhttp.Client, registry repository.ModelRegistry, log *logger.Logger, serviceURL, defaultModelID string) *Remote {
	return &Remote{
		client:         client,
		registry:       registry,
		baseline:       NewBaseline(),
		logger:         log,
		serviceURL:     serviceURL,
		defaultModelID: defaultModelID,
	}
}

type scoreRequest struct {
	ModelID  string             `json:"model_id"`
	Horizon  string             `json:"horizon"`
	Features map[string]float64 `json:"features"`
}

type scoreResponse struct {
	ProbUp float64 `json:"prob_up"`
}

// Predict scores the most recent feature row with the resolved model.
func (r *Remote) Predict(ctx context.Context, rows []models.FeatureRow, horizon string) (models.Prediction, error) {
	return r.PredictWithModel(ctx, rows, horizon, "")
}

// PredictWithModel scores with an explicitly requested model id.
func (r *Remote) PredictWithModel(ctx context.Context, rows []models.FeatureRow, horizon, modelID string) (models.Prediction, error) {
	if len(rows) == 0 {
		return NeutralPrediction("no features"), nil
	}

	id, err := r.resolveModelID(ctx, horizon, modelID)
	if err != nil || id == "" {
		if err != nil {
			r.logger.Warn("model resolution failed, using baseline", logger.Error(err), logger.String("horizon", horizon))
		}
		return r.baseline.Predict(ctx, rows, horizon)
	}

	probUp, err := r.score(ctx, id, horizon, rows[len(rows)-1])
	if err != nil {
		r.logger.Warn("model scoring failed, using baseline",
			logger.Error(err), logger.String("model_id", id), logger.String("horizon", horizon))
		return r.baseline.Predict(ctx, rows, horizon)
	}

	// Sign the recent mean return magnitude by the model's signal.
	drift, vol := driftAndVol(rows)
	expBps := (2.0*probUp - 1.0) * math.Abs(drift) * 10000.0
	h := float64(HorizonMinutes(horizon))
	ci := z90 * vol * math.Sqrt(h) * 10000.0

	return models.Prediction{
		ProbUp:           probUp,
		ExpectedDeltaBps: expBps,
		Confidence:       remoteConfidence,
		RangeP10:         -ci,
		RangeP90:         ci,
		ModelID:          id,
	}, nil
}

func (r *Remote) resolveModelID(ctx context.Context, horizon, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if r.defaultModelID != "" {
		return r.defaultModelID, nil
	}
	if r.registry == nil {
		return "", nil
	}
	return r.registry.LatestModelID(ctx, horizon)
}

func (r *Remote) score(ctx context.Context, modelID, horizon string, row models.FeatureRow) (float64, error) {
	if r.serviceURL == "" {
		return 0, fmt.Errorf("model service url not configured")
	}

	req := scoreRequest{
		ModelID: modelID,
		Horizon: horizon,
		Features: map[string]float64{
			"ret_1m":             row.Ret1m,
			"ret_5m":             row.Ret5m,
			"ret_15m":            row.Ret15m,
			"vol_5m":             row.Vol5m,
			"vol_15m":            row.Vol15m,
			"sma_5":              row.SMA5,
			"sma_15":             row.SMA15,
			"momentum_15m":       row.Momentum15m,
			"minutes_to_event":   float64(row.MinutesToEvent),
			"is_high_importance": float64(row.IsHighImportance),
		},
	}

	var resp scoreResponse
	err := r.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    r.serviceURL + "/predict",
		Body:   req,
	}, &resp)
	if err != nil {
		return 0, err
	}
	if resp.ProbUp < 0 || resp.ProbUp > 1 || math.IsNaN(resp.ProbUp) {
		return 0, fmt.Errorf("model returned invalid probability %v", resp.ProbUp)
	}
	return resp.ProbUp, nil
}
