package predict

import (
	"context"
	"math"
	"testing"
	"time"

	"FXAdvisor/internal/domain/models"
)

func makeRows(rets []float64) []models.FeatureRow {
	ts := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	rows := make([]models.FeatureRow, len(rets))
	for i, r := range rets {
		rows[i] = models.FeatureRow{Ts: ts.Add(time.Duration(i) * time.Minute), Pair: "USDINR", Ret1m: r}
	}
	return rows
}

func TestBaselineShortHistory(t *testing.T) {
	b := NewBaseline()
	rets := make([]float64, 10)
	pred, err := b.Predict(context.Background(), makeRows(rets), "1h")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pred.Degraded {
		t.Fatalf("expected degraded prediction")
	}
	if pred.ProbUp != 0.5 || pred.ExpectedDeltaBps != 0 || pred.Confidence != 0 {
		t.Fatalf("expected neutral prediction, got %+v", pred)
	}
	if pred.ModelID != BaselineModelID {
		t.Fatalf("model id = %q", pred.ModelID)
	}
}

func TestBaselinePositiveDrift(t *testing.T) {
	b := NewBaseline()
	rets := make([]float64, 30)
	for i := range rets {
		rets[i] = 1e-4 // steady 1 bps per minute
	}
	pred, err := b.Predict(context.Background(), makeRows(rets), "1h")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred.Degraded {
		t.Fatalf("unexpected degraded prediction")
	}

	// drift*H = 1e-4*60 = 6e-3, so expected delta is 60 bps
	if math.Abs(pred.ExpectedDeltaBps-60) > 1e-9 {
		t.Fatalf("expected_delta_bps = %v, want 60", pred.ExpectedDeltaBps)
	}
	wantProb := 1.0 / (1.0 + math.Exp(-50*6e-3))
	if math.Abs(pred.ProbUp-wantProb) > 1e-12 {
		t.Fatalf("prob_up = %v, want %v", pred.ProbUp, wantProb)
	}
	// zero vol makes the drift fully trusted
	if pred.Confidence != 1 {
		t.Fatalf("confidence = %v, want 1", pred.Confidence)
	}
	if pred.RangeP10 != 0 || pred.RangeP90 != 0 {
		t.Fatalf("zero vol should give a zero band, got [%v, %v]", pred.RangeP10, pred.RangeP90)
	}
}

func TestBaselineNearZeroDriftIsNeutralProb(t *testing.T) {
	b := NewBaseline()
	rets := make([]float64, 40)
	for i := range rets {
		if i%2 == 0 {
			rets[i] = 1e-7
		} else {
			rets[i] = -1e-7
		}
	}
	pred, err := b.Predict(context.Background(), makeRows(rets), "4h")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(pred.ProbUp-0.5) > 0.01 {
		t.Fatalf("near-zero drift should map close to 0.5, got %v", pred.ProbUp)
	}
}

func TestHorizonMinutes(t *testing.T) {
	cases := map[string]int{"30m": 30, "1h": 60, "2h": 120, "4h": 240, "8h": 240, "": 240}
	for h, want := range cases {
		if got := HorizonMinutes(h); got != want {
			t.Fatalf("HorizonMinutes(%q) = %d, want %d", h, got, want)
		}
	}
}

func TestDriftAndVolWindow(t *testing.T) {
	// 30 rows; only the last 20 should count
	rets := make([]float64, 30)
	for i := 0; i < 10; i++ {
		rets[i] = 1.0 // junk outside the window
	}
	for i := 10; i < 30; i++ {
		rets[i] = 2e-4
	}
	drift, vol := driftAndVol(makeRows(rets))
	if math.Abs(drift-2e-4) > 1e-15 {
		t.Fatalf("drift = %v, want 2e-4", drift)
	}
	if vol != 0 {
		t.Fatalf("vol = %v, want 0", vol)
	}
}
