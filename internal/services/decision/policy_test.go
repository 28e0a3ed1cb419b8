package decision

import (
	"strings"
	"testing"

	"FXAdvisor/internal/domain/models"
)

func TestExpectedModeSpreadBoundary(t *testing.T) {
	p := Params{Mode: ModeExpected, SpreadBps: 2.0}

	if got := p.Recommend(0.5, 2.01); got != models.RecommendNow {
		t.Fatalf("2.01 bps over 2.0 spread: got %s, want NOW", got)
	}
	if got := p.Recommend(0.5, 1.99); got != models.RecommendWait {
		t.Fatalf("1.99 bps under 2.0 spread: got %s, want WAIT", got)
	}
	// the boundary itself does not clear the spread
	if got := p.Recommend(0.5, 2.0); got != models.RecommendWait {
		t.Fatalf("exactly at spread: got %s, want WAIT", got)
	}
	// magnitude counts, not sign
	if got := p.Recommend(0.5, -3.0); got != models.RecommendNow {
		t.Fatalf("negative move beyond spread: got %s, want NOW", got)
	}
}

func TestProbMode(t *testing.T) {
	p := Params{Mode: ModeProb, ProbThreshold: 0.6}

	if got := p.Recommend(0.6, 0); got != models.RecommendNow {
		t.Fatalf("prob at threshold: got %s, want NOW", got)
	}
	if got := p.Recommend(0.59, 0); got != models.RecommendWait {
		t.Fatalf("prob below threshold: got %s, want WAIT", got)
	}
	// bullish-only: a strongly bearish probability still waits
	if got := p.Recommend(0.05, 0); got != models.RecommendWait {
		t.Fatalf("bearish prob: got %s, want WAIT", got)
	}
}

func TestUnknownModeFallsToProb(t *testing.T) {
	p := Params{Mode: "whatever", ProbThreshold: 0.6}
	if got := p.Recommend(0.7, 100); got != models.RecommendNow {
		t.Fatalf("unknown mode should use the prob branch, got %s", got)
	}
}

func TestEmbargoForcesWait(t *testing.T) {
	p := Params{Mode: ModeExpected, SpreadBps: 2.0, EmbargoMinutes: 15}

	d := p.Apply(0.9, 50.0, 10)
	if d.Recommendation != models.RecommendWait {
		t.Fatalf("embargo should force WAIT, got %s", d.Recommendation)
	}
	if !d.EmbargoApplied {
		t.Fatalf("expected embargo flag")
	}
	if !strings.Contains(d.Explanation, "minutes_to_event=10") {
		t.Fatalf("explanation = %q", d.Explanation)
	}
}

func TestEmbargoSkipped(t *testing.T) {
	p := Params{Mode: ModeExpected, SpreadBps: 2.0, EmbargoMinutes: 15}

	// no known upcoming event
	if d := p.Apply(0.9, 50.0, -1); d.EmbargoApplied {
		t.Fatalf("embargo must not apply without a known event")
	}
	// event outside the window
	if d := p.Apply(0.9, 50.0, 16); d.EmbargoApplied {
		t.Fatalf("embargo must not apply beyond the window")
	}
	// embargo disabled
	p.EmbargoMinutes = 0
	if d := p.Apply(0.9, 50.0, 0); d.EmbargoApplied {
		t.Fatalf("embargo must not apply when disabled")
	}
}

func TestDirectionFromDelta(t *testing.T) {
	dir, hint := Direction("USDINR", 0.4, 12.0)
	if dir != "UP" {
		t.Fatalf("direction = %s, want UP from positive delta", dir)
	}
	if !strings.Contains(hint, "USD likely to strengthen vs INR") {
		t.Fatalf("hint = %q", hint)
	}

	dir, hint = Direction("USDINR", 0.9, -12.0)
	if dir != "DOWN" {
		t.Fatalf("direction = %s, want DOWN from negative delta", dir)
	}
	if !strings.Contains(hint, "USD likely to weaken vs INR") {
		t.Fatalf("hint = %q", hint)
	}
}

func TestDirectionProbabilityTieBreak(t *testing.T) {
	// negligible expected move: probability decides
	if dir, _ := Direction("EURUSD", 0.7, 0); dir != "UP" {
		t.Fatalf("expected UP from bullish probability")
	}
	if dir, _ := Direction("EURUSD", 0.3, 0); dir != "DOWN" {
		t.Fatalf("expected DOWN from bearish probability")
	}
}
