package llm

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"FXAdvisor/internal/domain/models"
	"FXAdvisor/internal/service/ratelimit"
	xhttp "FXAdvisor/pkg/http"
	"FXAdvisor/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestParseAnalysis(t *testing.T) {
	content := `{"sentiment_overall": 0.6, "sentiment_usd": 0.7, "sentiment_inr": -0.1,
		"impact_score": 8, "urgency": "high", "confidence": 0.85,
		"currencies": ["USD", "INR"], "explanation": "Fed hawkish"}`

	res, err := parseAnalysis(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(res.SentimentUSD-0.7) > 1e-12 || res.Urgency != "high" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestParseAnalysisWithProse(t *testing.T) {
	content := "Here is the analysis:\n{\"sentiment_overall\": -0.4, \"confidence\": 0.5}\nDone."
	res, err := parseAnalysis(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(res.SentimentOverall+0.4) > 1e-12 {
		t.Fatalf("sentiment = %v", res.SentimentOverall)
	}
}

func TestParseAnalysisNoJSON(t *testing.T) {
	if _, err := parseAnalysis("I cannot analyze this."); err == nil {
		t.Fatalf("expected error for non-JSON completion")
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"sentiment_overall\":0.5,\"sentiment_usd\":0.6,\"impact_score\":7,\"urgency\":\"high\",\"confidence\":0.8,\"currencies\":[\"USD\"],\"explanation\":\"ok\"}"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key", Model: "gpt-4-turbo", MaxRPS: 100},
		xhttp.NewClient(), ratelimit.New(), testLogger(t))

	item := models.NewNewsItem("Fed holds", "content", "http://x", "rss", time.Now().UTC())
	sample, err := c.Analyze(context.Background(), item)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sample.NewsID != item.ID {
		t.Fatalf("news id = %q, want %q", sample.NewsID, item.ID)
	}
	if sample.PerCurrency["USD"] != 0.6 || sample.Urgency != models.UrgencyHigh {
		t.Fatalf("unexpected sample: %+v", sample)
	}
	if sample.Confidence != 0.8 {
		t.Fatalf("confidence = %v", sample.Confidence)
	}
}

func TestAnalyzeFailureIsNeutral(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "k", MaxRPS: 100},
		xhttp.NewClient(), ratelimit.New(), testLogger(t))

	item := models.NewNewsItem("h", "c", "http://x", "rss", time.Now().UTC())
	sample, err := c.Analyze(context.Background(), item)
	if err != nil {
		t.Fatalf("provider failure must not surface: %v", err)
	}
	if sample.Confidence != 0 || sample.Overall != 0 {
		t.Fatalf("expected neutral sample, got %+v", sample)
	}
	if !strings.HasPrefix(sample.Explanation, "Error:") {
		t.Fatalf("explanation = %q", sample.Explanation)
	}
}

func TestUnknownUrgencyDefaultsToMedium(t *testing.T) {
	c := NewClient(Config{}, xhttp.NewClient(), ratelimit.New(), testLogger(t))
	sample := c.toSample(models.NewsItem{ID: "x"}, &analysisResult{Urgency: "asap"})
	if sample.Urgency != models.UrgencyMedium {
		t.Fatalf("urgency = %v, want medium", sample.Urgency)
	}
}
