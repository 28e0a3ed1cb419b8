package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"FXAdvisor/internal/domain/models"
	"FXAdvisor/internal/service/ratelimit"
	xhttp "FXAdvisor/pkg/http"
	"FXAdvisor/pkg/logger"
)

const rateLimitKey = "llm"

// Config holds the sentiment provider settings.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	MaxRPS      float64
}

// Client scores news items with an OpenAI-compatible chat-completions
// endpoint. Calls go through a circuit breaker and a token-bucket rate
// limiter; every failure degrades to a neutral zero-confidence sample so the
// fusion core never sees a provider error.
type Client struct {
	cfg     Config
	http    *xhttp.Client
	breaker *gobreaker.CircuitBreaker
	limiter *ratelimit.Limiter
	logger  *logger.Logger
}

// NewClient creates a sentiment analysis client.
func NewClient(cfg Config, httpClient *xhttp.Client, limiter *ratelimit.Limiter, log *logger.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = "gpt-4-turbo"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1000
	}
	if cfg.MaxRPS <= 0 {
		cfg.MaxRPS = 1
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm-sentiment",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		cfg:     cfg,
		http:    httpClient,
		breaker: breaker,
		limiter: limiter,
		logger:  log,
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// analysisResult is the JSON shape the model is instructed to produce.
type analysisResult struct {
	SentimentOverall float64  `json:"sentiment_overall"`
	SentimentUSD     float64  `json:"sentiment_usd"`
	SentimentINR     float64  `json:"sentiment_inr"`
	SentimentEUR     float64  `json:"sentiment_eur"`
	SentimentGBP     float64  `json:"sentiment_gbp"`
	SentimentJPY     float64  `json:"sentiment_jpy"`
	ImpactScore      float64  `json:"impact_score"`
	Urgency          string   `json:"urgency"`
	Confidence       float64  `json:"confidence"`
	Currencies       []string `json:"currencies"`
	Topics           []string `json:"topics"`
	Explanation      string   `json:"explanation"`
}

// Analyze scores one news item. The returned error is always nil; provider
// failures are logged and mapped to a neutral sample.
func (c *Client) Analyze(ctx context.Context, item models.NewsItem) (models.SentimentSample, error) {
	if !c.limiter.Allow(rateLimitKey, c.cfg.MaxRPS, c.cfg.MaxRPS) {
		c.logger.Warn("llm rate limited, returning neutral sample", logger.String("news_id", item.ID))
		return c.neutralSample(item, "rate limited"), nil
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.call(ctx, item)
	})
	if err != nil {
		c.logger.Error("sentiment analysis failed",
			logger.Error(err), logger.String("news_id", item.ID), logger.String("model", c.cfg.Model))
		return c.neutralSample(item, err.Error()), nil
	}

	return c.toSample(item, out.(*analysisResult)), nil
}

func (c *Client) call(ctx context.Context, item models.NewsItem) (*analysisResult, error) {
	req := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(item.Headline, item.Content, item.Source, item.Ts)},
		},
		Temperature:    c.cfg.Temperature,
		MaxTokens:      c.cfg.MaxTokens,
		ResponseFormat: &respFormat{Type: "json_object"},
	}

	var resp chatResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions",
		Headers: map[string]string{
			"Authorization": "Bearer " + c.cfg.APIKey,
			"Content-Type":  "application/json",
		},
		Body: req,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty completion")
	}

	return parseAnalysis(resp.Choices[0].Message.Content)
}

// parseAnalysis decodes the model's JSON answer, tolerating surrounding
// prose by extracting the outermost object.
func parseAnalysis(content string) (*analysisResult, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in completion")
	}

	var res analysisResult
	if err := json.Unmarshal([]byte(content[start:end+1]), &res); err != nil {
		return nil, fmt.Errorf("parse completion: %w", err)
	}
	return &res, nil
}

func (c *Client) toSample(item models.NewsItem, res *analysisResult) models.SentimentSample {
	urgency := models.Urgency(res.Urgency)
	switch urgency {
	case models.UrgencyLow, models.UrgencyMedium, models.UrgencyHigh, models.UrgencyCritical:
	default:
		urgency = models.UrgencyMedium
	}

	return models.SentimentSample{
		NewsID:  item.ID,
		Ts:      item.Ts,
		Model:   c.cfg.Model,
		Overall: res.SentimentOverall,
		PerCurrency: map[string]float64{
			"USD": res.SentimentUSD,
			"INR": res.SentimentINR,
			"EUR": res.SentimentEUR,
			"GBP": res.SentimentGBP,
			"JPY": res.SentimentJPY,
		},
		Currencies:  res.Currencies,
		Confidence:  res.Confidence,
		ImpactScore: res.ImpactScore,
		Urgency:     urgency,
		Explanation: res.Explanation,
	}
}

func (c *Client) neutralSample(item models.NewsItem, reason string) models.SentimentSample {
	return models.SentimentSample{
		NewsID:      item.ID,
		Ts:          item.Ts,
		Model:       c.cfg.Model,
		Confidence:  0,
		Explanation: "Error: " + reason,
	}
}
