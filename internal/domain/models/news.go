package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// NewsItem is a single fetched news article or post.
type NewsItem struct {
	ID       string    `json:"id"`
	Ts       time.Time `json:"ts"`
	Source   string    `json:"source"`
	Headline string    `json:"headline"`
	Content  string    `json:"content"`
	URL      string    `json:"url"`
	Author   string    `json:"author,omitempty"`
}

// NewNewsItem builds a NewsItem with a content-derived ID so that the same
// article fetched twice dedupes to the same row.
func NewNewsItem(headline, content, url, source string, ts time.Time) NewsItem {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s_%s", url, ts.UTC().Format(time.RFC3339))))
	return NewsItem{
		ID:       hex.EncodeToString(sum[:])[:16],
		Ts:       ts,
		Source:   source,
		Headline: headline,
		Content:  content,
		URL:      url,
	}
}

// Urgency is the ordinal time-sensitivity label attached to a sentiment sample.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Level returns the ordinal rank for max comparisons (low < medium < high < critical).
func (u Urgency) Level() int {
	switch u {
	case UrgencyMedium:
		return 1
	case UrgencyHigh:
		return 2
	case UrgencyCritical:
		return 3
	default:
		return 0
	}
}

// SentimentSample is the per-article output of the sentiment provider.
// Immutable once produced.
type SentimentSample struct {
	NewsID      string
	Ts          time.Time
	Model       string
	Overall     float64            // -1..+1
	PerCurrency map[string]float64 // -1..+1 per currency code
	Currencies  []string           // currencies the article mentions
	Confidence  float64            // 0..1
	ImpactScore float64            // 0..10
	Urgency     Urgency
	Explanation string
}

// CurrencyScore returns the sample's sentiment for a currency. The base
// currency of a pair falls back to the overall score when no per-currency
// score exists; any other currency falls back to zero.
func (s SentimentSample) CurrencyScore(currency string, fallbackOverall bool) float64 {
	if v, ok := s.PerCurrency[currency]; ok {
		return v
	}
	if fallbackOverall {
		return s.Overall
	}
	return 0
}

// AggregatedSentiment is the recency- and confidence-weighted aggregate over
// recent samples for one pair. Owned by the sentiment aggregator; cached per
// pair with a TTL.
type AggregatedSentiment struct {
	SentimentScore float64 // net base-minus-quote, -1..+1
	Confidence     float64 // 0..1, normalized sum of weights
	ImpactScore    float64 // 0..10
	Urgency        Urgency // max over inputs
	Summary        string
	SampleCount    int
}
