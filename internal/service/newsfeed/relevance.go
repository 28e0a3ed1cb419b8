package newsfeed

import (
	"strings"

	"FXAdvisor/internal/domain/models"
)

// fxKeywords gate which fetched articles enter the pipeline. An article is
// relevant when headline or content mentions any of them.
var fxKeywords = []string{
	"forex", "exchange rate", "currency", "central bank",
	"fed", "federal reserve", "rbi", "ecb", "boj",
	"interest rate", "monetary policy", "inflation",
	"usd", "inr", "eur", "gbp", "jpy",
	"dollar", "rupee", "euro", "pound", "yen",
}

// IsRelevant reports whether a news item is plausibly FX-moving.
func IsRelevant(item models.NewsItem) bool {
	text := strings.ToLower(item.Headline + " " + item.Content)
	for _, kw := range fxKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
