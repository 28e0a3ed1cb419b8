package llm

import (
	"fmt"
	"time"
)

// content is truncated before prompting to keep token usage bounded
const maxContentLength = 2000

const systemPrompt = `You are a financial analyst specializing in foreign exchange markets.
Your task is to analyze news articles and provide precise sentiment analysis for currency trading decisions.

Focus on:
1. How the news affects currency values (USD, INR, EUR, GBP, JPY)
2. Market impact and urgency
3. Key entities and topics
4. Clear, actionable insights

Be objective, precise, and consistent in your analysis.`

// buildPrompt renders the per-article analysis prompt. The model must answer
// with a single JSON object matching analysisResult.
func buildPrompt(headline, content, source string, ts time.Time) string {
	truncated := content
	if len(content) > maxContentLength {
		truncated = content[:maxContentLength] + "... [truncated]"
	}

	return fmt.Sprintf(`Analyze the following news article and provide sentiment analysis for FX trading.

**News Article:**
- Headline: %s
- Source: %s
- Published: %s
- Content: %s

**Required Analysis:**
Provide your analysis in JSON format with the following fields:

1. **sentiment_overall**: Overall market sentiment (-1 to +1, where -1 is very bearish, +1 is very bullish)
2. **sentiment_usd**: USD-specific sentiment (-1 to +1)
3. **sentiment_inr**: INR-specific sentiment (-1 to +1)
4. **sentiment_eur**: EUR-specific sentiment (-1 to +1)
5. **sentiment_gbp**: GBP-specific sentiment (-1 to +1)
6. **sentiment_jpy**: JPY-specific sentiment (-1 to +1)
7. **impact_score**: Predicted market impact (0-10, where 10 is highly market-moving)
8. **urgency**: Time sensitivity (low, medium, high, critical)
9. **confidence**: Your confidence in this analysis (0-1)
10. **currencies**: List of mentioned currencies (e.g., ["USD", "INR"])
11. **topics**: List of key topics (e.g., ["interest_rates", "inflation", "trade"])
12. **explanation**: Brief explanation (2-3 sentences) of your analysis

Respond ONLY with valid JSON. No additional text.`,
		headline, source, ts.UTC().Format(time.RFC3339), truncated)
}
