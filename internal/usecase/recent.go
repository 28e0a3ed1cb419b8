package usecase

import (
	"context"
	"fmt"
	"time"

	"FXAdvisor/internal/domain/models"
	domrepo "FXAdvisor/internal/domain/repository"
	"FXAdvisor/pkg/cache"
)

const barsCacheTTL = 15 * time.Second

// RecentUseCase serves the read-only inspection endpoints. Bars responses
// are cached briefly since dashboards poll them aggressively.
type RecentUseCase struct {
	market domrepo.MarketStore
	news   domrepo.NewsStore
	cache  cache.Service
}

func NewRecentUseCase(market domrepo.MarketStore, news domrepo.NewsStore, c cache.Service) *RecentUseCase {
	return &RecentUseCase{market: market, news: news, cache: c}
}

func (uc *RecentUseCase) Bars(ctx context.Context, pair string, limit int) ([]models.Bar, error) {
	if pair == "" {
		return nil, fmt.Errorf("pair required")
	}

	key := fmt.Sprintf("bars:%s:%d", pair, limit)
	if uc.cache != nil {
		var cached []models.Bar
		if err := uc.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	bars, err := uc.market.RecentBars(ctx, pair, limit)
	if err != nil {
		return nil, fmt.Errorf("recent bars: %w", err)
	}
	if uc.cache != nil && len(bars) > 0 {
		_ = uc.cache.Set(ctx, key, bars, barsCacheTTL)
	}
	return bars, nil
}

func (uc *RecentUseCase) News(ctx context.Context, limit int) ([]models.NewsItem, error) {
	items, err := uc.news.RecentNews(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent news: %w", err)
	}
	return items, nil
}

func (uc *RecentUseCase) Sentiment(ctx context.Context, limit int) ([]models.SentimentSample, error) {
	samples, err := uc.news.RecentSentiment(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent sentiment: %w", err)
	}
	return samples, nil
}
