package usecase

import (
	"context"
	"sync"
	"time"

	"FXAdvisor/internal/domain/models"
	domrepo "FXAdvisor/internal/domain/repository"
	"FXAdvisor/internal/domain/service"
	"FXAdvisor/pkg/logger"
)

// NewsIngester pulls recent items from all configured sources, dedupes
// them, persists new articles, and hands them to the analysis pipeline.
type NewsIngester struct {
	sources  []service.NewsSource
	store    domrepo.NewsStore
	pub      domrepo.NewsPublisher
	metrics  domrepo.Metrics
	logger   *logger.Logger
	lookback time.Duration

	mu   sync.Mutex
	seen map[string]time.Time
}

func NewNewsIngester(
	sources []service.NewsSource,
	store domrepo.NewsStore,
	pub domrepo.NewsPublisher,
	metrics domrepo.Metrics,
	log *logger.Logger,
	lookback time.Duration,
) *NewsIngester {
	if lookback <= 0 {
		lookback = time.Hour
	}
	return &NewsIngester{
		sources:  sources,
		store:    store,
		pub:      pub,
		metrics:  metrics,
		logger:   log,
		lookback: lookback,
		seen:     make(map[string]time.Time),
	}
}

// Run executes one ingestion cycle. Source failures are logged and skipped
// so one dead feed never blocks the rest.
func (n *NewsIngester) Run(ctx context.Context) error {
	var fresh []models.NewsItem
	for _, src := range n.sources {
		items, err := src.FetchLatest(ctx, n.lookback)
		if err != nil {
			n.metrics.RecordError("news_fetch")
			if n.logger != nil {
				n.logger.Warn("news fetch failed",
					logger.String("source", src.Name()), logger.Error(err))
			}
			continue
		}
		for _, it := range items {
			if n.markSeen(it.ID) {
				fresh = append(fresh, it)
			}
		}
	}
	if len(fresh) == 0 {
		return nil
	}

	if err := n.store.InsertNewsItems(ctx, fresh); err != nil {
		n.metrics.RecordError("news_store")
		return err
	}
	if n.pub != nil {
		if err := n.pub.PublishNews(ctx, fresh); err != nil {
			n.metrics.RecordError("news_publish")
			return err
		}
	}
	if n.logger != nil {
		n.logger.Info("news ingested", logger.Int("count", len(fresh)))
	}
	return nil
}

// markSeen records the id and reports whether it was new. Old entries are
// pruned so the set does not grow unbounded.
func (n *NewsIngester) markSeen(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.seen[id]; ok {
		return false
	}
	now := time.Now()
	n.seen[id] = now
	if len(n.seen) > 10000 {
		cutoff := now.Add(-24 * time.Hour)
		for k, ts := range n.seen {
			if ts.Before(cutoff) {
				delete(n.seen, k)
			}
		}
	}
	return true
}
