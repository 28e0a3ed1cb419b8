package newsfeed

import (
	"context"
	"encoding/xml"
	"fmt"
	"time"

	"FXAdvisor/internal/domain/models"
	xhttp "FXAdvisor/pkg/http"
	"FXAdvisor/pkg/logger"
)

// RSSSource fetches articles from one RSS 2.0 feed.
type RSSSource struct {
	name   string
	url    string
	client *xhttp.Client
	logger *logger.Logger
}

// NewRSSSource creates an RSS news source.
func NewRSSSource(name, url string, client *xhttp.Client, log *logger.Logger) *RSSSource {
	return &RSSSource{name: name, url: url, client: client, logger: log}
}

func (s *RSSSource) Name() string { return s.name }

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	Author      string `xml:"author"`
}

// pubDate formats seen in the wild, tried in order
var rssTimeLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
}

// FetchLatest returns relevant feed entries published within the lookback
// window. Fetch failures return an error; single malformed entries are
// skipped with a warning.
func (s *RSSSource) FetchLatest(ctx context.Context, lookback time.Duration) ([]models.NewsItem, error) {
	var raw []byte
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    s.url,
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", s.name, err)
	}

	var feed rssFeed
	if err := xml.Unmarshal(raw, &feed); err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", s.name, err)
	}

	cutoff := time.Now().UTC().Add(-lookback)
	items := make([]models.NewsItem, 0, len(feed.Channel.Items))
	for _, entry := range feed.Channel.Items {
		ts, ok := parseRSSTime(entry.PubDate)
		if !ok {
			ts = time.Now().UTC()
		}
		if ts.Before(cutoff) {
			continue
		}
		if entry.Title == "" && entry.Description == "" {
			s.logger.Warn("skipping empty rss entry", logger.String("source", s.name), logger.String("link", entry.Link))
			continue
		}

		item := models.NewNewsItem(entry.Title, entry.Description, entry.Link, s.name, ts)
		item.Author = entry.Author
		if IsRelevant(item) {
			items = append(items, item)
		}
	}

	s.logger.Info("rss fetch complete", logger.String("source", s.name), logger.Int("count", len(items)))
	return items, nil
}

func parseRSSTime(s string) (time.Time, bool) {
	for _, layout := range rssTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
