package newsfeed

import (
	"context"
	"fmt"
	"time"

	"FXAdvisor/internal/domain/models"
	xhttp "FXAdvisor/pkg/http"
	"FXAdvisor/pkg/logger"
)

// JSONSource fetches articles from a NewsAPI-style JSON endpoint.
type JSONSource struct {
	name   string
	url    string
	apiKey string
	query  string
	client *xhttp.Client
	logger *logger.Logger
}

// NewJSONSource creates a JSON API news source.
func NewJSONSource(name, url, apiKey string, client *xhttp.Client, log *logger.Logger) *JSONSource {
	return &JSONSource{
		name:   name,
		url:    url,
		apiKey: apiKey,
		query:  `forex OR currency OR "central bank"`,
		client: client,
		logger: log,
	}
}

func (s *JSONSource) Name() string { return s.name }

type jsonArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Author      string `json:"author"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
}

type jsonFeed struct {
	Articles []jsonArticle `json:"articles"`
}

// FetchLatest returns relevant articles published within the lookback window.
func (s *JSONSource) FetchLatest(ctx context.Context, lookback time.Duration) ([]models.NewsItem, error) {
	from := time.Now().UTC().Add(-lookback)

	var feed jsonFeed
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    s.url,
		QueryParams: map[string][]string{
			"q":        {s.query},
			"from":     {from.Format(time.RFC3339)},
			"sortBy":   {"publishedAt"},
			"language": {"en"},
			"apiKey":   {s.apiKey},
		},
	}, &feed)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.name, err)
	}

	items := make([]models.NewsItem, 0, len(feed.Articles))
	for _, a := range feed.Articles {
		ts, err := time.Parse(time.RFC3339, a.PublishedAt)
		if err != nil {
			s.logger.Warn("skipping article with bad timestamp",
				logger.String("source", s.name), logger.String("published_at", a.PublishedAt))
			continue
		}

		source := s.name
		if a.Source.Name != "" {
			source = fmt.Sprintf("%s_%s", s.name, a.Source.Name)
		}
		content := a.Description
		if a.Content != "" {
			content += "\n\n" + a.Content
		}

		item := models.NewNewsItem(a.Title, content, a.URL, source, ts.UTC())
		item.Author = a.Author
		if IsRelevant(item) {
			items = append(items, item)
		}
	}

	s.logger.Info("json fetch complete", logger.String("source", s.name), logger.Int("count", len(items)))
	return items, nil
}
