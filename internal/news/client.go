// Package news fetches articles from NewsAPI. A missing API key is a valid
// configuration state: calls return empty results instead of failing.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/finnai/digest-bot/internal/domain"
)

const defaultBaseURL = "https://newsapi.org"

// Client fetches ticker and market news. Safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	log        *zap.Logger
	httpClient *http.Client
}

// NewClient builds a news client. An empty apiKey disables the feature and
// is logged once here rather than on every digest.
func NewClient(apiKey string, log *zap.Logger, timeout time.Duration) *Client {
	if apiKey == "" {
		log.Warn("news api key not configured, digests will carry no news")
	}
	return &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		log:        log,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type articleJSON struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
}

type newsResponse struct {
	Status   string        `json:"status"`
	Code     string        `json:"code"`
	Message  string        `json:"message"`
	Articles []articleJSON `json:"articles"`
}

// ForTicker returns up to limit recent articles mentioning the symbol.
func (c *Client) ForTicker(ctx context.Context, symbol string, limit int) ([]domain.NewsItem, error) {
	params := url.Values{
		"q":        {symbol},
		"language": {"en"},
		"sortBy":   {"publishedAt"},
	}
	return c.fetch(ctx, "/v2/everything", params, limit)
}

// Market returns up to limit general business headlines.
func (c *Client) Market(ctx context.Context, limit int) ([]domain.NewsItem, error) {
	params := url.Values{
		"category": {"business"},
		"country":  {"us"},
	}
	return c.fetch(ctx, "/v2/top-headlines", params, limit)
}

func (c *Client) fetch(ctx context.Context, path string, params url.Values, limit int) ([]domain.NewsItem, error) {
	if c.apiKey == "" {
		return nil, nil
	}
	if limit < 1 {
		limit = 1
	}
	params.Set("pageSize", fmt.Sprint(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news request: %w", err)
	}
	defer resp.Body.Close()

	var parsed newsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode news response: %w", err)
	}
	if parsed.Status != "ok" {
		return nil, fmt.Errorf("news api %s: %s", parsed.Code, parsed.Message)
	}

	items := make([]domain.NewsItem, 0, limit)
	for _, a := range parsed.Articles {
		if len(items) == limit {
			break
		}
		items = append(items, domain.NewsItem{
			Title:       a.Title,
			Description: a.Description,
			Content:     a.Content,
			Source:      a.Source.Name,
			PublishedAt: a.PublishedAt,
			URL:         a.URL,
		})
	}
	return items, nil
}
