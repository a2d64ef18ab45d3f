package cryptocompare

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmaranges/cryptopilot/internal/domain"
)

const (
	defaultBase = "https://min-api.cryptocompare.com"

	requestInterval = 2 * time.Second
	maxBodySnippet  = 200
)

type newsResponse struct {
	Data []struct {
		Title       string `json:"title"`
		Source      string `json:"source"`
		PublishedOn int64  `json:"published_on"` // unix seconds
		URL         string `json:"url"`
		Body        string `json:"body"`
		Categories  string `json:"categories"`
	} `json:"Data"`
}

// Client fetches crypto news headlines. It implements ports.NewsProvider.
type Client struct {
	http    *http.Client
	base    string
	limiter *rate.Limiter
	now     func() time.Time
}

// NewClient creates a Client. An empty base falls back to the production API.
func NewClient(base string) *Client {
	if base == "" {
		base = defaultBase
	}
	return &Client{
		http:    &http.Client{Timeout: 15 * time.Second},
		base:    strings.TrimRight(base, "/"),
		limiter: rate.NewLimiter(rate.Every(requestInterval), 2),
		now:     time.Now,
	}
}

// LatestNews returns up to limit recent headlines, newest first, with the
// publish time rendered as a relative age label.
func (c *Client) LatestNews(ctx context.Context, limit int) ([]domain.NewsItem, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("cryptocompare.LatestNews: rate limiter: %w", err)
	}

	endpoint := c.base + "/data/v2/news/?lang=EN&sortOrder=latest"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("cryptocompare.LatestNews: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cryptocompare.LatestNews: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("cryptocompare.LatestNews: status %d: %s", resp.StatusCode, string(body))
	}

	var raw newsResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("cryptocompare.LatestNews: decode: %w", err)
	}

	if limit <= 0 || limit > len(raw.Data) {
		limit = len(raw.Data)
	}
	items := make([]domain.NewsItem, 0, limit)
	for _, article := range raw.Data[:limit] {
		snippet := article.Body
		if len(snippet) > maxBodySnippet {
			snippet = snippet[:maxBodySnippet] + "…"
		}
		items = append(items, domain.NewsItem{
			Title:       article.Title,
			Source:      article.Source,
			PublishedAt: ageLabel(c.now().UTC(), time.Unix(article.PublishedOn, 0).UTC()),
			URL:         article.URL,
			BodySnippet: snippet,
			Categories:  article.Categories,
		})
	}
	return items, nil
}

// ageLabel renders "35m ago" / "3h ago" / "2d ago" style labels.
func ageLabel(now, published time.Time) string {
	age := now.Sub(published)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	}
}
