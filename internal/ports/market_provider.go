package ports

import (
	"context"

	"github.com/dmaranges/cryptopilot/internal/domain"
)

// PriceProvider supplies live and historical market data.
type PriceProvider interface {
	// Prices returns a quote per ticker. Symbols the upstream feed does not
	// know are simply absent from the map.
	Prices(ctx context.Context) (map[string]domain.Quote, error)
	Overview(ctx context.Context) (domain.MarketOverview, error)
	Trending(ctx context.Context) ([]domain.TrendingCoin, error)
	History(ctx context.Context, coinID string, days int) ([]domain.PricePoint, error)
}

// NewsProvider supplies recent crypto news headlines.
type NewsProvider interface {
	LatestNews(ctx context.Context, limit int) ([]domain.NewsItem, error)
}

// SentimentProvider supplies the fear & greed index.
type SentimentProvider interface {
	FearGreed(ctx context.Context) (domain.FearGreed, error)
}
