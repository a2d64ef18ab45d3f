package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/dmaranges/cryptopilot/config"
	"github.com/dmaranges/cryptopilot/internal/domain"
)

const (
	defaultBase = "https://api.coingecko.com/api/v3"

	// Free tier allows ~30 req/min; stay well under it.
	requestInterval = 2 * time.Second

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client is the CoinGecko HTTP client with rate limiting and retries.
// It implements ports.PriceProvider.
type Client struct {
	http    *http.Client
	base    string
	limiter *rate.Limiter

	// coin ID → display ticker, insertion order preserved for stable URLs.
	coins   []config.SymbolConfig
	tickers map[string]string
}

// NewClient creates a Client for the given tracked symbols. An empty base
// falls back to the production API.
func NewClient(base string, symbols []config.SymbolConfig) *Client {
	if base == "" {
		base = defaultBase
	}
	tickers := make(map[string]string, len(symbols))
	for _, s := range symbols {
		tickers[s.ID] = s.Ticker
	}
	return &Client{
		http:    &http.Client{Timeout: 15 * time.Second},
		base:    strings.TrimRight(base, "/"),
		limiter: rate.NewLimiter(rate.Every(requestInterval), 2),
		coins:   symbols,
		tickers: tickers,
	}
}

// Prices returns the current quote for every tracked symbol, keyed by ticker.
func (c *Client) Prices(ctx context.Context) (map[string]domain.Quote, error) {
	ids := make([]string, len(c.coins))
	for i, s := range c.coins {
		ids[i] = s.ID
	}
	endpoint := fmt.Sprintf(
		"%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true&include_24hr_vol=true&include_market_cap=true",
		c.base, url.QueryEscape(strings.Join(ids, ",")),
	)

	var raw simplePriceResponse
	if err := c.get(ctx, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("coingecko.Prices: %w", err)
	}

	quotes := make(map[string]domain.Quote, len(raw))
	for coinID, values := range raw {
		ticker, ok := c.tickers[coinID]
		if !ok {
			continue
		}
		quotes[ticker] = domain.Quote{
			Price:     decimal.NewFromFloat(values["usd"]),
			Change24h: values["usd_24h_change"],
			Volume24h: values["usd_24h_vol"],
			MarketCap: values["usd_market_cap"],
		}
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("coingecko.Prices: empty response for ids %s", strings.Join(ids, ","))
	}
	return quotes, nil
}

// Overview returns the aggregate market picture from /global.
func (c *Client) Overview(ctx context.Context) (domain.MarketOverview, error) {
	var raw globalResponse
	if err := c.get(ctx, c.base+"/global", &raw); err != nil {
		return domain.MarketOverview{}, fmt.Errorf("coingecko.Overview: %w", err)
	}
	return domain.MarketOverview{
		TotalMarketCap:    raw.Data.TotalMarketCap["usd"],
		TotalVolume:       raw.Data.TotalVolume["usd"],
		BTCDominance:      raw.Data.MarketCapPercentage["btc"],
		ETHDominance:      raw.Data.MarketCapPercentage["eth"],
		MarketCapChange24: raw.Data.MarketCapChange24h,
	}, nil
}

// Trending returns the trending-search coins, best rank first.
func (c *Client) Trending(ctx context.Context) ([]domain.TrendingCoin, error) {
	var raw trendingResponse
	if err := c.get(ctx, c.base+"/search/trending", &raw); err != nil {
		return nil, fmt.Errorf("coingecko.Trending: %w", err)
	}

	coins := make([]domain.TrendingCoin, 0, len(raw.Coins))
	for _, entry := range raw.Coins {
		coins = append(coins, domain.TrendingCoin{
			Name:          entry.Item.Name,
			Symbol:        strings.ToUpper(entry.Item.Symbol),
			MarketCapRank: entry.Item.MarketCapRank,
			Score:         entry.Item.Score,
		})
	}
	sort.Slice(coins, func(i, j int) bool { return coins[i].Score < coins[j].Score })
	return coins, nil
}

// History returns daily price samples for coinID over the last days days.
func (c *Client) History(ctx context.Context, coinID string, days int) ([]domain.PricePoint, error) {
	endpoint := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d",
		c.base, url.PathEscape(coinID), days)

	var raw marketChartResponse
	if err := c.get(ctx, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("coingecko.History: %s: %w", coinID, err)
	}

	points := make([]domain.PricePoint, 0, len(raw.Prices))
	for _, sample := range raw.Prices {
		points = append(points, domain.PricePoint{
			Timestamp: time.UnixMilli(int64(sample[0])).UTC(),
			Price:     sample[1],
		})
	}
	return points, nil
}

// get performs a GET with rate limiting and retries with exponential backoff.
// 429 and 5xx responses are retried; other 4xx fail immediately.
func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("rate limited by coingecko", "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
