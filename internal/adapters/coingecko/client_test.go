package coingecko_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaranges/cryptopilot/config"
	"github.com/dmaranges/cryptopilot/internal/adapters/coingecko"
)

var testSymbols = []config.SymbolConfig{
	{ID: "bitcoin", Ticker: "BTC"},
	{ID: "ethereum", Ticker: "ETH"},
}

func TestPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("ids"), "bitcoin")
		w.Write([]byte(`{
			"bitcoin":  {"usd": 50000.5, "usd_24h_change": 2.3, "usd_24h_vol": 1e9, "usd_market_cap": 9e11},
			"ethereum": {"usd": 3000,    "usd_24h_change": -1.1, "usd_24h_vol": 5e8, "usd_market_cap": 3e11}
		}`))
	}))
	defer srv.Close()

	c := coingecko.NewClient(srv.URL, testSymbols)
	quotes, err := c.Prices(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	btc := quotes["BTC"]
	assert.True(t, decimal.NewFromFloat(50000.5).Equal(btc.Price))
	assert.InDelta(t, 2.3, btc.Change24h, 0.001)
	assert.InDelta(t, -1.1, quotes["ETH"].Change24h, 0.001)
}

func TestPrices_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := coingecko.NewClient(srv.URL, testSymbols)
	_, err := c.Prices(context.Background())
	assert.Error(t, err)
}

func TestOverview(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/global", r.URL.Path)
		w.Write([]byte(`{"data": {
			"total_market_cap": {"usd": 2.5e12},
			"total_volume": {"usd": 9e10},
			"market_cap_percentage": {"btc": 52.1, "eth": 17.4},
			"market_cap_change_percentage_24h_usd": 1.8
		}}`))
	}))
	defer srv.Close()

	c := coingecko.NewClient(srv.URL, testSymbols)
	overview, err := c.Overview(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 2.5e12, overview.TotalMarketCap, 1)
	assert.InDelta(t, 52.1, overview.BTCDominance, 0.001)
	assert.InDelta(t, 1.8, overview.MarketCapChange24, 0.001)
}

func TestTrending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/trending", r.URL.Path)
		w.Write([]byte(`{"coins": [
			{"item": {"name": "Pepe", "symbol": "pepe", "market_cap_rank": 40, "score": 1}},
			{"item": {"name": "Solana", "symbol": "sol", "market_cap_rank": 5, "score": 0}}
		]}`))
	}))
	defer srv.Close()

	c := coingecko.NewClient(srv.URL, testSymbols)
	coins, err := c.Trending(context.Background())
	require.NoError(t, err)
	require.Len(t, coins, 2)
	// Ordered by score, symbols uppercased.
	assert.Equal(t, "SOL", coins[0].Symbol)
	assert.Equal(t, "PEPE", coins[1].Symbol)
}

func TestHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/bitcoin/market_chart", r.URL.Path)
		assert.Equal(t, "14", r.URL.Query().Get("days"))
		w.Write([]byte(`{"prices": [[1700000000000, 49000.5], [1700086400000, 50100.25]]}`))
	}))
	defer srv.Close()

	c := coingecko.NewClient(srv.URL, testSymbols)
	points, err := c.History(context.Background(), "bitcoin", 14)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.InDelta(t, 49000.5, points[0].Price, 0.001)
	assert.True(t, points[0].Timestamp.Before(points[1].Timestamp))
}

func TestRetryOn500(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"data": {"total_market_cap": {"usd": 1}}}`))
	}))
	defer srv.Close()

	c := coingecko.NewClient(srv.URL, testSymbols)
	_, err := c.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNoRetryOn404(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := coingecko.NewClient(srv.URL, testSymbols)
	_, err := c.History(context.Background(), "nope", 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client error 404")
	assert.Equal(t, int32(1), calls.Load())
}
