package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the current market snapshot for a single symbol.
type Quote struct {
	Price     decimal.Decimal `json:"price"`
	Change24h float64         `json:"change_24h"` // percent
	Volume24h float64         `json:"volume_24h"`
	MarketCap float64         `json:"market_cap"`
}

// MarketOverview is the aggregate market picture.
type MarketOverview struct {
	TotalMarketCap    float64 `json:"total_market_cap"`
	TotalVolume       float64 `json:"total_volume"`
	BTCDominance      float64 `json:"btc_dominance"`
	ETHDominance      float64 `json:"eth_dominance"`
	MarketCapChange24 float64 `json:"market_cap_change_24h"`
}

// TrendingCoin is an entry from the trending-search feed.
type TrendingCoin struct {
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	MarketCapRank int    `json:"market_cap_rank"`
	Score         int    `json:"score"`
}

// PricePoint is a single historical price sample.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// NewsItem is a single crypto news headline.
type NewsItem struct {
	Title       string `json:"title"`
	Source      string `json:"source"`
	PublishedAt string `json:"published_at"` // age label, e.g. "35m ago"
	URL         string `json:"url"`
	BodySnippet string `json:"body_snippet"`
	Categories  string `json:"categories"`
}

// FearGreed is the crypto fear & greed index reading.
type FearGreed struct {
	Value int    `json:"value"` // 0-100
	Label string `json:"label"` // e.g. "Extreme Fear", "Neutral", "Greed"
}

// MACDValues holds the MACD line, signal line, and histogram.
type MACDValues struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// BollingerBands holds the band levels and relative width.
type BollingerBands struct {
	Upper        float64 `json:"upper"`
	Middle       float64 `json:"middle"`
	Lower        float64 `json:"lower"`
	WidthPercent float64 `json:"width_percent"`
}

// Indicators is the technical indicator set computed for one symbol.
type Indicators struct {
	Symbol        string         `json:"symbol"`
	RSI           float64        `json:"rsi"`
	RSISignal     string         `json:"rsi_signal"` // overbought | oversold | neutral
	MACD          MACDValues     `json:"macd"`
	MACDSignal    string         `json:"macd_signal"`    // bullish | bearish
	MACDCrossover string         `json:"macd_crossover"` // bullish_crossover | bearish_crossover | no_cross
	Bollinger     BollingerBands `json:"bollinger_bands"`
	BBSignal      string         `json:"bb_signal"`
	EMA9          float64        `json:"ema9"`
	EMA21         float64        `json:"ema21"`
	EMACrossover  string         `json:"ema_crossover"`  // bullish | bearish | neutral
	MomentumTrend string         `json:"momentum_trend"` // accelerating | decelerating | stable
}

// MonitorSnapshot bundles everything one monitor pass collected. Degraded
// sub-feeds are reported in Warnings rather than failing the snapshot.
type MonitorSnapshot struct {
	Timestamp  time.Time             `json:"timestamp"`
	Prices     map[string]Quote      `json:"prices"`
	Market     MarketOverview        `json:"market"`
	Trending   []TrendingCoin        `json:"trending"`
	News       []NewsItem            `json:"news"`
	Indicators map[string]Indicators `json:"technical_indicators"`
	FearGreed  FearGreed             `json:"fear_greed_index"`
	Warnings   []string              `json:"warnings,omitempty"`
}

// PriceMap extracts symbol→price for ledger consumption.
func (s *MonitorSnapshot) PriceMap() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(s.Prices))
	for sym, q := range s.Prices {
		out[sym] = q.Price
	}
	return out
}
