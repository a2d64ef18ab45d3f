package coingecko

// Wire types for the CoinGecko public API. Only the fields we read.

// simplePriceResponse maps coin ID → currency-keyed values, e.g.
// {"bitcoin": {"usd": 50000, "usd_24h_change": 1.2, ...}}.
type simplePriceResponse map[string]map[string]float64

type globalResponse struct {
	Data struct {
		TotalMarketCap      map[string]float64 `json:"total_market_cap"`
		TotalVolume         map[string]float64 `json:"total_volume"`
		MarketCapPercentage map[string]float64 `json:"market_cap_percentage"`
		MarketCapChange24h  float64            `json:"market_cap_change_percentage_24h_usd"`
	} `json:"data"`
}

type trendingResponse struct {
	Coins []struct {
		Item struct {
			Name          string `json:"name"`
			Symbol        string `json:"symbol"`
			MarketCapRank int    `json:"market_cap_rank"`
			Score         int    `json:"score"`
		} `json:"item"`
	} `json:"coins"`
}

type marketChartResponse struct {
	// Each entry is [timestamp_ms, price].
	Prices [][2]float64 `json:"prices"`
}
