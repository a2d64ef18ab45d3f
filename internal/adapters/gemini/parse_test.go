package gemini

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaranges/cryptopilot/internal/domain"
)

func TestParseAnalysis_Valid(t *testing.T) {
	reply := `{
		"market_sentiment": "bullish",
		"sentiment_score": 45,
		"symbols": {
			"BTC": {"trend": "up", "strength": "strong", "key_factors": ["ETF inflows", "halving"]},
			"ETH": {"trend": "sideways", "strength": "weak", "key_factors": []}
		},
		"market_summary": "Broad risk-on rotation.",
		"risk_level": "medium"
	}`

	analysis := parseAnalysis(reply)
	assert.False(t, analysis.Degraded)
	assert.Equal(t, "bullish", analysis.MarketSentiment)
	assert.Equal(t, 45, analysis.SentimentScore)
	assert.Equal(t, "up", analysis.Symbols["BTC"].Trend)
	assert.Len(t, analysis.Symbols["BTC"].KeyFactors, 2)
}

func TestParseAnalysis_CodeFenced(t *testing.T) {
	reply := "```json\n{\"market_sentiment\": \"bearish\", \"sentiment_score\": -30, \"risk_level\": \"high\"}\n```"
	analysis := parseAnalysis(reply)
	assert.False(t, analysis.Degraded)
	assert.Equal(t, "bearish", analysis.MarketSentiment)
	assert.Equal(t, -30, analysis.SentimentScore)
}

func TestParseAnalysis_GarbageDegrades(t *testing.T) {
	analysis := parseAnalysis("The market looks complicated today, I cannot say.")
	assert.True(t, analysis.Degraded)
	assert.Equal(t, "neutral", analysis.MarketSentiment)
	assert.Equal(t, "medium", analysis.RiskLevel)
	assert.Contains(t, analysis.MarketSummary, "complicated")
}

func TestParseAdvice_Valid(t *testing.T) {
	reply := `{
		"recommendations": [
			{
				"symbol": "BTC",
				"action": "long",
				"confidence": 72,
				"leverage": 5,
				"entry_price": 50000,
				"take_profit_price": 54000,
				"stop_loss_price": 48500,
				"reasoning": "bullish crossover with BB expansion",
				"risk_reward_ratio": 2.7
			},
			{
				"symbol": "ETH",
				"action": "wait",
				"confidence": 30,
				"leverage": 1,
				"entry_price": null,
				"take_profit_price": null,
				"stop_loss_price": null,
				"reasoning": "mixed signals",
				"risk_reward_ratio": 0
			}
		],
		"overall_market_stance": "moderate",
		"portfolio_advice": "Keep exposure light."
	}`

	advice := parseAdvice(reply)
	assert.False(t, advice.Degraded)
	require.Len(t, advice.Recommendations, 2)

	btc := advice.Recommendations[0]
	assert.Equal(t, domain.ActionLong, btc.Action)
	assert.True(t, decimal.NewFromInt(50000).Equal(btc.EntryPrice))
	assert.Equal(t, 5, btc.Leverage)

	// Null prices decode to zero, meaning "use the live price".
	eth := advice.Recommendations[1]
	assert.Equal(t, domain.ActionWait, eth.Action)
	assert.True(t, eth.EntryPrice.IsZero())
	assert.Equal(t, "moderate", advice.MarketStance)
}

func TestParseAdvice_GarbageDegrades(t *testing.T) {
	advice := parseAdvice("I'd rather not trade today.")
	assert.True(t, advice.Degraded)
	assert.Empty(t, advice.Recommendations)
	assert.Equal(t, "avoid", advice.MarketStance)
}

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"fenced", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"language tag", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, stripCodeFence(tc.in))
		})
	}
}

func TestAnalysisPrompt_ListsEverySymbol(t *testing.T) {
	snapshot := &domain.MonitorSnapshot{
		Prices: map[string]domain.Quote{
			"BTC": {Price: decimal.NewFromInt(50000), Change24h: 1.5},
			"SOL": {Price: decimal.NewFromInt(150), Change24h: -2.0},
		},
		FearGreed: domain.FearGreed{Value: 61, Label: "Greed"},
	}

	prompt := analysisPrompt(snapshot)
	assert.Contains(t, prompt, "- BTC: $50000.00 (+1.50% 24h)")
	assert.Contains(t, prompt, "- SOL: $150.00 (-2.00% 24h)")
	assert.Contains(t, prompt, "FEAR & GREED INDEX: 61 (Greed)")
	assert.Contains(t, prompt, `"BTC": {"trend"`)
	assert.Contains(t, prompt, "Respond ONLY with the JSON")
}

func TestAdvisoryPrompt_IncludesPerformance(t *testing.T) {
	snapshot := &domain.MonitorSnapshot{
		Prices: map[string]domain.Quote{
			"BTC": {Price: decimal.NewFromInt(50000)},
		},
		Indicators: map[string]domain.Indicators{
			"BTC": {RSI: 58.2, RSISignal: "neutral", EMA9: 50200, EMA21: 49800,
				Bollinger: domain.BollingerBands{Lower: 48000, Middle: 50000, Upper: 52000},
				BBSignal:  "middle"},
		},
	}
	perf := domain.PerformanceContext{
		HasHistory:        true,
		TotalClosedTrades: 4,
		OverallWinRate:    75,
		PerSymbol: map[string]domain.SymbolPerformance{
			"BTC": {Trades: 4, WinRate: 75, Recent: []domain.TradeOutcome{
				{Direction: domain.DirectionLong, CloseReason: domain.CloseTakeProfit, PnLPercent: 12.5},
			}},
		},
	}

	prompt := advisoryPrompt(snapshot, domain.Analysis{MarketSentiment: "bullish"}, perf)
	assert.Contains(t, prompt, "RECENT TRADING PERFORMANCE")
	assert.Contains(t, prompt, "Overall: 75% win rate (4 closed trades)")
	assert.Contains(t, prompt, "LONG TP(+12.5%)")
	assert.Contains(t, prompt, "BB_upper=$52000.00")
	assert.Contains(t, prompt, "paper trading")
}

func TestAdvisoryPrompt_NoHistoryOmitsSection(t *testing.T) {
	snapshot := &domain.MonitorSnapshot{
		Prices: map[string]domain.Quote{"BTC": {Price: decimal.NewFromInt(50000)}},
	}
	prompt := advisoryPrompt(snapshot, domain.Analysis{}, domain.PerformanceContext{})
	assert.NotContains(t, prompt, "RECENT TRADING PERFORMANCE")
}
