package domain

import "github.com/shopspring/decimal"

// TrendAnalysis is the per-symbol verdict from the analysis stage.
type TrendAnalysis struct {
	Trend      string   `json:"trend"`    // up | down | sideways
	Strength   string   `json:"strength"` // strong | moderate | weak
	KeyFactors []string `json:"key_factors"`
}

// Analysis is the structured output of the market-analysis LLM stage.
type Analysis struct {
	MarketSentiment string                   `json:"market_sentiment"` // bullish | bearish | neutral
	SentimentScore  int                      `json:"sentiment_score"`  // -100..100
	Symbols         map[string]TrendAnalysis `json:"symbols"`
	MarketSummary   string                   `json:"market_summary"`
	RiskLevel       string                   `json:"risk_level"` // low | medium | high
	Degraded        bool                     `json:"degraded,omitempty"`
}

// Recommendation action values. Anything else is treated as a no-op.
const (
	ActionLong  = "long"
	ActionShort = "short"
	ActionWait  = "wait"
	ActionHold  = "hold"
)

// Recommendation is a single trade suggestion from the advisory stage.
// EntryPrice zero means "use the live market price".
type Recommendation struct {
	Symbol          string          `json:"symbol"`
	Action          string          `json:"action"`
	Confidence      int             `json:"confidence"` // 0-100
	Leverage        int             `json:"leverage"`
	EntryPrice      decimal.Decimal `json:"entry_price"`
	TakeProfit      decimal.Decimal `json:"take_profit_price"`
	StopLoss        decimal.Decimal `json:"stop_loss_price"`
	Reasoning       string          `json:"reasoning"`
	RiskRewardRatio float64         `json:"risk_reward_ratio"`
}

// AdvicePacket is the full advisory-stage output.
type AdvicePacket struct {
	Recommendations []Recommendation `json:"recommendations"`
	MarketStance    string           `json:"overall_market_stance"` // aggressive | moderate | conservative | avoid
	PortfolioAdvice string           `json:"portfolio_advice"`
	Degraded        bool             `json:"degraded,omitempty"`
}

// TradeOutcome is a compact summary of a recent closed trade, used to feed
// past performance back into the advisory prompt.
type TradeOutcome struct {
	Direction   Direction   `json:"direction"`
	CloseReason CloseReason `json:"close_reason"`
	PnLPercent  float64     `json:"realized_pnl_percent"`
}

// SymbolPerformance aggregates realized results for one symbol.
type SymbolPerformance struct {
	Trades  int            `json:"trades"`
	WinRate float64        `json:"win_rate"`
	Recent  []TradeOutcome `json:"recent_trades"`
}

// PerformanceContext summarizes the ledger history for the advisory stage.
type PerformanceContext struct {
	HasHistory        bool                         `json:"has_history"`
	TotalClosedTrades int                          `json:"total_closed_trades"`
	OverallWinRate    float64                      `json:"overall_win_rate"`
	PerSymbol         map[string]SymbolPerformance `json:"per_symbol"`
}
