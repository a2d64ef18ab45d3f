package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmaranges/cryptopilot/internal/domain"
)

// Recommend runs the trade-advisory stage with the analysis verdict and the
// realized performance of past trades as context.
func (c *Client) Recommend(ctx context.Context, snapshot *domain.MonitorSnapshot, analysis domain.Analysis, perf domain.PerformanceContext) (domain.AdvicePacket, error) {
	text, err := c.generate(ctx, advisoryPrompt(snapshot, analysis, perf))
	if err != nil {
		return domain.AdvicePacket{}, fmt.Errorf("gemini.Recommend: %w", err)
	}

	advice := parseAdvice(text)
	if advice.Degraded {
		slog.Warn("advisory reply was not valid JSON, holding off this cycle")
	}
	return advice, nil
}

func advisoryPrompt(snapshot *domain.MonitorSnapshot, analysis domain.Analysis, perf domain.PerformanceContext) string {
	symbols := sortedSymbols(snapshot.Prices)

	var b strings.Builder
	b.WriteString("You are a crypto trading advisor for paper trading (simulated trades only - no real money).\n")
	fmt.Fprintf(&b, "Based on the market analysis and recent performance data, provide adaptive trade recommendations for %s perpetual futures.\n\n",
		strings.Join(symbols, ", "))

	b.WriteString("CURRENT PRICES:\n")
	for _, symbol := range symbols {
		fmt.Fprintf(&b, "- %s: $%s\n", symbol, snapshot.Prices[symbol].Price.StringFixed(2))
	}

	b.WriteString("\nTECHNICAL LEVELS (use for precise TP/SL placement):\n")
	b.WriteString(technicalLevels(symbols, snapshot.Indicators))

	b.WriteString("\nMARKET ANALYSIS:\n")
	if encoded, err := json.MarshalIndent(analysis, "", "  "); err == nil {
		b.Write(encoded)
		b.WriteString("\n")
	}

	if perf.HasHistory {
		b.WriteString("\nRECENT TRADING PERFORMANCE — adapt your recommendations based on what is actually working:\n")
		b.WriteString(performanceSection(symbols, perf))
	}

	b.WriteString("\nFor each coin, provide a recommendation in this exact JSON format:\n")
	b.WriteString(`{
    "recommendations": [
        {
            "symbol": "<SYMBOL>",
            "action": "long" | "short" | "wait",
            "confidence": <number 0-100>,
            "leverage": <number 1-10>,
            "entry_price": <current price or null if wait>,
            "take_profit_price": <target price>,
            "stop_loss_price": <stop price>,
            "reasoning": "<explanation covering signal rationale AND why you chose these specific TP/SL levels>",
            "risk_reward_ratio": <number>
        }
    ],
    "overall_market_stance": "aggressive" | "moderate" | "conservative" | "avoid",
    "portfolio_advice": "<brief overall advice>"
}
`)
	b.WriteString(`
Rules:
- Only recommend leverage 1-3x for low confidence (<50)
- Allow leverage 4-6x for medium confidence (50-75)
- Allow leverage 7-10x only for high confidence (>75)
- Set TP/SL based on market structure — use BB levels and EMA support/resistance as natural targets:
  - Long TP: target BB upper band or nearest resistance; SL: below EMA21 or BB middle
  - Short TP: target BB lower band or nearest support; SL: above EMA21 or BB middle
- Risk/reward ratio must reflect actual market conditions — do NOT default to a fixed floor:
  - Strong trend (RSI 55-65, MACD bullish crossover, price above EMA21): target R:R 2.5-4.0, widen TP
  - Choppy/ranging market (RSI 45-55, mixed signals): target R:R 1.8-2.5, tighten both TP and SL
  - Breakout move (BB width expanding, RSI at extremes): asymmetric TP 8-15%, SL 2-4%, R:R 3.0+
  - Overbought (RSI >70): if long, either tighten TP sharply or recommend wait; prefer shorts
  - Oversold (RSI <30): if short, prefer wait or tight TP; favor longs with generous TP
- If recent performance shows repeated SL hits on a direction: require confidence >80 or recommend "wait" for that symbol
- If market signals are unclear or conflicting, recommend "wait" with null prices

Respond ONLY with the JSON, no other text.`)

	return b.String()
}

func technicalLevels(symbols []string, indicators map[string]domain.Indicators) string {
	if len(indicators) == 0 {
		return "Technical levels unavailable\n"
	}

	var b strings.Builder
	for _, symbol := range symbols {
		ind, ok := indicators[symbol]
		if !ok {
			fmt.Fprintf(&b, "- %s: unavailable\n", symbol)
			continue
		}
		fmt.Fprintf(&b,
			"- %s: BB_lower=$%.2f | BB_mid=$%.2f | BB_upper=$%.2f | EMA9=$%.2f | EMA21=$%.2f | RSI=%.1f (%s) | BB_position=%s\n",
			symbol,
			ind.Bollinger.Lower, ind.Bollinger.Middle, ind.Bollinger.Upper,
			ind.EMA9, ind.EMA21, ind.RSI, ind.RSISignal, ind.BBSignal,
		)
	}
	return b.String()
}

func performanceSection(symbols []string, perf domain.PerformanceContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Overall: %.0f%% win rate (%d closed trades)\n", perf.OverallWinRate, perf.TotalClosedTrades)

	for _, symbol := range symbols {
		sym, ok := perf.PerSymbol[symbol]
		if !ok || sym.Trades == 0 {
			fmt.Fprintf(&b, "- %s: No trades yet\n", symbol)
			continue
		}
		parts := make([]string, 0, len(sym.Recent))
		for _, outcome := range sym.Recent {
			label := "MANUAL"
			switch outcome.CloseReason {
			case domain.CloseTakeProfit:
				label = "TP"
			case domain.CloseStopLoss:
				label = "SL"
			}
			parts = append(parts, fmt.Sprintf("%s %s(%+.1f%%)",
				strings.ToUpper(string(outcome.Direction)), label, outcome.PnLPercent))
		}
		recent := "none"
		if len(parts) > 0 {
			recent = strings.Join(parts, " -> ")
		}
		fmt.Fprintf(&b, "- %s: %.0f%% win rate | last trades: %s\n", symbol, sym.WinRate, recent)
	}

	b.WriteString(`
Adaptation instructions:
- Symbol+direction with 2+ consecutive SL hits: require confidence >80 OR recommend 'wait'
- Frequent SL triggers overall: market is choppier than modeled — widen stops 1-2%, drop leverage 1x
- Frequent TP hits: momentum is strong — use wider TP (10-15%) for higher R:R
- Recalibrate confidence scores against recent accuracy; overconfident calls that lost should score lower
`)
	return b.String()
}
