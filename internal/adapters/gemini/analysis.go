package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/dmaranges/cryptopilot/internal/domain"
)

// Analyze runs the market-analysis stage. A transport failure is returned as
// an error; an unparseable reply degrades to a neutral verdict instead.
func (c *Client) Analyze(ctx context.Context, snapshot *domain.MonitorSnapshot) (domain.Analysis, error) {
	text, err := c.generate(ctx, analysisPrompt(snapshot))
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("gemini.Analyze: %w", err)
	}

	analysis := parseAnalysis(text)
	if analysis.Degraded {
		slog.Warn("analysis reply was not valid JSON, using neutral fallback")
	}
	return analysis, nil
}

func analysisPrompt(snapshot *domain.MonitorSnapshot) string {
	var b strings.Builder

	b.WriteString("You are a crypto market analyst. Analyze the following market data and provide insights.\n\n")

	b.WriteString("CURRENT PRICES:\n")
	for _, symbol := range sortedSymbols(snapshot.Prices) {
		q := snapshot.Prices[symbol]
		fmt.Fprintf(&b, "- %s: $%s (%+.2f%% 24h)\n", symbol, q.Price.StringFixed(2), q.Change24h)
	}

	m := snapshot.Market
	b.WriteString("\nMARKET OVERVIEW:\n")
	fmt.Fprintf(&b, "- Total Market Cap: $%.0f\n", m.TotalMarketCap)
	fmt.Fprintf(&b, "- 24h Volume: $%.0f\n", m.TotalVolume)
	fmt.Fprintf(&b, "- BTC Dominance: %.1f%%\n", m.BTCDominance)
	fmt.Fprintf(&b, "- ETH Dominance: %.1f%%\n", m.ETHDominance)
	fmt.Fprintf(&b, "- Market Cap Change 24h: %.2f%%\n", m.MarketCapChange24)

	fmt.Fprintf(&b, "\nFEAR & GREED INDEX: %d (%s)\n", snapshot.FearGreed.Value, snapshot.FearGreed.Label)

	b.WriteString("\nTRENDING COINS:\n")
	if len(snapshot.Trending) == 0 {
		b.WriteString("No trending data available\n")
	}
	for i, coin := range snapshot.Trending {
		if i == 5 {
			break
		}
		fmt.Fprintf(&b, "- %s (%s)\n", coin.Name, coin.Symbol)
	}

	if len(snapshot.News) > 0 {
		b.WriteString("\nRECENT HEADLINES:\n")
		for i, item := range snapshot.News {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "- [%s] %s (%s)\n", item.Source, item.Title, item.PublishedAt)
		}
	}

	symbols := sortedSymbols(snapshot.Prices)
	b.WriteString("\nProvide analysis in the following JSON format:\n")
	b.WriteString("{\n")
	b.WriteString(`    "market_sentiment": "bullish" | "bearish" | "neutral",` + "\n")
	b.WriteString(`    "sentiment_score": <number from -100 to 100>,` + "\n")
	b.WriteString(`    "symbols": {` + "\n")
	for i, symbol := range symbols {
		comma := ","
		if i == len(symbols)-1 {
			comma = ""
		}
		fmt.Fprintf(&b, `        %q: {"trend": "up" | "down" | "sideways", "strength": "strong" | "moderate" | "weak", "key_factors": ["factor1", "factor2"]}%s`+"\n", symbol, comma)
	}
	b.WriteString("    },\n")
	b.WriteString(`    "market_summary": "<2-3 sentence summary>",` + "\n")
	b.WriteString(`    "risk_level": "low" | "medium" | "high"` + "\n")
	b.WriteString("}\n\n")
	b.WriteString("Respond ONLY with the JSON, no other text.")

	return b.String()
}

func sortedSymbols[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
