package gemini

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dmaranges/cryptopilot/internal/domain"
)

const maxSummaryExcerpt = 500

// parseAnalysis decodes the analysis-stage reply. Any decode failure yields
// a neutral Degraded verdict carrying an excerpt of the raw reply; the
// caller never sees an error for garbage output.
func parseAnalysis(text string) domain.Analysis {
	cleaned := stripCodeFence(text)

	var analysis domain.Analysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		excerpt := cleaned
		if len(excerpt) > maxSummaryExcerpt {
			excerpt = excerpt[:maxSummaryExcerpt]
		}
		return domain.Analysis{
			MarketSentiment: "neutral",
			SentimentScore:  0,
			MarketSummary:   excerpt,
			RiskLevel:       "medium",
			Degraded:        true,
		}
	}
	analysis.Degraded = false
	return analysis
}

// wireRecommendation tolerates null prices ("wait" items) where the domain
// type expects plain decimals.
type wireRecommendation struct {
	Symbol          string              `json:"symbol"`
	Action          string              `json:"action"`
	Confidence      int                 `json:"confidence"`
	Leverage        int                 `json:"leverage"`
	EntryPrice      decimal.NullDecimal `json:"entry_price"`
	TakeProfit      decimal.NullDecimal `json:"take_profit_price"`
	StopLoss        decimal.NullDecimal `json:"stop_loss_price"`
	Reasoning       string              `json:"reasoning"`
	RiskRewardRatio float64             `json:"risk_reward_ratio"`
}

type wireAdvice struct {
	Recommendations []wireRecommendation `json:"recommendations"`
	MarketStance    string               `json:"overall_market_stance"`
	PortfolioAdvice string               `json:"portfolio_advice"`
}

// parseAdvice decodes the advisory-stage reply. Garbage output degrades to
// an empty "avoid" packet rather than an error.
func parseAdvice(text string) domain.AdvicePacket {
	cleaned := stripCodeFence(text)

	var wire wireAdvice
	if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		return domain.AdvicePacket{
			MarketStance:    "avoid",
			PortfolioAdvice: "Could not generate recommendations. Please try again.",
			Degraded:        true,
		}
	}

	packet := domain.AdvicePacket{
		MarketStance:    wire.MarketStance,
		PortfolioAdvice: wire.PortfolioAdvice,
	}
	for _, rec := range wire.Recommendations {
		packet.Recommendations = append(packet.Recommendations, domain.Recommendation{
			Symbol:          rec.Symbol,
			Action:          rec.Action,
			Confidence:      rec.Confidence,
			Leverage:        rec.Leverage,
			EntryPrice:      rec.EntryPrice.Decimal,
			TakeProfit:      rec.TakeProfit.Decimal,
			StopLoss:        rec.StopLoss.Decimal,
			Reasoning:       rec.Reasoning,
			RiskRewardRatio: rec.RiskRewardRatio,
		})
	}
	return packet
}

// stripCodeFence removes a surrounding markdown code fence, with or without
// a language tag.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 && len(strings.Fields(text[:idx])) <= 1 {
		text = text[idx+1:] // drop the language tag line
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
