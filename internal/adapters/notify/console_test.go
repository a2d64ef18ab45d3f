package notify_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/dmaranges/cryptopilot/internal/adapters/notify"
	"github.com/dmaranges/cryptopilot/internal/domain"
	"github.com/dmaranges/cryptopilot/internal/engine"
)

func TestPrintRecommendations(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)

	c.PrintRecommendations(domain.AdvicePacket{
		Recommendations: []domain.Recommendation{{
			Symbol:          "BTC",
			Action:          domain.ActionLong,
			Confidence:      72,
			Leverage:        5,
			EntryPrice:      decimal.NewFromInt(50000),
			TakeProfit:      decimal.NewFromInt(54000),
			StopLoss:        decimal.NewFromInt(48500),
			RiskRewardRatio: 2.7,
		}},
		PortfolioAdvice: "Keep exposure light.",
	})

	out := buf.String()
	assert.Contains(t, out, "BTC")
	assert.Contains(t, out, "LONG")
	assert.Contains(t, out, "$50000.00")
	assert.Contains(t, out, "72%")
	assert.Contains(t, out, "Keep exposure light.")
}

func TestPrintRecommendations_Empty(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)

	c.PrintRecommendations(domain.AdvicePacket{MarketStance: "avoid"})
	assert.Contains(t, buf.String(), "no actionable recommendations")
}

func TestPrintTrades(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)

	pos := domain.Position{
		Symbol: "ETH", Direction: domain.DirectionShort, Leverage: 2,
		EntryPrice: decimal.NewFromInt(3000), Size: decimal.NewFromInt(500),
	}
	trade := pos.Close(decimal.NewFromInt(3150), domain.CloseStopLoss,
		time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC))

	c.PrintTrades([]domain.ClosedTrade{trade})

	out := buf.String()
	assert.Contains(t, out, "ETH")
	assert.Contains(t, out, "SHORT")
	assert.Contains(t, out, "stop_loss")
	assert.Contains(t, out, "$-50.00")
}

func TestPrintCycle(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)

	c.PrintCycle(&engine.CycleResult{
		Snapshot: &domain.MonitorSnapshot{Warnings: []string{"news: feed down"}},
		Analysis: domain.Analysis{
			MarketSentiment: "bullish",
			SentimentScore:  40,
			MarketSummary:   "Risk-on across the board.",
			RiskLevel:       "medium",
		},
		Advice: domain.AdvicePacket{MarketStance: "moderate"},
	})

	out := buf.String()
	assert.Contains(t, out, "bullish")
	assert.Contains(t, out, "Risk-on across the board.")
	assert.Contains(t, out, ">> news: feed down")
}
