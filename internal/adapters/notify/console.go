package notify

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"github.com/dmaranges/cryptopilot/internal/domain"
	"github.com/dmaranges/cryptopilot/internal/engine"
)

// Console renders cycle results and portfolio state to a terminal.
type Console struct {
	out io.Writer
}

// NewConsole creates a notifier writing to stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter creates a notifier for tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// PrintCycle prints everything one trading cycle produced.
func (c *Console) PrintCycle(result *engine.CycleResult) {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "[%s] cycle done in %s | sentiment %s (%+d) | stance %s | risk %s\n",
		now, result.Duration.Round(time.Millisecond),
		result.Analysis.MarketSentiment, result.Analysis.SentimentScore,
		result.Advice.MarketStance, result.Analysis.RiskLevel)

	if result.Analysis.MarketSummary != "" {
		fmt.Fprintf(c.out, "  %s\n", result.Analysis.MarketSummary)
	}
	for _, w := range result.Snapshot.Warnings {
		fmt.Fprintf(c.out, "  >> %s\n", w)
	}

	c.PrintRecommendations(result.Advice)

	if len(result.Opened) > 0 {
		fmt.Fprintf(c.out, "\nOpened %d position(s):\n", len(result.Opened))
		c.PrintPositions(result.Opened)
	}
	for _, skip := range result.Skipped {
		fmt.Fprintf(c.out, "  skipped %s: %s\n", skip.Symbol, skip.Reason)
	}
	if len(result.Closed) > 0 {
		fmt.Fprintf(c.out, "\nClosed %d position(s):\n", len(result.Closed))
		c.PrintTrades(result.Closed)
	}
}

// PrintRecommendations prints the advisory output as a table.
func (c *Console) PrintRecommendations(advice domain.AdvicePacket) {
	if len(advice.Recommendations) == 0 {
		fmt.Fprintln(c.out, "  no actionable recommendations this cycle")
		return
	}

	tbl := tablewriter.NewWriter(c.out)
	tbl.Header("Symbol", "Action", "Conf", "Lev", "Entry", "TP", "SL", "R:R")
	for _, rec := range advice.Recommendations {
		tbl.Append(
			rec.Symbol,
			strings.ToUpper(rec.Action),
			fmt.Sprintf("%d%%", rec.Confidence),
			fmt.Sprintf("%dx", rec.Leverage),
			money(rec.EntryPrice),
			money(rec.TakeProfit),
			money(rec.StopLoss),
			fmt.Sprintf("%.1f", rec.RiskRewardRatio),
		)
	}
	tbl.Render()

	if advice.PortfolioAdvice != "" {
		fmt.Fprintf(c.out, "  %s\n", advice.PortfolioAdvice)
	}
}

// PrintPositions prints open positions with their live marks.
func (c *Console) PrintPositions(positions []domain.Position) {
	if len(positions) == 0 {
		fmt.Fprintln(c.out, "  no open positions")
		return
	}

	tbl := tablewriter.NewWriter(c.out)
	tbl.Header("Symbol", "Dir", "Lev", "Entry", "Mark", "Size", "TP", "SL", "PnL", "PnL%")
	for _, pos := range positions {
		tbl.Append(
			pos.Symbol,
			strings.ToUpper(string(pos.Direction)),
			fmt.Sprintf("%dx", pos.Leverage),
			money(pos.EntryPrice),
			money(pos.CurrentPrice),
			money(pos.Size),
			money(pos.TakeProfit),
			money(pos.StopLoss),
			money(pos.UnrealizedPnL),
			pos.UnrealizedPnLPercent.StringFixed(2)+"%",
		)
	}
	tbl.Render()
}

// PrintTrades prints closed trades.
func (c *Console) PrintTrades(trades []domain.ClosedTrade) {
	if len(trades) == 0 {
		fmt.Fprintln(c.out, "  no closed trades yet")
		return
	}

	tbl := tablewriter.NewWriter(c.out)
	tbl.Header("Symbol", "Dir", "Lev", "Entry", "Close", "Reason", "PnL", "PnL%", "Closed At")
	for _, trade := range trades {
		tbl.Append(
			trade.Symbol,
			strings.ToUpper(string(trade.Direction)),
			fmt.Sprintf("%dx", trade.Leverage),
			money(trade.EntryPrice),
			money(trade.ClosePrice),
			string(trade.CloseReason),
			money(trade.RealizedPnL),
			trade.RealizedPnLPercent.StringFixed(2)+"%",
			trade.ClosedAt.Format("2006-01-02 15:04"),
		)
	}
	tbl.Render()
}

// PrintStats prints the portfolio performance summary.
func (c *Console) PrintStats(stats domain.Stats) {
	fmt.Fprintln(c.out)
	tbl := tablewriter.NewWriter(c.out)
	tbl.Header("Balance", "Return", "Trades", "Wins", "Losses", "Win Rate", "Total PnL", "Open")
	tbl.Append(
		money(stats.CurrentBalance),
		stats.TotalReturnPercent.StringFixed(2)+"%",
		fmt.Sprintf("%d", stats.TotalTrades),
		fmt.Sprintf("%d", stats.WinningTrades),
		fmt.Sprintf("%d", stats.LosingTrades),
		fmt.Sprintf("%.1f%%", stats.WinRate),
		money(stats.TotalPnL),
		fmt.Sprintf("%d", stats.OpenPositions),
	)
	tbl.Render()
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
