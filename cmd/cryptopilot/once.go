package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/dmaranges/cryptopilot/internal/adapters/notify"
	"github.com/dmaranges/cryptopilot/internal/engine"
	"github.com/dmaranges/cryptopilot/internal/ledger"
)

// runOnce executes a single trading cycle and prints the full report.
func runOnce(ctx context.Context, eng *engine.Engine, book *ledger.Ledger, console *notify.Console) {
	result, err := eng.RunOnce(ctx)
	if err != nil {
		slog.Error("cycle failed", "err", err)
		os.Exit(1)
	}
	console.PrintCycle(result)

	p, err := book.Portfolio(ctx)
	if err != nil {
		slog.Error("failed to read portfolio", "err", err)
		os.Exit(1)
	}
	console.PrintPositions(p.Positions)

	stats, err := book.Stats(ctx)
	if err != nil {
		slog.Error("failed to read stats", "err", err)
		os.Exit(1)
	}
	console.PrintStats(stats)
}

// runStats prints the current book and performance summary without touching
// any market feed or the LLM.
func runStats(ctx context.Context, book *ledger.Ledger, console *notify.Console) {
	p, err := book.Portfolio(ctx)
	if err != nil {
		slog.Error("failed to read portfolio", "err", err)
		os.Exit(1)
	}
	console.PrintPositions(p.Positions)
	console.PrintTrades(p.History)

	stats, err := book.Stats(ctx)
	if err != nil {
		slog.Error("failed to read stats", "err", err)
		os.Exit(1)
	}
	console.PrintStats(stats)
}
