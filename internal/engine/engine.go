package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmaranges/cryptopilot/internal/domain"
	"github.com/dmaranges/cryptopilot/internal/ledger"
	"github.com/dmaranges/cryptopilot/internal/ports"
)

// MarketMonitor collects one full market snapshot.
type MarketMonitor interface {
	Snapshot(ctx context.Context) (*domain.MonitorSnapshot, error)
}

// Book is the slice of the ledger the trading cycle needs.
type Book interface {
	AutoExecute(ctx context.Context, recs []domain.Recommendation, prices map[string]decimal.Decimal) (*ledger.ExecutionReport, error)
	UpdatePositions(ctx context.Context, prices map[string]decimal.Decimal) ([]domain.ClosedTrade, error)
	Performance(ctx context.Context) (domain.PerformanceContext, error)
}

// Engine runs the trading loop: collect, analyze, recommend, execute.
type Engine struct {
	monitor  MarketMonitor
	analyzer ports.Analyzer
	advisor  ports.Advisor
	prices   ports.PriceProvider
	book     Book
}

// New creates an Engine.
func New(monitor MarketMonitor, analyzer ports.Analyzer, advisor ports.Advisor, prices ports.PriceProvider, book Book) *Engine {
	return &Engine{
		monitor:  monitor,
		analyzer: analyzer,
		advisor:  advisor,
		prices:   prices,
		book:     book,
	}
}

// CycleResult contains everything produced by one trading cycle.
type CycleResult struct {
	Snapshot *domain.MonitorSnapshot        `json:"monitor"`
	Analysis domain.Analysis                `json:"analysis"`
	Advice   domain.AdvicePacket            `json:"recommendations"`
	Opened   []domain.Position              `json:"opened"`
	Skipped  []ledger.SkippedRecommendation `json:"skipped"`
	Closed   []domain.ClosedTrade           `json:"closed"`
	Duration time.Duration                  `json:"-"`
}

// RunOnce executes a single trading cycle: snapshot the market, run both
// LLM stages, auto-execute actionable recommendations, then re-mark the
// book at the snapshot prices so triggered exits fire in the same cycle.
func (e *Engine) RunOnce(ctx context.Context) (*CycleResult, error) {
	start := time.Now()

	snapshot, err := e.monitor.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine.RunOnce: %w", err)
	}

	analysis, err := e.analyzer.Analyze(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("engine.RunOnce: %w", err)
	}

	perf, err := e.book.Performance(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine.RunOnce: %w", err)
	}

	advice, err := e.advisor.Recommend(ctx, snapshot, analysis, perf)
	if err != nil {
		return nil, fmt.Errorf("engine.RunOnce: %w", err)
	}

	priceMap := snapshot.PriceMap()
	report, err := e.book.AutoExecute(ctx, advice.Recommendations, priceMap)
	if err != nil {
		return nil, fmt.Errorf("engine.RunOnce: %w", err)
	}

	closed, err := e.book.UpdatePositions(ctx, priceMap)
	if err != nil {
		return nil, fmt.Errorf("engine.RunOnce: %w", err)
	}

	result := &CycleResult{
		Snapshot: snapshot,
		Analysis: analysis,
		Advice:   advice,
		Opened:   report.Opened,
		Skipped:  report.Skipped,
		Closed:   closed,
		Duration: time.Since(start),
	}
	slog.Info("trading cycle finished",
		"sentiment", analysis.MarketSentiment,
		"stance", advice.MarketStance,
		"opened", len(result.Opened),
		"closed", len(result.Closed),
		"duration", result.Duration.Round(time.Millisecond))
	return result, nil
}

// UpdateOnce is the fast tick between cycles: fetch prices and re-mark the
// book, closing whatever hit its bracket. No LLM stage is involved.
func (e *Engine) UpdateOnce(ctx context.Context) ([]domain.ClosedTrade, error) {
	quotes, err := e.prices.Prices(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine.UpdateOnce: %w", err)
	}

	priceMap := make(map[string]decimal.Decimal, len(quotes))
	for symbol, q := range quotes {
		priceMap[symbol] = q.Price
	}

	closed, err := e.book.UpdatePositions(ctx, priceMap)
	if err != nil {
		return nil, fmt.Errorf("engine.UpdateOnce: %w", err)
	}
	if len(closed) > 0 {
		slog.Info("price tick closed positions", "count", len(closed))
	}
	return closed, nil
}
