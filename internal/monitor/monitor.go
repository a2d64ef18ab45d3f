package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmaranges/cryptopilot/config"
	"github.com/dmaranges/cryptopilot/internal/domain"
	"github.com/dmaranges/cryptopilot/internal/ports"
)

const (
	historyDays = 90
	newsLimit   = 10
)

// Monitor aggregates every market feed into one snapshot per cycle. Prices
// are the only hard dependency; any other feed failing just degrades the
// snapshot and records a warning.
type Monitor struct {
	prices    ports.PriceProvider
	news      ports.NewsProvider
	sentiment ports.SentimentProvider
	symbols   []config.SymbolConfig
	now       func() time.Time
}

// New creates a Monitor over the given feeds for the tracked symbols.
func New(prices ports.PriceProvider, news ports.NewsProvider, sentiment ports.SentimentProvider, symbols []config.SymbolConfig) *Monitor {
	return &Monitor{
		prices:    prices,
		news:      news,
		sentiment: sentiment,
		symbols:   symbols,
		now:       time.Now,
	}
}

// Snapshot runs one full collection pass.
func (m *Monitor) Snapshot(ctx context.Context) (*domain.MonitorSnapshot, error) {
	snapshot := &domain.MonitorSnapshot{
		Timestamp:  m.now().UTC(),
		Indicators: make(map[string]domain.Indicators),
	}

	quotes, err := m.prices.Prices(ctx)
	if err != nil {
		return nil, fmt.Errorf("monitor.Snapshot: prices: %w", err)
	}
	snapshot.Prices = quotes

	if snapshot.Market, err = m.prices.Overview(ctx); err != nil {
		snapshot.Warnings = append(snapshot.Warnings, fmt.Sprintf("market overview: %v", err))
	}
	if snapshot.Trending, err = m.prices.Trending(ctx); err != nil {
		snapshot.Warnings = append(snapshot.Warnings, fmt.Sprintf("trending: %v", err))
	}
	if snapshot.News, err = m.news.LatestNews(ctx, newsLimit); err != nil {
		snapshot.Warnings = append(snapshot.Warnings, fmt.Sprintf("news: %v", err))
	}

	reading, err := m.sentiment.FearGreed(ctx)
	if err != nil {
		snapshot.Warnings = append(snapshot.Warnings, fmt.Sprintf("fear & greed: %v", err))
	}
	snapshot.FearGreed = reading

	for _, symbol := range m.symbols {
		history, err := m.prices.History(ctx, symbol.ID, historyDays)
		if err != nil {
			snapshot.Warnings = append(snapshot.Warnings, fmt.Sprintf("history %s: %v", symbol.Ticker, err))
			continue
		}
		ind, err := ComputeIndicators(symbol.Ticker, history)
		if err != nil {
			snapshot.Warnings = append(snapshot.Warnings, fmt.Sprintf("indicators %s: %v", symbol.Ticker, err))
			continue
		}
		snapshot.Indicators[symbol.Ticker] = ind
	}

	for _, w := range snapshot.Warnings {
		slog.Warn("monitor feed degraded", "warning", w)
	}
	slog.Info("monitor snapshot collected",
		"symbols", len(snapshot.Prices),
		"indicators", len(snapshot.Indicators),
		"warnings", len(snapshot.Warnings))
	return snapshot, nil
}
