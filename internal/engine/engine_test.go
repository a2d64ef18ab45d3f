package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaranges/cryptopilot/internal/domain"
	"github.com/dmaranges/cryptopilot/internal/engine"
	"github.com/dmaranges/cryptopilot/internal/ledger"
)

type fakeMonitor struct {
	snapshot *domain.MonitorSnapshot
	err      error
}

func (f *fakeMonitor) Snapshot(context.Context) (*domain.MonitorSnapshot, error) {
	return f.snapshot, f.err
}

type fakeAnalyzer struct {
	analysis domain.Analysis
	err      error
}

func (f *fakeAnalyzer) Analyze(context.Context, *domain.MonitorSnapshot) (domain.Analysis, error) {
	return f.analysis, f.err
}

type fakeAdvisor struct {
	advice domain.AdvicePacket
	err    error
	perf   domain.PerformanceContext
}

func (f *fakeAdvisor) Recommend(_ context.Context, _ *domain.MonitorSnapshot, _ domain.Analysis, perf domain.PerformanceContext) (domain.AdvicePacket, error) {
	f.perf = perf
	return f.advice, f.err
}

type fakePrices struct {
	quotes map[string]domain.Quote
	err    error
}

func (f *fakePrices) Prices(context.Context) (map[string]domain.Quote, error) {
	return f.quotes, f.err
}
func (f *fakePrices) Overview(context.Context) (domain.MarketOverview, error) {
	return domain.MarketOverview{}, nil
}
func (f *fakePrices) Trending(context.Context) ([]domain.TrendingCoin, error) { return nil, nil }
func (f *fakePrices) History(context.Context, string, int) ([]domain.PricePoint, error) {
	return nil, nil
}

type fakeBook struct {
	report     *ledger.ExecutionReport
	closed     []domain.ClosedTrade
	perf       domain.PerformanceContext
	execRecs   []domain.Recommendation
	execPrices map[string]decimal.Decimal
	updates    int
}

func (f *fakeBook) AutoExecute(_ context.Context, recs []domain.Recommendation, prices map[string]decimal.Decimal) (*ledger.ExecutionReport, error) {
	f.execRecs = recs
	f.execPrices = prices
	return f.report, nil
}

func (f *fakeBook) UpdatePositions(context.Context, map[string]decimal.Decimal) ([]domain.ClosedTrade, error) {
	f.updates++
	return f.closed, nil
}

func (f *fakeBook) Performance(context.Context) (domain.PerformanceContext, error) {
	return f.perf, nil
}

func snapshot() *domain.MonitorSnapshot {
	return &domain.MonitorSnapshot{
		Prices: map[string]domain.Quote{"BTC": {Price: decimal.NewFromInt(50000)}},
	}
}

func TestRunOnce(t *testing.T) {
	advisor := &fakeAdvisor{advice: domain.AdvicePacket{
		Recommendations: []domain.Recommendation{{Symbol: "BTC", Action: domain.ActionLong, Leverage: 5}},
		MarketStance:    "moderate",
	}}
	book := &fakeBook{
		report: &ledger.ExecutionReport{Opened: []domain.Position{{ID: "p1", Symbol: "BTC"}}},
		closed: []domain.ClosedTrade{{ID: "p0", Symbol: "ETH"}},
		perf:   domain.PerformanceContext{HasHistory: true, TotalClosedTrades: 3},
	}
	e := engine.New(&fakeMonitor{snapshot: snapshot()},
		&fakeAnalyzer{analysis: domain.Analysis{MarketSentiment: "bullish"}},
		advisor, &fakePrices{}, book)

	result, err := e.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "bullish", result.Analysis.MarketSentiment)
	require.Len(t, result.Opened, 1)
	require.Len(t, result.Closed, 1)

	// Past performance reaches the advisory stage.
	assert.True(t, advisor.perf.HasHistory)
	assert.Equal(t, 3, advisor.perf.TotalClosedTrades)

	// Recommendations and live prices reach the book.
	require.Len(t, book.execRecs, 1)
	assert.True(t, decimal.NewFromInt(50000).Equal(book.execPrices["BTC"]))
	assert.Equal(t, 1, book.updates)
}

func TestRunOnce_MonitorFailureAborts(t *testing.T) {
	e := engine.New(&fakeMonitor{err: errors.New("feed down")},
		&fakeAnalyzer{}, &fakeAdvisor{}, &fakePrices{}, &fakeBook{})

	_, err := e.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestRunOnce_AnalyzerFailureAborts(t *testing.T) {
	book := &fakeBook{report: &ledger.ExecutionReport{}}
	e := engine.New(&fakeMonitor{snapshot: snapshot()},
		&fakeAnalyzer{err: errors.New("llm down")}, &fakeAdvisor{}, &fakePrices{}, book)

	_, err := e.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Zero(t, book.updates)
}

func TestRunOnce_DegradedAdviceStillUpdates(t *testing.T) {
	// A degraded packet carries no recommendations, but the book must still
	// be re-marked so brackets fire.
	book := &fakeBook{report: &ledger.ExecutionReport{}}
	e := engine.New(&fakeMonitor{snapshot: snapshot()},
		&fakeAnalyzer{analysis: domain.Analysis{Degraded: true}},
		&fakeAdvisor{advice: domain.AdvicePacket{MarketStance: "avoid", Degraded: true}},
		&fakePrices{}, book)

	result, err := e.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Advice.Degraded)
	assert.Empty(t, result.Opened)
	assert.Equal(t, 1, book.updates)
}

func TestUpdateOnce(t *testing.T) {
	book := &fakeBook{closed: []domain.ClosedTrade{{ID: "p1"}}}
	prices := &fakePrices{quotes: map[string]domain.Quote{"BTC": {Price: decimal.NewFromInt(51000)}}}
	e := engine.New(&fakeMonitor{}, &fakeAnalyzer{}, &fakeAdvisor{}, prices, book)

	closed, err := e.UpdateOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, closed, 1)
	assert.Equal(t, 1, book.updates)
}

func TestUpdateOnce_PriceFailure(t *testing.T) {
	e := engine.New(&fakeMonitor{}, &fakeAnalyzer{}, &fakeAdvisor{},
		&fakePrices{err: errors.New("api down")}, &fakeBook{})

	_, err := e.UpdateOnce(context.Background())
	assert.Error(t, err)
}
