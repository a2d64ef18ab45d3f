package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmaranges/cryptopilot/config"
	"github.com/dmaranges/cryptopilot/internal/domain"
	"github.com/dmaranges/cryptopilot/internal/ports"
)

const recentOutcomes = 3 // trades per symbol fed back to the advisory stage

var hundred = decimal.NewFromInt(100)

// Config holds the ledger's trading policy, derived from config.TradingConfig.
type Config struct {
	InitialBalance     decimal.Decimal
	AllocationPercent  decimal.Decimal // % of current balance per trade
	AllocationNotional decimal.Decimal // fixed size override, zero = disabled
	MaxLeverage        int
	DefaultTPPercent   decimal.Decimal
	DefaultSLPercent   decimal.Decimal
}

// ConfigFrom converts the YAML trading section into ledger policy.
func ConfigFrom(tc config.TradingConfig) Config {
	return Config{
		InitialBalance:     decimal.NewFromFloat(tc.InitialBalance),
		AllocationPercent:  decimal.NewFromFloat(tc.AllocationPercent),
		AllocationNotional: decimal.NewFromFloat(tc.AllocationNotional),
		MaxLeverage:        tc.MaxLeverage,
		DefaultTPPercent:   decimal.NewFromFloat(tc.DefaultTakeProfitPct),
		DefaultSLPercent:   decimal.NewFromFloat(tc.DefaultStopLossPct),
	}
}

// Ledger is the single source of truth for the paper-trading portfolio.
// Every mutating operation reads the full state from the store, mutates it
// in memory, and writes it back under one exclusive lock, so an interleaved
// reader can never observe a half-applied mutation.
type Ledger struct {
	store ports.PortfolioStore
	cfg   Config
	now   func() time.Time
	newID func() string
	mu    sync.RWMutex
}

// New creates a ledger over the given store.
func New(store ports.PortfolioStore, cfg Config) *Ledger {
	if cfg.InitialBalance.IsZero() {
		cfg.InitialBalance = decimal.NewFromInt(10000)
	}
	if cfg.AllocationPercent.IsZero() && cfg.AllocationNotional.IsZero() {
		cfg.AllocationPercent = decimal.NewFromInt(10)
	}
	if cfg.MaxLeverage <= 0 {
		cfg.MaxLeverage = 10
	}
	if cfg.DefaultTPPercent.IsZero() {
		cfg.DefaultTPPercent = decimal.NewFromInt(5)
	}
	if cfg.DefaultSLPercent.IsZero() {
		cfg.DefaultSLPercent = decimal.NewFromInt(5)
	}
	return &Ledger{
		store: store,
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.New().String() },
	}
}

// OpenRequest carries the parameters for OpenPosition.
type OpenRequest struct {
	Symbol     string
	Direction  domain.Direction
	EntryPrice decimal.Decimal
	Size       decimal.Decimal
	Leverage   int
	TakeProfit decimal.Decimal
	StopLoss   decimal.Decimal
	Confidence int
	Reasoning  string
}

func (r OpenRequest) validate() error {
	if r.Symbol == "" {
		return fmt.Errorf("ledger: %w: symbol is required", ErrInvalidArgument)
	}
	if !r.Direction.Valid() {
		return fmt.Errorf("ledger: %w: direction %q must be long or short", ErrInvalidArgument, r.Direction)
	}
	if r.Leverage < 1 {
		return fmt.Errorf("ledger: %w: leverage %d must be >= 1", ErrInvalidArgument, r.Leverage)
	}
	if !r.EntryPrice.IsPositive() {
		return fmt.Errorf("ledger: %w: entry price %s must be > 0", ErrInvalidArgument, r.EntryPrice)
	}
	if !r.Size.IsPositive() {
		return fmt.Errorf("ledger: %w: size %s must be > 0", ErrInvalidArgument, r.Size)
	}
	return nil
}

// OpenPosition opens a new leveraged position and persists the portfolio.
// No cash is withdrawn at open: margin is notional in this simulator and the
// balance only moves by realized PnL at close.
func (l *Ledger) OpenPosition(ctx context.Context, req OpenRequest) (domain.Position, error) {
	if err := req.validate(); err != nil {
		return domain.Position{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.load(ctx, "OpenPosition")
	if err != nil {
		return domain.Position{}, err
	}

	pos := domain.Position{
		ID:         l.newID(),
		Symbol:     req.Symbol,
		Direction:  req.Direction,
		EntryPrice: req.EntryPrice,
		Size:       req.Size,
		Leverage:   req.Leverage,
		TakeProfit: req.TakeProfit,
		StopLoss:   req.StopLoss,
		Confidence: req.Confidence,
		Reasoning:  req.Reasoning,
		OpenedAt:   l.now(),
	}
	pos.Mark(req.EntryPrice)
	p.Positions = append(p.Positions, pos)

	if err := l.save(ctx, "OpenPosition", p); err != nil {
		return domain.Position{}, err
	}

	slog.Info("position opened",
		"id", pos.ID, "symbol", pos.Symbol, "direction", pos.Direction,
		"entry", pos.EntryPrice, "size", pos.Size, "leverage", pos.Leverage)
	return pos, nil
}

// ClosePosition closes an open position at closePrice, credits the realized
// PnL to the balance, and appends the trade to the history.
func (l *Ledger) ClosePosition(ctx context.Context, positionID string, closePrice decimal.Decimal) (domain.ClosedTrade, error) {
	if !closePrice.IsPositive() {
		return domain.ClosedTrade{}, fmt.Errorf("ledger: %w: close price %s must be > 0", ErrInvalidArgument, closePrice)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.load(ctx, "ClosePosition")
	if err != nil {
		return domain.ClosedTrade{}, err
	}

	idx := p.FindPosition(positionID)
	if idx < 0 {
		return domain.ClosedTrade{}, fmt.Errorf("ledger: %w: %s", ErrNotFound, positionID)
	}

	trade := l.closeAt(&p, idx, closePrice, domain.CloseManual)

	if err := l.save(ctx, "ClosePosition", p); err != nil {
		return domain.ClosedTrade{}, err
	}

	slog.Info("position closed",
		"id", trade.ID, "symbol", trade.Symbol, "reason", trade.CloseReason,
		"close", trade.ClosePrice, "pnl", trade.RealizedPnL)
	return trade, nil
}

// UpdatePositions re-marks every open position whose symbol has a price and
// auto-closes those whose TP/SL triggered, stop-loss first. Positions with
// no price in the map are left untouched. All mutations persist once.
func (l *Ledger) UpdatePositions(ctx context.Context, prices map[string]decimal.Decimal) ([]domain.ClosedTrade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.load(ctx, "UpdatePositions")
	if err != nil {
		return nil, err
	}

	var closed []domain.ClosedTrade
	// Walk backwards so closing (which removes by index) can't skip entries.
	for i := len(p.Positions) - 1; i >= 0; i-- {
		price, ok := prices[p.Positions[i].Symbol]
		if !ok || !price.IsPositive() {
			continue
		}
		p.Positions[i].Mark(price)
		if reason, hit := p.Positions[i].ExitTrigger(price); hit {
			closed = append(closed, l.closeAt(&p, i, price, reason))
		}
	}
	// Restore chronological close order (backwards walk reversed it).
	for i, j := 0, len(closed)-1; i < j; i, j = i+1, j-1 {
		closed[i], closed[j] = closed[j], closed[i]
	}

	if err := l.save(ctx, "UpdatePositions", p); err != nil {
		return nil, err
	}

	for _, t := range closed {
		slog.Info("position auto-closed",
			"id", t.ID, "symbol", t.Symbol, "reason", t.CloseReason, "pnl", t.RealizedPnL)
	}
	return closed, nil
}

// Portfolio returns a snapshot of the current ledger state.
func (l *Ledger) Portfolio(ctx context.Context) (domain.Portfolio, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.load(ctx, "Portfolio")
}

// Stats returns the aggregate performance statistics.
func (l *Ledger) Stats(ctx context.Context) (domain.Stats, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, err := l.load(ctx, "Stats")
	if err != nil {
		return domain.Stats{}, err
	}
	return p.ComputeStats(), nil
}

// Reset discards all open positions and history and refunds the portfolio
// to initialBalance. Irreversible.
func (l *Ledger) Reset(ctx context.Context, initialBalance decimal.Decimal) (domain.Portfolio, error) {
	if initialBalance.IsZero() {
		initialBalance = l.cfg.InitialBalance
	}
	if !initialBalance.IsPositive() {
		return domain.Portfolio{}, fmt.Errorf("ledger: %w: initial balance %s must be > 0", ErrInvalidArgument, initialBalance)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p := domain.NewPortfolio(initialBalance)
	if err := l.save(ctx, "Reset", p); err != nil {
		return domain.Portfolio{}, err
	}

	slog.Info("portfolio reset", "initial_balance", initialBalance)
	return p, nil
}

// Performance summarizes the trade history per symbol for the advisory
// prompt: overall win rate plus the most recent outcomes per symbol.
func (l *Ledger) Performance(ctx context.Context) (domain.PerformanceContext, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, err := l.load(ctx, "Performance")
	if err != nil {
		return domain.PerformanceContext{}, err
	}

	perf := domain.PerformanceContext{
		TotalClosedTrades: len(p.History),
		PerSymbol:         make(map[string]domain.SymbolPerformance),
	}
	if len(p.History) == 0 {
		return perf, nil
	}
	perf.HasHistory = true

	wins := 0
	for _, t := range p.History {
		sym := perf.PerSymbol[t.Symbol]
		sym.Trades++
		if t.WasProfitable {
			wins++
			sym.WinRate++ // running win count, normalized below
		}
		pct, _ := t.RealizedPnLPercent.Float64()
		sym.Recent = append(sym.Recent, domain.TradeOutcome{
			Direction:   t.Direction,
			CloseReason: t.CloseReason,
			PnLPercent:  pct,
		})
		if len(sym.Recent) > recentOutcomes {
			sym.Recent = sym.Recent[len(sym.Recent)-recentOutcomes:]
		}
		perf.PerSymbol[t.Symbol] = sym
	}
	perf.OverallWinRate = float64(wins) / float64(len(p.History)) * 100
	for symbol, sym := range perf.PerSymbol {
		sym.WinRate = sym.WinRate / float64(sym.Trades) * 100
		perf.PerSymbol[symbol] = sym
	}
	return perf, nil
}

// closeAt removes the position at idx, appends the closed trade, and credits
// the realized PnL. Callers hold the write lock and persist afterwards.
func (l *Ledger) closeAt(p *domain.Portfolio, idx int, closePrice decimal.Decimal, reason domain.CloseReason) domain.ClosedTrade {
	trade := p.Positions[idx].Close(closePrice, reason, l.now())
	p.Positions = append(p.Positions[:idx], p.Positions[idx+1:]...)
	p.History = append(p.History, trade)
	p.Balance = p.Balance.Add(trade.RealizedPnL)
	return trade
}

func (l *Ledger) load(ctx context.Context, op string) (domain.Portfolio, error) {
	p, err := l.store.Load(ctx)
	if err != nil {
		return domain.Portfolio{}, fmt.Errorf("ledger.%s: load: %w: %w", op, ErrPersistence, err)
	}
	return p, nil
}

func (l *Ledger) save(ctx context.Context, op string, p domain.Portfolio) error {
	if err := l.store.Save(ctx, p); err != nil {
		return fmt.Errorf("ledger.%s: save: %w: %w", op, ErrPersistence, err)
	}
	return nil
}
