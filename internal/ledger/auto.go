package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/dmaranges/cryptopilot/internal/domain"
)

// SkippedRecommendation explains why one item of an auto-execute batch did
// not open a position.
type SkippedRecommendation struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// ExecutionReport is the per-item outcome of one auto-execute batch.
type ExecutionReport struct {
	Opened  []domain.Position       `json:"opened"`
	Skipped []SkippedRecommendation `json:"skipped"`
}

// AutoExecute opens a position for every actionable recommendation. Rules:
//
//   - hold/wait and unknown actions are no-ops;
//   - at most one open position per symbol: recommendations for a symbol
//     already in the book are skipped, never stacked;
//   - entry price comes from the recommendation or, failing that, from the
//     prices map; with neither, the item is skipped with a missing-price
//     reason;
//   - leverage is clamped to [1, MaxLeverage]; absent TP/SL levels default
//     to the configured percentages around entry;
//   - size follows the allocation policy: the fixed notional if configured,
//     otherwise AllocationPercent of the current balance.
//
// A malformed item never aborts the batch: it is reported in Skipped. The
// portfolio is persisted once covering all opens.
func (l *Ledger) AutoExecute(ctx context.Context, recs []domain.Recommendation, prices map[string]decimal.Decimal) (*ExecutionReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.load(ctx, "AutoExecute")
	if err != nil {
		return nil, err
	}

	report := &ExecutionReport{}
	for _, rec := range recs {
		pos, skip := l.executeOne(&p, rec, prices)
		if skip != nil {
			report.Skipped = append(report.Skipped, *skip)
			continue
		}
		p.Positions = append(p.Positions, pos)
		report.Opened = append(report.Opened, pos)
	}

	if len(report.Opened) > 0 {
		if err := l.save(ctx, "AutoExecute", p); err != nil {
			return nil, err
		}
	}

	for _, s := range report.Skipped {
		slog.Debug("recommendation skipped", "symbol", s.Symbol, "reason", s.Reason)
	}
	slog.Info("auto-execute finished", "opened", len(report.Opened), "skipped", len(report.Skipped))
	return report, nil
}

// executeOne turns a single recommendation into a position, or a skip reason.
func (l *Ledger) executeOne(p *domain.Portfolio, rec domain.Recommendation, prices map[string]decimal.Decimal) (domain.Position, *SkippedRecommendation) {
	skip := func(format string, args ...any) (domain.Position, *SkippedRecommendation) {
		return domain.Position{}, &SkippedRecommendation{
			Symbol: rec.Symbol,
			Reason: fmt.Sprintf(format, args...),
		}
	}

	switch rec.Action {
	case domain.ActionLong, domain.ActionShort:
	case domain.ActionWait, domain.ActionHold:
		return skip("action %q is a no-op", rec.Action)
	default:
		return skip("unknown action %q", rec.Action)
	}
	if rec.Symbol == "" {
		return skip("missing symbol")
	}
	if p.HasOpenPosition(rec.Symbol) {
		return skip("position already open for %s", rec.Symbol)
	}

	entry := rec.EntryPrice
	if !entry.IsPositive() {
		entry = prices[rec.Symbol]
	}
	if !entry.IsPositive() {
		return skip("%v for %s", ErrMissingPrice, rec.Symbol)
	}

	leverage := rec.Leverage
	if leverage < 1 {
		leverage = 1
	}
	if leverage > l.cfg.MaxLeverage {
		leverage = l.cfg.MaxLeverage
	}

	size := l.cfg.AllocationNotional
	if !size.IsPositive() {
		size = p.Balance.Mul(l.cfg.AllocationPercent).Div(hundred)
	}
	if !size.IsPositive() {
		return skip("allocation for %s is zero (balance %s)", rec.Symbol, p.Balance)
	}

	tp, sl := rec.TakeProfit, rec.StopLoss
	if !tp.IsPositive() {
		tp = defaultLevel(entry, l.cfg.DefaultTPPercent, rec.Action == domain.ActionLong)
	}
	if !sl.IsPositive() {
		sl = defaultLevel(entry, l.cfg.DefaultSLPercent, rec.Action != domain.ActionLong)
	}

	pos := domain.Position{
		ID:         l.newID(),
		Symbol:     rec.Symbol,
		Direction:  domain.Direction(rec.Action),
		EntryPrice: entry,
		Size:       size,
		Leverage:   leverage,
		TakeProfit: tp,
		StopLoss:   sl,
		Confidence: rec.Confidence,
		Reasoning:  rec.Reasoning,
		OpenedAt:   l.now(),
	}
	pos.Mark(entry)
	return pos, nil
}

// defaultLevel places a threshold pct% above (up) or below entry.
func defaultLevel(entry, pct decimal.Decimal, up bool) decimal.Decimal {
	offset := entry.Mul(pct).Div(hundred)
	if up {
		return entry.Add(offset)
	}
	return entry.Sub(offset)
}
