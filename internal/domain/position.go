package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction of a leveraged position.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// Valid reports whether the direction is one of the two known values.
func (d Direction) Valid() bool {
	return d == DirectionLong || d == DirectionShort
}

// Sign returns +1 for long, -1 for short.
func (d Direction) Sign() decimal.Decimal {
	if d == DirectionShort {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// CloseReason records why a position left the book.
type CloseReason string

const (
	CloseManual     CloseReason = "manual"
	CloseTakeProfit CloseReason = "take_profit"
	CloseStopLoss   CloseReason = "stop_loss"
)

// Position is an open simulated leveraged trade. Entry terms are fixed at
// open time; the mark fields are recomputed on every price update.
type Position struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"`
	Direction  Direction       `json:"direction"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	Size       decimal.Decimal `json:"size"` // notional units
	Leverage   int             `json:"leverage"`
	TakeProfit decimal.Decimal `json:"take_profit_price"`
	StopLoss   decimal.Decimal `json:"stop_loss_price"`
	Confidence int             `json:"confidence"`
	Reasoning  string          `json:"reasoning,omitempty"`
	OpenedAt   time.Time       `json:"opened_at"`

	CurrentPrice         decimal.Decimal `json:"current_price"`
	UnrealizedPnL        decimal.Decimal `json:"unrealized_pnl"`
	UnrealizedPnLPercent decimal.Decimal `json:"unrealized_pnl_percent"`
}

var hundred = decimal.NewFromInt(100)

// PnLAt returns the profit-and-loss of the position marked at price:
//
//	pnl_percent = (price - entry) / entry * sign * leverage * 100
//	pnl         = pnl_percent / 100 * size
func (p Position) PnLAt(price decimal.Decimal) (pnl, pnlPercent decimal.Decimal) {
	deltaPct := price.Sub(p.EntryPrice).Div(p.EntryPrice)
	pnlPercent = deltaPct.Mul(p.Direction.Sign()).Mul(decimal.NewFromInt(int64(p.Leverage))).Mul(hundred)
	pnl = pnlPercent.Div(hundred).Mul(p.Size)
	return pnl, pnlPercent
}

// Mark updates the derived fields for the given market price.
func (p *Position) Mark(price decimal.Decimal) {
	p.CurrentPrice = price
	p.UnrealizedPnL, p.UnrealizedPnLPercent = p.PnLAt(price)
}

// ExitTrigger evaluates the TP/SL thresholds at price. The stop-loss is
// checked first so that a malformed bracket (both thresholds satisfied at
// once) always resolves to the capital-preserving exit.
func (p Position) ExitTrigger(price decimal.Decimal) (CloseReason, bool) {
	if p.Direction == DirectionLong {
		if price.LessThanOrEqual(p.StopLoss) {
			return CloseStopLoss, true
		}
		if price.GreaterThanOrEqual(p.TakeProfit) {
			return CloseTakeProfit, true
		}
		return "", false
	}
	if price.GreaterThanOrEqual(p.StopLoss) {
		return CloseStopLoss, true
	}
	if price.LessThanOrEqual(p.TakeProfit) {
		return CloseTakeProfit, true
	}
	return "", false
}

// Close freezes the position into an immutable ClosedTrade at closePrice.
func (p Position) Close(closePrice decimal.Decimal, reason CloseReason, closedAt time.Time) ClosedTrade {
	pnl, pnlPct := p.PnLAt(closePrice)
	return ClosedTrade{
		ID:                 p.ID,
		Symbol:             p.Symbol,
		Direction:          p.Direction,
		EntryPrice:         p.EntryPrice,
		ClosePrice:         closePrice,
		Size:               p.Size,
		Leverage:           p.Leverage,
		TakeProfit:         p.TakeProfit,
		StopLoss:           p.StopLoss,
		Confidence:         p.Confidence,
		Reasoning:          p.Reasoning,
		OpenedAt:           p.OpenedAt,
		ClosedAt:           closedAt,
		CloseReason:        reason,
		RealizedPnL:        pnl,
		RealizedPnLPercent: pnlPct,
		WasProfitable:      pnl.IsPositive(),
		HitTarget:          reason == CloseTakeProfit && pnl.IsPositive(),
	}
}

// ClosedTrade is the immutable record of a finished position.
type ClosedTrade struct {
	ID                 string          `json:"id"`
	Symbol             string          `json:"symbol"`
	Direction          Direction       `json:"direction"`
	EntryPrice         decimal.Decimal `json:"entry_price"`
	ClosePrice         decimal.Decimal `json:"close_price"`
	Size               decimal.Decimal `json:"size"`
	Leverage           int             `json:"leverage"`
	TakeProfit         decimal.Decimal `json:"take_profit_price"`
	StopLoss           decimal.Decimal `json:"stop_loss_price"`
	Confidence         int             `json:"confidence"`
	Reasoning          string          `json:"reasoning,omitempty"`
	OpenedAt           time.Time       `json:"opened_at"`
	ClosedAt           time.Time       `json:"closed_at"`
	CloseReason        CloseReason     `json:"close_reason"`
	RealizedPnL        decimal.Decimal `json:"realized_pnl"`
	RealizedPnLPercent decimal.Decimal `json:"realized_pnl_percent"`
	WasProfitable      bool            `json:"was_profitable"`
	HitTarget          bool            `json:"hit_target"`
}
