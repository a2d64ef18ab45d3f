package domain

import "github.com/shopspring/decimal"

// Portfolio is the aggregate ledger state: cash balance, open positions and
// the closed-trade history (oldest first). It is read fully before each
// mutation and written fully after.
type Portfolio struct {
	Balance        decimal.Decimal `json:"balance"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	Positions      []Position      `json:"positions"`
	History        []ClosedTrade   `json:"history"`
}

// NewPortfolio returns an empty portfolio funded with initialBalance.
func NewPortfolio(initialBalance decimal.Decimal) Portfolio {
	return Portfolio{
		Balance:        initialBalance,
		InitialBalance: initialBalance,
	}
}

// FindPosition returns the index of the open position with the given id,
// or -1 if it is not in the book.
func (p Portfolio) FindPosition(id string) int {
	for i := range p.Positions {
		if p.Positions[i].ID == id {
			return i
		}
	}
	return -1
}

// HasOpenPosition reports whether a position for symbol is already open.
func (p Portfolio) HasOpenPosition(symbol string) bool {
	for i := range p.Positions {
		if p.Positions[i].Symbol == symbol {
			return true
		}
	}
	return false
}

// Stats aggregates realized performance over the closed-trade history.
type Stats struct {
	TotalTrades        int             `json:"total_trades"`
	WinningTrades      int             `json:"winning_trades"`
	LosingTrades       int             `json:"losing_trades"`
	WinRate            float64         `json:"win_rate"` // percent, 0 with no trades
	TotalPnL           decimal.Decimal `json:"total_pnl"`
	CurrentBalance     decimal.Decimal `json:"current_balance"`
	InitialBalance     decimal.Decimal `json:"initial_balance"`
	TotalReturnPercent decimal.Decimal `json:"total_return_percent"`
	OpenPositions      int             `json:"open_positions"`
}

// ComputeStats derives the performance stats from the portfolio state.
func (p Portfolio) ComputeStats() Stats {
	s := Stats{
		TotalTrades:    len(p.History),
		CurrentBalance: p.Balance,
		InitialBalance: p.InitialBalance,
		TotalPnL:       decimal.Zero,
		OpenPositions:  len(p.Positions),
	}
	for _, t := range p.History {
		if t.WasProfitable {
			s.WinningTrades++
		}
		s.TotalPnL = s.TotalPnL.Add(t.RealizedPnL)
	}
	s.LosingTrades = s.TotalTrades - s.WinningTrades
	if s.TotalTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades) * 100
	}
	s.TotalReturnPercent = decimal.Zero
	if p.InitialBalance.IsPositive() {
		s.TotalReturnPercent = p.Balance.Sub(p.InitialBalance).Div(p.InitialBalance).Mul(hundred)
	}
	return s
}
