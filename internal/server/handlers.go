package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/dmaranges/cryptopilot/internal/domain"
	"github.com/dmaranges/cryptopilot/internal/ledger"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.deps.Prices.Prices(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quotes)
}

func (s *Server) handleMonitor(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.deps.Monitor.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snapshot, err := s.deps.Monitor.Snapshot(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	analysis, err := s.deps.Analyzer.Analyze(ctx, snapshot)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"monitor":  snapshot,
		"analysis": analysis,
	})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snapshot, err := s.deps.Monitor.Snapshot(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	analysis, err := s.deps.Analyzer.Analyze(ctx, snapshot)
	if err != nil {
		writeError(w, err)
		return
	}
	perf, err := s.deps.Book.Performance(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	advice, err := s.deps.Advisor.Recommend(ctx, snapshot, analysis, perf)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"monitor":         snapshot,
		"analysis":        analysis,
		"recommendations": advice,
	})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Cycler.RunOnce(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Book.Portfolio(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Book.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type openRequest struct {
	Symbol     string          `json:"symbol"`
	Direction  string          `json:"direction"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	Size       decimal.Decimal `json:"size"`
	Leverage   int             `json:"leverage"`
	TakeProfit decimal.Decimal `json:"take_profit_price"`
	StopLoss   decimal.Decimal `json:"stop_loss_price"`
	Confidence int             `json:"confidence"`
	Reasoning  string          `json:"reasoning"`
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	pos, err := s.deps.Book.OpenPosition(r.Context(), ledger.OpenRequest{
		Symbol:     req.Symbol,
		Direction:  domain.Direction(req.Direction),
		EntryPrice: req.EntryPrice,
		Size:       req.Size,
		Leverage:   req.Leverage,
		TakeProfit: req.TakeProfit,
		StopLoss:   req.StopLoss,
		Confidence: req.Confidence,
		Reasoning:  req.Reasoning,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pos)
}

type closeRequest struct {
	PositionID string              `json:"position_id"`
	ClosePrice decimal.NullDecimal `json:"close_price"`
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	var req closeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	closePrice := req.ClosePrice.Decimal
	if !req.ClosePrice.Valid || !closePrice.IsPositive() {
		// No price given: close at the live market price.
		price, err := s.livePriceFor(r, req.PositionID)
		if err != nil {
			writeError(w, err)
			return
		}
		closePrice = price
	}

	trade, err := s.deps.Book.ClosePosition(r.Context(), req.PositionID, closePrice)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trade)
}

// livePriceFor resolves the current market price of the symbol behind an
// open position.
func (s *Server) livePriceFor(r *http.Request, positionID string) (decimal.Decimal, error) {
	p, err := s.deps.Book.Portfolio(r.Context())
	if err != nil {
		return decimal.Zero, err
	}
	idx := p.FindPosition(positionID)
	if idx < 0 {
		return decimal.Zero, ledger.ErrNotFound
	}

	quotes, err := s.deps.Prices.Prices(r.Context())
	if err != nil {
		return decimal.Zero, err
	}
	quote, ok := quotes[p.Positions[idx].Symbol]
	if !ok {
		return decimal.Zero, ledger.ErrMissingPrice
	}
	return quote.Price, nil
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	closed, err := s.deps.Cycler.UpdateOnce(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"closed_positions": closed,
		"closed_count":     len(closed),
	})
}

type resetRequest struct {
	InitialBalance decimal.NullDecimal `json:"initial_balance"`
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
	}

	p, err := s.deps.Book.Reset(r.Context(), req.InitialBalance.Decimal)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps the ledger error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrInvalidArgument), errors.Is(err, ledger.ErrMissingPrice):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrNotFound):
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
