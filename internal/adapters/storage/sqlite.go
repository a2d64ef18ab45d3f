package storage

// sqlite.go: durable portfolio state.
//
// Layout:
//   - `portfolio`: a single row (id=1) holding the cash balances. Seeded on
//     first open so Load never has a "no state yet" case.
//   - `positions`: one row per open position, replaced wholesale on Save.
//   - `trade_history`: append-only closed trades; `seq` preserves close
//     order across reloads.
//
// Money columns are TEXT holding decimal strings; REAL would silently
// round and break exact balance accounting.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/dmaranges/cryptopilot/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS portfolio (
    id              INTEGER PRIMARY KEY CHECK (id = 1),
    balance         TEXT     NOT NULL,
    initial_balance TEXT     NOT NULL,
    updated_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS positions (
    id                TEXT PRIMARY KEY,
    symbol            TEXT    NOT NULL,
    direction         TEXT    NOT NULL,
    entry_price       TEXT    NOT NULL,
    size              TEXT    NOT NULL,
    leverage          INTEGER NOT NULL,
    take_profit       TEXT    NOT NULL,
    stop_loss         TEXT    NOT NULL,
    confidence        INTEGER NOT NULL DEFAULT 0,
    reasoning         TEXT    NOT NULL DEFAULT '',
    opened_at         DATETIME NOT NULL,
    current_price     TEXT    NOT NULL,
    unrealized_pnl    TEXT    NOT NULL,
    unrealized_pct    TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS trade_history (
    seq             INTEGER PRIMARY KEY AUTOINCREMENT,
    id              TEXT    NOT NULL,
    symbol          TEXT    NOT NULL,
    direction       TEXT    NOT NULL,
    entry_price     TEXT    NOT NULL,
    close_price     TEXT    NOT NULL,
    size            TEXT    NOT NULL,
    leverage        INTEGER NOT NULL,
    take_profit     TEXT    NOT NULL,
    stop_loss       TEXT    NOT NULL,
    confidence      INTEGER NOT NULL DEFAULT 0,
    reasoning       TEXT    NOT NULL DEFAULT '',
    opened_at       DATETIME NOT NULL,
    closed_at       DATETIME NOT NULL,
    close_reason    TEXT    NOT NULL,
    realized_pnl    TEXT    NOT NULL,
    realized_pct    TEXT    NOT NULL,
    was_profitable  INTEGER NOT NULL,
    hit_target      INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_positions_symbol ON positions(symbol);
CREATE INDEX IF NOT EXISTS idx_history_symbol   ON trade_history(symbol);
CREATE INDEX IF NOT EXISTS idx_history_closed   ON trade_history(closed_at DESC);
`

// SQLiteStore implements ports.PortfolioStore using SQLite (pure Go, no CGo).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at the given DSN, applies
// the schema, and seeds the portfolio row with initialBalance if none exists.
func NewSQLiteStore(dsn string, initialBalance decimal.Decimal) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", dsn, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}

	if _, err := db.Exec(
		`INSERT OR IGNORE INTO portfolio (id, balance, initial_balance, updated_at) VALUES (1, ?, ?, ?)`,
		initialBalance.String(), initialBalance.String(), time.Now().UTC(),
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: seed portfolio: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Load reads the whole portfolio: balances, open positions, and the full
// trade history in close order.
func (s *SQLiteStore) Load(ctx context.Context) (domain.Portfolio, error) {
	var p domain.Portfolio
	var balance, initial string
	err := s.db.QueryRowContext(ctx,
		`SELECT balance, initial_balance FROM portfolio WHERE id = 1`,
	).Scan(&balance, &initial)
	if err != nil {
		return domain.Portfolio{}, fmt.Errorf("storage.Load: portfolio row: %w", err)
	}
	if p.Balance, err = decimal.NewFromString(balance); err != nil {
		return domain.Portfolio{}, fmt.Errorf("storage.Load: parse balance %q: %w", balance, err)
	}
	if p.InitialBalance, err = decimal.NewFromString(initial); err != nil {
		return domain.Portfolio{}, fmt.Errorf("storage.Load: parse initial balance %q: %w", initial, err)
	}

	if p.Positions, err = s.loadPositions(ctx); err != nil {
		return domain.Portfolio{}, err
	}
	if p.History, err = s.loadHistory(ctx); err != nil {
		return domain.Portfolio{}, err
	}
	return p, nil
}

// Save replaces the stored state with p in a single transaction. Positions
// and history are rewritten wholesale; the book is small enough that diffing
// is not worth the bookkeeping.
func (s *SQLiteStore) Save(ctx context.Context, p domain.Portfolio) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.Save: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE portfolio SET balance = ?, initial_balance = ?, updated_at = ? WHERE id = 1`,
		p.Balance.String(), p.InitialBalance.String(), time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("storage.Save: update portfolio: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM positions`); err != nil {
		return fmt.Errorf("storage.Save: clear positions: %w", err)
	}
	for _, pos := range p.Positions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO positions
				(id, symbol, direction, entry_price, size, leverage, take_profit,
				 stop_loss, confidence, reasoning, opened_at, current_price,
				 unrealized_pnl, unrealized_pct)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			pos.ID, pos.Symbol, string(pos.Direction),
			pos.EntryPrice.String(), pos.Size.String(), pos.Leverage,
			pos.TakeProfit.String(), pos.StopLoss.String(),
			pos.Confidence, pos.Reasoning, pos.OpenedAt.UTC(),
			pos.CurrentPrice.String(), pos.UnrealizedPnL.String(),
			pos.UnrealizedPnLPercent.String(),
		); err != nil {
			return fmt.Errorf("storage.Save: insert position %s: %w", pos.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM trade_history`); err != nil {
		return fmt.Errorf("storage.Save: clear history: %w", err)
	}
	for _, t := range p.History {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO trade_history
				(id, symbol, direction, entry_price, close_price, size, leverage,
				 take_profit, stop_loss, confidence, reasoning, opened_at,
				 closed_at, close_reason, realized_pnl, realized_pct,
				 was_profitable, hit_target)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Symbol, string(t.Direction),
			t.EntryPrice.String(), t.ClosePrice.String(), t.Size.String(),
			t.Leverage, t.TakeProfit.String(), t.StopLoss.String(),
			t.Confidence, t.Reasoning, t.OpenedAt.UTC(), t.ClosedAt.UTC(),
			string(t.CloseReason), t.RealizedPnL.String(),
			t.RealizedPnLPercent.String(), boolInt(t.WasProfitable), boolInt(t.HitTarget),
		); err != nil {
			return fmt.Errorf("storage.Save: insert trade %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.Save: commit: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) loadPositions(ctx context.Context) ([]domain.Position, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, symbol, direction, entry_price, size, leverage, take_profit,
		       stop_loss, confidence, reasoning, opened_at, current_price,
		       unrealized_pnl, unrealized_pct
		FROM positions
		ORDER BY opened_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage.Load: query positions: %w", err)
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		var pos domain.Position
		var direction string
		var entry, size, tp, sl, current, pnl, pct string

		if err := rows.Scan(
			&pos.ID, &pos.Symbol, &direction, &entry, &size, &pos.Leverage,
			&tp, &sl, &pos.Confidence, &pos.Reasoning, &pos.OpenedAt,
			&current, &pnl, &pct,
		); err != nil {
			return nil, fmt.Errorf("storage.Load: scan position: %w", err)
		}

		pos.Direction = domain.Direction(direction)
		if err := parseDecimals(map[string]*decimalField{
			"entry_price":    {entry, &pos.EntryPrice},
			"size":           {size, &pos.Size},
			"take_profit":    {tp, &pos.TakeProfit},
			"stop_loss":      {sl, &pos.StopLoss},
			"current_price":  {current, &pos.CurrentPrice},
			"unrealized_pnl": {pnl, &pos.UnrealizedPnL},
			"unrealized_pct": {pct, &pos.UnrealizedPnLPercent},
		}); err != nil {
			return nil, fmt.Errorf("storage.Load: position %s: %w", pos.ID, err)
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

func (s *SQLiteStore) loadHistory(ctx context.Context) ([]domain.ClosedTrade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, symbol, direction, entry_price, close_price, size, leverage,
		       take_profit, stop_loss, confidence, reasoning, opened_at,
		       closed_at, close_reason, realized_pnl, realized_pct,
		       was_profitable, hit_target
		FROM trade_history
		ORDER BY seq`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage.Load: query history: %w", err)
	}
	defer rows.Close()

	var history []domain.ClosedTrade
	for rows.Next() {
		var t domain.ClosedTrade
		var direction, reason string
		var entry, closePrice, size, tp, sl, pnl, pct string
		var profitable, hitTarget int

		if err := rows.Scan(
			&t.ID, &t.Symbol, &direction, &entry, &closePrice, &size,
			&t.Leverage, &tp, &sl, &t.Confidence, &t.Reasoning,
			&t.OpenedAt, &t.ClosedAt, &reason, &pnl, &pct,
			&profitable, &hitTarget,
		); err != nil {
			return nil, fmt.Errorf("storage.Load: scan trade: %w", err)
		}

		t.Direction = domain.Direction(direction)
		t.CloseReason = domain.CloseReason(reason)
		t.WasProfitable = profitable == 1
		t.HitTarget = hitTarget == 1
		if err := parseDecimals(map[string]*decimalField{
			"entry_price":  {entry, &t.EntryPrice},
			"close_price":  {closePrice, &t.ClosePrice},
			"size":         {size, &t.Size},
			"take_profit":  {tp, &t.TakeProfit},
			"stop_loss":    {sl, &t.StopLoss},
			"realized_pnl": {pnl, &t.RealizedPnL},
			"realized_pct": {pct, &t.RealizedPnLPercent},
		}); err != nil {
			return nil, fmt.Errorf("storage.Load: trade %s: %w", t.ID, err)
		}
		history = append(history, t)
	}
	return history, rows.Err()
}

// --- helpers ---

type decimalField struct {
	raw string
	dst *decimal.Decimal
}

func parseDecimals(fields map[string]*decimalField) error {
	for col, f := range fields {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return fmt.Errorf("parse %s %q: %w", col, f.raw, err)
		}
		*f.dst = d
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
