package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaranges/cryptopilot/internal/adapters/storage"
	"github.com/dmaranges/cryptopilot/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func makePosition(id, symbol string) domain.Position {
	pos := domain.Position{
		ID:         id,
		Symbol:     symbol,
		Direction:  domain.DirectionLong,
		EntryPrice: dec("50000"),
		Size:       dec("1000"),
		Leverage:   5,
		TakeProfit: dec("55000"),
		StopLoss:   dec("45000"),
		Confidence: 75,
		Reasoning:  "breakout above resistance",
		OpenedAt:   time.Now().UTC().Truncate(time.Second),
	}
	pos.Mark(dec("51000"))
	return pos
}

func TestSQLiteStore_SeedsFreshPortfolio(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:", dec("10000"))
	require.NoError(t, err)
	defer db.Close()

	p, err := db.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, dec("10000").Equal(p.Balance))
	assert.True(t, dec("10000").Equal(p.InitialBalance))
	assert.Empty(t, p.Positions)
	assert.Empty(t, p.History)
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:", dec("10000"))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	p, err := db.Load(ctx)
	require.NoError(t, err)

	pos := makePosition("pos-1", "BTC")
	trade := makePosition("pos-0", "ETH").Close(dec("52000"), domain.CloseTakeProfit, time.Now().UTC().Truncate(time.Second))

	p.Balance = dec("10040")
	p.Positions = append(p.Positions, pos)
	p.History = append(p.History, trade)
	require.NoError(t, db.Save(ctx, p))

	got, err := db.Load(ctx)
	require.NoError(t, err)

	assert.True(t, dec("10040").Equal(got.Balance))
	require.Len(t, got.Positions, 1)
	gp := got.Positions[0]
	assert.Equal(t, pos.ID, gp.ID)
	assert.Equal(t, pos.Symbol, gp.Symbol)
	assert.Equal(t, pos.Direction, gp.Direction)
	assert.Equal(t, pos.Leverage, gp.Leverage)
	assert.Equal(t, pos.Confidence, gp.Confidence)
	assert.Equal(t, pos.Reasoning, gp.Reasoning)
	assert.True(t, pos.EntryPrice.Equal(gp.EntryPrice))
	assert.True(t, pos.UnrealizedPnL.Equal(gp.UnrealizedPnL))
	assert.True(t, pos.OpenedAt.Equal(gp.OpenedAt))

	require.Len(t, got.History, 1)
	gt := got.History[0]
	assert.Equal(t, trade.ID, gt.ID)
	assert.Equal(t, domain.CloseTakeProfit, gt.CloseReason)
	assert.True(t, trade.RealizedPnL.Equal(gt.RealizedPnL))
	assert.Equal(t, trade.WasProfitable, gt.WasProfitable)
	assert.Equal(t, trade.HitTarget, gt.HitTarget)
}

func TestSQLiteStore_HistoryOrderSurvivesRewrite(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:", dec("10000"))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	p, err := db.Load(ctx)
	require.NoError(t, err)

	closedAt := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"t-1", "t-2", "t-3"} {
		trade := makePosition(id, "BTC").Close(dec("52000"), domain.CloseManual, closedAt.Add(time.Duration(i)*time.Minute))
		p.History = append(p.History, trade)
		require.NoError(t, db.Save(ctx, p))
	}

	got, err := db.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.History, 3)
	assert.Equal(t, "t-1", got.History[0].ID)
	assert.Equal(t, "t-2", got.History[1].ID)
	assert.Equal(t, "t-3", got.History[2].ID)
}

func TestSQLiteStore_ReopenKeepsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.db")

	db, err := storage.NewSQLiteStore(path, dec("10000"))
	require.NoError(t, err)

	ctx := context.Background()
	p, err := db.Load(ctx)
	require.NoError(t, err)
	p.Balance = dec("12345.67")
	require.NoError(t, db.Save(ctx, p))
	require.NoError(t, db.Close())

	// Reopening must not re-seed the singleton row.
	db, err = storage.NewSQLiteStore(path, dec("99999"))
	require.NoError(t, err)
	defer db.Close()

	got, err := db.Load(ctx)
	require.NoError(t, err)
	assert.True(t, dec("12345.67").Equal(got.Balance))
	assert.True(t, dec("10000").Equal(got.InitialBalance))
}
