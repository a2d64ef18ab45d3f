package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaranges/cryptopilot/internal/domain"
)

func series(prices ...float64) []domain.PricePoint {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]domain.PricePoint, len(prices))
	for i, p := range prices {
		points[i] = domain.PricePoint{Timestamp: base.AddDate(0, 0, i), Price: p}
	}
	return points
}

func ramp(n int, start, step float64) []domain.PricePoint {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = start + float64(i)*step
	}
	return series(prices...)
}

func TestComputeIndicators_InsufficientHistory(t *testing.T) {
	_, err := ComputeIndicators("BTC", ramp(20, 100, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "need")
}

func TestComputeIndicators_Uptrend(t *testing.T) {
	ind, err := ComputeIndicators("BTC", ramp(60, 100, 1))
	require.NoError(t, err)

	assert.Equal(t, "BTC", ind.Symbol)
	// Monotonic rise: no losing days.
	assert.InDelta(t, 100, ind.RSI, 0.001)
	assert.Equal(t, "overbought", ind.RSISignal)
	assert.Positive(t, ind.MACD.MACD)
	assert.Equal(t, "bullish", ind.EMACrossover)
	assert.Greater(t, ind.EMA9, ind.EMA21)
	assert.Greater(t, ind.Bollinger.Upper, ind.Bollinger.Lower)
	assert.NotEmpty(t, ind.BBSignal)
	// Constant slope: recent momentum equals prior momentum.
	assert.Equal(t, "stable", ind.MomentumTrend)
}

func TestComputeIndicators_Downtrend(t *testing.T) {
	ind, err := ComputeIndicators("ETH", ramp(60, 200, -1))
	require.NoError(t, err)

	assert.InDelta(t, 0, ind.RSI, 0.001)
	assert.Equal(t, "oversold", ind.RSISignal)
	assert.Negative(t, ind.MACD.MACD)
	assert.Equal(t, "bearish", ind.EMACrossover)
}

func TestMomentumTrend(t *testing.T) {
	flat := []float64{100, 100, 100, 100, 100, 100, 100}
	surge := []float64{100, 103, 106, 109, 112, 115, 120}

	accelerating := append(append([]float64{}, flat...), surge...)
	assert.Equal(t, "accelerating", momentumTrend(accelerating))

	decelerating := append(append([]float64{}, surge...), surge[6], surge[6], surge[6], surge[6], surge[6], surge[6], surge[6])
	assert.Equal(t, "decelerating", momentumTrend(decelerating))

	assert.Equal(t, "stable", momentumTrend(flat))
}

func TestBBSignal(t *testing.T) {
	bb := domain.BollingerBands{Lower: 90, Middle: 100, Upper: 110}
	assert.Equal(t, "overbought (above upper band)", bbSignal(115, bb))
	assert.Equal(t, "oversold (below lower band)", bbSignal(85, bb))
	assert.Equal(t, "in_band (50% from lower)", bbSignal(100, bb))
}

func TestMACDCrossover(t *testing.T) {
	assert.Equal(t, "bullish_crossover", macdCrossover([]float64{-0.5, 0.2}))
	assert.Equal(t, "bearish_crossover", macdCrossover([]float64{0.5, -0.2}))
	assert.Equal(t, "no_cross", macdCrossover([]float64{0.5, 0.2}))
	assert.Equal(t, "no_cross", macdCrossover([]float64{0.3}))
}
