package monitor

import (
	"fmt"
	"math"

	talib "github.com/markcheno/go-talib"

	"github.com/dmaranges/cryptopilot/internal/domain"
)

const (
	rsiPeriod  = 14
	bbPeriod   = 20
	bbStdDev   = 2.0
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9

	// Slow MACD EMA plus its signal EMA need this much history before the
	// tail values stop being warm-up noise.
	minSamples = macdSlow + macdSignal
)

// ComputeIndicators derives the technical indicator set from a daily price
// series, newest sample last.
func ComputeIndicators(symbol string, points []domain.PricePoint) (domain.Indicators, error) {
	if len(points) < minSamples {
		return domain.Indicators{}, fmt.Errorf("monitor.ComputeIndicators: %s: need %d samples, have %d",
			symbol, minSamples, len(points))
	}

	closes := make([]float64, len(points))
	for i, p := range points {
		closes[i] = p.Price
	}
	current := closes[len(closes)-1]

	ind := domain.Indicators{Symbol: symbol}

	rsi := talib.Rsi(closes, rsiPeriod)
	ind.RSI = round(last(rsi), 2)
	switch {
	case ind.RSI >= 70:
		ind.RSISignal = "overbought"
	case ind.RSI <= 30:
		ind.RSISignal = "oversold"
	default:
		ind.RSISignal = "neutral"
	}

	macdLine, signalLine, histogram := talib.Macd(closes, macdFast, macdSlow, macdSignal)
	ind.MACD = domain.MACDValues{
		MACD:      round(last(macdLine), 4),
		Signal:    round(last(signalLine), 4),
		Histogram: round(last(histogram), 4),
	}
	if ind.MACD.Histogram > 0 {
		ind.MACDSignal = "bullish"
	} else {
		ind.MACDSignal = "bearish"
	}
	ind.MACDCrossover = macdCrossover(macdLine)

	upper, middle, lower := talib.BBands(closes, bbPeriod, bbStdDev, bbStdDev, 0)
	bb := domain.BollingerBands{
		Upper:  round(last(upper), 2),
		Middle: round(last(middle), 2),
		Lower:  round(last(lower), 2),
	}
	if bb.Middle != 0 {
		bb.WidthPercent = round((bb.Upper-bb.Lower)/bb.Middle*100, 2)
	}
	ind.Bollinger = bb
	ind.BBSignal = bbSignal(current, bb)

	ind.EMA9 = round(last(talib.Ema(closes, 9)), 2)
	ind.EMA21 = round(last(talib.Ema(closes, 21)), 2)
	if ind.EMA9 > ind.EMA21 {
		ind.EMACrossover = "bullish"
	} else {
		ind.EMACrossover = "bearish"
	}

	ind.MomentumTrend = momentumTrend(closes)
	return ind, nil
}

// macdCrossover reports whether the MACD line crossed zero between the last
// two samples.
func macdCrossover(macdLine []float64) string {
	if len(macdLine) < 2 {
		return "no_cross"
	}
	prev, curr := macdLine[len(macdLine)-2], macdLine[len(macdLine)-1]
	switch {
	case prev <= 0 && curr > 0:
		return "bullish_crossover"
	case prev >= 0 && curr < 0:
		return "bearish_crossover"
	default:
		return "no_cross"
	}
}

// bbSignal describes where the current price sits relative to the bands.
func bbSignal(current float64, bb domain.BollingerBands) string {
	switch {
	case current > bb.Upper:
		return "overbought (above upper band)"
	case current < bb.Lower:
		return "oversold (below lower band)"
	}
	bandRange := bb.Upper - bb.Lower
	position := 50.0
	if bandRange > 0 {
		position = (current - bb.Lower) / bandRange * 100
	}
	return fmt.Sprintf("in_band (%.0f%% from lower)", position)
}

// momentumTrend compares the price move of the last seven samples against
// the seven before them.
func momentumTrend(closes []float64) string {
	if len(closes) < 14 {
		return "stable"
	}
	recent := closes[len(closes)-7:]
	prior := closes[len(closes)-14 : len(closes)-7]

	recentChange := (recent[6] - recent[0]) / recent[0] * 100
	priorChange := (prior[6] - prior[0]) / prior[0] * 100

	switch {
	case math.Abs(recentChange) > math.Abs(priorChange)*1.5:
		return "accelerating"
	case math.Abs(recentChange) < math.Abs(priorChange)*0.5:
		return "decelerating"
	default:
		return "stable"
	}
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}

func round(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
