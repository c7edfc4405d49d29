package strategy

import "obsidian/internal/market"

// TrendLabel is the coarse market-structure classification of a
// higher-timeframe series.
type TrendLabel int

const (
	TrendSideways TrendLabel = iota
	TrendUp
	TrendDown
)

func (t TrendLabel) String() string {
	switch t {
	case TrendUp:
		return "UPTREND"
	case TrendDown:
		return "DOWNTREND"
	default:
		return "SIDEWAYS"
	}
}

const (
	minTrendCandles  = 20
	trendPeakSpacing = 5
	trendPeakWidth   = 3
)

// ClassifyTrend labels market structure from swing highs and swing lows:
// higher highs plus higher lows is an uptrend, lower highs plus lower lows a
// downtrend, anything else sideways. Series too short to carry at least two
// swings on each side classify as sideways; the function never fails.
func ClassifyTrend(cs market.Candles) (label TrendLabel) {
	defer func() {
		if recover() != nil {
			label = TrendSideways
		}
	}()

	if len(cs) < minTrendCandles {
		return TrendSideways
	}

	highPeaks := findPeaks(cs.Highs(), trendPeakSpacing, trendPeakWidth)
	lows := cs.Lows()
	inverted := make([]float64, len(lows))
	for i, v := range lows {
		inverted[i] = -v
	}
	lowPeaks := findPeaks(inverted, trendPeakSpacing, trendPeakWidth)

	if len(highPeaks) < 2 || len(lowPeaks) < 2 {
		return TrendSideways
	}

	highs := cs.Highs()
	lastHigh := highs[highPeaks[len(highPeaks)-1]]
	prevHigh := highs[highPeaks[len(highPeaks)-2]]
	lastLow := lows[lowPeaks[len(lowPeaks)-1]]
	prevLow := lows[lowPeaks[len(lowPeaks)-2]]

	switch {
	case lastHigh > prevHigh && lastLow > prevLow:
		return TrendUp
	case lastHigh < prevHigh && lastLow < prevLow:
		return TrendDown
	default:
		return TrendSideways
	}
}
