package strategy

import (
	"fmt"

	"obsidian/internal/market"

	talib "github.com/markcheno/go-talib"
)

// IndicatorSnapshot is the momentum context captured alongside each entry and
// stored with the trade record. Informational only; it never gates a trade.
type IndicatorSnapshot struct {
	RSI14 float64 `json:"rsi_14"`
	EMA20 float64 `json:"ema_20"`
	EMA50 float64 `json:"ema_50"`
	MACD  float64 `json:"macd"`
}

func (s IndicatorSnapshot) String() string {
	return fmt.Sprintf("rsi14=%.2f ema20=%.4f ema50=%.4f macd=%.4f", s.RSI14, s.EMA20, s.EMA50, s.MACD)
}

// Indicators computes the snapshot over the working series. Fields whose
// lookback exceeds the series length stay zero.
func Indicators(cs market.Candles) IndicatorSnapshot {
	closes := cs.Closes()
	var snap IndicatorSnapshot
	if len(closes) > 14 {
		snap.RSI14 = lastOf(talib.Rsi(closes, 14))
	}
	if len(closes) >= 20 {
		snap.EMA20 = lastOf(talib.Ema(closes, 20))
	}
	if len(closes) >= 50 {
		snap.EMA50 = lastOf(talib.Ema(closes, 50))
	}
	if len(closes) >= 35 {
		macd, _, _ := talib.Macd(closes, 12, 26, 9)
		snap.MACD = lastOf(macd)
	}
	return snap
}

func lastOf(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}
