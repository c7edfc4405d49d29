package strategy

import "obsidian/internal/market"

// Direction of a trade setup.
type Direction int

const (
	Bullish Direction = iota + 1
	Bearish
)

func (d Direction) String() string {
	switch d {
	case Bullish:
		return "bullish"
	case Bearish:
		return "bearish"
	default:
		return "none"
	}
}

// Setup is a candidate entry produced by FindSetup. It is valid only for the
// cycle that produced it; a newer setup supersedes it wholesale.
type Setup struct {
	Direction Direction
	Entry     float64
	Stop      float64
}

// SetupParams tune the CISD detection.
type SetupParams struct {
	SwingLookback int
	OBEntryLevel  float64 // retracement into the order block, (0,1)
}

// FindSetup scans a working-timeframe series for a change-in-state-of-
// delivery: the latest candle closing beyond the swing extreme of the
// preceding lookback window. The most recent opposing candle before the
// confirmation bar becomes the order block anchoring entry and stop.
// Returns nil when no setup qualifies; never fails.
func FindSetup(cs market.Candles, p SetupParams) (setup *Setup) {
	defer func() {
		if recover() != nil {
			setup = nil
		}
	}()

	if p.SwingLookback <= 0 || len(cs) < p.SwingLookback+1 {
		return nil
	}

	confirmation := cs[len(cs)-1]
	window := cs[len(cs)-1-p.SwingLookback : len(cs)-1]
	swingHigh := window[0].High
	swingLow := window[0].Low
	for _, c := range window[1:] {
		if c.High > swingHigh {
			swingHigh = c.High
		}
		if c.Low < swingLow {
			swingLow = c.Low
		}
	}

	before := cs[:len(cs)-1]
	switch {
	case confirmation.Close > swingHigh:
		if ob, ok := lastMatching(before, market.Candle.Bearish); ok {
			entry := ob.High - (ob.High-ob.Low)*p.OBEntryLevel
			return &Setup{Direction: Bullish, Entry: entry, Stop: ob.Low}
		}
	case confirmation.Close < swingLow:
		if ob, ok := lastMatching(before, market.Candle.Bullish); ok {
			entry := ob.Low + (ob.High-ob.Low)*p.OBEntryLevel
			return &Setup{Direction: Bearish, Entry: entry, Stop: ob.High}
		}
	}
	return nil
}

// Equal reports whether two setups describe the same trade.
func (s *Setup) Equal(other *Setup) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.Direction == other.Direction && s.Entry == other.Entry && s.Stop == other.Stop
}

func lastMatching(cs market.Candles, match func(market.Candle) bool) (market.Candle, bool) {
	for i := len(cs) - 1; i >= 0; i-- {
		if match(cs[i]) {
			return cs[i], true
		}
	}
	return market.Candle{}, false
}
