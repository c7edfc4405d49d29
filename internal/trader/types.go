package trader

import (
	"time"

	"obsidian/internal/strategy"
)

// PositionSide is the direction of an open position.
type PositionSide int

const (
	Long PositionSide = iota + 1
	Short
)

func (s PositionSide) String() string {
	switch s {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "flat"
	}
}

// PendingOrder tracks the single live entry order between submission and a
// terminal status. The engine owns it exclusively; at most one exists.
type PendingOrder struct {
	ID          string
	Size        int64 // signed contracts
	Price       float64
	SubmittedAt time.Time
	Setup       strategy.Setup
}

// TradePlan is the bracket context for the trade currently pending or open:
// where the stop and target sit, what was risked, and the indicator snapshot
// taken at submission. Cleared when the position closes.
type TradePlan struct {
	Side       PositionSide
	Size       int64 // unsigned contracts
	Entry      float64
	Stop       float64
	Target     float64
	RiskUSD    float64
	Compounded bool
	Indicators strategy.IndicatorSnapshot
}

// SignedSize returns the position size with long positive, short negative.
func (p *TradePlan) SignedSize() int64 {
	if p.Side == Short {
		return -p.Size
	}
	return p.Size
}
