package trader

import (
	"math"

	"obsidian/internal/logger"
)

// SizerConfig mirrors the risk section of the bot configuration.
type SizerConfig struct {
	BaseRiskUSD         float64
	InitialCapital      float64
	UseReinvestment     bool
	ReinvestmentPercent float64
}

// Sizer converts a risk budget into a contract quantity and owns the
// reinvestment (compounding) state across trades. It is mutated only by
// OnPositionClose, which the engine calls from its single decision loop.
type Sizer struct {
	cfg SizerConfig

	compounding   bool
	armed         bool // threshold crossing available
	overrideUSD   float64
	overrideReady bool
	winStreak     int
}

func NewSizer(cfg SizerConfig) *Sizer {
	return &Sizer{cfg: cfg, armed: true}
}

// RiskBudget returns the quote-currency risk for the next trade and whether
// it comes from the reinvestment override.
func (s *Sizer) RiskBudget() (float64, bool) {
	if s.overrideReady && s.overrideUSD > 0 {
		return s.overrideUSD, true
	}
	return s.cfg.BaseRiskUSD, false
}

// Quantity floors the leveraged notional down to whole contracts. Returns 0
// when the budget cannot buy a single contract or the inputs are degenerate.
func (s *Sizer) Quantity(riskUSD float64, leverage int, entryPrice, multiplier float64) int64 {
	if riskUSD <= 0 || leverage <= 0 || entryPrice <= 0 || multiplier <= 0 {
		return 0
	}
	notional := riskUSD * float64(leverage)
	return int64(math.Floor(notional / entryPrice / multiplier))
}

// Compounding reports whether reinvestment mode is currently active.
func (s *Sizer) Compounding() bool { return s.compounding }

// OnPositionClose updates the compounding state after a trade.
//
// Activation happens at most once per crossing of the 2x-capital threshold:
// the crossing re-arms only after balance falls back below it. While active,
// a win arms next trade's override at pnl x reinvestment_percent; two
// consecutive wins, any loss, or dropping below the threshold all deactivate
// and reset.
func (s *Sizer) OnPositionClose(realisedPnl, balance float64) {
	if !s.cfg.UseReinvestment {
		return
	}
	threshold := s.cfg.InitialCapital * 2

	if balance < threshold {
		s.armed = true
		if s.compounding {
			logger.Infof("balance %.2f fell below %.2f, compounding off", balance, threshold)
		}
		s.reset()
		return
	}

	if !s.compounding && s.armed {
		s.compounding = true
		s.armed = false
		s.winStreak = 0
		logger.Infof("balance %.2f reached 2x initial capital, compounding on", balance)
	}
	if !s.compounding {
		return
	}

	if realisedPnl > 0 {
		s.winStreak++
		if s.winStreak >= 2 {
			logger.Infof("two consecutive reinvested wins, compounding off")
			s.reset()
			return
		}
		s.overrideUSD = realisedPnl * s.cfg.ReinvestmentPercent
		s.overrideReady = true
		logger.Infof("winning trade, next risk override %.4f USD", s.overrideUSD)
		return
	}

	logger.Infof("losing trade while compounding, compounding off")
	s.reset()
}

func (s *Sizer) reset() {
	s.compounding = false
	s.overrideUSD = 0
	s.overrideReady = false
	s.winStreak = 0
}
