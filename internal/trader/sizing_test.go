package trader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testSizer() *Sizer {
	return NewSizer(SizerConfig{
		BaseRiskUSD:         0.3,
		InitialCapital:      80,
		UseReinvestment:     true,
		ReinvestmentPercent: 0.3,
	})
}

func TestQuantity(t *testing.T) {
	s := testSizer()

	t.Run("floors to whole contracts", func(t *testing.T) {
		// 10 USD * 10x = 100 USD notional, 100 / 100.5 / 0.01 = 99.5
		assert.Equal(t, int64(99), s.Quantity(10, 10, 100.5, 0.01))
	})

	t.Run("monotonic in risk", func(t *testing.T) {
		small := s.Quantity(5, 10, 100, 0.01)
		large := s.Quantity(20, 10, 100, 0.01)
		assert.Greater(t, large, small)
	})

	t.Run("degenerate inputs size zero", func(t *testing.T) {
		assert.Zero(t, s.Quantity(0, 10, 100, 0.01))
		assert.Zero(t, s.Quantity(10, 0, 100, 0.01))
		assert.Zero(t, s.Quantity(10, 10, 0, 0.01))
		assert.Zero(t, s.Quantity(10, 10, 100, 0))
		assert.Zero(t, s.Quantity(0.0001, 1, 100, 0.01))
	})
}

func TestCompoundingActivation(t *testing.T) {
	s := testSizer()

	risk, override := s.RiskBudget()
	assert.Equal(t, 0.3, risk)
	assert.False(t, override)

	// winning close with balance past 2x capital activates and arms override
	s.OnPositionClose(10, 170)
	assert.True(t, s.Compounding())
	risk, override = s.RiskBudget()
	assert.InDelta(t, 3.0, risk, 1e-9)
	assert.True(t, override)
}

func TestCompoundingTwoWinsDeactivate(t *testing.T) {
	s := testSizer()

	s.OnPositionClose(10, 170)
	s.OnPositionClose(5, 175)

	assert.False(t, s.Compounding())
	risk, override := s.RiskBudget()
	assert.Equal(t, 0.3, risk)
	assert.False(t, override)
}

func TestCompoundingLossDeactivatesSameCall(t *testing.T) {
	s := testSizer()

	s.OnPositionClose(10, 170)
	s.OnPositionClose(-5, 165) // balance still above threshold

	assert.False(t, s.Compounding())
	_, override := s.RiskBudget()
	assert.False(t, override)
}

func TestCompoundingOncePerCrossing(t *testing.T) {
	s := testSizer()

	s.OnPositionClose(10, 170)  // activates
	s.OnPositionClose(-5, 165)  // deactivates, still above threshold
	s.OnPositionClose(10, 175)  // must not reactivate without a fresh crossing
	assert.False(t, s.Compounding())

	s.OnPositionClose(-30, 150) // below threshold, re-arms
	s.OnPositionClose(10, 170)  // fresh crossing activates again
	assert.True(t, s.Compounding())
}

func TestCompoundingBelowThresholdResets(t *testing.T) {
	s := testSizer()

	s.OnPositionClose(10, 170)
	s.OnPositionClose(10, 100) // balance collapsed below 2x capital

	assert.False(t, s.Compounding())
	risk, override := s.RiskBudget()
	assert.Equal(t, 0.3, risk)
	assert.False(t, override)
}

func TestCompoundingDisabled(t *testing.T) {
	s := NewSizer(SizerConfig{BaseRiskUSD: 0.3, InitialCapital: 80})

	s.OnPositionClose(10, 500)
	assert.False(t, s.Compounding())
	risk, _ := s.RiskBudget()
	assert.Equal(t, 0.3, risk)
}
