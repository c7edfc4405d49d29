package gate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPrice(t *testing.T) {
	g, err := New(Config{Key: "k", Secret: "s"})
	require.NoError(t, err)

	t.Run("raw before the spec is loaded", func(t *testing.T) {
		assert.Equal(t, "100.456", g.formatPrice("ETH_USDT", 100.456))
	})

	t.Run("quantized to the tick size", func(t *testing.T) {
		step, _ := decimal.NewFromString("0.01")
		g.steps.set("ETH_USDT", step)

		assert.Equal(t, "100.46", g.formatPrice("ETH_USDT", 100.456))
		assert.Equal(t, "100.5", g.formatPrice("ETH_USDT", 100.5))
		assert.Equal(t, "0", g.formatPrice("ETH_USDT", 0))
	})
}

func TestPriceStepsCache(t *testing.T) {
	var p priceSteps

	_, ok := p.get("BTC_USDT")
	assert.False(t, ok)

	step, _ := decimal.NewFromString("0.1")
	p.set("BTC_USDT", step)

	got, ok := p.get("BTC_USDT")
	assert.True(t, ok)
	assert.True(t, step.Equal(got))
}

func TestNormalizeContract(t *testing.T) {
	assert.Equal(t, "ETH_USDT", normalizeContract("eth_usdt"))
	assert.Equal(t, "ETH_USDT", normalizeContract(" ETH_USDT "))
}
