package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandleDirection(t *testing.T) {
	assert.True(t, Candle{Open: 100, Close: 101}.Bullish())
	assert.True(t, Candle{Open: 101, Close: 100}.Bearish())

	doji := Candle{Open: 100, Close: 100}
	assert.False(t, doji.Bullish())
	assert.False(t, doji.Bearish())
}

func TestNormalize(t *testing.T) {
	cs := Candles{
		{OpenTime: 300, Close: 3},
		{OpenTime: 100, Close: 1},
		{OpenTime: 200, Close: 2},
		{OpenTime: 300, Close: 4}, // live bar repeated with a newer close
	}

	got := cs.Normalize()

	assert.Equal(t, []int64{100, 200, 300}, []int64{got[0].OpenTime, got[1].OpenTime, got[2].OpenTime})
	assert.Equal(t, 4.0, got[2].Close)
	assert.Len(t, cs, 4) // input untouched

	assert.Empty(t, Candles(nil).Normalize())
}

func TestSeriesExtraction(t *testing.T) {
	cs := Candles{
		{High: 10, Low: 1, Close: 5},
		{High: 20, Low: 2, Close: 6},
	}
	assert.Equal(t, []float64{10, 20}, cs.Highs())
	assert.Equal(t, []float64{1, 2}, cs.Lows())
	assert.Equal(t, []float64{5, 6}, cs.Closes())
}
