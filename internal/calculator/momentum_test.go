package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EquityScope/internal/model"
)

func makeBars(closes []float64) []model.Bar {
	base := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{
			Time:   base.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func TestRSI_BoundsAndWarmup(t *testing.T) {
	closes := []float64{44, 44.5, 44.1, 44.8, 45.2, 44.9, 45.5, 45.1, 45.8, 46.0,
		45.7, 46.3, 46.1, 46.8, 46.5, 47.0, 46.6, 47.2, 46.9, 47.5}
	rsi, err := RSI(closes, 14)
	require.NoError(t, err)

	for i := 0; i < 14; i++ {
		assert.True(t, math.IsNaN(rsi[i]), "index %d should be warm-up", i)
	}
	for i := 14; i < len(rsi); i++ {
		require.False(t, math.IsNaN(rsi[i]))
		assert.GreaterOrEqual(t, rsi[i], 0.0)
		assert.LessOrEqual(t, rsi[i], 100.0)
	}
}

func TestRSI_AllGainsIsHundred(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	rsi, err := RSI(closes, 14)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, rsi[len(rsi)-1], 1e-9)
}

func TestRSI_AllLossesIsZero(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 - float64(i)
	}
	rsi, err := RSI(closes, 14)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, rsi[len(rsi)-1], 1e-9)
}

func TestStochastic_Bounds(t *testing.T) {
	closes := []float64{10, 12, 11, 13, 15, 14, 16, 18, 17, 19, 20, 18, 17, 19, 21, 22, 20, 19, 21, 23}
	bars := makeBars(closes)
	k, d, err := Stochastic(bars, 14, 3)
	require.NoError(t, err)

	for i := range k {
		if !math.IsNaN(k[i]) {
			assert.GreaterOrEqual(t, k[i], 0.0)
			assert.LessOrEqual(t, k[i], 100.0)
		}
		if !math.IsNaN(d[i]) {
			assert.GreaterOrEqual(t, d[i], 0.0)
			assert.LessOrEqual(t, d[i], 100.0)
		}
	}
	assert.False(t, math.IsNaN(k[13]))
	assert.True(t, math.IsNaN(d[14]))
	assert.False(t, math.IsNaN(d[15]))
}

func TestStochastic_FlatRangeUndefined(t *testing.T) {
	bars := make([]model.Bar, 20)
	base := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = model.Bar{Time: base.AddDate(0, 0, i), Open: 50, High: 50, Low: 50, Close: 50, Volume: 100}
	}
	k, _, err := Stochastic(bars, 14, 3)
	require.NoError(t, err)
	for _, v := range k {
		assert.True(t, math.IsNaN(v), "zero range should leave %%K undefined")
	}
}

func TestWilliamsR_Bounds(t *testing.T) {
	closes := []float64{10, 12, 11, 13, 15, 14, 16, 18, 17, 19, 20, 18, 17, 19, 21}
	wr, err := WilliamsR(makeBars(closes), 14)
	require.NoError(t, err)

	assert.True(t, math.IsNaN(wr[12]))
	for i := 13; i < len(wr); i++ {
		require.False(t, math.IsNaN(wr[i]))
		assert.GreaterOrEqual(t, wr[i], -100.0)
		assert.LessOrEqual(t, wr[i], 0.0)
	}
}
