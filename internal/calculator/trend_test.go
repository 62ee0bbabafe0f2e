package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMA_MatchesWindowMean(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5, 6}
	sma, err := SMA(prices, 3)
	require.NoError(t, err)
	require.Len(t, sma, len(prices))

	assert.True(t, math.IsNaN(sma[0]))
	assert.True(t, math.IsNaN(sma[1]))
	assert.InDelta(t, 2.0, sma[2], 1e-9)
	assert.InDelta(t, 3.0, sma[3], 1e-9)
	assert.InDelta(t, 5.0, sma[5], 1e-9)
}

func TestSMA_ShortInput(t *testing.T) {
	sma, err := SMA([]float64{1, 2}, 5)
	require.NoError(t, err)
	for _, v := range sma {
		assert.True(t, math.IsNaN(v))
	}
}

func TestSMA_InvalidPeriod(t *testing.T) {
	_, err := SMA([]float64{1, 2, 3}, 0)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestEMA_SeededBySMA(t *testing.T) {
	prices := []float64{10, 11, 12, 13, 14}
	ema, err := EMA(prices, 3)
	require.NoError(t, err)

	assert.True(t, math.IsNaN(ema[1]))
	// Seed at index 2 is the mean of the first three prices.
	assert.InDelta(t, 11.0, ema[2], 1e-9)
	// k = 2/(3+1) = 0.5
	assert.InDelta(t, 12.0, ema[3], 1e-9)
	assert.InDelta(t, 13.0, ema[4], 1e-9)
}

func TestEMA_ConstantSeries(t *testing.T) {
	prices := []float64{50, 50, 50, 50, 50, 50}
	ema, err := EMA(prices, 4)
	require.NoError(t, err)
	for i := 3; i < len(ema); i++ {
		assert.InDelta(t, 50.0, ema[i], 1e-9)
	}
}

func TestMACD_HistogramIsLineMinusSignal(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 100 + float64(i)*0.5 + math.Sin(float64(i))*2
	}
	line, signal, hist, err := MACD(prices, 12, 26, 9)
	require.NoError(t, err)

	sawDefined := false
	for i := range prices {
		if math.IsNaN(hist[i]) {
			continue
		}
		sawDefined = true
		assert.InDelta(t, line[i]-signal[i], hist[i], 1e-9)
	}
	assert.True(t, sawDefined, "expected defined histogram values with 60 bars")
	// Line defined before signal: warm-up indices differ.
	assert.False(t, math.IsNaN(line[25]))
	assert.True(t, math.IsNaN(signal[25]))
	assert.False(t, math.IsNaN(signal[33]))
}

func TestMACD_RejectsInvertedPeriods(t *testing.T) {
	_, _, _, err := MACD([]float64{1, 2, 3}, 26, 12, 9)
	assert.Error(t, err)
}
