package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EquityScope/internal/model"
)

func TestOBV_AccumulatesByDirection(t *testing.T) {
	bars := makeBars([]float64{10, 11, 11, 10, 12})
	obv := OBV(bars)

	assert.Equal(t, []float64{0, 1000, 1000, 0, 1000}, obv)
}

func TestVWAP_SingleBarIsTypicalPrice(t *testing.T) {
	bars := []model.Bar{{
		Time: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		High: 12, Low: 9, Close: 10.5, Volume: 500,
	}}
	vwap := VWAP(bars, 0)
	assert.InDelta(t, (12.0+9.0+10.5)/3, vwap[0], 1e-9)
}

func TestVWAP_WeightsByVolume(t *testing.T) {
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	bars := []model.Bar{
		{Time: base, High: 10, Low: 10, Close: 10, Volume: 100},
		{Time: base.AddDate(0, 0, 1), High: 20, Low: 20, Close: 20, Volume: 300},
	}
	vwap := VWAP(bars, 0)
	assert.InDelta(t, 10.0, vwap[0], 1e-9)
	assert.InDelta(t, (10*100+20*300)/400.0, vwap[1], 1e-9)
}

func TestVWAP_RollingWindowResets(t *testing.T) {
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	bars := []model.Bar{
		{Time: base, High: 10, Low: 10, Close: 10, Volume: 100},
		{Time: base.AddDate(0, 0, 1), High: 20, Low: 20, Close: 20, Volume: 100},
		{Time: base.AddDate(0, 0, 2), High: 30, Low: 30, Close: 30, Volume: 100},
	}
	vwap := VWAP(bars, 2)

	// The window needs period bars before producing a value.
	assert.True(t, math.IsNaN(vwap[0]))
	assert.InDelta(t, 15.0, vwap[1], 1e-9)
	// Bar 0 has dropped out of the window.
	assert.InDelta(t, 25.0, vwap[2], 1e-9)
}

func TestVWAP_ZeroVolumeUndefined(t *testing.T) {
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	bars := []model.Bar{{Time: base, High: 10, Low: 9, Close: 9.5, Volume: 0}}
	vwap := VWAP(bars, 0)
	assert.True(t, math.IsNaN(vwap[0]))
}

func TestMFI_BoundsAndAllPositive(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	mfi, err := MFI(makeBars(closes), 14)
	require.NoError(t, err)

	for i := 0; i < 14; i++ {
		assert.True(t, math.IsNaN(mfi[i]))
	}
	// Monotonic rise means no negative flow in any window.
	assert.InDelta(t, 100.0, mfi[len(mfi)-1], 1e-9)
}

func TestMFI_MixedFlowInBounds(t *testing.T) {
	closes := []float64{50, 52, 51, 53, 50, 54, 52, 55, 53, 56, 54, 57, 55, 58, 56, 59, 57, 60}
	mfi, err := MFI(makeBars(closes), 14)
	require.NoError(t, err)

	for i := 14; i < len(mfi); i++ {
		require.False(t, math.IsNaN(mfi[i]))
		assert.Greater(t, mfi[i], 0.0)
		assert.Less(t, mfi[i], 100.0)
	}
}
