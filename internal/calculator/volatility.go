package calculator

import (
	"math"

	"EquityScope/internal/model"
)

// Bollinger computes the Bollinger band series: the middle band is the
// period SMA of closes, the upper and lower bands sit stdDevs sample
// standard deviations away from it.
func Bollinger(prices []float64, period int, stdDevs float64) (middle, upper, lower []float64, err error) {
	middle, err = SMA(prices, period)
	if err != nil {
		return nil, nil, nil, err
	}
	upper = nanSlice(len(prices))
	lower = nanSlice(len(prices))
	for i := period - 1; i < len(prices); i++ {
		sd := StdDev(prices[i-period+1 : i+1])
		upper[i] = middle[i] + stdDevs*sd
		lower[i] = middle[i] - stdDevs*sd
	}
	return middle, upper, lower, nil
}

// ATR computes the Wilder-smoothed average true range series. The true
// range of the first bar is its high/low span; the first defined ATR, at
// index period-1, is the simple average of the first period true ranges.
func ATR(bars []model.Bar, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	out := nanSlice(len(bars))
	if len(bars) < period {
		return out, nil
	}
	tr := trueRanges(bars)

	var seed float64
	for i := 0; i < period; i++ {
		seed += tr[i]
	}
	out[period-1] = seed / float64(period)
	for i := period; i < len(bars); i++ {
		out[i] = (out[i-1]*float64(period-1) + tr[i]) / float64(period)
	}
	return out, nil
}

// ADX computes the average directional index series along with the +DI and
// -DI component series. DI values are defined from index period, ADX from
// index 2*period-1.
func ADX(bars []model.Bar, period int) (adx, plusDI, minusDI []float64, err error) {
	if period <= 0 {
		return nil, nil, nil, ErrInvalidPeriod
	}
	n := len(bars)
	adx = nanSlice(n)
	plusDI = nanSlice(n)
	minusDI = nanSlice(n)
	if n < period+1 {
		return adx, plusDI, minusDI, nil
	}

	tr := trueRanges(bars)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		up := bars[i].High - bars[i-1].High
		down := bars[i-1].Low - bars[i].Low
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	// Wilder smoothing of TR and directional movement, seeded by the sums
	// over the first period changes.
	var smTR, smPlus, smMinus float64
	for i := 1; i <= period; i++ {
		smTR += tr[i]
		smPlus += plusDM[i]
		smMinus += minusDM[i]
	}

	dx := nanSlice(n)
	for i := period; i < n; i++ {
		if i > period {
			smTR = smTR - smTR/float64(period) + tr[i]
			smPlus = smPlus - smPlus/float64(period) + plusDM[i]
			smMinus = smMinus - smMinus/float64(period) + minusDM[i]
		}
		if smTR == 0 {
			continue
		}
		plusDI[i] = 100 * smPlus / smTR
		minusDI[i] = 100 * smMinus / smTR
		sum := plusDI[i] + minusDI[i]
		if sum > 0 {
			dx[i] = 100 * math.Abs(plusDI[i]-minusDI[i]) / sum
		}
	}

	// ADX is the Wilder average of DX, seeded by the simple average of the
	// first period defined DX values.
	first := 2*period - 1
	if first < n && !math.IsNaN(dx[first]) {
		var seed float64
		for i := period; i <= first; i++ {
			seed += dx[i]
		}
		adx[first] = seed / float64(period)
		for i := first + 1; i < n; i++ {
			adx[i] = (adx[i-1]*float64(period-1) + dx[i]) / float64(period)
		}
	}
	return adx, plusDI, minusDI, nil
}

func trueRanges(bars []model.Bar) []float64 {
	tr := make([]float64, len(bars))
	for i, b := range bars {
		if i == 0 {
			tr[0] = b.High - b.Low
			continue
		}
		prev := bars[i-1].Close
		tr[i] = math.Max(b.High-b.Low, math.Max(math.Abs(b.High-prev), math.Abs(b.Low-prev)))
	}
	return tr
}
