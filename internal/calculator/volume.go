package calculator

import (
	"EquityScope/internal/model"
)

// OBV computes the on-balance volume series. The first entry is zero; each
// subsequent entry adds the bar's volume on an up close, subtracts it on a
// down close, and carries over unchanged on a flat close.
func OBV(bars []model.Bar) []float64 {
	out := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		switch {
		case bars[i].Close > bars[i-1].Close:
			out[i] = out[i-1] + bars[i].Volume
		case bars[i].Close < bars[i-1].Close:
			out[i] = out[i-1] - bars[i].Volume
		default:
			out[i] = out[i-1]
		}
	}
	return out
}

// VWAP computes the volume-weighted average price series using the typical
// price (H+L+C)/3 of each bar. A positive period restricts the accumulation
// to a trailing window of that many bars, with the first period-1 entries
// NaN; period <= 0 accumulates over the whole series. Entries with zero
// accumulated volume stay NaN.
func VWAP(bars []model.Bar, period int) []float64 {
	out := nanSlice(len(bars))

	pv := make([]float64, len(bars))
	vol := make([]float64, len(bars))
	for i, b := range bars {
		tp := (b.High + b.Low + b.Close) / 3
		pv[i] = tp * b.Volume
		vol[i] = b.Volume
	}

	if period <= 0 {
		var cumPV, cumVol float64
		for i := range bars {
			cumPV += pv[i]
			cumVol += vol[i]
			if cumVol > 0 {
				out[i] = cumPV / cumVol
			}
		}
		return out
	}

	for i := period - 1; i < len(bars); i++ {
		var sumPV, sumVol float64
		for j := i - period + 1; j <= i; j++ {
			sumPV += pv[j]
			sumVol += vol[j]
		}
		if sumVol > 0 {
			out[i] = sumPV / sumVol
		}
	}
	return out
}

// MFI computes the money flow index series over the given period. Raw money
// flow is typical price times volume, classified positive or negative by the
// typical price's direction; a window with no negative flow scores 100.
// Entries before index period are NaN.
func MFI(bars []model.Bar, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	out := nanSlice(len(bars))
	if len(bars) < period+1 {
		return out, nil
	}

	posFlow := make([]float64, len(bars))
	negFlow := make([]float64, len(bars))
	prevTP := (bars[0].High + bars[0].Low + bars[0].Close) / 3
	for i := 1; i < len(bars); i++ {
		tp := (bars[i].High + bars[i].Low + bars[i].Close) / 3
		flow := tp * bars[i].Volume
		if tp > prevTP {
			posFlow[i] = flow
		} else if tp < prevTP {
			negFlow[i] = flow
		}
		prevTP = tp
	}

	for i := period; i < len(bars); i++ {
		var pos, neg float64
		for j := i - period + 1; j <= i; j++ {
			pos += posFlow[j]
			neg += negFlow[j]
		}
		if neg == 0 {
			out[i] = 100.0
			continue
		}
		ratio := pos / neg
		out[i] = 100.0 - 100.0/(1.0+ratio)
	}
	return out, nil
}
