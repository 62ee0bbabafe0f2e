package calculator

import (
	"math"

	"EquityScope/internal/model"
)

// RSI computes the Wilder-smoothed relative strength index series.
// Entries before index period are NaN; when the average loss over a window
// is zero the value is 100.
func RSI(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	out := nanSlice(len(prices))
	if len(prices) < period+1 {
		return out, nil
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

// Stochastic computes the %K and %D oscillator series. %K compares the
// close to the high/low range of the trailing kPeriod bars; %D is the
// dPeriod simple average of %K. A zero high/low range leaves the entry NaN.
func Stochastic(bars []model.Bar, kPeriod, dPeriod int) (k, d []float64, err error) {
	if kPeriod <= 0 || dPeriod <= 0 {
		return nil, nil, ErrInvalidPeriod
	}
	k = nanSlice(len(bars))
	for i := kPeriod - 1; i < len(bars); i++ {
		hh, ll := rangeHighLow(bars, i-kPeriod+1, i)
		if hh > ll {
			k[i] = 100 * (bars[i].Close - ll) / (hh - ll)
		}
	}

	d = nanSlice(len(bars))
	for i := kPeriod + dPeriod - 2; i < len(bars); i++ {
		var sum float64
		defined := true
		for j := i - dPeriod + 1; j <= i; j++ {
			if math.IsNaN(k[j]) {
				defined = false
				break
			}
			sum += k[j]
		}
		if defined {
			d[i] = sum / float64(dPeriod)
		}
	}
	return k, d, nil
}

// WilliamsR computes the Williams %R series on a -100..0 scale. A zero
// high/low range leaves the entry NaN.
func WilliamsR(bars []model.Bar, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	out := nanSlice(len(bars))
	for i := period - 1; i < len(bars); i++ {
		hh, ll := rangeHighLow(bars, i-period+1, i)
		if hh > ll {
			out[i] = -100 * (hh - bars[i].Close) / (hh - ll)
		}
	}
	return out, nil
}

func rangeHighLow(bars []model.Bar, from, to int) (high, low float64) {
	high, low = bars[from].High, bars[from].Low
	for i := from + 1; i <= to; i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}
	return high, low
}
