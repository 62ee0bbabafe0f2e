package calculator

import (
	"errors"
	"math"
)

// ErrInvalidPeriod is returned by indicator functions given a non-positive
// lookback.
var ErrInvalidPeriod = errors.New("period must be positive")

// SMA computes the simple moving average series aligned 1:1 with the input.
// The first period-1 entries are NaN.
func SMA(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	out := nanSlice(len(prices))
	if len(prices) < period {
		return out, nil
	}
	var sum float64
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out, nil
}

// EMA computes the exponential moving average series. The first defined
// value, at index period-1, is seeded with the SMA of the first period
// prices; entries before that are NaN.
func EMA(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	out := nanSlice(len(prices))
	if len(prices) < period {
		return out, nil
	}
	var seed float64
	for i := 0; i < period; i++ {
		seed += prices[i]
	}
	out[period-1] = seed / float64(period)

	k := 2.0 / float64(period+1)
	for i := period; i < len(prices); i++ {
		out[i] = prices[i]*k + out[i-1]*(1-k)
	}
	return out, nil
}

// MACD computes the moving average convergence/divergence line, its signal
// line, and the histogram (line minus signal). The MACD line is defined from
// index longPeriod-1; the signal line needs signalPeriod further defined
// MACD values and is seeded with their simple average.
func MACD(prices []float64, shortPeriod, longPeriod, signalPeriod int) (line, signal, histogram []float64, err error) {
	if shortPeriod <= 0 || longPeriod <= 0 || signalPeriod <= 0 {
		return nil, nil, nil, ErrInvalidPeriod
	}
	if shortPeriod >= longPeriod {
		return nil, nil, nil, errors.New("short period must be below long period")
	}
	emaShort, err := EMA(prices, shortPeriod)
	if err != nil {
		return nil, nil, nil, err
	}
	emaLong, err := EMA(prices, longPeriod)
	if err != nil {
		return nil, nil, nil, err
	}

	line = nanSlice(len(prices))
	for i := range prices {
		if !math.IsNaN(emaShort[i]) && !math.IsNaN(emaLong[i]) {
			line[i] = emaShort[i] - emaLong[i]
		}
	}

	signal = nanSlice(len(prices))
	start := longPeriod - 1
	seedEnd := start + signalPeriod
	if seedEnd <= len(prices) {
		var seed float64
		for i := start; i < seedEnd; i++ {
			seed += line[i]
		}
		signal[seedEnd-1] = seed / float64(signalPeriod)
		k := 2.0 / float64(signalPeriod+1)
		for i := seedEnd; i < len(prices); i++ {
			signal[i] = line[i]*k + signal[i-1]*(1-k)
		}
	}

	histogram = nanSlice(len(prices))
	for i := range prices {
		if !math.IsNaN(line[i]) && !math.IsNaN(signal[i]) {
			histogram[i] = line[i] - signal[i]
		}
	}
	return line, signal, histogram, nil
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
