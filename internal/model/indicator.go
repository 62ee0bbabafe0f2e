package model

import (
	"encoding/json"
	"math"
)

// IndicatorSeries holds per-bar values for one indicator, aligned 1:1 with
// the price series that produced it. Warm-up entries are NaN.
type IndicatorSeries struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// MarshalJSON encodes warm-up NaN entries as null, which JSON has no other
// representation for.
func (s IndicatorSeries) MarshalJSON() ([]byte, error) {
	vals := make([]*float64, len(s.Values))
	for i, v := range s.Values {
		if !math.IsNaN(v) {
			vals[i] = &v
		}
	}
	return json.Marshal(struct {
		Name   string     `json:"name"`
		Values []*float64 `json:"values"`
	}{s.Name, vals})
}

// UnmarshalJSON restores null entries to NaN.
func (s *IndicatorSeries) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name   string     `json:"name"`
		Values []*float64 `json:"values"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Name = raw.Name
	s.Values = make([]float64, len(raw.Values))
	for i, v := range raw.Values {
		if v == nil {
			s.Values[i] = math.NaN()
		} else {
			s.Values[i] = *v
		}
	}
	return nil
}

// Latest returns the last value and whether it is defined.
func (s IndicatorSeries) Latest() (float64, bool) {
	return s.At(len(s.Values) - 1)
}

// At returns the value at index i and whether it is defined.
func (s IndicatorSeries) At(i int) (float64, bool) {
	if i < 0 || i >= len(s.Values) {
		return 0, false
	}
	v := s.Values[i]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Signal is a discrete classification derived from an indicator's latest
// value. It is computed on demand, never stored historically.
type Signal string

const (
	SignalBullish     Signal = "bullish"
	SignalBearish     Signal = "bearish"
	SignalNeutral     Signal = "neutral"
	SignalOverbought  Signal = "overbought"
	SignalOversold    Signal = "oversold"
	SignalGoldenCross Signal = "golden_cross"
	SignalDeathCross  Signal = "death_cross"
	SignalUnavailable Signal = "unavailable"
)
