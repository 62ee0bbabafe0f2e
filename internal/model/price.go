package model

import (
	"errors"
	"time"
)

// Bar represents a single candlestick bar.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries holds an ascending, duplicate-free sequence of daily bars for
// one symbol. Gaps (non-trading days) are allowed. The series is treated as
// immutable for the duration of an analysis run.
type PriceSeries struct {
	Symbol    string    `json:"symbol"`
	Bars      []Bar     `json:"bars"`
	FetchedAt time.Time `json:"fetched_at"`
}

var (
	// ErrEmptySeries is returned for series with no bars where a computation
	// unconditionally requires data.
	ErrEmptySeries = errors.New("price series is empty")
	// ErrUnorderedSeries is returned when bars are not strictly ascending by date.
	ErrUnorderedSeries = errors.New("price series bars are not in ascending date order")
)

// Validate checks the basic shape invariants: non-empty, strictly ascending
// dates (which also rules out duplicates). This is the only class of input
// problem that fails an analyzer call outright; everything downstream degrades
// per-metric instead.
func (s *PriceSeries) Validate() error {
	if s == nil || len(s.Bars) == 0 {
		return ErrEmptySeries
	}
	for i := 1; i < len(s.Bars); i++ {
		if !s.Bars[i].Time.After(s.Bars[i-1].Time) {
			return ErrUnorderedSeries
		}
	}
	return nil
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int { return len(s.Bars) }

// Closes extracts the close prices in bar order.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Last returns the most recent bar. Callers must check Len() > 0 first.
func (s *PriceSeries) Last() Bar { return s.Bars[len(s.Bars)-1] }

// DividendPayment is a single cash dividend with its ex-date.
type DividendPayment struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// DividendHistory holds dividend payments ascending by ex-date.
type DividendHistory struct {
	Symbol   string            `json:"symbol"`
	Payments []DividendPayment `json:"payments"`
}

// AnnualTotals sums payments per calendar year, ascending by year.
// Years with no payments are absent, not zero.
func (d *DividendHistory) AnnualTotals() []YearAmount {
	if len(d.Payments) == 0 {
		return nil
	}
	totals := make(map[int]float64)
	first, last := d.Payments[0].Date.Year(), d.Payments[0].Date.Year()
	for _, p := range d.Payments {
		y := p.Date.Year()
		totals[y] += p.Amount
		if y < first {
			first = y
		}
		if y > last {
			last = y
		}
	}
	out := make([]YearAmount, 0, len(totals))
	for y := first; y <= last; y++ {
		if amt, ok := totals[y]; ok && amt > 0 {
			out = append(out, YearAmount{Year: y, Amount: amt})
		}
	}
	return out
}

// TrailingTotal sums payments whose ex-date falls within the 12 months
// before now. When the window is empty (stale history) it falls back to the
// most recent calendar year with payments.
func (d *DividendHistory) TrailingTotal(now time.Time) float64 {
	cutoff := now.AddDate(-1, 0, 0)
	var sum float64
	for _, p := range d.Payments {
		if p.Date.After(cutoff) {
			sum += p.Amount
		}
	}
	if sum > 0 {
		return sum
	}
	annual := d.AnnualTotals()
	if len(annual) == 0 {
		return 0
	}
	return annual[len(annual)-1].Amount
}

// YearAmount pairs a calendar year with a summed amount.
type YearAmount struct {
	Year   int     `json:"year"`
	Amount float64 `json:"amount"`
}
