package recorder

import (
	"time"

	"EquityScope/internal/model"
	"EquityScope/internal/report"
)

func metricPtr(m model.Metric) *float64 {
	if !m.Defined {
		return nil
	}
	v := m.Value
	return &v
}

// Summarize distills a finished report into one run record.
func Summarize(doc *report.Document, art *report.Artifacts, took time.Duration) *RunRecord {
	rec := &RunRecord{
		RunID:          doc.RunID,
		Symbol:         doc.Symbol,
		Timestamp:      doc.GeneratedAt,
		Period:         doc.Period,
		DurationMillis: took.Milliseconds(),
	}
	if art != nil {
		rec.ReportPath = art.JSONPath
	}

	if t := doc.Technical; t != nil {
		rec.SectionsComplete++
		if s, ok := t.Signals["ma_trend"]; ok && s != model.SignalUnavailable {
			rec.MATrend = string(s)
		}
	}
	if f := doc.Fundamental; f != nil {
		rec.SectionsComplete++
		rec.PiotroskiF = metricPtr(f.Quality.PiotroskiF)
		rec.AltmanZ = metricPtr(f.Quality.AltmanZ)
	}
	if r := doc.Risk; r != nil {
		rec.SectionsComplete++
		rec.MaxDrawdown = metricPtr(r.Drawdown.Max)
		rec.SharpeRatio = metricPtr(r.Sharpe)
	}
	if v := doc.Valuation; v != nil {
		rec.SectionsComplete++
		rec.CurrentPrice = metricPtr(v.CurrentPrice)
		rec.DCFGap = metricPtr(v.DCF.Gap)
		rec.DividendYield = metricPtr(v.Dividends.Yield)
	}
	return rec
}
