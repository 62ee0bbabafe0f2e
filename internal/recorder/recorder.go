package recorder

import "time"

// RunRecord is the headline summary of one completed analysis run, kept so
// successive runs of the same ticker can be compared later.
type RunRecord struct {
	RunID            string    `json:"run_id"`
	Symbol           string    `json:"symbol"`
	Timestamp        time.Time `json:"timestamp"`
	Period           string    `json:"period"`
	CurrentPrice     *float64  `json:"current_price,omitempty"`
	MATrend          string    `json:"ma_trend,omitempty"`
	DCFGap           *float64  `json:"dcf_gap,omitempty"`
	MaxDrawdown      *float64  `json:"max_drawdown,omitempty"`
	SharpeRatio      *float64  `json:"sharpe_ratio,omitempty"`
	PiotroskiF       *float64  `json:"piotroski_f,omitempty"`
	AltmanZ          *float64  `json:"altman_z,omitempty"`
	DividendYield    *float64  `json:"dividend_yield,omitempty"`
	ReportPath       string    `json:"report_path,omitempty"`
	DurationMillis   int64     `json:"duration_ms"`
	SectionsComplete int       `json:"sections_complete"`
}

// Recorder persists run records for later inspection.
type Recorder interface {
	Record(rec *RunRecord) error
	Close() error
}
