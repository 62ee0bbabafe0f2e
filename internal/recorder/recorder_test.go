package recorder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EquityScope/internal/analyzer"
	"EquityScope/internal/model"
	"EquityScope/internal/report"
)

func TestFileRecorderAppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history", "runs.jsonl")

	r, err := NewFileRecorder(path, zerolog.Nop())
	require.NoError(t, err)

	price := 178.5
	require.NoError(t, r.Record(&RunRecord{RunID: "run-1", Symbol: "AAPL", CurrentPrice: &price}))
	require.NoError(t, r.Record(&RunRecord{RunID: "run-2", Symbol: "AAPL"}))
	require.NoError(t, r.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"run_id":"run-1"`)
	assert.Contains(t, lines[0], `"current_price":178.5`)
	// Undefined metrics are omitted, not written as null.
	assert.NotContains(t, lines[1], "current_price")

	recs, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "run-2", recs[1].RunID)
}

func TestFileRecorderAppendsAcrossReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")

	for _, id := range []string{"run-1", "run-2"} {
		r, err := NewFileRecorder(path, zerolog.Nop())
		require.NoError(t, err)
		require.NoError(t, r.Record(&RunRecord{RunID: id, Symbol: "MSFT"}))
		require.NoError(t, r.Close())
	}

	recs, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "run-1", recs[0].RunID)
	assert.Equal(t, "run-2", recs[1].RunID)
}

func TestSummarize(t *testing.T) {
	doc := &report.Document{
		RunID:       "run-9",
		Symbol:      "AAPL",
		GeneratedAt: time.Date(2026, 8, 28, 22, 0, 0, 0, time.UTC),
		Period:      "1y",
		Technical: &analyzer.TechnicalResult{
			Signals: map[string]model.Signal{"ma_trend": model.SignalBullish},
		},
		Risk: &analyzer.RiskResult{
			Sharpe:   model.DefinedMetric(1.4),
			Drawdown: analyzer.DrawdownStats{Max: model.DefinedMetric(-0.18)},
		},
		Valuation: &analyzer.ValuationResult{
			CurrentPrice: model.DefinedMetric(178.5),
			DCF:          analyzer.DCFResult{Gap: model.UndefinedMetric(model.ReasonInvalidAssumption)},
		},
	}
	art := &report.Artifacts{JSONPath: "/tmp/out/AAPL/reports/full_report.json"}

	rec := Summarize(doc, art, 1500*time.Millisecond)

	assert.Equal(t, "run-9", rec.RunID)
	assert.Equal(t, "AAPL", rec.Symbol)
	assert.Equal(t, int64(1500), rec.DurationMillis)
	assert.Equal(t, 3, rec.SectionsComplete)
	assert.Equal(t, "bullish", rec.MATrend)
	require.NotNil(t, rec.CurrentPrice)
	assert.InDelta(t, 178.5, *rec.CurrentPrice, 1e-9)
	assert.Nil(t, rec.DCFGap)
	assert.Nil(t, rec.PiotroskiF)
	require.NotNil(t, rec.SharpeRatio)
	assert.InDelta(t, 1.4, *rec.SharpeRatio, 1e-9)
	assert.Equal(t, art.JSONPath, rec.ReportPath)
}

func TestNoopRecorder(t *testing.T) {
	n := NewNoopRecorder()
	require.NoError(t, n.Record(&RunRecord{RunID: "run-1"}))
	require.NoError(t, n.Close())
}
