package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "^GSPC", cfg.DataSource.Benchmark)
	assert.Equal(t, "1y", cfg.DataSource.Period)
	assert.Equal(t, "1d", cfg.DataSource.Interval)
	assert.Equal(t, []int{20, 50, 200}, cfg.Technical.SMAPeriods)
	assert.Equal(t, 14, cfg.Technical.RSIPeriod)
	assert.Equal(t, 0.04, cfg.Risk.RiskFreeRate)
	assert.Equal(t, []float64{0.95, 0.99}, cfg.Risk.ConfidenceLevels)
	assert.Equal(t, 5, cfg.Valuation.ProjectionYears)
	assert.Equal(t, 0.025, cfg.Valuation.TerminalGrowthRate)
	assert.Equal(t, "data/run_history.jsonl", cfg.Recorder.HistoryFile)
	assert.Equal(t, "0 0 22 * * 1-5", cfg.Schedule.WatchCron)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_source:
  symbol: msft
  period: 2y
technical:
  rsi_period: 21
risk:
  risk_free_rate: 0.05
report:
  chart: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "msft", cfg.DataSource.Symbol)
	assert.Equal(t, "2y", cfg.DataSource.Period)
	assert.Equal(t, 21, cfg.Technical.RSIPeriod)
	assert.Equal(t, 0.05, cfg.Risk.RiskFreeRate)
	assert.True(t, cfg.Report.Chart)
	// Unset fields still get defaults.
	assert.Equal(t, "^GSPC", cfg.DataSource.Benchmark)
	assert.Equal(t, 70.0, cfg.Technical.RSIOverbought)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("EQUITYSCOPE_SYMBOL", "NVDA")
	t.Setenv("EQUITYSCOPE_BENCHMARK", "^IXIC")
	t.Setenv("EQUITYSCOPE_RISK_FREE_RATE", "0.035")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "NVDA", cfg.DataSource.Symbol)
	assert.Equal(t, "^IXIC", cfg.DataSource.Benchmark)
	assert.Equal(t, 0.035, cfg.Risk.RiskFreeRate)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Error(t, cfg.Validate(), "symbol is required")

	cfg.DataSource.Symbol = "AAPL"
	require.NoError(t, cfg.Validate())

	cfg.Risk.ConfidenceLevels = []float64{1.5}
	assert.Error(t, cfg.Validate())
	cfg.Risk.ConfidenceLevels = []float64{0.95}

	cfg.Technical.RSIOversold = 80
	assert.Error(t, cfg.Validate())
}
