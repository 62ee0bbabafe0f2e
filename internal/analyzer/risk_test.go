package analyzer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EquityScope/internal/config"
	"EquityScope/internal/model"
)

func testRiskConfig() config.RiskConfig {
	return config.RiskConfig{
		RiskFreeRate:     0.04,
		ConfidenceLevels: []float64{0.95, 0.99},
		RollingWindows:   []int{30, 60, 90},
	}
}

func TestAnalyzeRisk_BasicProperties(t *testing.T) {
	series := priceSeries("TEST", trendingCloses(252))
	res, err := AnalyzeRisk(series, nil, testRiskConfig())
	require.NoError(t, err)

	assert.Equal(t, 251, res.Returns.TradingDays)
	require.True(t, res.Drawdown.Max.Defined)
	require.True(t, res.Drawdown.Current.Defined)
	assert.LessOrEqual(t, res.Drawdown.Max.Value, 0.0)
	assert.GreaterOrEqual(t, res.Drawdown.Current.Value, res.Drawdown.Max.Value)

	require.True(t, res.Volatility.Annualized.Defined)
	assert.InDelta(t, res.Volatility.Daily.Value*math.Sqrt(252), res.Volatility.Annualized.Value, 1e-9)

	// No benchmark: market risk is omitted entirely.
	assert.Nil(t, res.Market)
}

func TestAnalyzeRisk_VaROrdering(t *testing.T) {
	series := priceSeries("TEST", trendingCloses(252))
	res, err := AnalyzeRisk(series, nil, testRiskConfig())
	require.NoError(t, err)

	require.Len(t, res.VaR, 2)
	var95, var99 := res.VaR[0], res.VaR[1]
	require.True(t, var95.Historical.Defined)
	require.True(t, var99.Historical.Defined)

	// Higher confidence means a more negative loss threshold.
	assert.LessOrEqual(t, var99.Historical.Value, var95.Historical.Value)
	assert.LessOrEqual(t, var99.Parametric.Value, var95.Parametric.Value)
	// CVaR sits at or below its VaR.
	assert.LessOrEqual(t, var95.CVaRHistorical.Value, var95.Historical.Value)
	assert.LessOrEqual(t, var99.CVaRHistorical.Value, var99.Historical.Value)
	// Worst day bounds everything.
	assert.LessOrEqual(t, var95.WorstDay.Value, var99.CVaRHistorical.Value)
}

func TestAnalyzeRisk_FlatSeries(t *testing.T) {
	closes := make([]float64, 252)
	for i := range closes {
		closes[i] = 100
	}
	res, err := AnalyzeRisk(priceSeries("FLAT", closes), nil, testRiskConfig())
	require.NoError(t, err)

	assert.InDelta(t, 0, res.Returns.DailyMean.Value, 1e-12)
	assert.InDelta(t, 0, res.Returns.AnnualizedReturn.Value, 1e-12)
	assert.InDelta(t, 0, res.Volatility.Daily.Value, 1e-12)
	assert.InDelta(t, 0, res.Volatility.Annualized.Value, 1e-12)
	assert.InDelta(t, 0, res.Drawdown.Max.Value, 1e-12)
	assert.InDelta(t, 0, res.Drawdown.Current.Value, 1e-12)

	// Zero dispersion leaves the ratios undefined, never zero. The nonzero
	// risk-free rate makes the excess returns a constant whose accumulated
	// standard deviation is tiny but not exactly zero.
	assert.False(t, res.Sharpe.Defined)
	assert.Equal(t, model.ReasonUndefinedRatio, res.Sharpe.Reason)
	assert.False(t, res.Sortino.Defined)
	assert.Equal(t, model.ReasonUndefinedRatio, res.Sortino.Reason)
	assert.False(t, res.Calmar.Defined)
}

func TestAnalyzeRisk_SelfBenchmark(t *testing.T) {
	series := priceSeries("TEST", trendingCloses(252))
	bench := priceSeries("^GSPC", trendingCloses(252))
	res, err := AnalyzeRisk(series, bench, testRiskConfig())
	require.NoError(t, err)

	require.NotNil(t, res.Market)
	assert.Equal(t, "^GSPC", res.Market.Benchmark)
	// Identical series regress onto themselves with beta 1, perfect
	// correlation, and no tracking error.
	assert.InDelta(t, 1.0, res.Market.Beta.Value, 1e-9)
	assert.InDelta(t, 1.0, res.Market.Correlation.Value, 1e-9)
	assert.InDelta(t, 1.0, res.Market.RSquared.Value, 1e-9)
	assert.False(t, res.Market.InformationRatio.Defined)
}

func TestAnalyzeRisk_BenchmarkDateAlignment(t *testing.T) {
	series := priceSeries("TEST", trendingCloses(100))
	// Shorter, offset benchmark still produces metrics over the overlap.
	bench := priceSeries("^GSPC", trendingCloses(60))
	res, err := AnalyzeRisk(series, bench, testRiskConfig())
	require.NoError(t, err)

	require.NotNil(t, res.Market)
	assert.True(t, res.Market.Beta.Defined)
	assert.True(t, res.Market.Correlation.Defined)
}

func TestAnalyzeRisk_RollingRatios(t *testing.T) {
	series := priceSeries("TEST", trendingCloses(252))
	res, err := AnalyzeRisk(series, nil, testRiskConfig())
	require.NoError(t, err)

	for _, key := range []string{"sharpe_30d", "sharpe_60d", "sharpe_90d"} {
		stats, ok := res.Rolling[key]
		require.True(t, ok, "missing %s", key)
		assert.True(t, stats.Current.Defined)
		assert.LessOrEqual(t, stats.Min.Value, stats.Mean.Value)
		assert.LessOrEqual(t, stats.Mean.Value, stats.Max.Value)
	}
}

func TestAnalyzeRisk_ShortSeriesDegrades(t *testing.T) {
	res, err := AnalyzeRisk(priceSeries("TEST", []float64{100}), nil, testRiskConfig())
	require.NoError(t, err)

	assert.False(t, res.Returns.DailyMean.Defined)
	assert.False(t, res.Sharpe.Defined)
	assert.Empty(t, res.Rolling)
}

func TestAnalyzeRisk_WinRate(t *testing.T) {
	res, err := AnalyzeRisk(priceSeries("TEST", []float64{100, 101, 100, 102, 103}), nil, testRiskConfig())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Returns.PositiveDays)
	assert.Equal(t, 1, res.Returns.NegativeDays)
	assert.InDelta(t, 0.75, res.Returns.WinRate.Value, 1e-9)
}
