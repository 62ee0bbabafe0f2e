package analyzer

import (
	"math"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EquityScope/internal/config"
	"EquityScope/internal/model"
)

func testValuationConfig() config.ValuationConfig {
	return config.ValuationConfig{
		ProjectionYears:       5,
		TerminalGrowthRate:    0.025,
		MaxGrowthRate:         0.20,
		RiskFreeRate:          0.04,
		MarketRiskPremium:     0.08,
		SurpriseEstimateFloor: 0.01,
	}
}

func dividendHistory(amounts map[int][]float64) *model.DividendHistory {
	d := &model.DividendHistory{Symbol: "TEST"}
	for y := 2000; y <= 2030; y++ {
		payments, ok := amounts[y]
		if !ok {
			continue
		}
		for i, amt := range payments {
			d.Payments = append(d.Payments, model.DividendPayment{
				Date:   time.Date(y, time.Month(3*i+2), 15, 0, 0, 0, 0, time.UTC),
				Amount: amt,
			})
		}
	}
	return d
}

func testValuationInput() ValuationInput {
	return ValuationInput{
		Profile:      testProfile(),
		Fundamentals: testFundamentals(),
		Dividends: dividendHistory(map[int][]float64{
			2020: {0.20, 0.20, 0.20, 0.20},
			2021: {0.22, 0.22, 0.22, 0.22},
			2022: {0.24, 0.24, 0.24, 0.24},
			2023: {0.26, 0.26, 0.26, 0.26},
			2024: {0.28, 0.28, 0.28, 0.28},
		}),
		Now: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestAnalyzeValuation_DCF(t *testing.T) {
	res := AnalyzeValuation(testValuationInput(), testValuationConfig())
	dcf := res.DCF

	require.True(t, dcf.IntrinsicValue.Defined)
	require.True(t, dcf.GrowthRate.Defined)
	// Historical FCF growth 130 -> 150 over one step, ~15.4%, under the cap.
	assert.InDelta(t, 150.0/130.0-1, dcf.GrowthRate.Value, 1e-9)
	// Beta missing: CAPM discount rate falls back to market beta 1.
	assert.InDelta(t, 0.12, dcf.DiscountRate.Value, 1e-9)
	assert.True(t, dcf.EnterpriseValue.Defined)
	assert.True(t, dcf.Gap.Defined)
	assert.NotEmpty(t, dcf.GapLabel)
}

func TestAnalyzeValuation_DCFGrowthCapped(t *testing.T) {
	in := testValuationInput()
	// 50 -> 150 over one year is 200% growth; the cap must clamp it.
	in.Fundamentals.CashFlowAnnual.Snapshots[1].Items[model.LineFreeCashFlow] = 50

	res := AnalyzeValuation(in, testValuationConfig())
	require.True(t, res.DCF.GrowthRate.Defined)
	assert.InDelta(t, 0.20, res.DCF.GrowthRate.Value, 1e-9)
}

func TestAnalyzeValuation_DCFNegativeFCFUnavailable(t *testing.T) {
	in := testValuationInput()
	in.Fundamentals.CashFlowAnnual.Snapshots[0].Items[model.LineFreeCashFlow] = -20
	delete(in.Fundamentals.CashFlowAnnual.Snapshots[0].Items, model.LineOperatingCashFlow)

	res := AnalyzeValuation(in, testValuationConfig())
	assert.False(t, res.DCF.IntrinsicValue.Defined)
	assert.Equal(t, model.ReasonInvalidAssumption, res.DCF.IntrinsicValue.Reason)
	// The observed FCF is still reported.
	require.True(t, res.DCF.FCFCurrent.Defined)
	assert.InDelta(t, -20, res.DCF.FCFCurrent.Value, 1e-9)
}

func TestAnalyzeValuation_DCFUndefinedWhenTerminalGrowthExceedsDiscount(t *testing.T) {
	cfg := testValuationConfig()
	cfg.TerminalGrowthRate = 0.50

	res := AnalyzeValuation(testValuationInput(), cfg)
	assert.False(t, res.DCF.IntrinsicValue.Defined)
	assert.Equal(t, model.ReasonInvalidAssumption, res.DCF.IntrinsicValue.Reason)
}

func TestAnalyzeValuation_DDM(t *testing.T) {
	res := AnalyzeValuation(testValuationInput(), testValuationConfig())
	ddm := res.DDM

	require.True(t, ddm.AnnualDividend.Defined)
	assert.InDelta(t, 1.12, ddm.AnnualDividend.Value, 1e-9)

	require.True(t, ddm.GrowthRate.Defined)
	// Annual totals grow 0.80 -> 1.12 over four years.
	wantGrowth := math.Pow(1.12/0.80, 0.25) - 1
	assert.InDelta(t, wantGrowth, ddm.GrowthRate.Value, 1e-9)

	require.True(t, ddm.IntrinsicValue.Defined)
	d1 := 1.12 * (1 + wantGrowth)
	assert.InDelta(t, d1/(0.12-wantGrowth), ddm.IntrinsicValue.Value, 1e-9)
}

func TestAnalyzeValuation_DDMSingleDividend(t *testing.T) {
	in := testValuationInput()
	in.Dividends = dividendHistory(map[int][]float64{2024: {1.00}})

	res := AnalyzeValuation(in, testValuationConfig())

	// One payment cannot seed a growth estimate; the conservative default
	// applies and the model still values the stream.
	require.True(t, res.DDM.IntrinsicValue.Defined)
	assert.InDelta(t, 1.00*(1.03)/(0.12-0.03), res.DDM.IntrinsicValue.Value, 1e-9)
	assert.False(t, res.Dividends.GrowthRate.Defined)
	assert.Equal(t, 1, res.Dividends.ConsecutiveYears)
}

func TestAnalyzeValuation_DDMNoDividends(t *testing.T) {
	in := testValuationInput()
	in.Dividends = nil

	res := AnalyzeValuation(in, testValuationConfig())
	assert.False(t, res.DDM.IntrinsicValue.Defined)
	assert.False(t, res.Dividends.PaysDividends)
}

func TestAnalyzeValuation_DividendAnalysis(t *testing.T) {
	in := testValuationInput()
	in.Profile.PayoutRatio = null.FloatFrom(0.40)

	res := AnalyzeValuation(in, testValuationConfig())
	div := res.Dividends

	assert.True(t, div.PaysDividends)
	assert.InDelta(t, 1.12/50.0, div.Yield.Value, 1e-9)
	assert.InDelta(t, 2.5, div.CoverageRatio.Value, 1e-9)
	assert.Equal(t, 5, div.ConsecutiveYears)

	// Payout <= 50% (40 pts), growth >= 5% (20 pts), streak 5 years (20 pts).
	require.True(t, div.SustainabilityScore.Defined)
	assert.InDelta(t, 80, div.SustainabilityScore.Value, 1e-9)
	assert.Equal(t, "excellent", div.SustainabilityRating)
	assert.Empty(t, div.Warnings)
}

func TestAnalyzeValuation_DividendWarnings(t *testing.T) {
	in := testValuationInput()
	in.Profile.PayoutRatio = null.FloatFrom(1.10)

	res := AnalyzeValuation(in, testValuationConfig())
	require.NotEmpty(t, res.Dividends.Warnings)
	assert.Contains(t, res.Dividends.Warnings[0], "exceed earnings")
}

func TestAnalyzeValuation_Earnings(t *testing.T) {
	in := testValuationInput()
	in.Earnings = &model.EarningsHistory{
		Symbol: "TEST",
		Quarters: []model.EarningsQuarter{
			{Quarter: "2024Q1", EPSActual: null.FloatFrom(0.70), EPSEstimate: null.FloatFrom(0.65)},
			{Quarter: "2024Q2", EPSActual: null.FloatFrom(0.72), EPSEstimate: null.FloatFrom(0.70)},
			{Quarter: "2024Q3", EPSActual: null.FloatFrom(0.68), EPSEstimate: null.FloatFrom(0.70)},
			{Quarter: "2024Q4", EPSActual: null.FloatFrom(0.80), EPSEstimate: null.FloatFrom(0.75)},
		},
	}

	res := AnalyzeValuation(in, testValuationConfig())
	e := res.Earnings

	require.True(t, e.CurrentEPS.Defined)
	assert.InDelta(t, 2.90, e.CurrentEPS.Value, 1e-9)
	assert.InDelta(t, 0.75, e.BeatRate.Value, 1e-9)
	require.Len(t, e.Surprises, 4)
	assert.InDelta(t, (0.70-0.65)/0.65, e.Surprises[0].SurprisePct.Value, 1e-9)

	// EPS 3.0 vs 2.4 a year earlier: +25%, strong growth.
	require.True(t, e.Growth1Y.Defined)
	assert.InDelta(t, 0.25, e.Growth1Y.Value, 1e-9)
	assert.Equal(t, "strong_growth", e.Trend)

	// OCF 200 / NI 150 is comfortably above 1.2.
	require.True(t, e.QualityRatio.Defined)
	assert.Equal(t, "strong", e.QualityLabel)
}

func TestAnalyzeValuation_SurpriseClampedNearZeroEstimate(t *testing.T) {
	in := testValuationInput()
	in.Earnings = &model.EarningsHistory{
		Symbol: "TEST",
		Quarters: []model.EarningsQuarter{
			{Quarter: "2024Q4", EPSActual: null.FloatFrom(0.37), EPSEstimate: null.FloatFrom(0.001)},
		},
	}

	res := AnalyzeValuation(in, testValuationConfig())
	require.Len(t, res.Earnings.Surprises, 1)
	s := res.Earnings.Surprises[0]

	// A near-zero estimate would explode the ratio; it must be undefined.
	assert.False(t, s.SurprisePct.Defined)
	assert.Equal(t, model.ReasonUndefinedRatio, s.SurprisePct.Reason)
	assert.False(t, res.Earnings.AvgSurprisePct.Defined)
	// The quarter still counts toward the beat rate.
	assert.InDelta(t, 1.0, res.Earnings.BeatRate.Value, 1e-9)
}

func TestAnalyzeValuation_CurrentPriceFallsBackToSeries(t *testing.T) {
	in := testValuationInput()
	in.Profile.CurrentPrice = null.Float{}
	in.Prices = priceSeries("TEST", []float64{100, 101, 102})

	res := AnalyzeValuation(in, testValuationConfig())
	require.True(t, res.CurrentPrice.Defined)
	assert.InDelta(t, 102, res.CurrentPrice.Value, 1e-9)
}
