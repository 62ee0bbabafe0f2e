package analyzer

import (
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EquityScope/internal/model"
)

func annualHistory(stype model.StatementType, periods ...map[string]float64) *model.StatementHistory {
	h := &model.StatementHistory{Type: stype}
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	for i, items := range periods {
		h.Snapshots = append(h.Snapshots, model.StatementSnapshot{
			Type:      stype,
			PeriodEnd: end.AddDate(-i, 0, 0),
			Items:     items,
		})
	}
	return h
}

func testFundamentals() *model.Fundamentals {
	return &model.Fundamentals{
		IncomeAnnual: annualHistory(model.StatementIncome,
			map[string]float64{
				model.LineTotalRevenue:    1000,
				model.LineGrossProfit:     400,
				model.LineEBITDA:          300,
				model.LineEBIT:            250,
				model.LineOperatingIncome: 240,
				model.LineNetIncome:       150,
				model.LineCostOfRevenue:   600,
				model.LineDilutedEPS:      3.0,
			},
			map[string]float64{
				model.LineTotalRevenue:  900,
				model.LineGrossProfit:   350,
				model.LineNetIncome:     120,
				model.LineCostOfRevenue: 550,
				model.LineDilutedEPS:    2.4,
			},
			map[string]float64{
				model.LineTotalRevenue: 820,
				model.LineNetIncome:    100,
			},
			map[string]float64{
				model.LineTotalRevenue: 750,
				model.LineNetIncome:    90,
				model.LineDilutedEPS:   1.8,
			},
			map[string]float64{
				model.LineTotalRevenue: 700,
				model.LineNetIncome:    80,
			},
		),
		BalanceAnnual: annualHistory(model.StatementBalance,
			map[string]float64{
				model.LineTotalAssets:        2000,
				model.LineCurrentAssets:      800,
				model.LineCurrentLiabilities: 400,
				model.LineTotalLiabilities:   1200,
				model.LineStockholdersEquity: 800,
				model.LineRetainedEarnings:   500,
				model.LineLongTermDebt:       300,
				model.LineInventory:          200,
				model.LineAccountsReceivable: 150,
				model.LineAccountsPayable:    100,
			},
			map[string]float64{
				model.LineTotalAssets:        1900,
				model.LineCurrentAssets:      700,
				model.LineCurrentLiabilities: 380,
				model.LineStockholdersEquity: 720,
				model.LineLongTermDebt:       350,
				model.LineInventory:          180,
				model.LineAccountsReceivable: 140,
				model.LineAccountsPayable:    90,
			},
		),
		CashFlowAnnual: annualHistory(model.StatementCashFlow,
			map[string]float64{
				model.LineOperatingCashFlow:  200,
				model.LineCapitalExpenditure: -50,
				model.LineFreeCashFlow:       150,
			},
			map[string]float64{
				model.LineFreeCashFlow: 130,
			},
		),
	}
}

func testProfile() model.CompanyProfile {
	return model.CompanyProfile{
		Symbol:            "TEST",
		Currency:          null.StringFrom("USD"),
		CurrentPrice:      null.FloatFrom(50),
		MarketCap:         null.FloatFrom(5000),
		SharesOutstanding: null.FloatFrom(100),
		ReportedROE:       null.FloatFrom(0.19),
	}
}

func TestAnalyzeFundamental_Growth(t *testing.T) {
	res := AnalyzeFundamental(testFundamentals(), testProfile())

	require.True(t, res.Revenue.OneYear.Defined)
	assert.InDelta(t, (1000.0-900.0)/900.0, res.Revenue.OneYear.Value, 1e-9)

	require.True(t, res.Revenue.ThreeYear.Defined)
	// CAGR from 750 to 1000 over three years.
	assert.InDelta(t, 0.1006, res.Revenue.ThreeYear.Value, 1e-3)

	require.True(t, res.Revenue.FiveYear.Defined)
	require.True(t, res.FCFGrowth.OneYear.Defined)
	assert.InDelta(t, (150.0-130.0)/130.0, res.FCFGrowth.OneYear.Value, 1e-9)
}

func TestAnalyzeFundamental_DuPontIdentity(t *testing.T) {
	res := AnalyzeFundamental(testFundamentals(), testProfile())
	d := res.DuPont

	require.True(t, d.ROECalculated.Defined)
	require.True(t, d.NetMargin.Defined)
	require.True(t, d.AssetTurnover.Defined)
	require.True(t, d.EquityMultiplier.Defined)
	assert.InDelta(t, d.NetMargin.Value*d.AssetTurnover.Value*d.EquityMultiplier.Value,
		d.ROECalculated.Value, 1e-12)

	// 150/1000 * 1000/2000 * 2000/800 = 150/800
	assert.InDelta(t, 150.0/800.0, d.ROECalculated.Value, 1e-9)
	require.True(t, d.ROEReported.Defined)
	assert.InDelta(t, 0.19, d.ROEReported.Value, 1e-9)
}

func TestAnalyzeFundamental_Margins(t *testing.T) {
	res := AnalyzeFundamental(testFundamentals(), testProfile())
	m := res.Margins

	assert.InDelta(t, 0.40, m.Gross.Value, 1e-9)
	assert.InDelta(t, 0.30, m.EBITDA.Value, 1e-9)
	assert.InDelta(t, 0.15, m.Net.Value, 1e-9)
	// 15% now vs 13.3% a year ago.
	assert.Equal(t, TrendImproving, m.NetTrend)
}

func TestAnalyzeFundamental_Efficiency(t *testing.T) {
	res := AnalyzeFundamental(testFundamentals(), testProfile())
	e := res.Efficiency

	assert.InDelta(t, 0.5, e.AssetTurnover.Value, 1e-9)
	// 600 COGS / avg inventory 190.
	assert.InDelta(t, 600.0/190.0, e.InventoryTurnover.Value, 1e-9)
	require.True(t, e.CashConversionCycle.Defined)
	assert.InDelta(t, e.DaysInventory.Value+e.DaysSales.Value-e.DaysPayable.Value,
		e.CashConversionCycle.Value, 1e-9)
}

func TestAnalyzeFundamental_AltmanZ(t *testing.T) {
	res := AnalyzeFundamental(testFundamentals(), testProfile())
	z := res.Quality.AltmanZ
	require.True(t, z.Defined)

	x1 := (800.0 - 400.0) / 2000.0
	x2 := 500.0 / 2000.0
	x3 := 250.0 / 2000.0
	x4 := 5000.0 / 1200.0
	x5 := 1000.0 / 2000.0
	assert.InDelta(t, 1.2*x1+1.4*x2+3.3*x3+0.6*x4+1.0*x5, z.Value, 1e-9)
	assert.Equal(t, "safe", res.Quality.AltmanZone)
}

func TestAnalyzeFundamental_AltmanZUndefinedWhenItemMissing(t *testing.T) {
	f := testFundamentals()
	delete(f.IncomeAnnual.Snapshots[0].Items, model.LineEBIT)

	res := AnalyzeFundamental(f, testProfile())
	assert.False(t, res.Quality.AltmanZ.Defined)
	assert.Equal(t, model.ReasonMissingLineItem, res.Quality.AltmanZ.Reason)
	assert.Empty(t, res.Quality.AltmanZone)
}

func TestAnalyzeFundamental_PiotroskiF(t *testing.T) {
	res := AnalyzeFundamental(testFundamentals(), testProfile())
	f := res.Quality.PiotroskiF
	require.True(t, f.Defined)

	// Positive NI, positive OCF, rising ROA, OCF > NI, falling LT debt,
	// rising current ratio, rising gross margin, rising asset turnover.
	assert.InDelta(t, 8, f.Value, 1e-9)
	assert.Equal(t, "strong", res.Quality.PiotroskiStrength)
}

func TestAnalyzeFundamental_MissingStatementsDegrade(t *testing.T) {
	res := AnalyzeFundamental(nil, testProfile())

	assert.False(t, res.Revenue.OneYear.Defined)
	assert.False(t, res.Margins.Net.Defined)
	assert.False(t, res.Quality.AltmanZ.Defined)
	assert.False(t, res.Quality.PiotroskiF.Defined)
	assert.False(t, res.FCF.FCF.Defined)
}

func TestAnalyzeFundamental_FCFMetrics(t *testing.T) {
	res := AnalyzeFundamental(testFundamentals(), testProfile())

	assert.InDelta(t, 150, res.FCF.FCF.Value, 1e-9)
	assert.InDelta(t, 150.0/5000.0, res.FCF.Yield.Value, 1e-9)
	assert.InDelta(t, 1.5, res.FCF.PerShare.Value, 1e-9)
	assert.InDelta(t, 0.15, res.FCF.Margin.Value, 1e-9)
}
