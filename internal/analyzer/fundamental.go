package analyzer

import (
	"EquityScope/internal/calculator"
	"EquityScope/internal/model"
)

// Trend labels for period-over-period comparisons.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendFlat      = "flat"
)

// GrowthMetrics holds 1-year change and multi-year CAGRs, as decimal rates.
type GrowthMetrics struct {
	OneYear   model.Metric `json:"1y"`
	ThreeYear model.Metric `json:"3y_cagr"`
	FiveYear  model.Metric `json:"5y_cagr"`
}

// FCFMetrics holds free-cash-flow derived metrics.
type FCFMetrics struct {
	FCF      model.Metric `json:"fcf"`
	Yield    model.Metric `json:"fcf_yield"`
	PerShare model.Metric `json:"fcf_per_share"`
	Margin   model.Metric `json:"fcf_margin"`
}

// MarginMetrics holds profitability margins and the net-margin trend label.
type MarginMetrics struct {
	Gross     model.Metric `json:"gross_margin"`
	EBITDA    model.Metric `json:"ebitda_margin"`
	Operating model.Metric `json:"operating_margin"`
	Net       model.Metric `json:"net_margin"`
	NetTrend  string       `json:"net_margin_trend,omitempty"`
}

// EfficiencyMetrics holds asset-utilization ratios. Turnovers use the average
// of the latest two period balances.
type EfficiencyMetrics struct {
	AssetTurnover       model.Metric `json:"asset_turnover"`
	InventoryTurnover   model.Metric `json:"inventory_turnover"`
	ReceivablesTurnover model.Metric `json:"receivables_turnover"`
	PayablesTurnover    model.Metric `json:"payables_turnover"`
	DaysInventory       model.Metric `json:"days_inventory_outstanding"`
	DaysSales           model.Metric `json:"days_sales_outstanding"`
	DaysPayable         model.Metric `json:"days_payable_outstanding"`
	CashConversionCycle model.Metric `json:"cash_conversion_cycle"`
}

// DuPontMetrics decomposes ROE into its three factors. The calculated ROE is
// returned alongside the externally reported one when available.
type DuPontMetrics struct {
	NetMargin        model.Metric `json:"net_margin"`
	AssetTurnover    model.Metric `json:"asset_turnover"`
	EquityMultiplier model.Metric `json:"equity_multiplier"`
	ROECalculated    model.Metric `json:"roe_calculated"`
	ROEReported      model.Metric `json:"roe_reported"`
}

// QualityScores holds the two composite health scores with their standard
// interpretation bands.
type QualityScores struct {
	AltmanZ           model.Metric `json:"altman_z"`
	AltmanZone        string       `json:"altman_zone,omitempty"`
	PiotroskiF        model.Metric `json:"piotroski_f"`
	PiotroskiStrength string       `json:"piotroski_strength,omitempty"`
}

// FundamentalResult is the full fundamental analysis output. Every metric
// degrades independently; a missing statement never fails the call.
type FundamentalResult struct {
	Symbol     string            `json:"symbol"`
	Revenue    GrowthMetrics     `json:"revenue_growth"`
	Earnings   GrowthMetrics     `json:"earnings_growth"`
	FCFGrowth  GrowthMetrics     `json:"fcf_growth"`
	FCF        FCFMetrics        `json:"fcf_metrics"`
	Margins    MarginMetrics     `json:"margins"`
	Efficiency EfficiencyMetrics `json:"efficiency"`
	DuPont     DuPontMetrics     `json:"dupont"`
	Quality    QualityScores     `json:"quality_scores"`
}

// AnalyzeFundamental computes growth, margins, efficiency, DuPont ROE, and
// quality scores from statement histories and the company profile. All rates
// and margins are decimals.
func AnalyzeFundamental(f *model.Fundamentals, profile model.CompanyProfile) *FundamentalResult {
	res := &FundamentalResult{Symbol: profile.Symbol}
	if f == nil {
		f = &model.Fundamentals{}
	}

	res.Revenue = growthFor(f.IncomeAnnual, model.LineTotalRevenue)
	res.Earnings = growthFor(f.IncomeAnnual, model.LineNetIncome)
	res.FCFGrowth = fcfGrowth(f.CashFlowAnnual)
	res.FCF = fcfMetrics(f, profile)
	res.Margins = marginMetrics(f.IncomeAnnual)
	res.Efficiency = efficiencyMetrics(f)
	res.DuPont = dupontMetrics(f, profile)
	res.Quality = qualityScores(f, profile)
	return res
}

func growthFor(h *model.StatementHistory, line string) GrowthMetrics {
	current, okCur := h.Item(line, 0)
	return GrowthMetrics{
		OneYear:   changeMetric(current, okCur, h, line, 1),
		ThreeYear: cagrMetric(current, okCur, h, line, 3),
		FiveYear:  cagrMetric(current, okCur, h, line, 5),
	}
}

func changeMetric(current float64, okCur bool, h *model.StatementHistory, line string, age int) model.Metric {
	prev, okPrev := h.Item(line, age)
	if !okCur || !okPrev {
		return model.UndefinedMetric(model.ReasonMissingLineItem)
	}
	if prev == 0 {
		return model.UndefinedMetric(model.ReasonUndefinedRatio)
	}
	base := prev
	if base < 0 {
		base = -base
	}
	return model.DefinedMetric((current - prev) / base)
}

func cagrMetric(current float64, okCur bool, h *model.StatementHistory, line string, years int) model.Metric {
	past, okPast := h.Item(line, years)
	if years == 5 && !okPast {
		// Providers commonly return only five annual columns, so the oldest
		// column stands in for the five-year base.
		past, okPast = h.Item(line, 4)
	}
	if !okCur || !okPast {
		return model.UndefinedMetric(model.ReasonInsufficientData)
	}
	return model.MetricFrom(calculator.CAGR(past, current, float64(years)), model.ReasonUndefinedRatio)
}

// freeCashFlow reads the reported FCF line, falling back to OCF + CapEx
// (capital expenditure is reported negative).
func freeCashFlow(h *model.StatementHistory, age int) (float64, bool) {
	if fcf, ok := h.Item(model.LineFreeCashFlow, age); ok {
		return fcf, true
	}
	ocf, okOCF := h.Item(model.LineOperatingCashFlow, age)
	capex, okCapex := h.Item(model.LineCapitalExpenditure, age)
	if !okOCF || !okCapex {
		return 0, false
	}
	return ocf + capex, true
}

func fcfGrowth(h *model.StatementHistory) GrowthMetrics {
	g := GrowthMetrics{
		OneYear:   model.UndefinedMetric(model.ReasonMissingLineItem),
		ThreeYear: model.UndefinedMetric(model.ReasonInsufficientData),
		FiveYear:  model.UndefinedMetric(model.ReasonInsufficientData),
	}
	current, okCur := freeCashFlow(h, 0)
	if !okCur {
		return g
	}
	if prev, ok := freeCashFlow(h, 1); ok && prev != 0 {
		base := prev
		if base < 0 {
			base = -base
		}
		g.OneYear = model.DefinedMetric((current - prev) / base)
	}
	if past, ok := freeCashFlow(h, 3); ok {
		g.ThreeYear = model.MetricFrom(calculator.CAGR(past, current, 3), model.ReasonUndefinedRatio)
	}
	if past, ok := freeCashFlow(h, 5); ok {
		g.FiveYear = model.MetricFrom(calculator.CAGR(past, current, 5), model.ReasonUndefinedRatio)
	}
	return g
}

func fcfMetrics(f *model.Fundamentals, profile model.CompanyProfile) FCFMetrics {
	m := FCFMetrics{
		FCF:      model.UndefinedMetric(model.ReasonMissingLineItem),
		Yield:    model.UndefinedMetric(model.ReasonMissingLineItem),
		PerShare: model.UndefinedMetric(model.ReasonMissingLineItem),
		Margin:   model.UndefinedMetric(model.ReasonMissingLineItem),
	}
	fcf, ok := freeCashFlow(f.CashFlowAnnual, 0)
	if !ok {
		return m
	}
	m.FCF = model.DefinedMetric(fcf)
	if mc := profile.MarketCap; mc.Valid && mc.Float64 != 0 {
		m.Yield = model.DefinedMetric(fcf / mc.Float64)
	}
	if sh := profile.SharesOutstanding; sh.Valid && sh.Float64 != 0 {
		m.PerShare = model.DefinedMetric(fcf / sh.Float64)
	}
	if rev, ok := f.IncomeAnnual.Item(model.LineTotalRevenue, 0); ok && rev != 0 {
		m.Margin = model.DefinedMetric(fcf / rev)
	}
	return m
}

func marginMetrics(h *model.StatementHistory) MarginMetrics {
	m := MarginMetrics{
		Gross:     ratioMetric(h, model.LineGrossProfit, model.LineTotalRevenue, 0),
		EBITDA:    ratioMetric(h, model.LineEBITDA, model.LineTotalRevenue, 0),
		Operating: ratioMetric(h, model.LineOperatingIncome, model.LineTotalRevenue, 0),
		Net:       ratioMetric(h, model.LineNetIncome, model.LineTotalRevenue, 0),
	}
	prev := ratioMetric(h, model.LineNetIncome, model.LineTotalRevenue, 1)
	if m.Net.Defined && prev.Defined {
		switch {
		case m.Net.Value > prev.Value:
			m.NetTrend = TrendImproving
		case m.Net.Value < prev.Value:
			m.NetTrend = TrendDeclining
		default:
			m.NetTrend = TrendFlat
		}
	}
	return m
}

func ratioMetric(h *model.StatementHistory, numLine, denLine string, age int) model.Metric {
	num, okNum := h.Item(numLine, age)
	den, okDen := h.Item(denLine, age)
	if !okNum || !okDen {
		return model.UndefinedMetric(model.ReasonMissingLineItem)
	}
	if den == 0 {
		return model.UndefinedMetric(model.ReasonUndefinedRatio)
	}
	return model.DefinedMetric(num / den)
}

func efficiencyMetrics(f *model.Fundamentals) EfficiencyMetrics {
	e := EfficiencyMetrics{
		AssetTurnover:       model.UndefinedMetric(model.ReasonMissingLineItem),
		InventoryTurnover:   model.UndefinedMetric(model.ReasonMissingLineItem),
		ReceivablesTurnover: model.UndefinedMetric(model.ReasonMissingLineItem),
		PayablesTurnover:    model.UndefinedMetric(model.ReasonMissingLineItem),
		DaysInventory:       model.UndefinedMetric(model.ReasonMissingLineItem),
		DaysSales:           model.UndefinedMetric(model.ReasonMissingLineItem),
		DaysPayable:         model.UndefinedMetric(model.ReasonMissingLineItem),
		CashConversionCycle: model.UndefinedMetric(model.ReasonMissingLineItem),
	}

	revenue, okRev := f.IncomeAnnual.Item(model.LineTotalRevenue, 0)
	cogs, okCOGS := f.IncomeAnnual.Item(model.LineCostOfRevenue, 0)

	if assets, ok := f.BalanceAnnual.Item(model.LineTotalAssets, 0); ok && okRev {
		if assets == 0 {
			e.AssetTurnover = model.UndefinedMetric(model.ReasonUndefinedRatio)
		} else {
			e.AssetTurnover = model.DefinedMetric(revenue / assets)
		}
	}

	if avg, ok := averageBalance(f.BalanceAnnual, model.LineInventory); ok && okCOGS {
		e.InventoryTurnover = turnover(cogs, avg)
		e.DaysInventory = daysOutstanding(e.InventoryTurnover)
	}
	if avg, ok := averageBalance(f.BalanceAnnual, model.LineAccountsReceivable); ok && okRev {
		e.ReceivablesTurnover = turnover(revenue, avg)
		e.DaysSales = daysOutstanding(e.ReceivablesTurnover)
	}
	if avg, ok := averageBalance(f.BalanceAnnual, model.LineAccountsPayable); ok && okCOGS {
		e.PayablesTurnover = turnover(cogs, avg)
		e.DaysPayable = daysOutstanding(e.PayablesTurnover)
	}

	if e.DaysInventory.Defined && e.DaysSales.Defined && e.DaysPayable.Defined {
		e.CashConversionCycle = model.DefinedMetric(e.DaysInventory.Value + e.DaysSales.Value - e.DaysPayable.Value)
	}
	return e
}

func averageBalance(h *model.StatementHistory, line string) (float64, bool) {
	cur, okCur := h.Item(line, 0)
	prev, okPrev := h.Item(line, 1)
	if !okCur || !okPrev {
		return 0, false
	}
	return (cur + prev) / 2, true
}

func turnover(flow, avgBalance float64) model.Metric {
	if avgBalance == 0 {
		return model.UndefinedMetric(model.ReasonUndefinedRatio)
	}
	return model.DefinedMetric(flow / avgBalance)
}

func daysOutstanding(turnover model.Metric) model.Metric {
	if !turnover.Defined || turnover.Value == 0 {
		return model.UndefinedMetric(model.ReasonUndefinedRatio)
	}
	return model.DefinedMetric(365 / turnover.Value)
}

func dupontMetrics(f *model.Fundamentals, profile model.CompanyProfile) DuPontMetrics {
	d := DuPontMetrics{
		NetMargin:        ratioMetric(f.IncomeAnnual, model.LineNetIncome, model.LineTotalRevenue, 0),
		ROECalculated:    model.UndefinedMetric(model.ReasonMissingLineItem),
		ROEReported:      model.UndefinedMetric(model.ReasonMissingLineItem),
		AssetTurnover:    model.UndefinedMetric(model.ReasonMissingLineItem),
		EquityMultiplier: model.UndefinedMetric(model.ReasonMissingLineItem),
	}

	revenue, okRev := f.IncomeAnnual.Item(model.LineTotalRevenue, 0)
	assets, okAssets := f.BalanceAnnual.Item(model.LineTotalAssets, 0)
	equity, okEquity := f.BalanceAnnual.Item(model.LineStockholdersEquity, 0)

	if okRev && okAssets {
		if assets == 0 {
			d.AssetTurnover = model.UndefinedMetric(model.ReasonUndefinedRatio)
		} else {
			d.AssetTurnover = model.DefinedMetric(revenue / assets)
		}
	}
	if okAssets && okEquity {
		if equity == 0 {
			d.EquityMultiplier = model.UndefinedMetric(model.ReasonUndefinedRatio)
		} else {
			d.EquityMultiplier = model.DefinedMetric(assets / equity)
		}
	}
	if d.NetMargin.Defined && d.AssetTurnover.Defined && d.EquityMultiplier.Defined {
		d.ROECalculated = model.DefinedMetric(d.NetMargin.Value * d.AssetTurnover.Value * d.EquityMultiplier.Value)
	}
	if profile.ReportedROE.Valid {
		d.ROEReported = model.DefinedMetric(profile.ReportedROE.Float64)
	}
	return d
}

func qualityScores(f *model.Fundamentals, profile model.CompanyProfile) QualityScores {
	q := QualityScores{
		AltmanZ:    altmanZ(f, profile),
		PiotroskiF: piotroskiF(f),
	}
	if q.AltmanZ.Defined {
		switch {
		case q.AltmanZ.Value > 2.99:
			q.AltmanZone = "safe"
		case q.AltmanZ.Value > 1.81:
			q.AltmanZone = "grey"
		default:
			q.AltmanZone = "distress"
		}
	}
	if q.PiotroskiF.Defined {
		switch {
		case q.PiotroskiF.Value >= 8:
			q.PiotroskiStrength = "strong"
		case q.PiotroskiF.Value >= 5:
			q.PiotroskiStrength = "average"
		default:
			q.PiotroskiStrength = "weak"
		}
	}
	return q
}

// altmanZ computes Z = 1.2*X1 + 1.4*X2 + 3.3*X3 + 0.6*X4 + 1.0*X5. Undefined
// when any required input is missing, per the all-or-nothing definition of
// the score.
func altmanZ(f *model.Fundamentals, profile model.CompanyProfile) model.Metric {
	currentAssets, ok1 := f.BalanceAnnual.Item(model.LineCurrentAssets, 0)
	currentLiabilities, ok2 := f.BalanceAnnual.Item(model.LineCurrentLiabilities, 0)
	totalAssets, ok3 := f.BalanceAnnual.Item(model.LineTotalAssets, 0)
	retained, ok4 := f.BalanceAnnual.Item(model.LineRetainedEarnings, 0)
	totalLiabilities, ok5 := f.BalanceAnnual.Item(model.LineTotalLiabilities, 0)
	ebit, ok6 := f.IncomeAnnual.Item(model.LineEBIT, 0)
	revenue, ok7 := f.IncomeAnnual.Item(model.LineTotalRevenue, 0)

	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6 && ok7) || !profile.MarketCap.Valid {
		return model.UndefinedMetric(model.ReasonMissingLineItem)
	}
	if totalAssets == 0 || totalLiabilities == 0 {
		return model.UndefinedMetric(model.ReasonUndefinedRatio)
	}

	x1 := (currentAssets - currentLiabilities) / totalAssets
	x2 := retained / totalAssets
	x3 := ebit / totalAssets
	x4 := profile.MarketCap.Float64 / totalLiabilities
	x5 := revenue / totalAssets

	return model.DefinedMetric(1.2*x1 + 1.4*x2 + 3.3*x3 + 0.6*x4 + 1.0*x5)
}

// piotroskiF counts the binary strength tests that pass, 0 to 9. Tests whose
// inputs are missing simply score zero; the score is undefined only when all
// three statements are absent.
func piotroskiF(f *model.Fundamentals) model.Metric {
	income, balance, cashflow := f.IncomeAnnual, f.BalanceAnnual, f.CashFlowAnnual
	if income.Len() == 0 && balance.Len() == 0 && cashflow.Len() == 0 {
		return model.UndefinedMetric(model.ReasonInsufficientData)
	}

	score := 0.0

	netIncome, okNI := income.Item(model.LineNetIncome, 0)
	if okNI && netIncome > 0 {
		score++
	}
	ocf, okOCF := cashflow.Item(model.LineOperatingCashFlow, 0)
	if okOCF && ocf > 0 {
		score++
	}

	netIncomePrev, okNIP := income.Item(model.LineNetIncome, 1)
	assets, okA := balance.Item(model.LineTotalAssets, 0)
	assetsPrev, okAP := balance.Item(model.LineTotalAssets, 1)
	if okNI && okNIP && okA && okAP && assets != 0 && assetsPrev != 0 {
		if netIncome/assets > netIncomePrev/assetsPrev {
			score++
		}
	}

	if okOCF && okNI && ocf > netIncome {
		score++
	}

	ltDebt, okLT := balance.Item(model.LineLongTermDebt, 0)
	ltDebtPrev, okLTP := balance.Item(model.LineLongTermDebt, 1)
	if okLT && okLTP && ltDebt < ltDebtPrev {
		score++
	}

	ca, okCA := balance.Item(model.LineCurrentAssets, 0)
	cl, okCL := balance.Item(model.LineCurrentLiabilities, 0)
	caPrev, okCAP := balance.Item(model.LineCurrentAssets, 1)
	clPrev, okCLP := balance.Item(model.LineCurrentLiabilities, 1)
	if okCA && okCL && okCAP && okCLP && cl != 0 && clPrev != 0 {
		if ca/cl > caPrev/clPrev {
			score++
		}
	}

	revenue, okRev := income.Item(model.LineTotalRevenue, 0)
	revenuePrev, okRevP := income.Item(model.LineTotalRevenue, 1)
	gross, okG := income.Item(model.LineGrossProfit, 0)
	grossPrev, okGP := income.Item(model.LineGrossProfit, 1)
	if okRev && okRevP && okG && okGP && revenue != 0 && revenuePrev != 0 {
		if gross/revenue > grossPrev/revenuePrev {
			score++
		}
	}

	if okRev && okRevP && okA && okAP && assets != 0 && assetsPrev != 0 {
		if revenue/assets > revenuePrev/assetsPrev {
			score++
		}
	}

	return model.DefinedMetric(score)
}
