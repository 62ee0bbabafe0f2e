package analyzer

import (
	"math"
	"time"

	"github.com/guregu/null/v6"

	"EquityScope/internal/calculator"
	"EquityScope/internal/config"
	"EquityScope/internal/model"
)

// Fair-value gap labels.
const (
	GapOvervalued  = "overvalued"
	GapUndervalued = "undervalued"
	GapFairValue   = "fair_value"
)

// ValuationInput bundles everything the valuation models consume. Any part
// may be nil or empty; the affected models degrade with a reason.
type ValuationInput struct {
	Profile      model.CompanyProfile
	Prices       *model.PriceSeries
	Fundamentals *model.Fundamentals
	Dividends    *model.DividendHistory
	Earnings     *model.EarningsHistory
	Now          time.Time
}

// DCFResult holds the discounted-cash-flow valuation and its assumptions.
type DCFResult struct {
	IntrinsicValue  model.Metric `json:"intrinsic_value_per_share"`
	Gap             model.Metric `json:"fair_value_gap"`
	GapLabel        string       `json:"gap_label,omitempty"`
	FCFCurrent      model.Metric `json:"fcf_current"`
	GrowthRate      model.Metric `json:"growth_rate_used"`
	TerminalGrowth  float64      `json:"terminal_growth_rate"`
	DiscountRate    model.Metric `json:"discount_rate_used"`
	EnterpriseValue model.Metric `json:"enterprise_value"`
	EquityValue     model.Metric `json:"equity_value"`
	NetDebt         model.Metric `json:"net_debt"`
	ProjectionYears int          `json:"projection_years"`
}

// DDMResult holds the Gordon-growth dividend valuation.
type DDMResult struct {
	IntrinsicValue model.Metric `json:"intrinsic_value_per_share"`
	Gap            model.Metric `json:"fair_value_gap"`
	GapLabel       string       `json:"gap_label,omitempty"`
	AnnualDividend model.Metric `json:"annual_dividend"`
	NextDividend   model.Metric `json:"next_dividend_estimate"`
	GrowthRate     model.Metric `json:"growth_rate_used"`
	RequiredReturn model.Metric `json:"required_return_used"`
}

// DividendResult holds dividend metrics and the composite sustainability
// score with its rating band.
type DividendResult struct {
	PaysDividends        bool         `json:"pays_dividends"`
	Yield                model.Metric `json:"dividend_yield"`
	AnnualDividend       model.Metric `json:"annual_dividend"`
	PayoutRatio          model.Metric `json:"payout_ratio"`
	CoverageRatio        model.Metric `json:"coverage_ratio"`
	GrowthRate           model.Metric `json:"growth_rate"`
	ConsecutiveYears     int          `json:"consecutive_years"`
	LatestExDate         time.Time    `json:"latest_ex_dividend_date,omitzero"`
	SustainabilityScore  model.Metric `json:"sustainability_score"`
	SustainabilityRating string       `json:"sustainability_rating,omitempty"`
	Warnings             []string     `json:"warnings,omitempty"`
}

// EarningsSurprise is one reported quarter's result vs its estimate.
type EarningsSurprise struct {
	Quarter     string       `json:"quarter"`
	EPSActual   model.Metric `json:"eps_actual"`
	EPSEstimate model.Metric `json:"eps_estimate"`
	SurprisePct model.Metric `json:"surprise_pct"`
}

// EarningsResult holds EPS trends, the surprise track record, and the
// cash-backing quality label.
type EarningsResult struct {
	CurrentEPS     model.Metric       `json:"current_eps_ttm"`
	ForwardEPS     model.Metric       `json:"forward_eps"`
	Growth1Y       model.Metric       `json:"eps_growth_1y"`
	Growth3YCAGR   model.Metric       `json:"eps_growth_3y_cagr"`
	Trend          string             `json:"trend,omitempty"`
	Surprises      []EarningsSurprise `json:"recent_surprises,omitempty"`
	AvgSurprisePct model.Metric       `json:"avg_surprise_pct"`
	BeatRate       model.Metric       `json:"beat_rate"`
	QualityRatio   model.Metric       `json:"ocf_to_net_income"`
	QualityLabel   string             `json:"quality_label,omitempty"`
}

// ValuationResult is the full valuation analysis output.
type ValuationResult struct {
	Symbol       string         `json:"symbol"`
	Currency     string         `json:"currency,omitempty"`
	CurrentPrice model.Metric   `json:"current_price"`
	DCF          DCFResult      `json:"dcf"`
	DDM          DDMResult      `json:"ddm"`
	Dividends    DividendResult `json:"dividend_analysis"`
	Earnings     EarningsResult `json:"earnings_analysis"`
}

// AnalyzeValuation runs the DCF and DDM models plus dividend and earnings
// analysis. Model preconditions that fail mark that model undefined with a
// reason; the remaining sections still compute.
func AnalyzeValuation(in ValuationInput, cfg config.ValuationConfig) *ValuationResult {
	if in.Fundamentals == nil {
		in.Fundamentals = &model.Fundamentals{}
	}
	if in.Now.IsZero() {
		in.Now = time.Now()
	}

	res := &ValuationResult{
		Symbol:       in.Profile.Symbol,
		Currency:     in.Profile.Currency.String,
		CurrentPrice: currentPrice(in),
	}
	discountRate := estimateDiscountRate(in.Profile, cfg)

	res.DCF = dcfValuation(in, cfg, discountRate, res.CurrentPrice)
	res.DDM = ddmValuation(in, cfg, discountRate, res.CurrentPrice)
	res.Dividends = dividendAnalysis(in, res.CurrentPrice)
	res.Earnings = earningsAnalysis(in, cfg)
	return res
}

func currentPrice(in ValuationInput) model.Metric {
	if in.Profile.CurrentPrice.Valid && in.Profile.CurrentPrice.Float64 > 0 {
		return model.DefinedMetric(in.Profile.CurrentPrice.Float64)
	}
	if in.Prices != nil && in.Prices.Len() > 0 {
		return model.DefinedMetric(in.Prices.Last().Close)
	}
	return model.UndefinedMetric(model.ReasonInsufficientData)
}

// estimateDiscountRate applies CAPM: risk-free rate + beta * market premium.
// A missing or non-positive beta falls back to the market beta of 1.
func estimateDiscountRate(profile model.CompanyProfile, cfg config.ValuationConfig) float64 {
	beta := 1.0
	if profile.Beta.Valid && profile.Beta.Float64 > 0 {
		beta = profile.Beta.Float64
	}
	return cfg.RiskFreeRate + beta*cfg.MarketRiskPremium
}

func dcfValuation(in ValuationInput, cfg config.ValuationConfig, discountRate float64, price model.Metric) DCFResult {
	res := DCFResult{
		IntrinsicValue:  model.UndefinedMetric(model.ReasonMissingLineItem),
		Gap:             model.UndefinedMetric(model.ReasonMissingLineItem),
		FCFCurrent:      model.UndefinedMetric(model.ReasonMissingLineItem),
		GrowthRate:      model.UndefinedMetric(model.ReasonInsufficientData),
		DiscountRate:    model.DefinedMetric(discountRate),
		EnterpriseValue: model.UndefinedMetric(model.ReasonMissingLineItem),
		EquityValue:     model.UndefinedMetric(model.ReasonMissingLineItem),
		NetDebt:         model.UndefinedMetric(model.ReasonMissingLineItem),
		TerminalGrowth:  cfg.TerminalGrowthRate,
		ProjectionYears: cfg.ProjectionYears,
	}

	fcf, ok := freeCashFlow(in.Fundamentals.CashFlowAnnual, 0)
	if !ok {
		return res
	}
	res.FCFCurrent = model.DefinedMetric(fcf)
	if fcf <= 0 {
		res.IntrinsicValue = model.UndefinedMetric(model.ReasonInvalidAssumption)
		res.Gap = model.UndefinedMetric(model.ReasonInvalidAssumption)
		return res
	}

	growth := estimateFCFGrowth(in.Fundamentals.CashFlowAnnual)
	if math.IsNaN(growth) {
		growth = 0.05
	}
	if growth > cfg.MaxGrowthRate {
		growth = cfg.MaxGrowthRate
	}
	res.GrowthRate = model.DefinedMetric(growth)

	if discountRate <= cfg.TerminalGrowthRate {
		res.IntrinsicValue = model.UndefinedMetric(model.ReasonInvalidAssumption)
		res.Gap = model.UndefinedMetric(model.ReasonInvalidAssumption)
		return res
	}

	var pvProjected float64
	for year := 1; year <= cfg.ProjectionYears; year++ {
		fcfYear := fcf * math.Pow(1+growth, float64(year))
		pvProjected += fcfYear / math.Pow(1+discountRate, float64(year))
	}

	fcfFinal := fcf * math.Pow(1+growth, float64(cfg.ProjectionYears))
	terminal := fcfFinal * (1 + cfg.TerminalGrowthRate) / (discountRate - cfg.TerminalGrowthRate)
	pvTerminal := terminal / math.Pow(1+discountRate, float64(cfg.ProjectionYears))

	enterprise := pvProjected + pvTerminal
	res.EnterpriseValue = model.DefinedMetric(enterprise)

	netDebt := in.Profile.TotalDebt.Float64 - in.Profile.TotalCash.Float64
	res.NetDebt = model.DefinedMetric(netDebt)
	equity := enterprise - netDebt
	res.EquityValue = model.DefinedMetric(equity)

	shares := sharesOutstanding(in.Profile, price)
	if shares <= 0 {
		res.IntrinsicValue = model.UndefinedMetric(model.ReasonMissingLineItem)
		return res
	}
	intrinsic := equity / shares
	res.IntrinsicValue = model.DefinedMetric(intrinsic)
	res.Gap, res.GapLabel = fairValueGap(price, intrinsic)
	return res
}

func estimateFCFGrowth(h *model.StatementHistory) float64 {
	var values []float64
	for age := 0; age < 3; age++ {
		if fcf, ok := freeCashFlow(h, age); ok {
			values = append(values, fcf)
		}
	}
	if len(values) < 2 {
		return math.NaN()
	}
	oldest := values[len(values)-1]
	return calculator.CAGR(oldest, values[0], float64(len(values)-1))
}

func sharesOutstanding(profile model.CompanyProfile, price model.Metric) float64 {
	if profile.SharesOutstanding.Valid && profile.SharesOutstanding.Float64 > 0 {
		return profile.SharesOutstanding.Float64
	}
	if profile.MarketCap.Valid && profile.MarketCap.Float64 > 0 && price.Defined && price.Value > 0 {
		return profile.MarketCap.Float64 / price.Value
	}
	return 0
}

// fairValueGap is the current price's deviation from intrinsic value as a
// decimal: positive means the market price sits above the model's value.
func fairValueGap(price model.Metric, intrinsic float64) (model.Metric, string) {
	if !price.Defined || price.Value <= 0 || intrinsic == 0 {
		return model.UndefinedMetric(model.ReasonInsufficientData), ""
	}
	gap := (price.Value - intrinsic) / intrinsic
	label := GapFairValue
	if gap > 0.05 {
		label = GapOvervalued
	} else if gap < -0.05 {
		label = GapUndervalued
	}
	return model.DefinedMetric(gap), label
}

func ddmValuation(in ValuationInput, cfg config.ValuationConfig, requiredReturn float64, price model.Metric) DDMResult {
	res := DDMResult{
		IntrinsicValue: model.UndefinedMetric(model.ReasonInsufficientData),
		Gap:            model.UndefinedMetric(model.ReasonInsufficientData),
		AnnualDividend: model.UndefinedMetric(model.ReasonInsufficientData),
		NextDividend:   model.UndefinedMetric(model.ReasonInsufficientData),
		GrowthRate:     model.UndefinedMetric(model.ReasonInsufficientData),
		RequiredReturn: model.DefinedMetric(requiredReturn),
	}
	if in.Dividends == nil || len(in.Dividends.Payments) == 0 {
		return res
	}

	ttm := in.Dividends.TrailingTotal(in.Now)
	if ttm <= 0 {
		return res
	}
	res.AnnualDividend = model.DefinedMetric(ttm)

	growth := dividendGrowthRate(in.Dividends)
	if math.IsNaN(growth) {
		growth = 0.03
	}
	res.GrowthRate = model.DefinedMetric(growth)

	if requiredReturn <= growth {
		res.IntrinsicValue = model.UndefinedMetric(model.ReasonInvalidAssumption)
		res.Gap = model.UndefinedMetric(model.ReasonInvalidAssumption)
		return res
	}

	d1 := ttm * (1 + growth)
	res.NextDividend = model.DefinedMetric(d1)
	intrinsic := d1 / (requiredReturn - growth)
	res.IntrinsicValue = model.DefinedMetric(intrinsic)
	res.Gap, res.GapLabel = fairValueGap(price, intrinsic)
	return res
}

// dividendGrowthRate is the CAGR over the last up-to-five calendar years of
// annual totals. NaN with fewer than two years on record.
func dividendGrowthRate(d *model.DividendHistory) float64 {
	annual := d.AnnualTotals()
	if len(annual) < 2 {
		return math.NaN()
	}
	if len(annual) > 5 {
		annual = annual[len(annual)-5:]
	}
	first, last := annual[0], annual[len(annual)-1]
	return calculator.CAGR(first.Amount, last.Amount, float64(last.Year-first.Year))
}

func dividendAnalysis(in ValuationInput, price model.Metric) DividendResult {
	res := DividendResult{
		Yield:               model.UndefinedMetric(model.ReasonInsufficientData),
		AnnualDividend:      model.UndefinedMetric(model.ReasonInsufficientData),
		PayoutRatio:         model.UndefinedMetric(model.ReasonMissingLineItem),
		CoverageRatio:       model.UndefinedMetric(model.ReasonMissingLineItem),
		GrowthRate:          model.UndefinedMetric(model.ReasonInsufficientData),
		SustainabilityScore: model.UndefinedMetric(model.ReasonInsufficientData),
	}
	if in.Dividends == nil || len(in.Dividends.Payments) == 0 {
		return res
	}
	res.PaysDividends = true
	res.LatestExDate = in.Dividends.Payments[len(in.Dividends.Payments)-1].Date

	ttm := in.Dividends.TrailingTotal(in.Now)
	if ttm > 0 {
		res.AnnualDividend = model.DefinedMetric(ttm)
		if price.Defined && price.Value > 0 {
			res.Yield = model.DefinedMetric(ttm / price.Value)
		}
	}
	if in.Profile.DividendYield.Valid && in.Profile.DividendYield.Float64 > 0 && !res.Yield.Defined {
		res.Yield = model.DefinedMetric(in.Profile.DividendYield.Float64)
	}

	res.GrowthRate = model.MetricFrom(dividendGrowthRate(in.Dividends), model.ReasonInsufficientData)

	res.ConsecutiveYears = consecutiveDividendYears(in.Dividends)

	if in.Profile.PayoutRatio.Valid && in.Profile.PayoutRatio.Float64 > 0 {
		payout := in.Profile.PayoutRatio.Float64
		res.PayoutRatio = model.DefinedMetric(payout)
		res.CoverageRatio = model.DefinedMetric(1 / payout)

		switch {
		case payout > 1.0:
			res.Warnings = append(res.Warnings, "payout ratio above 100%: dividends exceed earnings")
		case payout > 0.8:
			res.Warnings = append(res.Warnings, "payout ratio above 80%: limited room for growth")
		case 1/payout < 1.5:
			res.Warnings = append(res.Warnings, "dividend coverage below 1.5x: elevated cut risk")
		}
	}

	score := dividendSustainabilityScore(res)
	res.SustainabilityScore = model.DefinedMetric(float64(score))
	switch {
	case score >= 80:
		res.SustainabilityRating = "excellent"
	case score >= 60:
		res.SustainabilityRating = "good"
	case score >= 40:
		res.SustainabilityRating = "fair"
	case score >= 20:
		res.SustainabilityRating = "poor"
	default:
		res.SustainabilityRating = "high_risk"
	}
	return res
}

// consecutiveDividendYears counts the unbroken run of calendar years with
// payments, ending at the most recent year on record.
func consecutiveDividendYears(d *model.DividendHistory) int {
	annual := d.AnnualTotals()
	if len(annual) == 0 {
		return 0
	}
	count := 1
	for i := len(annual) - 1; i > 0; i-- {
		if annual[i].Year-annual[i-1].Year != 1 {
			break
		}
		count++
	}
	return count
}

// dividendSustainabilityScore combines payout (40), growth (30), and streak
// length (30) into a 0-100 scale with fixed breakpoints.
func dividendSustainabilityScore(d DividendResult) int {
	score := 0
	if d.PayoutRatio.Defined {
		switch payout := d.PayoutRatio.Value; {
		case payout <= 0.50:
			score += 40
		case payout <= 0.70:
			score += 30
		case payout <= 0.90:
			score += 15
		case payout <= 1.00:
			score += 5
		}
	}
	if d.GrowthRate.Defined {
		switch growth := d.GrowthRate.Value; {
		case growth >= 0.10:
			score += 30
		case growth >= 0.05:
			score += 20
		case growth >= 0:
			score += 10
		}
	}
	switch streak := d.ConsecutiveYears; {
	case streak >= 10:
		score += 30
	case streak >= 5:
		score += 20
	case streak >= 3:
		score += 10
	case streak >= 1:
		score += 5
	}
	return score
}

func earningsAnalysis(in ValuationInput, cfg config.ValuationConfig) EarningsResult {
	res := EarningsResult{
		CurrentEPS:     model.UndefinedMetric(model.ReasonInsufficientData),
		ForwardEPS:     model.UndefinedMetric(model.ReasonInsufficientData),
		Growth1Y:       model.UndefinedMetric(model.ReasonMissingLineItem),
		Growth3YCAGR:   model.UndefinedMetric(model.ReasonMissingLineItem),
		AvgSurprisePct: model.UndefinedMetric(model.ReasonInsufficientData),
		BeatRate:       model.UndefinedMetric(model.ReasonInsufficientData),
		QualityRatio:   model.UndefinedMetric(model.ReasonMissingLineItem),
	}

	if in.Profile.ForwardEPS.Valid {
		res.ForwardEPS = model.DefinedMetric(in.Profile.ForwardEPS.Float64)
	}

	if in.Earnings != nil && len(in.Earnings.Quarters) > 0 {
		quarters := in.Earnings.Quarters
		recent := quarters
		if len(recent) > 4 {
			recent = recent[len(recent)-4:]
		}

		if len(recent) == 4 {
			ttm := 0.0
			complete := true
			for _, q := range recent {
				if !q.EPSActual.Valid {
					complete = false
					break
				}
				ttm += q.EPSActual.Float64
			}
			if complete {
				res.CurrentEPS = model.DefinedMetric(ttm)
			}
		}

		var surprises []float64
		beats := 0
		scored := 0
		for _, q := range recent {
			s := EarningsSurprise{
				Quarter:     q.Quarter,
				EPSActual:   nullMetric(q.EPSActual),
				EPSEstimate: nullMetric(q.EPSEstimate),
				SurprisePct: model.UndefinedMetric(model.ReasonInsufficientData),
			}
			if q.EPSActual.Valid && q.EPSEstimate.Valid {
				scored++
				if q.EPSActual.Float64 >= q.EPSEstimate.Float64 {
					beats++
				}
				// Near-zero estimates make the surprise ratio explode, so it
				// stays undefined below the stability floor.
				if math.Abs(q.EPSEstimate.Float64) < cfg.SurpriseEstimateFloor {
					s.SurprisePct = model.UndefinedMetric(model.ReasonUndefinedRatio)
				} else {
					pct := (q.EPSActual.Float64 - q.EPSEstimate.Float64) / math.Abs(q.EPSEstimate.Float64)
					s.SurprisePct = model.DefinedMetric(pct)
					surprises = append(surprises, pct)
				}
			}
			res.Surprises = append(res.Surprises, s)
		}
		if len(surprises) > 0 {
			res.AvgSurprisePct = model.DefinedMetric(calculator.Mean(surprises))
		}
		if scored > 0 {
			res.BeatRate = model.DefinedMetric(float64(beats) / float64(scored))
		}
	}

	income := in.Fundamentals.IncomeAnnual
	epsCurrent, okCur := epsItem(income, 0)
	if eps1y, ok := epsItem(income, 1); okCur && ok && eps1y != 0 {
		res.Growth1Y = model.DefinedMetric((epsCurrent - eps1y) / math.Abs(eps1y))
	}
	if eps3y, ok := epsItem(income, 3); okCur && ok && eps3y > 0 {
		res.Growth3YCAGR = model.MetricFrom(calculator.CAGR(eps3y, epsCurrent, 3), model.ReasonUndefinedRatio)
	}

	if res.Growth1Y.Defined {
		switch g := res.Growth1Y.Value; {
		case g > 0.10:
			res.Trend = "strong_growth"
		case g > 0:
			res.Trend = "moderate_growth"
		case g > -0.10:
			res.Trend = "slight_decline"
		default:
			res.Trend = "declining"
		}
	}

	res.QualityRatio, res.QualityLabel = earningsQuality(in.Fundamentals)
	return res
}

func epsItem(h *model.StatementHistory, age int) (float64, bool) {
	if v, ok := h.Item(model.LineDilutedEPS, age); ok {
		return v, true
	}
	return h.Item(model.LineBasicEPS, age)
}

// earningsQuality labels cash backing of reported income by the OCF to net
// income ratio: >= 1.2 strong, >= 0.8 fair, else weak.
func earningsQuality(f *model.Fundamentals) (model.Metric, string) {
	netIncome, okNI := f.IncomeAnnual.Item(model.LineNetIncome, 0)
	ocf, okOCF := f.CashFlowAnnual.Item(model.LineOperatingCashFlow, 0)
	if !okNI || !okOCF {
		return model.UndefinedMetric(model.ReasonMissingLineItem), ""
	}
	if netIncome <= 0 {
		return model.UndefinedMetric(model.ReasonUndefinedRatio), ""
	}
	ratio := ocf / netIncome
	label := "weak"
	if ratio >= 1.2 {
		label = "strong"
	} else if ratio >= 0.8 {
		label = "fair"
	}
	return model.DefinedMetric(ratio), label
}

func nullMetric(v null.Float) model.Metric {
	if !v.Valid {
		return model.UndefinedMetric(model.ReasonMissingLineItem)
	}
	return model.DefinedMetric(v.Float64)
}
