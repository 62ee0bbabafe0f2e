package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/guregu/null/v6"

	"EquityScope/internal/analyzer"
	"EquityScope/internal/model"
)

// currencySymbols maps ISO currency codes to display symbols. Codes without
// an entry are printed as-is before the amount.
var currencySymbols = map[string]string{
	"USD": "$",
	"CAD": "CA$",
	"EUR": "€",
	"GBP": "£",
	"NOK": "kr",
}

type formatter struct {
	prefix string
}

func newFormatter(currency null.String) formatter {
	if !currency.Valid || currency.String == "" {
		return formatter{}
	}
	if sym, ok := currencySymbols[currency.String]; ok {
		return formatter{prefix: sym}
	}
	return formatter{prefix: currency.String + " "}
}

func na(m model.Metric) string {
	if m.Reason != "" {
		return fmt.Sprintf("N/A (%s)", m.Reason)
	}
	return "N/A"
}

// money formats a currency amount, scaling large magnitudes to M/B/T.
func (f formatter) money(m model.Metric) string {
	if !m.Defined {
		return na(m)
	}
	v := m.Value
	switch abs := math.Abs(v); {
	case abs >= 1e12:
		return fmt.Sprintf("%s%.2fT", f.prefix, v/1e12)
	case abs >= 1e9:
		return fmt.Sprintf("%s%.2fB", f.prefix, v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%s%.2fM", f.prefix, v/1e6)
	default:
		return f.prefix + humanize.FormatFloat("#,###.##", v)
	}
}

// percent formats a decimal rate as a percentage.
func percent(m model.Metric) string {
	if !m.Defined {
		return na(m)
	}
	return fmt.Sprintf("%.2f%%", m.Value*100)
}

func ratio(m model.Metric) string {
	if !m.Defined {
		return na(m)
	}
	return fmt.Sprintf("%.2f", m.Value)
}

func days(m model.Metric) string {
	if !m.Defined {
		return na(m)
	}
	return fmt.Sprintf("%.0f days", m.Value)
}

// RenderMarkdown renders the full report as GFM Markdown.
func RenderMarkdown(doc *Document) string {
	md := []string{
		fmt.Sprintf("# %s - Equity Research Report", doc.Symbol),
		"",
		fmt.Sprintf("**Generated:** %s", doc.GeneratedAt.Format("2006-01-02 15:04:05")),
		fmt.Sprintf("**Period:** %s", doc.Period),
		fmt.Sprintf("**Run ID:** %s", doc.RunID),
		"",
	}

	md = append(md, executiveSummary(doc)...)
	md = append(md, overviewSection(doc)...)
	if doc.Technical != nil {
		md = append(md, technicalSection(doc.Technical)...)
	}
	if doc.Fundamental != nil {
		md = append(md, fundamentalSection(doc.Fundamental)...)
	}
	if doc.Risk != nil {
		md = append(md, riskSection(doc.Risk)...)
	}
	if doc.Valuation != nil {
		md = append(md, valuationSection(doc.Valuation, doc.Profile)...)
	}

	return strings.Join(md, "\n") + "\n"
}

func executiveSummary(doc *Document) []string {
	f := newFormatter(doc.Profile.Currency)
	var parts []string

	if doc.Valuation != nil && doc.Valuation.CurrentPrice.Defined {
		parts = append(parts, fmt.Sprintf("trades at %s", f.money(doc.Valuation.CurrentPrice)))
	}
	if doc.Technical != nil {
		if s, ok := doc.Technical.Signals["ma_trend"]; ok && s != model.SignalUnavailable {
			parts = append(parts, fmt.Sprintf("moving-average trend is %s", s))
		}
	}
	if doc.Valuation != nil && doc.Valuation.DCF.Gap.Defined {
		parts = append(parts, fmt.Sprintf("DCF gap %s (%s)",
			percent(doc.Valuation.DCF.Gap), doc.Valuation.DCF.GapLabel))
	}
	if doc.Risk != nil && doc.Risk.Drawdown.Max.Defined {
		parts = append(parts, fmt.Sprintf("max drawdown %s", percent(doc.Risk.Drawdown.Max)))
	}
	if doc.Fundamental != nil && doc.Fundamental.Quality.PiotroskiF.Defined {
		parts = append(parts, fmt.Sprintf("Piotroski F %.0f/9", doc.Fundamental.Quality.PiotroskiF.Value))
	}
	if len(parts) == 0 {
		return nil
	}

	return []string{
		"## Executive Summary",
		"",
		fmt.Sprintf("%s %s.", doc.Symbol, strings.Join(parts, "; ")),
		"",
	}
}

func nullStr(s null.String) string {
	if !s.Valid || s.String == "" {
		return "N/A"
	}
	return s.String
}

func nullMoney(f formatter, v null.Float) string {
	if !v.Valid {
		return "N/A"
	}
	return f.money(model.DefinedMetric(v.Float64))
}

func overviewSection(doc *Document) []string {
	p := doc.Profile
	f := newFormatter(p.Currency)

	md := []string{
		"## Company Overview",
		"",
		fmt.Sprintf("- **Name:** %s", nullStr(p.Name)),
		fmt.Sprintf("- **Sector:** %s", nullStr(p.Sector)),
		fmt.Sprintf("- **Industry:** %s", nullStr(p.Industry)),
		fmt.Sprintf("- **Exchange:** %s", nullStr(p.Exchange)),
		fmt.Sprintf("- **Currency:** %s", nullStr(p.Currency)),
		fmt.Sprintf("- **Market Cap:** %s", nullMoney(f, p.MarketCap)),
	}
	if p.SharesOutstanding.Valid {
		md = append(md, fmt.Sprintf("- **Shares Outstanding:** %s",
			humanize.Comma(int64(p.SharesOutstanding.Float64))))
	}
	if p.Beta.Valid {
		md = append(md, fmt.Sprintf("- **Beta:** %.2f", p.Beta.Float64))
	}
	return append(md, "")
}

func technicalSection(t *analyzer.TechnicalResult) []string {
	md := []string{
		"## Technical Analysis",
		"",
		"### Latest Indicator Values",
		"",
		"| Indicator | Value |",
		"|-----------|-------|",
	}
	for _, s := range t.Series {
		md = append(md, fmt.Sprintf("| %s | %s |", s.Name, ratio(t.Latest.Get(s.Name))))
	}
	md = append(md, "", "### Signals", "")

	keys := make([]string, 0, len(t.Signals))
	for k := range t.Signals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		md = append(md, fmt.Sprintf("- **%s:** %s", k, t.Signals[k]))
	}
	return append(md, "")
}

func fundamentalSection(fr *analyzer.FundamentalResult) []string {
	md := []string{
		"## Fundamental Analysis",
		"",
		"### Growth",
		"",
		"| Metric | 1Y | 3Y CAGR | 5Y CAGR |",
		"|--------|-----|---------|---------|",
		fmt.Sprintf("| Revenue | %s | %s | %s |",
			percent(fr.Revenue.OneYear), percent(fr.Revenue.ThreeYear), percent(fr.Revenue.FiveYear)),
		fmt.Sprintf("| Earnings | %s | %s | %s |",
			percent(fr.Earnings.OneYear), percent(fr.Earnings.ThreeYear), percent(fr.Earnings.FiveYear)),
		fmt.Sprintf("| Free Cash Flow | %s | %s | %s |",
			percent(fr.FCFGrowth.OneYear), percent(fr.FCFGrowth.ThreeYear), percent(fr.FCFGrowth.FiveYear)),
		"",
		"### Margins",
		"",
		fmt.Sprintf("- **Gross Margin:** %s", percent(fr.Margins.Gross)),
		fmt.Sprintf("- **EBITDA Margin:** %s", percent(fr.Margins.EBITDA)),
		fmt.Sprintf("- **Operating Margin:** %s", percent(fr.Margins.Operating)),
		fmt.Sprintf("- **Net Margin:** %s", percent(fr.Margins.Net)),
	}
	if fr.Margins.NetTrend != "" {
		md = append(md, fmt.Sprintf("- **Net Margin Trend:** %s", fr.Margins.NetTrend))
	}

	md = append(md,
		"",
		"### Free Cash Flow",
		"",
		fmt.Sprintf("- **FCF Yield:** %s", percent(fr.FCF.Yield)),
		fmt.Sprintf("- **FCF per Share:** %s", ratio(fr.FCF.PerShare)),
		fmt.Sprintf("- **FCF Margin:** %s", percent(fr.FCF.Margin)),
		"",
		"### Efficiency",
		"",
		fmt.Sprintf("- **Asset Turnover:** %s", ratio(fr.Efficiency.AssetTurnover)),
		fmt.Sprintf("- **Inventory Turnover:** %s", ratio(fr.Efficiency.InventoryTurnover)),
		fmt.Sprintf("- **Days Inventory Outstanding:** %s", days(fr.Efficiency.DaysInventory)),
		fmt.Sprintf("- **Days Sales Outstanding:** %s", days(fr.Efficiency.DaysSales)),
		fmt.Sprintf("- **Days Payable Outstanding:** %s", days(fr.Efficiency.DaysPayable)),
		fmt.Sprintf("- **Cash Conversion Cycle:** %s", days(fr.Efficiency.CashConversionCycle)),
		"",
		"### DuPont ROE",
		"",
		fmt.Sprintf("- **Net Margin:** %s", percent(fr.DuPont.NetMargin)),
		fmt.Sprintf("- **Asset Turnover:** %s", ratio(fr.DuPont.AssetTurnover)),
		fmt.Sprintf("- **Equity Multiplier:** %s", ratio(fr.DuPont.EquityMultiplier)),
		fmt.Sprintf("- **ROE (calculated):** %s", percent(fr.DuPont.ROECalculated)),
		fmt.Sprintf("- **ROE (reported):** %s", percent(fr.DuPont.ROEReported)),
		"",
		"### Quality Scores",
		"",
	)
	if fr.Quality.AltmanZ.Defined {
		md = append(md, fmt.Sprintf("- **Altman Z-Score:** %.2f (%s zone)",
			fr.Quality.AltmanZ.Value, fr.Quality.AltmanZone))
	} else {
		md = append(md, fmt.Sprintf("- **Altman Z-Score:** %s", na(fr.Quality.AltmanZ)))
	}
	if fr.Quality.PiotroskiF.Defined {
		md = append(md, fmt.Sprintf("- **Piotroski F-Score:** %.0f/9 (%s)",
			fr.Quality.PiotroskiF.Value, fr.Quality.PiotroskiStrength))
	} else {
		md = append(md, fmt.Sprintf("- **Piotroski F-Score:** %s", na(fr.Quality.PiotroskiF)))
	}
	return append(md, "")
}

func interpretSharpe(sharpe float64) string {
	switch {
	case sharpe > 3.0:
		return "Excellent risk-adjusted performance"
	case sharpe > 2.0:
		return "Very good risk-adjusted performance"
	case sharpe > 1.0:
		return "Good risk-adjusted performance"
	case sharpe > 0:
		return "Positive but modest risk-adjusted return"
	default:
		return "Underperforming risk-free rate"
	}
}

func interpretBeta(beta float64) string {
	switch {
	case beta > 1.2:
		return "Significantly more volatile than market"
	case beta > 1.0:
		return "More volatile than market"
	case beta > 0.8:
		return "Slightly less volatile than market"
	case beta > 0:
		return "Less volatile than market"
	default:
		return "Moves inversely to market"
	}
}

func riskSection(r *analyzer.RiskResult) []string {
	md := []string{
		"## Risk Analysis",
		"",
		"### Returns",
		"",
		fmt.Sprintf("- **Daily Mean:** %s", percent(r.Returns.DailyMean)),
		fmt.Sprintf("- **Cumulative Return:** %s", percent(r.Returns.CumulativeReturn)),
		fmt.Sprintf("- **Annualized Return:** %s", percent(r.Returns.AnnualizedReturn)),
		fmt.Sprintf("- **Trading Days:** %d (%d up / %d down, win rate %s)",
			r.Returns.TradingDays, r.Returns.PositiveDays, r.Returns.NegativeDays,
			percent(r.Returns.WinRate)),
		"",
		"### Volatility",
		"",
		fmt.Sprintf("- **Daily Volatility:** %s", percent(r.Volatility.Daily)),
		fmt.Sprintf("- **Annualized Volatility:** %s", percent(r.Volatility.Annualized)),
		fmt.Sprintf("- **Downside Deviation:** %s", percent(r.Volatility.DownsideDeviation)),
		"",
		"### Risk-Adjusted Returns",
		"",
	}

	md = append(md, fmt.Sprintf("- **Sharpe Ratio:** %s", ratio(r.Sharpe)))
	if r.Sharpe.Defined {
		md = append(md, fmt.Sprintf("  - %s", interpretSharpe(r.Sharpe.Value)))
	}
	md = append(md, fmt.Sprintf("- **Sortino Ratio:** %s", ratio(r.Sortino)))
	md = append(md, fmt.Sprintf("- **Calmar Ratio:** %s", ratio(r.Calmar)))

	md = append(md,
		"",
		"### Drawdown",
		"",
		fmt.Sprintf("- **Maximum Drawdown:** %s", percent(r.Drawdown.Max)),
	)
	if !r.Drawdown.MaxDate.IsZero() {
		md = append(md, fmt.Sprintf("- **Max Drawdown Date:** %s", r.Drawdown.MaxDate.Format("2006-01-02")))
	}
	md = append(md,
		fmt.Sprintf("- **Current Drawdown:** %s", percent(r.Drawdown.Current)),
		fmt.Sprintf("- **Days Since Peak:** %d", r.Drawdown.DaysSincePeak),
	)
	if r.Drawdown.RecoveryDays.Defined {
		md = append(md, fmt.Sprintf("- **Recovery Time:** %s", days(r.Drawdown.RecoveryDays)))
	}
	if r.Drawdown.IsRecovered {
		md = append(md, "- **At Peak:** Yes")
	} else {
		md = append(md, "- **At Peak:** No")
	}

	if r.Market != nil {
		md = append(md,
			"",
			"### Market Risk",
			"",
			fmt.Sprintf("**Benchmark:** %s", r.Market.Benchmark),
			"",
			fmt.Sprintf("- **Beta:** %s", ratio(r.Market.Beta)),
		)
		if r.Market.Beta.Defined {
			md = append(md, fmt.Sprintf("  - %s", interpretBeta(r.Market.Beta.Value)))
		}
		md = append(md,
			fmt.Sprintf("- **Alpha:** %s", percent(r.Market.Alpha)),
			fmt.Sprintf("- **Correlation:** %s", ratio(r.Market.Correlation)),
			fmt.Sprintf("- **R-squared:** %s", percent(r.Market.RSquared)),
			fmt.Sprintf("- **Information Ratio:** %s", ratio(r.Market.InformationRatio)),
		)
	}

	if len(r.VaR) > 0 {
		md = append(md, "", "### Tail Risk (Value at Risk)", "")
		for _, v := range r.VaR {
			md = append(md,
				fmt.Sprintf("#### %.0f%% Confidence", v.Confidence*100),
				"",
				fmt.Sprintf("- **VaR (Historical):** %s", percent(v.Historical)),
				fmt.Sprintf("- **CVaR (Expected Shortfall):** %s", percent(v.CVaRHistorical)),
				fmt.Sprintf("- **VaR (Parametric):** %s", percent(v.Parametric)),
				"",
			)
		}
		worst := r.VaR[0].WorstDay
		if worst.Defined {
			md = append(md, fmt.Sprintf("**Worst Historical Day:** %s", percent(worst)), "")
		}
	}

	if len(r.Rolling) > 0 {
		md = append(md, "### Rolling Risk-Adjusted Ratios", "")
		keys := make([]string, 0, len(r.Rolling))
		for k := range r.Rolling {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		md = append(md,
			"| Window | Current | Mean | Min | Max |",
			"|--------|---------|------|-----|-----|",
		)
		for _, k := range keys {
			s := r.Rolling[k]
			md = append(md, fmt.Sprintf("| %s | %s | %s | %s | %s |",
				k, ratio(s.Current), ratio(s.Mean), ratio(s.Min), ratio(s.Max)))
		}
	}
	return append(md, "")
}

func valuationSection(v *analyzer.ValuationResult, profile model.CompanyProfile) []string {
	f := newFormatter(profile.Currency)

	md := []string{
		"## Valuation",
		"",
		fmt.Sprintf("**Current Price:** %s", f.money(v.CurrentPrice)),
		"",
		"### Discounted Cash Flow",
		"",
		fmt.Sprintf("- **Intrinsic Value per Share:** %s", f.money(v.DCF.IntrinsicValue)),
	}
	if v.DCF.Gap.Defined {
		md = append(md, fmt.Sprintf("- **Fair Value Gap:** %s (%s)", percent(v.DCF.Gap), v.DCF.GapLabel))
	} else {
		md = append(md, fmt.Sprintf("- **Fair Value Gap:** %s", na(v.DCF.Gap)))
	}
	md = append(md,
		fmt.Sprintf("- **Latest FCF:** %s", f.money(v.DCF.FCFCurrent)),
		fmt.Sprintf("- **Growth Rate Used:** %s", percent(v.DCF.GrowthRate)),
		fmt.Sprintf("- **Discount Rate:** %s", percent(v.DCF.DiscountRate)),
		fmt.Sprintf("- **Terminal Growth:** %.2f%%", v.DCF.TerminalGrowth*100),
		fmt.Sprintf("- **Enterprise Value:** %s", f.money(v.DCF.EnterpriseValue)),
		fmt.Sprintf("- **Net Debt:** %s", f.money(v.DCF.NetDebt)),
		"",
		"### Dividend Discount Model",
		"",
		fmt.Sprintf("- **Intrinsic Value per Share:** %s", f.money(v.DDM.IntrinsicValue)),
		fmt.Sprintf("- **Annual Dividend (TTM):** %s", f.money(v.DDM.AnnualDividend)),
		fmt.Sprintf("- **Growth Rate Used:** %s", percent(v.DDM.GrowthRate)),
		fmt.Sprintf("- **Required Return:** %s", percent(v.DDM.RequiredReturn)),
		"",
		"### Dividend Analysis",
		"",
	)

	if !v.Dividends.PaysDividends {
		md = append(md, "No dividends on record.")
	} else {
		md = append(md,
			fmt.Sprintf("- **Dividend Yield:** %s", percent(v.Dividends.Yield)),
			fmt.Sprintf("- **Payout Ratio:** %s", percent(v.Dividends.PayoutRatio)),
			fmt.Sprintf("- **Coverage Ratio:** %s", ratio(v.Dividends.CoverageRatio)),
			fmt.Sprintf("- **Growth Rate:** %s", percent(v.Dividends.GrowthRate)),
			fmt.Sprintf("- **Consecutive Years:** %d", v.Dividends.ConsecutiveYears),
		)
		if v.Dividends.SustainabilityScore.Defined {
			md = append(md, fmt.Sprintf("- **Sustainability:** %.0f/100 (%s)",
				v.Dividends.SustainabilityScore.Value, v.Dividends.SustainabilityRating))
		}
		for _, w := range v.Dividends.Warnings {
			md = append(md, fmt.Sprintf("- ⚠ %s", w))
		}
	}

	md = append(md,
		"",
		"### Earnings",
		"",
		fmt.Sprintf("- **EPS (TTM):** %s", ratio(v.Earnings.CurrentEPS)),
		fmt.Sprintf("- **Forward EPS:** %s", ratio(v.Earnings.ForwardEPS)),
		fmt.Sprintf("- **EPS Growth 1Y:** %s", percent(v.Earnings.Growth1Y)),
		fmt.Sprintf("- **EPS Growth 3Y CAGR:** %s", percent(v.Earnings.Growth3YCAGR)),
	)
	if v.Earnings.Trend != "" {
		md = append(md, fmt.Sprintf("- **Trend:** %s", v.Earnings.Trend))
	}
	md = append(md,
		fmt.Sprintf("- **Beat Rate:** %s", percent(v.Earnings.BeatRate)),
		fmt.Sprintf("- **Average Surprise:** %s", percent(v.Earnings.AvgSurprisePct)),
	)
	if v.Earnings.QualityLabel != "" {
		md = append(md, fmt.Sprintf("- **Earnings Quality (OCF/NI):** %s (%s)",
			ratio(v.Earnings.QualityRatio), v.Earnings.QualityLabel))
	}

	if len(v.Earnings.Surprises) > 0 {
		md = append(md,
			"",
			"#### Recent Quarters",
			"",
			"| Quarter | Actual | Estimate | Surprise |",
			"|---------|--------|----------|----------|",
		)
		for _, s := range v.Earnings.Surprises {
			md = append(md, fmt.Sprintf("| %s | %s | %s | %s |",
				s.Quarter, ratio(s.EPSActual), ratio(s.EPSEstimate), percent(s.SurprisePct)))
		}
	}
	return append(md, "")
}
