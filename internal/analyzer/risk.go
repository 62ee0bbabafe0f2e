package analyzer

import (
	"fmt"
	"math"
	"time"

	"EquityScope/internal/calculator"
	"EquityScope/internal/config"
	"EquityScope/internal/model"
)

// TradingDaysPerYear is the annualization base for daily return series.
const TradingDaysPerYear = 252

// ReturnStats summarizes the daily return distribution.
type ReturnStats struct {
	DailyMean        model.Metric `json:"daily_mean"`
	DailyStd         model.Metric `json:"daily_std"`
	DailyMin         model.Metric `json:"daily_min"`
	DailyMax         model.Metric `json:"daily_max"`
	CumulativeReturn model.Metric `json:"cumulative_return"`
	AnnualizedReturn model.Metric `json:"annualized_return"`
	TradingDays      int          `json:"trading_days"`
	PositiveDays     int          `json:"positive_days"`
	NegativeDays     int          `json:"negative_days"`
	WinRate          model.Metric `json:"win_rate"`
}

// VolatilityStats holds daily and annualized dispersion measures plus the
// rolling-window view.
type VolatilityStats struct {
	Daily             model.Metric `json:"daily_volatility"`
	Annualized        model.Metric `json:"annualized_volatility"`
	DownsideDeviation model.Metric `json:"downside_deviation"`
	RollingCurrent    model.Metric `json:"rolling_current"`
	RollingMean       model.Metric `json:"rolling_mean"`
	RollingMax        model.Metric `json:"rolling_max"`
	RollingWindow     int          `json:"rolling_window,omitempty"`
}

// DrawdownStats describes the peak-to-trough behavior of the series.
type DrawdownStats struct {
	Max           model.Metric `json:"max_drawdown"`
	MaxDate       time.Time    `json:"max_drawdown_date,omitzero"`
	Current       model.Metric `json:"current_drawdown"`
	DaysSincePeak int          `json:"days_since_peak"`
	RecoveryDays  model.Metric `json:"recovery_days"`
	IsRecovered   bool         `json:"is_recovered"`
}

// VaRStats holds tail-risk measures at one confidence level. Values are
// daily returns, negative for losses.
type VaRStats struct {
	Confidence     float64      `json:"confidence_level"`
	Historical     model.Metric `json:"var_historical"`
	CVaRHistorical model.Metric `json:"cvar_historical"`
	Parametric     model.Metric `json:"var_parametric"`
	WorstDay       model.Metric `json:"worst_day"`
}

// MarketRisk relates the asset to its benchmark.
type MarketRisk struct {
	Benchmark        string       `json:"benchmark"`
	Beta             model.Metric `json:"beta"`
	Alpha            model.Metric `json:"alpha"`
	Correlation      model.Metric `json:"correlation"`
	RSquared         model.Metric `json:"r_squared"`
	InformationRatio model.Metric `json:"information_ratio"`
}

// RollingStats summarizes a rolling ratio series.
type RollingStats struct {
	Current model.Metric `json:"current"`
	Mean    model.Metric `json:"mean"`
	Min     model.Metric `json:"min"`
	Max     model.Metric `json:"max"`
	Std     model.Metric `json:"std"`
}

// RiskResult is the full risk analysis output. MarketRisk is nil when no
// benchmark was supplied, never zero-filled.
type RiskResult struct {
	Symbol     string                  `json:"symbol"`
	Returns    ReturnStats             `json:"returns"`
	Volatility VolatilityStats         `json:"volatility"`
	Sharpe     model.Metric            `json:"sharpe_ratio"`
	Sortino    model.Metric            `json:"sortino_ratio"`
	Calmar     model.Metric            `json:"calmar_ratio"`
	Drawdown   DrawdownStats           `json:"drawdown"`
	VaR        []VaRStats              `json:"var"`
	Market     *MarketRisk             `json:"market_risk,omitempty"`
	Rolling    map[string]RollingStats `json:"rolling_ratios,omitempty"`
}

// AnalyzeRisk computes the return distribution, volatility, risk-adjusted
// ratios, drawdown, tail risk, and benchmark-relative metrics. The benchmark
// may be nil, in which case market risk is omitted entirely.
func AnalyzeRisk(series, benchmark *model.PriceSeries, cfg config.RiskConfig) (*RiskResult, error) {
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("risk analysis: %w", err)
	}

	returns := calculator.Drop(calculator.Returns(series.Closes()))
	dailyRF := cfg.RiskFreeRate / TradingDaysPerYear

	res := &RiskResult{
		Symbol:     series.Symbol,
		Returns:    returnStats(returns),
		Volatility: volatilityStats(returns, cfg.RollingWindows),
		Sharpe:     sharpeRatio(returns, dailyRF),
		Sortino:    sortinoRatio(returns, dailyRF),
		Drawdown:   drawdownStats(series),
		Rolling:    rollingRatios(returns, dailyRF, cfg.RollingWindows),
	}
	res.Calmar = calmarRatio(res.Returns.AnnualizedReturn, res.Drawdown.Max)

	for _, level := range cfg.ConfidenceLevels {
		res.VaR = append(res.VaR, varStats(returns, level))
	}

	if benchmark != nil {
		if err := benchmark.Validate(); err != nil {
			return nil, fmt.Errorf("risk analysis: benchmark: %w", err)
		}
		res.Market = marketRisk(series, benchmark, cfg.RiskFreeRate)
	}
	return res, nil
}

func returnStats(returns []float64) ReturnStats {
	s := ReturnStats{
		DailyMean:        model.UndefinedMetric(model.ReasonInsufficientData),
		DailyStd:         model.UndefinedMetric(model.ReasonInsufficientData),
		DailyMin:         model.UndefinedMetric(model.ReasonInsufficientData),
		DailyMax:         model.UndefinedMetric(model.ReasonInsufficientData),
		CumulativeReturn: model.UndefinedMetric(model.ReasonInsufficientData),
		AnnualizedReturn: model.UndefinedMetric(model.ReasonInsufficientData),
		WinRate:          model.UndefinedMetric(model.ReasonInsufficientData),
	}
	if len(returns) == 0 {
		return s
	}

	s.TradingDays = len(returns)
	min, max := returns[0], returns[0]
	cumulative := 1.0
	for _, r := range returns {
		if r > 0 {
			s.PositiveDays++
		} else if r < 0 {
			s.NegativeDays++
		}
		if r < min {
			min = r
		}
		if r > max {
			max = r
		}
		cumulative *= 1 + r
	}

	s.DailyMean = model.DefinedMetric(calculator.Mean(returns))
	s.DailyStd = model.MetricFrom(calculator.StdDev(returns), model.ReasonInsufficientData)
	s.DailyMin = model.DefinedMetric(min)
	s.DailyMax = model.DefinedMetric(max)
	s.CumulativeReturn = model.DefinedMetric(cumulative - 1)
	s.WinRate = model.DefinedMetric(float64(s.PositiveDays) / float64(len(returns)))

	years := float64(len(returns)) / TradingDaysPerYear
	if years > 0 && cumulative > 0 {
		s.AnnualizedReturn = model.DefinedMetric(math.Pow(cumulative, 1/years) - 1)
	}
	return s
}

func volatilityStats(returns []float64, windows []int) VolatilityStats {
	v := VolatilityStats{
		Daily:             model.UndefinedMetric(model.ReasonInsufficientData),
		Annualized:        model.UndefinedMetric(model.ReasonInsufficientData),
		DownsideDeviation: model.UndefinedMetric(model.ReasonInsufficientData),
		RollingCurrent:    model.UndefinedMetric(model.ReasonInsufficientData),
		RollingMean:       model.UndefinedMetric(model.ReasonInsufficientData),
		RollingMax:        model.UndefinedMetric(model.ReasonInsufficientData),
	}
	if len(returns) < 2 {
		return v
	}

	dailyStd := calculator.StdDev(returns)
	v.Daily = model.DefinedMetric(dailyStd)
	v.Annualized = model.DefinedMetric(dailyStd * math.Sqrt(TradingDaysPerYear))

	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) >= 2 {
		v.DownsideDeviation = model.DefinedMetric(calculator.StdDev(downside) * math.Sqrt(TradingDaysPerYear))
	} else if len(downside) == 0 {
		v.DownsideDeviation = model.DefinedMetric(0)
	}

	// Rolling volatility over the longest window that fits.
	window := 0
	for _, w := range windows {
		if w > window && len(returns) >= w {
			window = w
		}
	}
	if window > 1 {
		var rolling []float64
		for i := window; i <= len(returns); i++ {
			rolling = append(rolling, calculator.StdDev(returns[i-window:i])*math.Sqrt(TradingDaysPerYear))
		}
		v.RollingWindow = window
		v.RollingCurrent = model.DefinedMetric(rolling[len(rolling)-1])
		v.RollingMean = model.DefinedMetric(calculator.Mean(rolling))
		v.RollingMax = model.DefinedMetric(maxOf(rolling))
	}
	return v
}

// minDispersion is the standard deviation below which a return series is
// treated as zero-dispersion. Subtracting the daily risk-free rate from
// identical returns accumulates rounding on the order of 1e-18, so an exact
// zero test misses flat series.
const minDispersion = 1e-12

// sharpeRatio annualizes mean excess return over its standard deviation.
// A zero-dispersion series leaves the ratio undefined rather than zero.
func sharpeRatio(returns []float64, dailyRF float64) model.Metric {
	if len(returns) < 2 {
		return model.UndefinedMetric(model.ReasonInsufficientData)
	}
	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r - dailyRF
	}
	std := calculator.StdDev(excess)
	if std < minDispersion {
		return model.UndefinedMetric(model.ReasonUndefinedRatio)
	}
	return model.DefinedMetric(calculator.Mean(excess) / std * math.Sqrt(TradingDaysPerYear))
}

func sortinoRatio(returns []float64, dailyRF float64) model.Metric {
	if len(returns) < 2 {
		return model.UndefinedMetric(model.ReasonInsufficientData)
	}
	excess := make([]float64, 0, len(returns))
	var downside []float64
	for _, r := range returns {
		e := r - dailyRF
		excess = append(excess, e)
		if e < 0 {
			downside = append(downside, e)
		}
	}
	if len(downside) < 2 {
		return model.UndefinedMetric(model.ReasonUndefinedRatio)
	}
	std := calculator.StdDev(downside)
	if std < minDispersion {
		return model.UndefinedMetric(model.ReasonUndefinedRatio)
	}
	return model.DefinedMetric(calculator.Mean(excess) / std * math.Sqrt(TradingDaysPerYear))
}

func calmarRatio(annualizedReturn, maxDrawdown model.Metric) model.Metric {
	if !annualizedReturn.Defined || !maxDrawdown.Defined {
		return model.UndefinedMetric(model.ReasonInsufficientData)
	}
	if maxDrawdown.Value == 0 {
		return model.UndefinedMetric(model.ReasonUndefinedRatio)
	}
	return model.DefinedMetric(annualizedReturn.Value / math.Abs(maxDrawdown.Value))
}

func drawdownStats(series *model.PriceSeries) DrawdownStats {
	d := DrawdownStats{
		Max:          model.UndefinedMetric(model.ReasonInsufficientData),
		Current:      model.UndefinedMetric(model.ReasonInsufficientData),
		RecoveryDays: model.UndefinedMetric(model.ReasonInsufficientData),
	}
	bars := series.Bars
	if len(bars) == 0 {
		return d
	}

	peak := bars[0].Close
	maxDD := 0.0
	maxIdx := 0
	current := 0.0
	for i, b := range bars {
		if b.Close > peak {
			peak = b.Close
		}
		dd := 0.0
		if peak != 0 {
			dd = b.Close/peak - 1
		}
		if dd < maxDD {
			maxDD = dd
			maxIdx = i
		}
		current = dd
	}

	d.Max = model.DefinedMetric(maxDD)
	d.Current = model.DefinedMetric(current)
	d.IsRecovered = current >= -0.001
	if maxDD < 0 {
		d.MaxDate = bars[maxIdx].Time
	}

	// Count bars since the close last touched its running peak.
	runPeak := bars[0].Close
	peaks := make([]float64, len(bars))
	for i, b := range bars {
		if b.Close > runPeak {
			runPeak = b.Close
		}
		peaks[i] = runPeak
	}
	for i := len(bars) - 1; i >= 0; i-- {
		if bars[i].Close >= peaks[i] {
			break
		}
		d.DaysSincePeak++
	}

	// Recovery: calendar days from the trough until the close first regained
	// the pre-drawdown peak.
	if maxDD < 0 {
		target := peaks[maxIdx]
		for i := maxIdx; i < len(bars); i++ {
			if bars[i].Close >= target {
				d.RecoveryDays = model.DefinedMetric(bars[i].Time.Sub(bars[maxIdx].Time).Hours() / 24)
				break
			}
		}
	}
	return d
}

func varStats(returns []float64, confidence float64) VaRStats {
	v := VaRStats{
		Confidence:     confidence,
		Historical:     model.UndefinedMetric(model.ReasonInsufficientData),
		CVaRHistorical: model.UndefinedMetric(model.ReasonInsufficientData),
		Parametric:     model.UndefinedMetric(model.ReasonInsufficientData),
		WorstDay:       model.UndefinedMetric(model.ReasonInsufficientData),
	}
	if len(returns) == 0 {
		return v
	}

	hist := calculator.Percentile(returns, 1-confidence)
	v.Historical = model.MetricFrom(hist, model.ReasonInsufficientData)

	var below []float64
	for _, r := range returns {
		if r <= hist {
			below = append(below, r)
		}
	}
	if len(below) > 0 {
		v.CVaRHistorical = model.DefinedMetric(calculator.Mean(below))
	} else {
		v.CVaRHistorical = v.Historical
	}

	if len(returns) >= 2 {
		z := -calculator.NormInvCDF(1 - confidence)
		v.Parametric = model.DefinedMetric(calculator.Mean(returns) - z*calculator.StdDev(returns))
	}

	worst := returns[0]
	for _, r := range returns {
		if r < worst {
			worst = r
		}
	}
	v.WorstDay = model.DefinedMetric(worst)
	return v
}

// marketRisk aligns the two return series by bar date before regressing.
func marketRisk(series, benchmark *model.PriceSeries, riskFreeRate float64) *MarketRisk {
	m := &MarketRisk{
		Benchmark:        benchmark.Symbol,
		Beta:             model.UndefinedMetric(model.ReasonInsufficientData),
		Alpha:            model.UndefinedMetric(model.ReasonInsufficientData),
		Correlation:      model.UndefinedMetric(model.ReasonInsufficientData),
		RSquared:         model.UndefinedMetric(model.ReasonInsufficientData),
		InformationRatio: model.UndefinedMetric(model.ReasonInsufficientData),
	}

	asset, bench := alignedReturns(series, benchmark)
	if len(asset) < 2 {
		return m
	}

	benchVar := calculator.StdDev(bench)
	benchVar *= benchVar
	if benchVar == 0 {
		m.Beta = model.UndefinedMetric(model.ReasonUndefinedRatio)
	} else {
		beta := calculator.Covariance(asset, bench) / benchVar
		m.Beta = model.DefinedMetric(beta)

		assetAnnual := calculator.Mean(asset) * TradingDaysPerYear
		benchAnnual := calculator.Mean(bench) * TradingDaysPerYear
		m.Alpha = model.DefinedMetric(assetAnnual - (riskFreeRate + beta*(benchAnnual-riskFreeRate)))
	}

	corr := calculator.Correlation(asset, bench)
	if !math.IsNaN(corr) {
		m.Correlation = model.DefinedMetric(corr)
		m.RSquared = model.DefinedMetric(corr * corr)
	}

	active := make([]float64, len(asset))
	for i := range asset {
		active[i] = asset[i] - bench[i]
	}
	trackingError := calculator.StdDev(active)
	if trackingError > 0 {
		m.InformationRatio = model.DefinedMetric(calculator.Mean(active) / trackingError * math.Sqrt(TradingDaysPerYear))
	} else {
		m.InformationRatio = model.UndefinedMetric(model.ReasonUndefinedRatio)
	}
	return m
}

// alignedReturns intersects the two series by calendar date and returns the
// paired daily returns.
func alignedReturns(series, benchmark *model.PriceSeries) (asset, bench []float64) {
	type day struct{ y, m, d int }
	key := func(t time.Time) day {
		y, m, d := t.Date()
		return day{y, int(m), d}
	}

	benchReturns := map[day]float64{}
	for i := 1; i < len(benchmark.Bars); i++ {
		prev := benchmark.Bars[i-1].Close
		if prev == 0 {
			continue
		}
		benchReturns[key(benchmark.Bars[i].Time)] = benchmark.Bars[i].Close/prev - 1
	}

	for i := 1; i < len(series.Bars); i++ {
		prev := series.Bars[i-1].Close
		if prev == 0 {
			continue
		}
		if br, ok := benchReturns[key(series.Bars[i].Time)]; ok {
			asset = append(asset, series.Bars[i].Close/prev-1)
			bench = append(bench, br)
		}
	}
	return asset, bench
}

func rollingRatios(returns []float64, dailyRF float64, windows []int) map[string]RollingStats {
	out := map[string]RollingStats{}
	for _, window := range windows {
		if window < 2 || len(returns) < window {
			continue
		}
		var sharpes, sortinos []float64
		for i := window; i <= len(returns); i++ {
			win := returns[i-window : i]
			if s := sharpeRatio(win, dailyRF); s.Defined {
				sharpes = append(sharpes, s.Value)
			}
			if s := sortinoRatio(win, dailyRF); s.Defined {
				sortinos = append(sortinos, s.Value)
			}
		}
		if len(sharpes) > 0 {
			out[fmt.Sprintf("sharpe_%dd", window)] = summarizeRolling(sharpes)
		}
		if len(sortinos) > 0 {
			out[fmt.Sprintf("sortino_%dd", window)] = summarizeRolling(sortinos)
		}
	}
	return out
}

func summarizeRolling(values []float64) RollingStats {
	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return RollingStats{
		Current: model.DefinedMetric(values[len(values)-1]),
		Mean:    model.DefinedMetric(calculator.Mean(values)),
		Min:     model.DefinedMetric(min),
		Max:     model.DefinedMetric(max),
		Std:     model.MetricFrom(calculator.StdDev(values), model.ReasonInsufficientData),
	}
}

func maxOf(values []float64) float64 {
	max := values[0]
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	return max
}
