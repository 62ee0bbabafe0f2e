package analyzer

import (
	"fmt"
	"math"

	"EquityScope/internal/calculator"
	"EquityScope/internal/config"
	"EquityScope/internal/model"
)

// TechnicalResult carries the full per-bar indicator series for charting plus
// the flattened latest-value and signal views.
type TechnicalResult struct {
	Symbol  string                  `json:"symbol"`
	Series  []model.IndicatorSeries `json:"series"`
	Latest  model.MetricSummary     `json:"latest"`
	Signals map[string]model.Signal `json:"signals"`
}

// AnalyzeTechnical computes every configured indicator over the price series.
// Short series degrade to undefined warm-up prefixes; only an empty or
// unordered series fails the call.
func AnalyzeTechnical(series *model.PriceSeries, cfg config.TechnicalConfig) (*TechnicalResult, error) {
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("technical analysis: %w", err)
	}

	closes := series.Closes()
	res := &TechnicalResult{
		Symbol:  series.Symbol,
		Latest:  model.MetricSummary{},
		Signals: map[string]model.Signal{},
	}

	add := func(name string, values []float64) {
		res.Series = append(res.Series, model.IndicatorSeries{Name: name, Values: values})
		if len(values) > 0 {
			res.Latest.Set(name, model.MetricFrom(values[len(values)-1], model.ReasonInsufficientData))
		} else {
			res.Latest.Set(name, model.UndefinedMetric(model.ReasonInsufficientData))
		}
	}

	smaByPeriod := map[int][]float64{}
	for _, p := range cfg.SMAPeriods {
		sma, err := calculator.SMA(closes, p)
		if err != nil {
			return nil, fmt.Errorf("sma(%d): %w", p, err)
		}
		smaByPeriod[p] = sma
		add(fmt.Sprintf("sma_%d", p), sma)
	}

	emaShort, err := calculator.EMA(closes, cfg.EMAShort)
	if err != nil {
		return nil, fmt.Errorf("ema(%d): %w", cfg.EMAShort, err)
	}
	add(fmt.Sprintf("ema_%d", cfg.EMAShort), emaShort)

	emaLong, err := calculator.EMA(closes, cfg.EMALong)
	if err != nil {
		return nil, fmt.Errorf("ema(%d): %w", cfg.EMALong, err)
	}
	add(fmt.Sprintf("ema_%d", cfg.EMALong), emaLong)

	macd, macdSignal, macdHist, err := calculator.MACD(closes, cfg.EMAShort, cfg.EMALong, cfg.MACDSignal)
	if err != nil {
		return nil, fmt.Errorf("macd: %w", err)
	}
	add("macd", macd)
	add("macd_signal", macdSignal)
	add("macd_histogram", macdHist)

	rsi, err := calculator.RSI(closes, cfg.RSIPeriod)
	if err != nil {
		return nil, fmt.Errorf("rsi: %w", err)
	}
	add("rsi", rsi)

	stochK, stochD, err := calculator.Stochastic(series.Bars, cfg.StochKPeriod, cfg.StochDPeriod)
	if err != nil {
		return nil, fmt.Errorf("stochastic: %w", err)
	}
	add("stoch_k", stochK)
	add("stoch_d", stochD)

	williams, err := calculator.WilliamsR(series.Bars, cfg.WilliamsPeriod)
	if err != nil {
		return nil, fmt.Errorf("williams %%r: %w", err)
	}
	add("williams_r", williams)

	bbMid, bbUpper, bbLower, err := calculator.Bollinger(closes, cfg.BollingerPeriod, cfg.BollingerStdDev)
	if err != nil {
		return nil, fmt.Errorf("bollinger: %w", err)
	}
	add("bb_middle", bbMid)
	add("bb_upper", bbUpper)
	add("bb_lower", bbLower)

	atr, err := calculator.ATR(series.Bars, cfg.ATRPeriod)
	if err != nil {
		return nil, fmt.Errorf("atr: %w", err)
	}
	add("atr", atr)

	adx, plusDI, minusDI, err := calculator.ADX(series.Bars, cfg.ADXPeriod)
	if err != nil {
		return nil, fmt.Errorf("adx: %w", err)
	}
	add("adx", adx)
	add("plus_di", plusDI)
	add("minus_di", minusDI)

	add("obv", calculator.OBV(series.Bars))
	add("vwap", calculator.VWAP(series.Bars, cfg.VWAPPeriod))

	mfi, err := calculator.MFI(series.Bars, cfg.MFIPeriod)
	if err != nil {
		return nil, fmt.Errorf("mfi: %w", err)
	}
	add("mfi", mfi)

	res.Signals = deriveSignals(series, cfg, rsi, macd, macdSignal, stochK, mfi, bbUpper, bbLower, smaByPeriod)
	return res, nil
}

// deriveSignals maps the latest indicator values (and, for crossovers, the
// previous bar) to discrete labels using the configured thresholds.
func deriveSignals(series *model.PriceSeries, cfg config.TechnicalConfig,
	rsi, macd, macdSignal, stochK, mfi, bbUpper, bbLower []float64,
	smaByPeriod map[int][]float64) map[string]model.Signal {

	signals := map[string]model.Signal{}
	last := len(series.Bars) - 1
	price := series.Bars[last].Close

	signals["rsi"] = thresholdSignal(at(rsi, last), cfg.RSIOverbought, cfg.RSIOversold)
	signals["stochastic"] = thresholdSignal(at(stochK, last), cfg.StochOverbought, cfg.StochOversold)
	signals["mfi"] = thresholdSignal(at(mfi, last), cfg.MFIOverbought, cfg.MFIOversold)

	signals["macd"] = macdSignalLabel(macd, macdSignal, last)
	signals["ma_trend"] = maTrendSignal(smaByPeriod, last)
	signals["bollinger"] = bollingerSignal(price, at(bbUpper, last), at(bbLower, last))

	return signals
}

func thresholdSignal(v, overbought, oversold float64) model.Signal {
	switch {
	case math.IsNaN(v):
		return model.SignalUnavailable
	case v > overbought:
		return model.SignalOverbought
	case v < oversold:
		return model.SignalOversold
	default:
		return model.SignalNeutral
	}
}

func macdSignalLabel(macd, signal []float64, last int) model.Signal {
	cur, curSig := at(macd, last), at(signal, last)
	if math.IsNaN(cur) || math.IsNaN(curSig) {
		return model.SignalUnavailable
	}
	if cur > curSig {
		return model.SignalBullish
	}
	if cur < curSig {
		return model.SignalBearish
	}
	return model.SignalNeutral
}

// maTrendSignal compares the two longest configured moving averages. A fresh
// crossover on the latest bar reports as golden/death cross; otherwise the
// ordering reports plain bullish/bearish.
func maTrendSignal(smaByPeriod map[int][]float64, last int) model.Signal {
	short, long := longestPair(smaByPeriod)
	if short == nil || long == nil {
		return model.SignalUnavailable
	}
	cur, curL := at(short, last), at(long, last)
	if math.IsNaN(cur) || math.IsNaN(curL) {
		return model.SignalUnavailable
	}
	prev, prevL := at(short, last-1), at(long, last-1)
	crossKnown := !math.IsNaN(prev) && !math.IsNaN(prevL)

	if cur > curL {
		if crossKnown && prev <= prevL {
			return model.SignalGoldenCross
		}
		return model.SignalBullish
	}
	if cur < curL {
		if crossKnown && prev >= prevL {
			return model.SignalDeathCross
		}
		return model.SignalBearish
	}
	return model.SignalNeutral
}

func longestPair(smaByPeriod map[int][]float64) (short, long []float64) {
	p1, p2 := 0, 0
	for p := range smaByPeriod {
		if p > p2 {
			p1, p2 = p2, p
		} else if p > p1 {
			p1 = p
		}
	}
	if p1 == 0 || p2 == 0 {
		return nil, nil
	}
	return smaByPeriod[p1], smaByPeriod[p2]
}

func bollingerSignal(price, upper, lower float64) model.Signal {
	switch {
	case math.IsNaN(upper) || math.IsNaN(lower):
		return model.SignalUnavailable
	case price > upper:
		return model.SignalOverbought
	case price < lower:
		return model.SignalOversold
	default:
		return model.SignalNeutral
	}
}

func at(values []float64, i int) float64 {
	if i < 0 || i >= len(values) {
		return math.NaN()
	}
	return values[i]
}
