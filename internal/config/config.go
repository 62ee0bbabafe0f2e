package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Symbol    string `yaml:"symbol"`
		Benchmark string `yaml:"benchmark"`
		Period    string `yaml:"period"`
		Interval  string `yaml:"interval"`
	} `yaml:"data_source"`
	Cache struct {
		Dir        string `yaml:"dir"`
		TTLMinutes int    `yaml:"ttl_minutes"`
		Disabled   bool   `yaml:"disabled"`
	} `yaml:"cache"`
	Technical TechnicalConfig `yaml:"technical"`
	Risk      RiskConfig      `yaml:"risk"`
	Valuation ValuationConfig `yaml:"valuation"`
	Report    struct {
		OutputDir string `yaml:"output_dir"`
		Chart     bool   `yaml:"chart"`
		HTML      bool   `yaml:"html"`
	} `yaml:"report"`
	Recorder struct {
		HistoryFile string `yaml:"history_file"`
	} `yaml:"recorder"`
	Schedule struct {
		WatchCron string `yaml:"watch_cron"`
	} `yaml:"schedule"`
	// Proxy is an optional HTTP proxy URL for outbound market-data requests.
	Proxy string `yaml:"proxy"`
}

// TechnicalConfig carries indicator lookbacks and signal thresholds. The
// thresholds are configuration rather than inlined constants so the signal
// rules stay independently testable.
type TechnicalConfig struct {
	SMAPeriods      []int   `yaml:"sma_periods"`
	EMAShort        int     `yaml:"ema_short"`
	EMALong         int     `yaml:"ema_long"`
	MACDSignal      int     `yaml:"macd_signal"`
	RSIPeriod       int     `yaml:"rsi_period"`
	RSIOverbought   float64 `yaml:"rsi_overbought"`
	RSIOversold     float64 `yaml:"rsi_oversold"`
	StochKPeriod    int     `yaml:"stoch_k_period"`
	StochDPeriod    int     `yaml:"stoch_d_period"`
	StochOverbought float64 `yaml:"stoch_overbought"`
	StochOversold   float64 `yaml:"stoch_oversold"`
	WilliamsPeriod  int     `yaml:"williams_period"`
	BollingerPeriod int     `yaml:"bollinger_period"`
	BollingerStdDev float64 `yaml:"bollinger_std_dev"`
	ATRPeriod       int     `yaml:"atr_period"`
	ADXPeriod       int     `yaml:"adx_period"`
	MFIPeriod       int     `yaml:"mfi_period"`
	// VWAPPeriod is the trailing VWAP window; 0 or negative accumulates
	// over the whole series.
	VWAPPeriod int `yaml:"vwap_period"`
	MFIOverbought   float64 `yaml:"mfi_overbought"`
	MFIOversold     float64 `yaml:"mfi_oversold"`
}

// RiskConfig carries risk-metric assumptions.
type RiskConfig struct {
	// RiskFreeRate is the annual rate as a decimal (0.04 = 4%).
	RiskFreeRate float64 `yaml:"risk_free_rate"`
	// ConfidenceLevels are the VaR confidence levels, e.g. 0.95 and 0.99.
	ConfidenceLevels []float64 `yaml:"confidence_levels"`
	// RollingWindows are the trailing windows (days) for rolling ratios.
	RollingWindows []int `yaml:"rolling_windows"`
}

// ValuationConfig carries valuation-model assumptions, all decimal rates.
type ValuationConfig struct {
	ProjectionYears    int     `yaml:"projection_years"`
	TerminalGrowthRate float64 `yaml:"terminal_growth_rate"`
	// MaxGrowthRate caps growth rates estimated from history before they
	// are used in projections.
	MaxGrowthRate     float64 `yaml:"max_growth_rate"`
	RiskFreeRate      float64 `yaml:"risk_free_rate"`
	MarketRiskPremium float64 `yaml:"market_risk_premium"`
	// SurpriseEstimateFloor: earnings surprise % is undefined when the
	// consensus estimate's magnitude is below this floor.
	SurpriseEstimateFloor float64 `yaml:"surprise_estimate_floor"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("EQUITYSCOPE_SYMBOL"); v != "" {
		cfg.DataSource.Symbol = v
	}
	if v := os.Getenv("EQUITYSCOPE_BENCHMARK"); v != "" {
		cfg.DataSource.Benchmark = v
	}
	if v := os.Getenv("EQUITYSCOPE_CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv("EQUITYSCOPE_OUTPUT_DIR"); v != "" {
		cfg.Report.OutputDir = v
	}
	if v := os.Getenv("EQUITYSCOPE_RISK_FREE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Risk.RiskFreeRate = f
		}
	}
	if v := os.Getenv("EQUITYSCOPE_WATCH_CRON"); v != "" {
		cfg.Schedule.WatchCron = v
	}
	if v := os.Getenv("EQUITYSCOPE_PROXY"); v != "" {
		cfg.Proxy = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataSource.Benchmark == "" {
		c.DataSource.Benchmark = "^GSPC"
	}
	if c.DataSource.Period == "" {
		c.DataSource.Period = "1y"
	}
	if c.DataSource.Interval == "" {
		c.DataSource.Interval = "1d"
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = "data/cache"
	}
	if c.Cache.TTLMinutes == 0 {
		c.Cache.TTLMinutes = 240
	}
	if c.Report.OutputDir == "" {
		c.Report.OutputDir = "data/reports"
	}
	if c.Recorder.HistoryFile == "" {
		c.Recorder.HistoryFile = "data/run_history.jsonl"
	}
	if c.Schedule.WatchCron == "" {
		c.Schedule.WatchCron = "0 0 22 * * 1-5"
	}

	t := &c.Technical
	if len(t.SMAPeriods) == 0 {
		t.SMAPeriods = []int{20, 50, 200}
	}
	if t.EMAShort == 0 {
		t.EMAShort = 12
	}
	if t.EMALong == 0 {
		t.EMALong = 26
	}
	if t.MACDSignal == 0 {
		t.MACDSignal = 9
	}
	if t.RSIPeriod == 0 {
		t.RSIPeriod = 14
	}
	if t.RSIOverbought == 0 {
		t.RSIOverbought = 70
	}
	if t.RSIOversold == 0 {
		t.RSIOversold = 30
	}
	if t.StochKPeriod == 0 {
		t.StochKPeriod = 14
	}
	if t.StochDPeriod == 0 {
		t.StochDPeriod = 3
	}
	if t.StochOverbought == 0 {
		t.StochOverbought = 80
	}
	if t.StochOversold == 0 {
		t.StochOversold = 20
	}
	if t.WilliamsPeriod == 0 {
		t.WilliamsPeriod = 14
	}
	if t.BollingerPeriod == 0 {
		t.BollingerPeriod = 20
	}
	if t.BollingerStdDev == 0 {
		t.BollingerStdDev = 2.0
	}
	if t.ATRPeriod == 0 {
		t.ATRPeriod = 14
	}
	if t.ADXPeriod == 0 {
		t.ADXPeriod = 14
	}
	if t.MFIPeriod == 0 {
		t.MFIPeriod = 14
	}
	if t.MFIOverbought == 0 {
		t.MFIOverbought = 80
	}
	if t.MFIOversold == 0 {
		t.MFIOversold = 20
	}
	if t.VWAPPeriod == 0 {
		t.VWAPPeriod = 14
	}

	r := &c.Risk
	if r.RiskFreeRate == 0 {
		r.RiskFreeRate = 0.04
	}
	if len(r.ConfidenceLevels) == 0 {
		r.ConfidenceLevels = []float64{0.95, 0.99}
	}
	if len(r.RollingWindows) == 0 {
		r.RollingWindows = []int{30, 60, 90}
	}

	v := &c.Valuation
	if v.ProjectionYears == 0 {
		v.ProjectionYears = 5
	}
	if v.TerminalGrowthRate == 0 {
		v.TerminalGrowthRate = 0.025
	}
	if v.MaxGrowthRate == 0 {
		v.MaxGrowthRate = 0.20
	}
	if v.RiskFreeRate == 0 {
		v.RiskFreeRate = 0.04
	}
	if v.MarketRiskPremium == 0 {
		v.MarketRiskPremium = 0.08
	}
	if v.SurpriseEstimateFloor == 0 {
		v.SurpriseEstimateFloor = 0.01
	}
}

// Validate checks that configured values are usable.
func (c *Config) Validate() error {
	if c.DataSource.Symbol == "" {
		return fmt.Errorf("data_source.symbol is required")
	}
	if c.Risk.RiskFreeRate < 0 {
		return fmt.Errorf("risk.risk_free_rate must not be negative")
	}
	for _, lvl := range c.Risk.ConfidenceLevels {
		if lvl <= 0 || lvl >= 1 {
			return fmt.Errorf("risk.confidence_levels must be in (0, 1), got %v", lvl)
		}
	}
	if c.Valuation.TerminalGrowthRate >= 1 {
		return fmt.Errorf("valuation.terminal_growth_rate must be a decimal rate, got %v", c.Valuation.TerminalGrowthRate)
	}
	if c.Technical.RSIOversold >= c.Technical.RSIOverbought {
		return fmt.Errorf("technical.rsi_oversold must be below rsi_overbought")
	}
	return nil
}
