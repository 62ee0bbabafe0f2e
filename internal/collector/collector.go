package collector

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"EquityScope/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Unset parts fall back to generated bars or empty records; the error fields
// force individual fetches to fail.
type MockFetcher struct {
	Price        float64
	Bars         []model.Bar
	Profile      *model.CompanyProfile
	Fundamentals *model.Fundamentals
	Dividends    *model.DividendHistory
	Earnings     *model.EarningsHistory

	BarsErr         error
	ProfileErr      error
	FundamentalsErr error
	DividendsErr    error
	EarningsErr     error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(symbol, _, _ string) (*model.PriceSeries, error) {
	if m.BarsErr != nil {
		return nil, m.BarsErr
	}
	bars := m.Bars
	if bars == nil {
		bars = generateMockBars(m.Price, 300)
	}
	return &model.PriceSeries{
		Symbol:    strings.ToUpper(symbol),
		Bars:      bars,
		FetchedAt: time.Now(),
	}, nil
}

func (m *MockFetcher) FetchProfile(symbol string) (model.CompanyProfile, error) {
	if m.ProfileErr != nil {
		return model.CompanyProfile{}, m.ProfileErr
	}
	if m.Profile != nil {
		return *m.Profile, nil
	}
	return model.CompanyProfile{Symbol: strings.ToUpper(symbol)}, nil
}

func (m *MockFetcher) FetchFundamentals(_ string) (*model.Fundamentals, error) {
	if m.FundamentalsErr != nil {
		return nil, m.FundamentalsErr
	}
	return m.Fundamentals, nil
}

func (m *MockFetcher) FetchDividends(symbol string) (*model.DividendHistory, error) {
	if m.DividendsErr != nil {
		return nil, m.DividendsErr
	}
	if m.Dividends != nil {
		return m.Dividends, nil
	}
	return &model.DividendHistory{Symbol: strings.ToUpper(symbol)}, nil
}

func (m *MockFetcher) FetchEarnings(symbol string) (*model.EarningsHistory, error) {
	if m.EarningsErr != nil {
		return nil, m.EarningsErr
	}
	if m.Earnings != nil {
		return m.Earnings, nil
	}
	return &model.EarningsHistory{Symbol: strings.ToUpper(symbol)}, nil
}

func generateMockBars(basePrice float64, count int) []model.Bar {
	if basePrice == 0 {
		basePrice = 100
	}
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.Bar{
			Time:   time.Now().AddDate(0, 0, -(count - i)).Truncate(24 * time.Hour),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Dataset is everything one analysis run consumes for a ticker. Prices are
// always present; every other part may be missing when its fetch failed.
type Dataset struct {
	Symbol       string                 `json:"symbol"`
	Prices       *model.PriceSeries     `json:"prices"`
	Benchmark    *model.PriceSeries     `json:"benchmark,omitempty"`
	Profile      model.CompanyProfile   `json:"profile"`
	Fundamentals *model.Fundamentals    `json:"fundamentals,omitempty"`
	Dividends    *model.DividendHistory `json:"dividends,omitempty"`
	Earnings     *model.EarningsHistory `json:"earnings,omitempty"`
	FetchedAt    time.Time              `json:"fetched_at"`
}

// Collector assembles one ticker's full dataset from a Fetcher, going through
// the cache when one is configured.
type Collector struct {
	Fetcher   Fetcher
	Cache     Cache
	Benchmark string
	Log       zerolog.Logger
}

// New creates a Collector. cache may be nil to always fetch fresh.
func New(fetcher Fetcher, cache Cache, benchmark string, log zerolog.Logger) *Collector {
	return &Collector{Fetcher: fetcher, Cache: cache, Benchmark: benchmark, Log: log}
}

func fetchCached[T any](c *Collector, key string, fetch func() (T, error)) (T, error) {
	if c.Cache != nil {
		var v T
		if c.Cache.Get(key, &v) {
			c.Log.Debug().Str("key", key).Msg("cache hit")
			return v, nil
		}
	}
	v, err := fetch()
	if err != nil {
		var zero T
		return zero, err
	}
	if c.Cache != nil {
		if err := c.Cache.Put(key, v); err != nil {
			c.Log.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}
	return v, nil
}

// Collect fetches prices, the benchmark, and the company records for one
// ticker. Prices are required and fail the call; every other part degrades to
// absent with a logged warning so the analysis can still run.
func (c *Collector) Collect(symbol, period, interval string) (*Dataset, error) {
	symbol = strings.ToUpper(symbol)
	ds := &Dataset{Symbol: symbol, FetchedAt: time.Now()}

	prices, err := fetchCached(c, fmt.Sprintf("%s_prices_%s_%s", symbol, period, interval),
		func() (*model.PriceSeries, error) {
			return c.Fetcher.FetchBars(symbol, period, interval)
		})
	if err != nil {
		return nil, fmt.Errorf("fetch prices for %s: %w", symbol, err)
	}
	if err := prices.Validate(); err != nil {
		return nil, fmt.Errorf("price series for %s: %w", symbol, err)
	}
	ds.Prices = prices
	c.Log.Info().Str("symbol", symbol).Int("bars", prices.Len()).
		Str("source", c.Fetcher.Name()).Msg("price history fetched")

	if c.Benchmark != "" && !strings.EqualFold(c.Benchmark, symbol) {
		bench, err := fetchCached(c, fmt.Sprintf("%s_prices_%s_%s", c.Benchmark, period, interval),
			func() (*model.PriceSeries, error) {
				return c.Fetcher.FetchBars(c.Benchmark, period, interval)
			})
		if err != nil {
			c.Log.Warn().Err(err).Str("benchmark", c.Benchmark).
				Msg("benchmark fetch failed, market metrics will be omitted")
		} else if bench.Validate() == nil {
			ds.Benchmark = bench
		}
	}

	profile, err := fetchCached(c, symbol+"_profile", func() (model.CompanyProfile, error) {
		return c.Fetcher.FetchProfile(symbol)
	})
	if err != nil {
		c.Log.Warn().Err(err).Str("symbol", symbol).Msg("company profile unavailable")
		profile = model.CompanyProfile{Symbol: symbol}
	}
	ds.Profile = profile

	fundamentals, err := fetchCached(c, symbol+"_fundamentals", func() (*model.Fundamentals, error) {
		return c.Fetcher.FetchFundamentals(symbol)
	})
	if err != nil {
		c.Log.Warn().Err(err).Str("symbol", symbol).Msg("fundamentals unavailable")
	} else {
		ds.Fundamentals = fundamentals
	}

	dividends, err := fetchCached(c, symbol+"_dividends", func() (*model.DividendHistory, error) {
		return c.Fetcher.FetchDividends(symbol)
	})
	if err != nil {
		c.Log.Warn().Err(err).Str("symbol", symbol).Msg("dividend history unavailable")
	} else {
		ds.Dividends = dividends
	}

	earnings, err := fetchCached(c, symbol+"_earnings", func() (*model.EarningsHistory, error) {
		return c.Fetcher.FetchEarnings(symbol)
	})
	if err != nil {
		c.Log.Warn().Err(err).Str("symbol", symbol).Msg("earnings history unavailable")
	} else {
		ds.Earnings = earnings
	}

	return ds, nil
}
