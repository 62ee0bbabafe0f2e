package collector

import "EquityScope/internal/model"

// Fetcher defines the interface for fetching one ticker's market data.
// Implementations return provider errors as-is; the Collector decides which
// parts of a dataset are required and which degrade.
type Fetcher interface {
	FetchBars(symbol, period, interval string) (*model.PriceSeries, error)
	FetchDividends(symbol string) (*model.DividendHistory, error)
	FetchProfile(symbol string) (model.CompanyProfile, error)
	FetchFundamentals(symbol string) (*model.Fundamentals, error)
	FetchEarnings(symbol string) (*model.EarningsHistory, error)
	Name() string
}
