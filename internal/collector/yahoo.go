package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	"EquityScope/internal/model"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

var (
	validPeriods = map[string]bool{
		"1mo": true, "3mo": true, "6mo": true, "1y": true,
		"2y": true, "5y": true, "10y": true, "ytd": true, "max": true,
	}
	validIntervals = map[string]bool{
		"1d": true, "5d": true, "1wk": true, "1mo": true,
	}
)

// YahooFetcher implements Fetcher using the Yahoo Finance public API: the
// chart endpoint for bars and dividend events, quoteSummary for the profile,
// statements, and earnings.
type YahooFetcher struct {
	Client  *http.Client
	BaseURL string
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		BaseURL: defaultBaseURL,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// yahooChart is the response structure from the Yahoo Finance chart API.
// Price arrays use pointers because the API reports holidays as nulls.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp []int64 `json:"timestamp"`
			Events    struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
			} `json:"events"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

// yahooValue is Yahoo's wrapped numeric: {"raw": 1.23, "fmt": "1.23"}.
// Missing values come through as an empty object.
type yahooValue struct {
	Raw *float64 `json:"raw"`
}

func (v yahooValue) nullFloat() null.Float {
	if v.Raw == nil {
		return null.Float{}
	}
	return null.FloatFrom(*v.Raw)
}

func nullString(s string) null.String {
	if s == "" {
		return null.String{}
	}
	return null.StringFrom(s)
}

func (f *YahooFetcher) getJSON(u string, out any) error {
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("yahoo decode: %w", err)
	}
	return nil
}

func (f *YahooFetcher) fetchChart(symbol, interval, rng string, withDividends bool) (*yahooChart, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		f.BaseURL, url.PathEscape(symbol), interval, rng)
	if withDividends {
		u += "&events=div"
	}

	var chart yahooChart
	if err := f.getJSON(u, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned for %s", symbol)
	}
	return &chart, nil
}

// FetchBars fetches historical bars for the given Yahoo period and interval
// strings, e.g. period "1y" at interval "1d".
func (f *YahooFetcher) FetchBars(symbol, period, interval string) (*model.PriceSeries, error) {
	if !validPeriods[period] {
		return nil, fmt.Errorf("invalid period %q", period)
	}
	if !validIntervals[interval] {
		return nil, fmt.Errorf("invalid interval %q", interval)
	}

	chart, err := f.fetchChart(symbol, interval, period, false)
	if err != nil {
		return nil, err
	}
	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no bars returned for %s", symbol)
	}

	quote := result.Indicators.Quote[0]
	bars := make([]model.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) {
			break
		}
		// Null bars are holidays or halts; skip them.
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil || quote.Close[i] == nil {
			continue
		}
		var volume float64
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			volume = *quote.Volume[i]
		}
		bars = append(bars, model.Bar{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   *quote.Open[i],
			High:   *quote.High[i],
			Low:    *quote.Low[i],
			Close:  *quote.Close[i],
			Volume: volume,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	return &model.PriceSeries{
		Symbol:    strings.ToUpper(symbol),
		Bars:      bars,
		FetchedAt: time.Now(),
	}, nil
}

// FetchDividends fetches up to ten years of dividend events. The monthly
// interval keeps the payload small; only the event stream is read.
func (f *YahooFetcher) FetchDividends(symbol string) (*model.DividendHistory, error) {
	chart, err := f.fetchChart(symbol, "1mo", "10y", true)
	if err != nil {
		return nil, err
	}

	hist := &model.DividendHistory{Symbol: strings.ToUpper(symbol)}
	for _, d := range chart.Chart.Result[0].Events.Dividends {
		if d.Amount <= 0 {
			continue
		}
		hist.Payments = append(hist.Payments, model.DividendPayment{
			Date:   time.Unix(d.Date, 0).UTC(),
			Amount: d.Amount,
		})
	}
	sort.Slice(hist.Payments, func(i, j int) bool {
		return hist.Payments[i].Date.Before(hist.Payments[j].Date)
	})
	return hist, nil
}

func (f *YahooFetcher) fetchSummary(symbol, modules string, out any) error {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s",
		f.BaseURL, url.PathEscape(symbol), modules)

	var envelope struct {
		QuoteSummary struct {
			Result []json.RawMessage `json:"result"`
			Error  *yahooError       `json:"error"`
		} `json:"quoteSummary"`
	}
	if err := f.getJSON(u, &envelope); err != nil {
		return err
	}
	if envelope.QuoteSummary.Error != nil {
		return fmt.Errorf("yahoo api error: %s", envelope.QuoteSummary.Error.Description)
	}
	if len(envelope.QuoteSummary.Result) == 0 {
		return fmt.Errorf("yahoo: no summary data for %s", symbol)
	}
	if err := json.Unmarshal(envelope.QuoteSummary.Result[0], out); err != nil {
		return fmt.Errorf("yahoo decode summary: %w", err)
	}
	return nil
}

// FetchProfile fetches company metadata and key statistics.
func (f *YahooFetcher) FetchProfile(symbol string) (model.CompanyProfile, error) {
	var modules struct {
		Price struct {
			LongName           string     `json:"longName"`
			Currency           string     `json:"currency"`
			ExchangeName       string     `json:"exchangeName"`
			RegularMarketPrice yahooValue `json:"regularMarketPrice"`
			MarketCap          yahooValue `json:"marketCap"`
		} `json:"price"`
		AssetProfile struct {
			Sector   string `json:"sector"`
			Industry string `json:"industry"`
		} `json:"assetProfile"`
		SummaryDetail struct {
			Beta          yahooValue `json:"beta"`
			DividendYield yahooValue `json:"dividendYield"`
			PayoutRatio   yahooValue `json:"payoutRatio"`
		} `json:"summaryDetail"`
		FinancialData struct {
			TotalCash      yahooValue `json:"totalCash"`
			TotalDebt      yahooValue `json:"totalDebt"`
			ReturnOnEquity yahooValue `json:"returnOnEquity"`
		} `json:"financialData"`
		DefaultKeyStatistics struct {
			SharesOutstanding yahooValue `json:"sharesOutstanding"`
			ForwardEPS        yahooValue `json:"forwardEps"`
		} `json:"defaultKeyStatistics"`
	}

	err := f.fetchSummary(symbol,
		"price,assetProfile,summaryDetail,financialData,defaultKeyStatistics", &modules)
	if err != nil {
		return model.CompanyProfile{}, err
	}

	return model.CompanyProfile{
		Symbol:            strings.ToUpper(symbol),
		Name:              nullString(modules.Price.LongName),
		Sector:            nullString(modules.AssetProfile.Sector),
		Industry:          nullString(modules.AssetProfile.Industry),
		Currency:          nullString(modules.Price.Currency),
		Exchange:          nullString(modules.Price.ExchangeName),
		CurrentPrice:      modules.Price.RegularMarketPrice.nullFloat(),
		MarketCap:         modules.Price.MarketCap.nullFloat(),
		SharesOutstanding: modules.DefaultKeyStatistics.SharesOutstanding.nullFloat(),
		Beta:              modules.SummaryDetail.Beta.nullFloat(),
		TotalCash:         modules.FinancialData.TotalCash.nullFloat(),
		TotalDebt:         modules.FinancialData.TotalDebt.nullFloat(),
		ReportedROE:       modules.FinancialData.ReturnOnEquity.nullFloat(),
		DividendYield:     modules.SummaryDetail.DividendYield.nullFloat(),
		PayoutRatio:       modules.SummaryDetail.PayoutRatio.nullFloat(),
		ForwardEPS:        modules.DefaultKeyStatistics.ForwardEPS.nullFloat(),
	}, nil
}

// lineNames maps Yahoo statement field names to the normalized line items the
// analyzers look up.
var lineNames = map[string]string{
	"totalRevenue":                     model.LineTotalRevenue,
	"grossProfit":                      model.LineGrossProfit,
	"operatingIncome":                  model.LineOperatingIncome,
	"ebit":                             model.LineEBIT,
	"ebitda":                           model.LineEBITDA,
	"netIncome":                        model.LineNetIncome,
	"costOfRevenue":                    model.LineCostOfRevenue,
	"dilutedEPS":                       model.LineDilutedEPS,
	"basicEPS":                         model.LineBasicEPS,
	"totalAssets":                      model.LineTotalAssets,
	"totalCurrentAssets":               model.LineCurrentAssets,
	"totalCurrentLiabilities":          model.LineCurrentLiabilities,
	"totalLiab":                        model.LineTotalLiabilities,
	"totalStockholderEquity":           model.LineStockholdersEquity,
	"retainedEarnings":                 model.LineRetainedEarnings,
	"longTermDebt":                     model.LineLongTermDebt,
	"inventory":                        model.LineInventory,
	"netReceivables":                   model.LineAccountsReceivable,
	"accountsPayable":                  model.LineAccountsPayable,
	"totalCashFromOperatingActivities": model.LineOperatingCashFlow,
	"capitalExpenditures":              model.LineCapitalExpenditure,
	"freeCashFlow":                     model.LineFreeCashFlow,
	"dividendsPaid":                    model.LineDividendsPaid,
}

type yahooStatementEntry map[string]json.RawMessage

func statementHistory(entries []yahooStatementEntry, stype model.StatementType, quarterly bool) *model.StatementHistory {
	if len(entries) == 0 {
		return nil
	}
	h := &model.StatementHistory{Type: stype, Quarterly: quarterly}
	for _, entry := range entries {
		snap := model.StatementSnapshot{
			Type:      stype,
			Quarterly: quarterly,
			Items:     make(map[string]float64),
		}
		for key, raw := range entry {
			var v yahooValue
			if json.Unmarshal(raw, &v) != nil || v.Raw == nil {
				continue
			}
			switch {
			case key == "endDate":
				snap.PeriodEnd = time.Unix(int64(*v.Raw), 0).UTC()
			case key == "maxAge":
				// Metadata, not a line item.
			default:
				name, ok := lineNames[key]
				if !ok {
					name = key
				}
				snap.Items[name] = *v.Raw
			}
		}
		h.Snapshots = append(h.Snapshots, snap)
	}
	sort.Slice(h.Snapshots, func(i, j int) bool {
		return h.Snapshots[i].PeriodEnd.After(h.Snapshots[j].PeriodEnd)
	})
	return h
}

// FetchFundamentals fetches annual and quarterly statement histories for all
// three statement types.
func (f *YahooFetcher) FetchFundamentals(symbol string) (*model.Fundamentals, error) {
	var modules struct {
		IncomeStatementHistory struct {
			Statements []yahooStatementEntry `json:"incomeStatementHistory"`
		} `json:"incomeStatementHistory"`
		IncomeStatementHistoryQuarterly struct {
			Statements []yahooStatementEntry `json:"incomeStatementHistory"`
		} `json:"incomeStatementHistoryQuarterly"`
		BalanceSheetHistory struct {
			Statements []yahooStatementEntry `json:"balanceSheetStatements"`
		} `json:"balanceSheetHistory"`
		BalanceSheetHistoryQuarterly struct {
			Statements []yahooStatementEntry `json:"balanceSheetStatements"`
		} `json:"balanceSheetHistoryQuarterly"`
		CashflowStatementHistory struct {
			Statements []yahooStatementEntry `json:"cashflowStatements"`
		} `json:"cashflowStatementHistory"`
		CashflowStatementHistoryQuarterly struct {
			Statements []yahooStatementEntry `json:"cashflowStatements"`
		} `json:"cashflowStatementHistoryQuarterly"`
	}

	err := f.fetchSummary(symbol,
		"incomeStatementHistory,incomeStatementHistoryQuarterly,"+
			"balanceSheetHistory,balanceSheetHistoryQuarterly,"+
			"cashflowStatementHistory,cashflowStatementHistoryQuarterly", &modules)
	if err != nil {
		return nil, err
	}

	return &model.Fundamentals{
		IncomeAnnual:      statementHistory(modules.IncomeStatementHistory.Statements, model.StatementIncome, false),
		IncomeQuarterly:   statementHistory(modules.IncomeStatementHistoryQuarterly.Statements, model.StatementIncome, true),
		BalanceAnnual:     statementHistory(modules.BalanceSheetHistory.Statements, model.StatementBalance, false),
		BalanceQuarterly:  statementHistory(modules.BalanceSheetHistoryQuarterly.Statements, model.StatementBalance, true),
		CashFlowAnnual:    statementHistory(modules.CashflowStatementHistory.Statements, model.StatementCashFlow, false),
		CashFlowQuarterly: statementHistory(modules.CashflowStatementHistoryQuarterly.Statements, model.StatementCashFlow, true),
	}, nil
}

// FetchEarnings fetches the reported-quarter EPS track record.
func (f *YahooFetcher) FetchEarnings(symbol string) (*model.EarningsHistory, error) {
	var modules struct {
		EarningsHistory struct {
			History []struct {
				Quarter struct {
					Fmt string `json:"fmt"`
				} `json:"quarter"`
				EPSActual   yahooValue `json:"epsActual"`
				EPSEstimate yahooValue `json:"epsEstimate"`
			} `json:"history"`
		} `json:"earningsHistory"`
	}

	if err := f.fetchSummary(symbol, "earningsHistory", &modules); err != nil {
		return nil, err
	}

	hist := &model.EarningsHistory{Symbol: strings.ToUpper(symbol)}
	for _, q := range modules.EarningsHistory.History {
		hist.Quarters = append(hist.Quarters, model.EarningsQuarter{
			Quarter:     q.Quarter.Fmt,
			EPSActual:   q.EPSActual.nullFloat(),
			EPSEstimate: q.EPSEstimate.nullFloat(),
		})
	}
	// Quarter labels are ISO dates, so lexicographic order is chronological.
	sort.Slice(hist.Quarters, func(i, j int) bool {
		return hist.Quarters[i].Quarter < hist.Quarters[j].Quarter
	})
	return hist, nil
}
