package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// StatementType identifies which financial statement a snapshot belongs to.
type StatementType string

const (
	StatementIncome   StatementType = "income"
	StatementBalance  StatementType = "balance"
	StatementCashFlow StatementType = "cashflow"
)

// Common line-item names used by the analyzers. Fetchers normalize provider
// field names to these keys; anything else is carried through untouched.
const (
	LineTotalRevenue       = "TotalRevenue"
	LineGrossProfit        = "GrossProfit"
	LineOperatingIncome    = "OperatingIncome"
	LineEBIT               = "EBIT"
	LineEBITDA             = "EBITDA"
	LineNetIncome          = "NetIncome"
	LineCostOfRevenue      = "CostOfRevenue"
	LineDilutedEPS         = "DilutedEPS"
	LineBasicEPS           = "BasicEPS"
	LineTotalAssets        = "TotalAssets"
	LineCurrentAssets      = "CurrentAssets"
	LineCurrentLiabilities = "CurrentLiabilities"
	LineTotalLiabilities   = "TotalLiabilities"
	LineStockholdersEquity = "StockholdersEquity"
	LineRetainedEarnings   = "RetainedEarnings"
	LineLongTermDebt       = "LongTermDebt"
	LineInventory          = "Inventory"
	LineAccountsReceivable = "AccountsReceivable"
	LineAccountsPayable    = "AccountsPayable"
	LineOperatingCashFlow  = "OperatingCashFlow"
	LineCapitalExpenditure = "CapitalExpenditure"
	LineFreeCashFlow       = "FreeCashFlow"
	LineDividendsPaid      = "DividendsPaid"
)

// StatementSnapshot is one reported fiscal period of one statement type:
// a flat mapping from line-item name to value.
type StatementSnapshot struct {
	Type      StatementType      `json:"type"`
	PeriodEnd time.Time          `json:"period_end"`
	Quarterly bool               `json:"quarterly"`
	Items     map[string]float64 `json:"items"`
}

// Item looks up a line item. The second return reports whether the item was
// present; absent items are a data condition, not an error.
func (s *StatementSnapshot) Item(name string) (float64, bool) {
	if s == nil || s.Items == nil {
		return 0, false
	}
	v, ok := s.Items[name]
	return v, ok
}

// StatementHistory holds snapshots of one statement type ordered newest first,
// matching the way statement providers report columns.
type StatementHistory struct {
	Type      StatementType       `json:"type"`
	Quarterly bool                `json:"quarterly"`
	Snapshots []StatementSnapshot `json:"snapshots"`
}

// Item returns the named line item from the snapshot at the given age:
// age 0 is the latest period, age 1 the one before, and so on.
func (h *StatementHistory) Item(name string, age int) (float64, bool) {
	if h == nil || age < 0 || age >= len(h.Snapshots) {
		return 0, false
	}
	return h.Snapshots[age].Item(name)
}

// Len returns the number of periods on record.
func (h *StatementHistory) Len() int {
	if h == nil {
		return 0
	}
	return len(h.Snapshots)
}

// Fundamentals bundles the statement histories an analysis run consumes.
type Fundamentals struct {
	IncomeAnnual      *StatementHistory `json:"income_annual,omitempty"`
	IncomeQuarterly   *StatementHistory `json:"income_quarterly,omitempty"`
	BalanceAnnual     *StatementHistory `json:"balance_annual,omitempty"`
	BalanceQuarterly  *StatementHistory `json:"balance_quarterly,omitempty"`
	CashFlowAnnual    *StatementHistory `json:"cashflow_annual,omitempty"`
	CashFlowQuarterly *StatementHistory `json:"cashflow_quarterly,omitempty"`
}

// CompanyProfile is the typed company metadata record. Optional fields use
// null types so "not reported" is a visible state rather than a zero that
// poisons downstream ratios.
type CompanyProfile struct {
	Symbol            string      `json:"symbol"`
	Name              null.String `json:"name"`
	Sector            null.String `json:"sector"`
	Industry          null.String `json:"industry"`
	Currency          null.String `json:"currency"`
	Exchange          null.String `json:"exchange"`
	CurrentPrice      null.Float  `json:"current_price"`
	MarketCap         null.Float  `json:"market_cap"`
	SharesOutstanding null.Float  `json:"shares_outstanding"`
	Beta              null.Float  `json:"beta"`
	TotalCash         null.Float  `json:"total_cash"`
	TotalDebt         null.Float  `json:"total_debt"`
	ReportedROE       null.Float  `json:"reported_roe"`
	DividendYield     null.Float  `json:"dividend_yield"`
	PayoutRatio       null.Float  `json:"payout_ratio"`
	ForwardEPS        null.Float  `json:"forward_eps"`
}

// EarningsQuarter is one reported quarter with the consensus estimate.
type EarningsQuarter struct {
	Quarter     string     `json:"quarter"`
	EPSActual   null.Float `json:"eps_actual"`
	EPSEstimate null.Float `json:"eps_estimate"`
}

// EarningsHistory holds reported quarters ascending by date.
type EarningsHistory struct {
	Symbol   string            `json:"symbol"`
	Quarters []EarningsQuarter `json:"quarters"`
}
