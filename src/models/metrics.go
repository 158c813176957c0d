package models

import "time"

// Reason codes for metrics that could not be computed.
const (
	ReasonDivisionByZero = "division_by_zero"
	ReasonNoDividendData = "no_dividend_data"
)

// MMetricsSnapshot holds the figures derived from one series.
// A nil pointer means the metric is undefined; Undefined carries the reason.
type MMetricsSnapshot struct {
	Symbol           string            `json:"symbol"`
	LastUpdate       time.Time         `json:"last_update"`
	SessionCount     int               `json:"session_count"`
	ExpectedSessions int               `json:"expected_sessions"`
	LatestPrice      float64           `json:"latest_price"`
	EarliestPrice    float64           `json:"earliest_price"`
	MinPrice         float64           `json:"min_price"`
	MaxPrice         float64           `json:"max_price"`
	PeriodReturnPct  *float64          `json:"period_return_pct"`
	DividendTotal    float64           `json:"dividend_total"`
	DividendCount    int               `json:"dividend_count"`
	DividendMean     *float64          `json:"dividend_mean"`
	DividendMin      *float64          `json:"dividend_min"`
	DividendMax      *float64          `json:"dividend_max"`
	PriceToEarnings  *float64          `json:"price_to_earnings"`
	TrailingYieldPct *float64          `json:"trailing_yield_pct"`
	Undefined        map[string]string `json:"undefined,omitempty"`
}

// MInvestmentSimulation is the outcome of buying at the earliest open and
// holding to the latest session while collecting dividends.
type MInvestmentSimulation struct {
	Contribution   float64 `json:"contribution"`
	SharesBought   float64 `json:"shares_bought"`
	DividendIncome float64 `json:"dividend_income"`
	EndingValue    float64 `json:"ending_value"`
	ReturnPct      float64 `json:"return_pct"`
}
