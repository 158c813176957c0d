package models

import "time"

// MDashboardRequest is the user input driving one recomputation.
type MDashboardRequest struct {
	Symbol       string    `json:"symbol" form:"symbol" validate:"required"`
	Start        time.Time `json:"start" form:"start" time_format:"2006-01-02" time_utc:"1" validate:"required"`
	End          time.Time `json:"end" form:"end" time_format:"2006-01-02" time_utc:"1" validate:"required,gtefield=Start"`
	Contribution float64   `json:"contribution" form:"contribution" validate:"gte=0"`
}

// MChartPoint is one bar or line vertex.
type MChartPoint struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

// MDisplay holds the presentation strings of a dashboard.
type MDisplay struct {
	LastUpdate      string `json:"last_update"`
	LatestPrice     string `json:"latest_price"`
	PeriodReturn    string `json:"period_return"`
	MinPrice        string `json:"min_price"`
	MaxPrice        string `json:"max_price"`
	PriceToEarnings string `json:"price_to_earnings"`
	TrailingYield   string `json:"trailing_yield"`
	DividendCount   string `json:"dividend_count"`
	DividendMin     string `json:"dividend_min"`
	DividendMax     string `json:"dividend_max"`
	DividendMean    string `json:"dividend_mean"`
	DividendTotal   string `json:"dividend_total"`
	DividendIncome  string `json:"dividend_income"`
	SharesBought    string `json:"shares_bought"`
	EndingValue     string `json:"ending_value"`
	ReturnPct       string `json:"return_pct"`
}

// MDashboard is the full response rendered by the UI.
type MDashboard struct {
	Request       MDashboardRequest     `json:"request"`
	Snapshot      MMetricsSnapshot      `json:"snapshot"`
	Simulation    MInvestmentSimulation `json:"simulation"`
	PriceChart    []MChartPoint         `json:"price_chart"`
	DividendChart []MChartPoint         `json:"dividend_chart"`
	Display       MDisplay              `json:"display"`
	Currency      string                `json:"currency"`
	Source        string                `json:"source"`
	MarketOpen    bool                  `json:"market_open"`
	Metrics       MProcessingMetrics    `json:"processing_metrics"`
}
