package core

import (
	"slices"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"yield-dashboard/src/helpers"
	"yield-dashboard/src/models"
)

// TrailingYieldSessions is the number of sessions treated as one trading year
// for the trailing dividend yield.
const TrailingYieldSessions = 250

var hundred = decimal.NewFromInt(100)

// -----------------------------------------------------------------------------

// LatestPrice returns the open of the session with the greatest timestamp.
func LatestPrice(points []models.MPricePoint) (float64, error) {
	if len(points) == 0 {
		return 0, helpers.ErrEmptySeries
	}
	latest := points[0]
	for _, p := range points[1:] {
		if p.Timestamp > latest.Timestamp {
			latest = p
		}
	}
	return latest.Open, nil
}

// -----------------------------------------------------------------------------

// EarliestPrice returns the open of the session with the smallest timestamp.
func EarliestPrice(points []models.MPricePoint) (float64, error) {
	if len(points) == 0 {
		return 0, helpers.ErrEmptySeries
	}
	earliest := points[0]
	for _, p := range points[1:] {
		if p.Timestamp < earliest.Timestamp {
			earliest = p
		}
	}
	return earliest.Open, nil
}

// -----------------------------------------------------------------------------

// MinPrice returns the lowest open over the series.
func MinPrice(points []models.MPricePoint) (float64, error) {
	low := Min(opens(points))
	if low.IsNone() {
		return 0, helpers.ErrEmptySeries
	}
	return low.Unwrap(), nil
}

// -----------------------------------------------------------------------------

// MaxPrice returns the highest open over the series.
func MaxPrice(points []models.MPricePoint) (float64, error) {
	high := Max(opens(points))
	if high.IsNone() {
		return 0, helpers.ErrEmptySeries
	}
	return high.Unwrap(), nil
}

// -----------------------------------------------------------------------------

// PeriodReturnPct is the percentage change from the earliest to the latest
// open, rounded to 2 decimals.
func PeriodReturnPct(points []models.MPricePoint) (float64, error) {
	earliest, err := EarliestPrice(points)
	if err != nil {
		return 0, err
	}
	latest, _ := LatestPrice(points)
	if earliest == 0 {
		return 0, helpers.ErrDivisionByZero
	}

	e := decimal.NewFromFloat(earliest)
	change := decimal.NewFromFloat(latest).Sub(e).Div(e).Mul(hundred)
	return change.Round(2).InexactFloat64(), nil
}

// -----------------------------------------------------------------------------

// DividendTotal sums the distributions; zero when there are none.
func DividendTotal(events []models.MDividendEvent) float64 {
	return Sum(amounts(events)).InexactFloat64()
}

// DividendCount is the number of distributions.
func DividendCount(events []models.MDividendEvent) int {
	return len(events)
}

// DividendMean is None when there are no distributions.
func DividendMean(events []models.MDividendEvent) optional.Option[float64] {
	return Mean(amounts(events))
}

// DividendMin is None when there are no distributions.
func DividendMin(events []models.MDividendEvent) optional.Option[float64] {
	return Min(amounts(events))
}

// DividendMax is None when there are no distributions.
func DividendMax(events []models.MDividendEvent) optional.Option[float64] {
	return Max(amounts(events))
}

// -----------------------------------------------------------------------------

// DividendStats groups the dividend reductions.
type DividendStats struct {
	Total float64
	Count int
	Mean  float64
	Min   float64
	Max   float64
}

// DividendSummary reduces the events at once. It fails with
// ErrNoDividendData when there is nothing to reduce.
func DividendSummary(events []models.MDividendEvent) (DividendStats, error) {
	if len(events) == 0 {
		return DividendStats{}, helpers.ErrNoDividendData
	}
	return DividendStats{
		Total: DividendTotal(events),
		Count: DividendCount(events),
		Mean:  DividendMean(events).Unwrap(),
		Min:   DividendMin(events).Unwrap(),
		Max:   DividendMax(events).Unwrap(),
	}, nil
}

// -----------------------------------------------------------------------------

// PriceToEarnings divides the latest open by the dividends paid in the period.
// The dividends stand in for earnings; this is not a standard P/E.
func PriceToEarnings(points []models.MPricePoint, events []models.MDividendEvent) (float64, error) {
	latest, err := LatestPrice(points)
	if err != nil {
		return 0, err
	}
	total := Sum(amounts(events))
	if total.IsZero() {
		return 0, helpers.ErrDivisionByZero
	}
	return decimal.NewFromFloat(latest).Div(total).InexactFloat64(), nil
}

// -----------------------------------------------------------------------------

// TrailingDividendYieldPct sums the dividends paid over the last
// TrailingYieldSessions sessions (or all of them), divides by the latest
// open, rounds the ratio to 4 decimals and expresses it in percent.
func TrailingDividendYieldPct(points []models.MPricePoint, events []models.MDividendEvent) (float64, error) {
	latest, err := LatestPrice(points)
	if err != nil {
		return 0, err
	}
	if latest == 0 {
		return 0, helpers.ErrDivisionByZero
	}

	cutoff := windowStart(points, TrailingYieldSessions)
	paid := decimal.Zero
	for _, e := range events {
		if e.Timestamp >= cutoff {
			paid = paid.Add(decimal.NewFromFloat(e.Amount))
		}
	}

	ratio := paid.Div(decimal.NewFromFloat(latest)).Round(4)
	return ratio.Mul(hundred).InexactFloat64(), nil
}

// -----------------------------------------------------------------------------

// SimulateInvestment buys at the earliest open with the contribution, collects
// every dividend in the period and values the position at the latest open.
func SimulateInvestment(points []models.MPricePoint, events []models.MDividendEvent, contribution float64) (models.MInvestmentSimulation, error) {
	if contribution < 0 {
		return models.MInvestmentSimulation{}, helpers.ErrNegativeContribution
	}
	earliest, err := EarliestPrice(points)
	if err != nil {
		return models.MInvestmentSimulation{}, err
	}
	latest, _ := LatestPrice(points)

	if contribution == 0 {
		return models.MInvestmentSimulation{}, nil
	}
	if earliest == 0 {
		return models.MInvestmentSimulation{}, helpers.ErrDivisionByZero
	}

	c := decimal.NewFromFloat(contribution)
	shares := c.Div(decimal.NewFromFloat(earliest))
	income := shares.Mul(Sum(amounts(events)))
	ending := income.Add(shares.Mul(decimal.NewFromFloat(latest)))
	returnPct := ending.Sub(c).Div(c).Mul(hundred)

	return models.MInvestmentSimulation{
		Contribution:   contribution,
		SharesBought:   shares.InexactFloat64(),
		DividendIncome: income.InexactFloat64(),
		EndingValue:    ending.InexactFloat64(),
		ReturnPct:      returnPct.InexactFloat64(),
	}, nil
}

// -----------------------------------------------------------------------------

func opens(points []models.MPricePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Open
	}
	return out
}

func amounts(events []models.MDividendEvent) []float64 {
	out := make([]float64, len(events))
	for i, e := range events {
		out[i] = e.Amount
	}
	return out
}

// windowStart returns the timestamp of the first of the n most recent
// sessions. Points may come in any order.
func windowStart(points []models.MPricePoint, n int) int64 {
	timestamps := make([]int64, len(points))
	for i, p := range points {
		timestamps[i] = p.Timestamp
	}
	slices.Sort(timestamps)

	start := len(timestamps) - n
	if start < 0 {
		start = 0
	}
	return timestamps[start]
}
