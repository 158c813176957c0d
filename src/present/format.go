// Package present turns computed figures into display strings.
package present

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"yield-dashboard/src/analysis"
	"yield-dashboard/src/models"
)

// NotAvailable is shown for metrics that could not be computed.
const NotAvailable = "N/A"

// -----------------------------------------------------------------------------

// Money renders an amount in the currency's own format, e.g. R$1.234,56.
// Unknown currency codes fall back to "1234.56 XXX".
func Money(amount float64, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return fmt.Sprintf("%.2f %s", amount, currency)
	}

	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	minor := decimal.NewFromFloat(amount).Mul(factor).Round(0)
	return money.New(minor.IntPart(), currency).Display()
}

// MoneyPtr is Money for an optional amount.
func MoneyPtr(amount *float64, currency string) string {
	if amount == nil {
		return NotAvailable
	}
	return Money(*amount, currency)
}

// -----------------------------------------------------------------------------

// Percent renders a percentage with 2 decimals.
func Percent(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2) + "%"
}

// PercentPtr is Percent for an optional value.
func PercentPtr(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return Percent(*v)
}

// -----------------------------------------------------------------------------

// Ratio renders a plain number with 2 decimals.
func Ratio(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return decimal.NewFromFloat(*v).StringFixed(2)
}

// -----------------------------------------------------------------------------

// Whole renders a rounded count with thousand separators.
func Whole(v float64) string {
	n := decimal.NewFromFloat(v).Round(0).IntPart()
	return groupThousands(n)
}

func groupThousands(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := strconv.FormatInt(n, 10)

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}

// -----------------------------------------------------------------------------

// FormatDashboard builds every display string of the dashboard.
func FormatDashboard(snap models.MMetricsSnapshot, sim models.MInvestmentSimulation, currency string) models.MDisplay {
	lastUpdate := NotAvailable
	if !snap.LastUpdate.IsZero() {
		lastUpdate = snap.LastUpdate.UTC().Format(time.DateOnly)
	}

	dividendMoney := func(v *float64) string {
		if snap.DividendCount == 0 {
			return NotAvailable
		}
		return MoneyPtr(v, currency)
	}

	simMoney := func(v float64) string { return Money(v, currency) }
	shares, returnPct := Whole(sim.SharesBought), Percent(sim.ReturnPct)
	if _, undefined := snap.Undefined[analysis.MetricSimulationReturn]; undefined {
		simMoney = func(float64) string { return NotAvailable }
		shares, returnPct = NotAvailable, NotAvailable
	}

	return models.MDisplay{
		LastUpdate:      lastUpdate,
		LatestPrice:     Money(snap.LatestPrice, currency),
		PeriodReturn:    PercentPtr(snap.PeriodReturnPct),
		MinPrice:        Money(snap.MinPrice, currency),
		MaxPrice:        Money(snap.MaxPrice, currency),
		PriceToEarnings: Ratio(snap.PriceToEarnings),
		TrailingYield:   PercentPtr(snap.TrailingYieldPct),
		DividendCount:   Whole(float64(snap.DividendCount)),
		DividendMin:     dividendMoney(snap.DividendMin),
		DividendMax:     dividendMoney(snap.DividendMax),
		DividendMean:    dividendMoney(snap.DividendMean),
		DividendTotal:   Money(snap.DividendTotal, currency),
		DividendIncome:  simMoney(sim.DividendIncome),
		SharesBought:    shares,
		EndingValue:     simMoney(sim.EndingValue),
		ReturnPct:       returnPct,
	}
}
