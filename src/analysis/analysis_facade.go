package analysis

import (
	"errors"
	"time"

	"github.com/moznion/go-optional"

	"yield-dashboard/src/analysis/core"
	"yield-dashboard/src/helpers"
	"yield-dashboard/src/logger"
	"yield-dashboard/src/models"
)

// Metric names used as keys of MMetricsSnapshot.Undefined.
const (
	MetricPeriodReturn    = "period_return_pct"
	MetricDividendMean    = "dividend_mean"
	MetricDividendMin     = "dividend_min"
	MetricDividendMax     = "dividend_max"
	MetricPriceToEarnings = "price_to_earnings"
	MetricTrailingYield   = "trailing_yield_pct"

	// MetricSimulationReturn marks the whole simulation as undefined.
	MetricSimulationReturn = "return_pct"
)

type AnalysisFacade struct {
	Config    *models.MConfig
	Resampler *TimeSeriesResampler
	Logger    *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAnalysisFacade(cfg *models.MConfig, log *logger.Logger) *AnalysisFacade {
	return &AnalysisFacade{
		Config:    cfg,
		Resampler: &TimeSeriesResampler{},
		Logger:    log,
	}
}

// -----------------------------------------------------------------------------

// BuildSnapshot runs every metric over the series. Ratios that cannot be
// computed are left nil with a reason; only an empty series is an error.
func (a *AnalysisFacade) BuildSnapshot(series *models.MPriceSeries) (models.MMetricsSnapshot, error) {
	if series.IsEmpty() {
		return models.MMetricsSnapshot{}, helpers.ErrEmptySeries
	}

	points := series.Points
	events := series.Dividends()

	snap := models.MMetricsSnapshot{
		Symbol:        series.Symbol,
		SessionCount:  len(points),
		DividendTotal: core.DividendTotal(events),
		DividendCount: core.DividendCount(events),
		Undefined:     map[string]string{},
	}

	var err error
	if snap.LatestPrice, err = core.LatestPrice(points); err != nil {
		return models.MMetricsSnapshot{}, err
	}
	if snap.EarliestPrice, err = core.EarliestPrice(points); err != nil {
		return models.MMetricsSnapshot{}, err
	}
	if snap.MinPrice, err = core.MinPrice(points); err != nil {
		return models.MMetricsSnapshot{}, err
	}
	if snap.MaxPrice, err = core.MaxPrice(points); err != nil {
		return models.MMetricsSnapshot{}, err
	}
	snap.LastUpdate = time.Unix(lastTimestamp(points), 0).UTC()

	snap.PeriodReturnPct = a.ratio(snap.Undefined, MetricPeriodReturn, func() (float64, error) {
		return core.PeriodReturnPct(points)
	})
	snap.PriceToEarnings = a.ratio(snap.Undefined, MetricPriceToEarnings, func() (float64, error) {
		return core.PriceToEarnings(points, events)
	})
	snap.TrailingYieldPct = a.ratio(snap.Undefined, MetricTrailingYield, func() (float64, error) {
		return core.TrailingDividendYieldPct(points, events)
	})

	snap.DividendMean = optionalField(snap.Undefined, MetricDividendMean, core.DividendMean(events))
	snap.DividendMin = optionalField(snap.Undefined, MetricDividendMin, core.DividendMin(events))
	snap.DividendMax = optionalField(snap.Undefined, MetricDividendMax, core.DividendMax(events))

	if len(snap.Undefined) == 0 {
		snap.Undefined = nil
	}
	return snap, nil
}

// -----------------------------------------------------------------------------

// Simulate runs the buy-and-hold simulation over the series.
func (a *AnalysisFacade) Simulate(series *models.MPriceSeries, contribution float64) (models.MInvestmentSimulation, error) {
	if series.IsEmpty() {
		return models.MInvestmentSimulation{}, helpers.ErrEmptySeries
	}
	return core.SimulateInvestment(series.Points, series.Dividends(), contribution)
}

// -----------------------------------------------------------------------------

// SimulateInto runs the simulation for a dashboard. A zero earliest open
// leaves the simulation zeroed and recorded in snap.Undefined instead of
// failing the dashboard.
func (a *AnalysisFacade) SimulateInto(snap *models.MMetricsSnapshot, series *models.MPriceSeries, contribution float64) (models.MInvestmentSimulation, error) {
	sim, err := a.Simulate(series, contribution)
	if !errors.Is(err, helpers.ErrDivisionByZero) {
		return sim, err
	}

	if snap.Undefined == nil {
		snap.Undefined = map[string]string{}
	}
	snap.Undefined[MetricSimulationReturn] = models.ReasonDivisionByZero
	a.Logger.Debug("Simulation for %s undefined: %v", series.Symbol, err)
	return models.MInvestmentSimulation{Contribution: contribution}, nil
}

// -----------------------------------------------------------------------------

// BuildCharts returns the open price line and the dividend bars. Series
// longer than maxPoints are bucketed: the line keeps the mean open and the
// bars the summed distributions of each bucket.
func (a *AnalysisFacade) BuildCharts(series *models.MPriceSeries, maxPoints int) ([]models.MChartPoint, []models.MChartPoint) {
	if series.IsEmpty() {
		return []models.MChartPoint{}, []models.MChartPoint{}
	}

	points := series.Points
	if maxPoints <= 0 || len(points) <= maxPoints {
		priceChart := make([]models.MChartPoint, len(points))
		for i, p := range points {
			priceChart[i] = models.MChartPoint{Timestamp: p.Timestamp, Value: p.Open}
		}
		dividendChart := []models.MChartPoint{}
		for _, e := range series.Dividends() {
			dividendChart = append(dividendChart, models.MChartPoint{Timestamp: e.Timestamp, Value: e.Amount})
		}
		return priceChart, dividendChart
	}

	timestamps := make([]int64, len(points))
	opens := make([]float64, len(points))
	dividends := make([]float64, len(points))
	for i, p := range points {
		timestamps[i] = p.Timestamp
		opens[i] = p.Open
		dividends[i] = p.Dividends
	}

	width := BucketWidth(timestamps[0], timestamps[len(timestamps)-1], maxPoints)
	buckets := a.Resampler.ResampleMultiData(timestamps, width, opens, dividends)

	priceChart := make([]models.MChartPoint, 0, len(buckets))
	dividendChart := []models.MChartPoint{}
	for _, b := range buckets {
		priceChart = append(priceChart, models.MChartPoint{
			Timestamp: b.StartTime,
			Value:     core.Mean(b.DataArrays[0]).TakeOr(0),
		})
		if paid := core.Sum(b.DataArrays[1]); paid.IsPositive() {
			dividendChart = append(dividendChart, models.MChartPoint{Timestamp: b.StartTime, Value: paid.InexactFloat64()})
		}
	}

	a.Logger.Debug("Resampled %s from %d sessions into %d buckets of %d days",
		series.Symbol, len(points), len(buckets), width/86400)
	return priceChart, dividendChart
}

// -----------------------------------------------------------------------------

func (a *AnalysisFacade) ratio(undefined map[string]string, name string, fn func() (float64, error)) *float64 {
	v, err := fn()
	if err != nil {
		undefined[name] = reasonFor(err)
		a.Logger.Debug("Metric %s undefined: %v", name, err)
		return nil
	}
	return &v
}

func optionalField(undefined map[string]string, name string, opt optional.Option[float64]) *float64 {
	if opt.IsNone() {
		undefined[name] = models.ReasonNoDividendData
		return nil
	}
	v := opt.Unwrap()
	return &v
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, helpers.ErrDivisionByZero):
		return models.ReasonDivisionByZero
	case errors.Is(err, helpers.ErrNoDividendData):
		return models.ReasonNoDividendData
	default:
		return helpers.ErrorCode(err)
	}
}

func lastTimestamp(points []models.MPricePoint) int64 {
	last := points[0].Timestamp
	for _, p := range points[1:] {
		if p.Timestamp > last {
			last = p.Timestamp
		}
	}
	return last
}
