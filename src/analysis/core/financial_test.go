package core

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yield-dashboard/src/helpers"
	"yield-dashboard/src/models"
)

func day(n int) int64 {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n).Unix()
}

func samplePoints() []models.MPricePoint {
	return []models.MPricePoint{
		{Timestamp: day(0), Open: 10},
		{Timestamp: day(1), Open: 12, Dividends: 0.5},
	}
}

func sampleDividends() []models.MDividendEvent {
	return []models.MDividendEvent{{Timestamp: day(1), Amount: 0.5}}
}

func TestPriceExtremes(t *testing.T) {
	points := []models.MPricePoint{
		{Timestamp: day(2), Open: 9.5},
		{Timestamp: day(0), Open: 10},
		{Timestamp: day(1), Open: 14.25},
	}

	latest, err := LatestPrice(points)
	require.NoError(t, err)
	assert.Equal(t, 9.5, latest)

	earliest, err := EarliestPrice(points)
	require.NoError(t, err)
	assert.Equal(t, 10.0, earliest)

	low, err := MinPrice(points)
	require.NoError(t, err)
	assert.Equal(t, 9.5, low)

	high, err := MaxPrice(points)
	require.NoError(t, err)
	assert.Equal(t, 14.25, high)

	for _, p := range points {
		assert.LessOrEqual(t, low, p.Open)
		assert.GreaterOrEqual(t, high, p.Open)
	}
}

func TestEmptySeries(t *testing.T) {
	var points []models.MPricePoint

	_, err := LatestPrice(points)
	assert.ErrorIs(t, err, helpers.ErrEmptySeries)
	_, err = EarliestPrice(points)
	assert.ErrorIs(t, err, helpers.ErrEmptySeries)
	_, err = MinPrice(points)
	assert.ErrorIs(t, err, helpers.ErrEmptySeries)
	_, err = MaxPrice(points)
	assert.ErrorIs(t, err, helpers.ErrEmptySeries)
	_, err = PeriodReturnPct(points)
	assert.ErrorIs(t, err, helpers.ErrEmptySeries)
	_, err = PriceToEarnings(points, sampleDividends())
	assert.ErrorIs(t, err, helpers.ErrEmptySeries)
	_, err = TrailingDividendYieldPct(points, nil)
	assert.ErrorIs(t, err, helpers.ErrEmptySeries)
	_, err = SimulateInvestment(points, nil, 100)
	assert.ErrorIs(t, err, helpers.ErrEmptySeries)
}

func TestPeriodReturnPct(t *testing.T) {
	tests := []struct {
		name   string
		points []models.MPricePoint
		want   float64
		err    error
	}{
		{name: "gain", points: samplePoints(), want: 20},
		{
			name:   "rounded to two decimals",
			points: []models.MPricePoint{{Timestamp: day(0), Open: 3}, {Timestamp: day(1), Open: 4}},
			want:   33.33,
		},
		{
			name:   "loss",
			points: []models.MPricePoint{{Timestamp: day(0), Open: 8}, {Timestamp: day(1), Open: 6}},
			want:   -25,
		},
		{
			name:   "single session",
			points: []models.MPricePoint{{Timestamp: day(0), Open: 8}},
			want:   0,
		},
		{
			name:   "earliest zero",
			points: []models.MPricePoint{{Timestamp: day(0), Open: 0}, {Timestamp: day(1), Open: 6}},
			err:    helpers.ErrDivisionByZero,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PeriodReturnPct(tt.points)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestDividendReductions(t *testing.T) {
	events := []models.MDividendEvent{
		{Timestamp: day(0), Amount: 0.1},
		{Timestamp: day(30), Amount: 0.2},
		{Timestamp: day(60), Amount: 0.45},
	}

	assert.InDelta(t, 0.75, DividendTotal(events), 1e-12)
	assert.Equal(t, 3, DividendCount(events))
	assert.InDelta(t, 0.25, DividendMean(events).Unwrap(), 1e-12)
	assert.Equal(t, 0.1, DividendMin(events).Unwrap())
	assert.Equal(t, 0.45, DividendMax(events).Unwrap())

	// total = mean * count
	assert.InDelta(t, DividendTotal(events), DividendMean(events).Unwrap()*float64(DividendCount(events)), 1e-9)

	summary, err := DividendSummary(events)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Count)
	assert.InDelta(t, 0.75, summary.Total, 1e-12)
}

func TestDividendReductionsEmpty(t *testing.T) {
	assert.Equal(t, 0.0, DividendTotal(nil))
	assert.Equal(t, 0, DividendCount(nil))
	assert.True(t, DividendMean(nil).IsNone())
	assert.True(t, DividendMin(nil).IsNone())
	assert.True(t, DividendMax(nil).IsNone())

	_, err := DividendSummary(nil)
	assert.ErrorIs(t, err, helpers.ErrNoDividendData)
}

func TestPriceToEarnings(t *testing.T) {
	pe, err := PriceToEarnings(samplePoints(), sampleDividends())
	require.NoError(t, err)
	assert.InDelta(t, 24.0, pe, 1e-9)

	_, err = PriceToEarnings(samplePoints(), nil)
	assert.ErrorIs(t, err, helpers.ErrDivisionByZero)
}

func TestTrailingDividendYieldPct(t *testing.T) {
	t.Run("short series uses every dividend", func(t *testing.T) {
		got, err := TrailingDividendYieldPct(samplePoints(), sampleDividends())
		require.NoError(t, err)
		// 0.5 / 12 = 0.041666.. -> 0.0417 -> 4.17
		assert.InDelta(t, 4.17, got, 1e-9)
	})

	t.Run("only the last sessions count", func(t *testing.T) {
		points := make([]models.MPricePoint, 300)
		for i := range points {
			points[i] = models.MPricePoint{Timestamp: day(i), Open: 20}
		}
		events := []models.MDividendEvent{
			{Timestamp: day(10), Amount: 5}, // outside the window
			{Timestamp: day(50), Amount: 1}, // first session of the window
			{Timestamp: day(299), Amount: 1},
		}
		got, err := TrailingDividendYieldPct(points, events)
		require.NoError(t, err)
		assert.InDelta(t, 10.0, got, 1e-9)
	})

	t.Run("unsorted sessions", func(t *testing.T) {
		points := make([]models.MPricePoint, 300)
		for i := range points {
			points[i] = models.MPricePoint{Timestamp: day(299 - i), Open: 20}
		}
		events := []models.MDividendEvent{
			{Timestamp: day(10), Amount: 5},
			{Timestamp: day(50), Amount: 1},
			{Timestamp: day(299), Amount: 1},
		}
		got, err := TrailingDividendYieldPct(points, events)
		require.NoError(t, err)
		assert.InDelta(t, 10.0, got, 1e-9)
	})

	t.Run("no dividends", func(t *testing.T) {
		got, err := TrailingDividendYieldPct(samplePoints(), nil)
		require.NoError(t, err)
		assert.Equal(t, 0.0, got)
	})

	t.Run("latest zero", func(t *testing.T) {
		points := []models.MPricePoint{{Timestamp: day(0), Open: 5}, {Timestamp: day(1), Open: 0}}
		_, err := TrailingDividendYieldPct(points, nil)
		assert.ErrorIs(t, err, helpers.ErrDivisionByZero)
	})
}

func TestSimulateInvestment(t *testing.T) {
	sim, err := SimulateInvestment(samplePoints(), sampleDividends(), 1000)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, sim.Contribution)
	assert.InDelta(t, 100.0, sim.SharesBought, 1e-9)
	assert.InDelta(t, 50.0, sim.DividendIncome, 1e-9)
	assert.InDelta(t, 1250.0, sim.EndingValue, 1e-9)
	assert.InDelta(t, 25.0, sim.ReturnPct, 1e-9)
}

func TestSimulateInvestmentEdges(t *testing.T) {
	t.Run("zero contribution", func(t *testing.T) {
		sim, err := SimulateInvestment(samplePoints(), sampleDividends(), 0)
		require.NoError(t, err)
		assert.Equal(t, models.MInvestmentSimulation{}, sim)
	})

	t.Run("zero contribution with zero earliest price", func(t *testing.T) {
		points := []models.MPricePoint{{Timestamp: day(0), Open: 0}, {Timestamp: day(1), Open: 3}}
		sim, err := SimulateInvestment(points, nil, 0)
		require.NoError(t, err)
		assert.Equal(t, 0.0, sim.ReturnPct)
	})

	t.Run("negative contribution", func(t *testing.T) {
		_, err := SimulateInvestment(samplePoints(), nil, -1)
		assert.ErrorIs(t, err, helpers.ErrNegativeContribution)
	})

	t.Run("earliest price zero", func(t *testing.T) {
		points := []models.MPricePoint{{Timestamp: day(0), Open: 0}, {Timestamp: day(1), Open: 3}}
		_, err := SimulateInvestment(points, nil, 100)
		assert.ErrorIs(t, err, helpers.ErrDivisionByZero)
	})

	t.Run("without dividends ending tracks price", func(t *testing.T) {
		sim, err := SimulateInvestment(samplePoints(), nil, 500)
		require.NoError(t, err)
		assert.Equal(t, 0.0, sim.DividendIncome)
		assert.InDelta(t, 600.0, sim.EndingValue, 1e-9)
		assert.InDelta(t, 20.0, sim.ReturnPct, 1e-9)
	})
}

func TestMetricsAreIdempotent(t *testing.T) {
	points := samplePoints()
	events := sampleDividends()

	first, err := SimulateInvestment(points, events, 1234.56)
	require.NoError(t, err)
	second, err := SimulateInvestment(points, events, 1234.56)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	y1, _ := TrailingDividendYieldPct(points, events)
	y2, _ := TrailingDividendYieldPct(points, events)
	assert.Equal(t, y1, y2)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.01, Round(1.005, 2))
	assert.Equal(t, -2.35, Round(-2.345, 2))
	assert.False(t, math.IsNaN(Round(0, 4)))
}
