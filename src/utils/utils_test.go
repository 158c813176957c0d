package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yield-dashboard/src/logger"
	"yield-dashboard/src/models"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(time.DateOnly, s)
	require.NoError(t, err)
	return d
}

func TestMICForSymbol(t *testing.T) {
	assert.Equal(t, "bvmf", MICForSymbol("PETR4.SA"))
	assert.Equal(t, "xlon", MICForSymbol("VOD.L"))
	assert.Equal(t, "xtsx", MICForSymbol("ABC.V"))
	assert.Equal(t, "xnys", MICForSymbol("AAPL"))
	assert.Equal(t, "xnys", MICForSymbol("BRK.XX"))
}

func TestSessionsBetweenFallback(t *testing.T) {
	tc := &TradingCalendar{Fallback: true, Timezone: time.UTC}

	// Mon 2024-01-08 .. Sun 2024-01-14
	assert.Equal(t, 5, tc.SessionsBetween(mustDate(t, "2024-01-08"), mustDate(t, "2024-01-14")))
	assert.Equal(t, 0, tc.SessionsBetween(mustDate(t, "2024-01-13"), mustDate(t, "2024-01-14")))
	assert.Equal(t, 1, tc.SessionsBetween(mustDate(t, "2024-01-10"), mustDate(t, "2024-01-10")))
	assert.Equal(t, 0, tc.SessionsBetween(mustDate(t, "2024-01-10"), mustDate(t, "2024-01-09")))
}

func TestSessionsBetweenNYSE(t *testing.T) {
	tc := GetCalendar("AAPL")
	require.NotNil(t, tc)

	// a plain week without holidays
	assert.Equal(t, 5, tc.SessionsBetween(mustDate(t, "2024-01-08"), mustDate(t, "2024-01-12")))
}

func TestFallbackTradingHours(t *testing.T) {
	tc := &TradingCalendar{Fallback: true, Timezone: time.UTC}
	assert.True(t, tc.IsOpenOnMinute(time.Date(2024, 1, 10, 11, 0, 0, 0, time.UTC)))
	assert.False(t, tc.IsOpenOnMinute(time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC)))
	assert.False(t, tc.IsOpenOnMinute(time.Date(2024, 1, 13, 11, 0, 0, 0, time.UTC)))
}

func TestMarketSchedulerSharesCalendars(t *testing.T) {
	ms := NewMarketScheduler([]string{"PETR4.SA", "VALE3.SA", "AAPL"}, logger.NewNopLogger())
	assert.Same(t, ms.Calendars["PETR4.SA"], ms.Calendars["VALE3.SA"])
	assert.NotNil(t, ms.CalendarFor("UNMAPPED.L"))

	// Sunday: every exchange is closed
	ms.now = func() time.Time { return time.Date(2024, 1, 14, 15, 0, 0, 0, time.UTC) }
	assert.False(t, ms.IsMarketOpen("PETR4.SA"))
	assert.False(t, ms.AnyMarketOpen())
}

func newTestCache(maxEntries int) (*SeriesCache, *time.Time) {
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewSeriesCache(models.MCacheConfig{TTLMinutes: 15, MaxEntries: maxEntries}, logger.NewNopLogger())
	c.now = func() time.Time { return clock }
	return c, &clock
}

func cached(symbol string, day int) *models.MPriceSeries {
	start := time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
	return &models.MPriceSeries{
		Symbol: symbol,
		Start:  start,
		End:    start.AddDate(0, 1, 0),
		Points: []models.MPricePoint{{Timestamp: start.Unix(), Open: 1}},
	}
}

func TestSeriesCacheGetPut(t *testing.T) {
	c, clock := newTestCache(10)
	s := cached("PETR4.SA", 1)

	_, ok := c.Get(s.Symbol, s.Start, s.End)
	assert.False(t, ok)

	c.Put(s)
	got, ok := c.Get(s.Symbol, s.Start, s.End)
	require.True(t, ok)
	assert.Same(t, s, got)

	*clock = clock.Add(16 * time.Minute)
	_, ok = c.Get(s.Symbol, s.Start, s.End)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestSeriesCacheEvictsOldestHalf(t *testing.T) {
	c, clock := newTestCache(4)

	for day := 1; day <= 5; day++ {
		c.Put(cached("VALE3.SA", day))
		*clock = clock.Add(time.Second)
	}

	// five entries over a limit of four: the three oldest go
	assert.Equal(t, 2, c.Len())
	s := cached("VALE3.SA", 5)
	_, ok := c.Get(s.Symbol, s.Start, s.End)
	assert.True(t, ok)
	s = cached("VALE3.SA", 1)
	_, ok = c.Get(s.Symbol, s.Start, s.End)
	assert.False(t, ok)
}

func TestSeriesCacheMemoryLimit(t *testing.T) {
	c, clock := newTestCache(0)
	c.MaxMemoryMB = 1
	c.memoryMB = func() float64 { return 0.5 }

	c.Put(cached("A", 1))
	*clock = clock.Add(time.Second)
	c.Put(cached("A", 2))
	assert.Equal(t, 2, c.Len())

	c.memoryMB = func() float64 { return 2 }
	c.CheckMemoryLimits()
	assert.Equal(t, 1, c.Len())
	assert.Greater(t, c.EstimatedBytes(), 0)

	c.Cleanup()
	assert.Equal(t, 0, c.Len())
}
