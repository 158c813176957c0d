package datasource

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yield-dashboard/src/helpers"
	"yield-dashboard/src/interfaces"
	"yield-dashboard/src/logger"
	"yield-dashboard/src/models"
)

type stubSource struct {
	name   string
	series *models.MPriceSeries
	err    error
	calls  int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) FetchSeries(ctx context.Context, symbol string, start, end time.Time) (*models.MPriceSeries, error) {
	s.calls++
	return s.series, s.err
}

type recordingHealth struct {
	reports map[string]bool
}

func (r *recordingHealth) ReportSource(name string, healthy bool) {
	r.reports[name] = healthy
}

func seriesFrom(source string, n int) *models.MPriceSeries {
	s := &models.MPriceSeries{Symbol: "PETR4.SA", Source: source}
	for i := 0; i < n; i++ {
		s.Points = append(s.Points, models.MPricePoint{Timestamp: int64(i) * 86400, Open: 30})
	}
	return s
}

func newManager(sources ...interfaces.IDataSource) *MultiSourceManager {
	return NewMultiSourceManager(sources, logger.NewNopLogger())
}

func TestFetchSeriesFallsBack(t *testing.T) {
	first := &stubSource{name: "yahoo", err: helpers.NewDataSourceError("yahoo", "PETR4.SA", errors.New("timeout"))}
	second := &stubSource{name: "polygon", series: seriesFrom("polygon", 3)}
	health := &recordingHealth{reports: map[string]bool{}}

	m := newManager(first, second)
	m.SetHealthReporter(health)

	series, err := m.FetchSeries(context.Background(), "PETR4.SA", time.Now(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, "polygon", series.Source)
	assert.Equal(t, map[string]bool{"yahoo": false, "polygon": true}, health.reports)
}

func TestFetchSeriesStopsAtFirstSuccess(t *testing.T) {
	first := &stubSource{name: "yahoo", series: seriesFrom("yahoo", 2)}
	second := &stubSource{name: "polygon", series: seriesFrom("polygon", 3)}

	series, err := newManager(first, second).FetchSeries(context.Background(), "PETR4.SA", time.Now(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, "yahoo", series.Source)
	assert.Equal(t, 0, second.calls)
}

func TestFetchSeriesEmptyFromEverySource(t *testing.T) {
	first := &stubSource{name: "yahoo", series: seriesFrom("yahoo", 0)}
	second := &stubSource{name: "polygon", err: errors.New("boom")}

	series, err := newManager(first, second).FetchSeries(context.Background(), "PETR4.SA", time.Now(), time.Now())
	require.NoError(t, err)
	assert.True(t, series.IsEmpty())
	assert.Equal(t, 1, second.calls)
}

func TestFetchSeriesAllFail(t *testing.T) {
	first := &stubSource{name: "yahoo", err: errors.New("dns")}
	second := &stubSource{name: "polygon", err: errors.New("401")}

	_, err := newManager(first, second).FetchSeries(context.Background(), "PETR4.SA", time.Now(), time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, helpers.ErrDataUnavailable)
	assert.Contains(t, err.Error(), "401")
}

func TestFetchSeriesWithoutSources(t *testing.T) {
	_, err := newManager().FetchSeries(context.Background(), "PETR4.SA", time.Now(), time.Now())
	assert.ErrorIs(t, err, helpers.ErrDataUnavailable)
}

func TestRegistry(t *testing.T) {
	m := newManager(&stubSource{name: "yahoo"})

	require.NoError(t, m.AddSource(&stubSource{name: "polygon"}))
	assert.Error(t, m.AddSource(&stubSource{name: "yahoo"}))
	assert.Equal(t, []string{"yahoo", "polygon"}, m.SourceNames())

	src, err := m.GetSource("polygon")
	require.NoError(t, err)
	assert.Equal(t, "polygon", src.Name())

	require.NoError(t, m.RemoveSource("yahoo"))
	assert.Error(t, m.RemoveSource("yahoo"))
	_, err = m.GetSource("yahoo")
	assert.Error(t, err)
	assert.Len(t, m.GetAllSources(), 1)
}
