package polygon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yield-dashboard/src/helpers"
	"yield-dashboard/src/logger"
	dmodels "yield-dashboard/src/models"
)

// redirect sends every request to the test server.
type redirect struct {
	target *url.URL
}

func (r redirect) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = r.target.Scheme
	req.URL.Host = r.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func ms(day string) int64 {
	t, _ := time.Parse(time.DateOnly, day)
	return t.Add(5 * time.Hour).UnixMilli()
}

func newTestSource(t *testing.T, handler http.HandlerFunc) *PolygonSource {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	cfg := &dmodels.MConfig{Dashboard: dmodels.MDashboardConfig{Currency: "USD"}}
	s, err := NewPolygonSource(cfg, dmodels.MSourceConfig{Name: "polygon", APIKey: "test"}, &http.Client{Transport: redirect{target: target}})
	require.NoError(t, err)
	s.Logger = logger.NewNopLogger()
	return s
}

func TestNewPolygonSourceRequiresKey(t *testing.T) {
	_, err := NewPolygonSource(&dmodels.MConfig{}, dmodels.MSourceConfig{Name: "polygon"}, nil)
	require.Error(t, err)

	var cfgErr *helpers.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestFetchSeries(t *testing.T) {
	var dividendQuery url.Values
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(r.URL.Path, "/aggs/ticker/AAPL/range/1/day/"):
			_, _ = w.Write([]byte(`{"status":"OK","resultsCount":2,"results":[` +
				`{"o":10,"h":11,"l":9,"c":10.5,"v":100,"t":` + itoa(ms("2024-01-02")) + `},` +
				`{"o":12,"h":13,"l":11,"c":12.5,"v":100,"t":` + itoa(ms("2024-01-03")) + `}]}`))
		case strings.Contains(r.URL.Path, "dividends"):
			dividendQuery = r.URL.Query()
			_, _ = w.Write([]byte(`{"status":"OK","results":[` +
				`{"ticker":"AAPL","cash_amount":0.5,"ex_dividend_date":"2024-01-03"},` +
				`{"ticker":"AAPL","cash_amount":0.7,"ex_dividend_date":"2023-06-01"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	start, _ := time.Parse(time.DateOnly, "2024-01-02")
	end, _ := time.Parse(time.DateOnly, "2024-01-03")
	series, err := s.FetchSeries(context.Background(), "AAPL", start, end)
	require.NoError(t, err)

	assert.Equal(t, "polygon", series.Source)
	assert.Equal(t, "USD", series.Currency)
	require.Len(t, series.Points, 2)
	assert.Equal(t, start.Unix(), series.Points[0].Timestamp)
	assert.Equal(t, 10.0, series.Points[0].Open)
	assert.Equal(t, 0.5, series.Points[1].Dividends)
	assert.Len(t, series.Dividends(), 1)

	assert.Equal(t, "AAPL", dividendQuery.Get("ticker"))
	assert.Equal(t, "2024-01-02", dividendQuery.Get("ex_dividend_date.gte"))
	assert.Equal(t, "2024-01-03", dividendQuery.Get("ex_dividend_date.lte"))
}

func TestFetchSeriesFailure(t *testing.T) {
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":"ERROR","error":"bad key"}`))
	})

	_, err := s.FetchSeries(context.Background(), "AAPL", time.Now().AddDate(0, 0, -5), time.Now())
	assert.ErrorIs(t, err, helpers.ErrDataUnavailable)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
