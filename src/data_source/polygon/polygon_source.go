package polygon

import (
	"context"
	"fmt"
	"net/http"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"yield-dashboard/src/helpers"
	"yield-dashboard/src/logger"
	dmodels "yield-dashboard/src/models"
)

// PolygonSource reads daily aggregates and cash dividends from the Polygon
// REST API.
type PolygonSource struct {
	Config       *dmodels.MConfig
	SourceConfig dmodels.MSourceConfig
	Client       *polygon.Client
	Logger       *logger.Logger
}

// -----------------------------------------------------------------------------

// NewPolygonSource needs an API key; hc may be nil for the default client.
func NewPolygonSource(cfg *dmodels.MConfig, sourceCfg dmodels.MSourceConfig, hc *http.Client) (*PolygonSource, error) {
	if sourceCfg.APIKey == "" {
		return nil, &helpers.ConfigurationError{DashboardError: helpers.DashboardError{
			Message: fmt.Sprintf("source %s: polygon api key is required", sourceCfg.Name),
		}}
	}

	var client *polygon.Client
	if hc != nil {
		client = polygon.NewWithClient(sourceCfg.APIKey, hc)
	} else {
		client = polygon.New(sourceCfg.APIKey)
	}

	return &PolygonSource{
		Config:       cfg,
		SourceConfig: sourceCfg,
		Client:       client,
		Logger:       logger.NewLogger(cfg, "PolygonSource-"+sourceCfg.Name),
	}, nil
}

// -----------------------------------------------------------------------------

func (s *PolygonSource) Name() string {
	return s.SourceConfig.Name
}

// -----------------------------------------------------------------------------

// FetchSeries lists the daily aggregates of [start, end] and attaches the
// cash dividends whose ex-date falls on a session.
func (s *PolygonSource) FetchSeries(ctx context.Context, symbol string, start, end time.Time) (*dmodels.MPriceSeries, error) {
	from := truncateDay(start)
	to := truncateDay(end)

	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: 1,
		Timespan:   "day",
		From:       models.Millis(from),
		To:         models.Millis(to.Add(24*time.Hour - time.Second)),
	}.WithLimit(50000)

	points := []dmodels.MPricePoint{}
	index := map[int64]int{}

	iter := s.Client.ListAggs(ctx, params)
	for iter.Next() {
		agg := iter.Item()
		day := truncateDay(time.Time(agg.Timestamp)).Unix()
		if day < from.Unix() || day > to.Unix() {
			continue
		}
		if _, seen := index[day]; seen {
			continue
		}
		index[day] = len(points)
		points = append(points, dmodels.MPricePoint{Timestamp: day, Open: agg.Open})
	}
	if err := iter.Err(); err != nil {
		return nil, helpers.NewDataSourceError(s.Name(), symbol, err)
	}

	divs, err := s.fetchDividends(ctx, symbol, from, to)
	if err != nil {
		return nil, helpers.NewDataSourceError(s.Name(), symbol, err)
	}
	for _, d := range divs {
		exDate, err := time.Parse(time.DateOnly, d.ExDividendDate)
		if err != nil || d.CashAmount <= 0 {
			continue
		}
		if i, ok := index[exDate.Unix()]; ok {
			points[i].Dividends += d.CashAmount
		}
	}

	s.Logger.Info("Fetched %s: %d sessions from polygon", symbol, len(points))
	return &dmodels.MPriceSeries{
		Symbol:    symbol,
		Currency:  s.Config.Dashboard.Currency,
		Source:    s.Name(),
		Start:     from,
		End:       to,
		Points:    points,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// -----------------------------------------------------------------------------

// fetchDividends lists the dividends of symbol with an ex-date in [from, to].
func (s *PolygonSource) fetchDividends(ctx context.Context, symbol string, from, to time.Time) ([]models.Dividend, error) {
	params := models.ListDividendsParams{}.
		WithTicker(models.EQ, symbol).
		WithExDividendDate(models.GTE, models.Date(from)).
		WithExDividendDate(models.LTE, models.Date(to)).
		WithLimit(1000)

	var out []models.Dividend
	iter := s.Client.ListDividends(ctx, params)
	for iter.Next() {
		out = append(out, iter.Item())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list dividends: %w", err)
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
