package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"yield-dashboard/src/helpers"
	"yield-dashboard/src/interfaces"
	"yield-dashboard/src/logger"
	"yield-dashboard/src/models"
)

// DefaultChartURL is the v8 chart endpoint; the symbol is appended.
const DefaultChartURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

const daySeconds = 86400

type YahooFinanceSource struct {
	Config       *models.MConfig
	SourceConfig models.MSourceConfig
	Network      interfaces.INetworkManager
	Logger       *logger.Logger
	ChartURL     string
}

// -----------------------------------------------------------------------------

func (s *YahooFinanceSource) Name() string {
	return s.SourceConfig.Name
}

// -----------------------------------------------------------------------------

func NewYahooFinanceSource(cfg *models.MConfig, sourceCfg models.MSourceConfig, netMgr interfaces.INetworkManager) *YahooFinanceSource {
	return &YahooFinanceSource{
		Config:       cfg,
		SourceConfig: sourceCfg,
		Network:      netMgr,
		Logger:       logger.NewLogger(cfg, "YahooFinanceSource-"+sourceCfg.Name),
		ChartURL:     DefaultChartURL,
	}
}

// -----------------------------------------------------------------------------

// FetchSeries downloads the daily sessions of symbol for the closed range
// [start, end] together with the dividend events.
func (s *YahooFinanceSource) FetchSeries(ctx context.Context, symbol string, start, end time.Time) (*models.MPriceSeries, error) {
	from := truncateDay(start)
	to := truncateDay(end)

	params := map[string]string{
		"interval": "1d",
		"period1":  strconv.FormatInt(from.Unix(), 10),
		"period2":  strconv.FormatInt(to.Unix()+daySeconds, 10),
		"events":   "div",
	}

	respBytes, err := s.Network.Get(ctx, s.ChartURL+symbol, params)
	if err != nil {
		return nil, helpers.NewDataSourceError(s.Name(), symbol, err)
	}

	series, err := s.parseChartResponse(symbol, respBytes)
	if err != nil {
		return nil, helpers.NewDataSourceError(s.Name(), symbol, err)
	}

	series.Points = clip(series.Points, from.Unix(), to.Unix())
	series.Start = from
	series.End = to
	series.FetchedAt = time.Now().UTC()
	if series.Currency == "" {
		series.Currency = s.Config.Dashboard.Currency
	}

	if len(series.Points) > 0 {
		s.Logger.Info("Fetched %s: %d sessions, %d dividends [%s -> %s]", symbol, len(series.Points),
			len(series.Dividends()),
			time.Unix(series.Points[0].Timestamp, 0).UTC().Format(time.DateOnly),
			time.Unix(series.Points[len(series.Points)-1].Timestamp, 0).UTC().Format(time.DateOnly))
	}
	return series, nil
}

// -----------------------------------------------------------------------------

type YahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency             string  `json:"currency"`
				Symbol               string  `json:"symbol"`
				ExchangeName         string  `json:"exchangeName"`
				InstrumentType       string  `json:"instrumentType"`
				Gmtoffset            int64   `json:"gmtoffset"`
				Timezone             string  `json:"timezone"`
				ExchangeTimezoneName string  `json:"exchangeTimezoneName"`
				RegularMarketPrice   float64 `json:"regularMarketPrice"`
				DataGranularity      string  `json:"dataGranularity"`
			} `json:"meta"`
			Timestamp []int64 `json:"timestamp"`
			Events    struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
			} `json:"events"`
			Indicators struct {
				Quote []struct {
					Open []*float64 `json:"open"` // Use pointers to handle null
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// -----------------------------------------------------------------------------

func (s *YahooFinanceSource) parseChartResponse(symbol string, data []byte) (*models.MPriceSeries, error) {
	var resp YahooChartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s - %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}

	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("no result in response for %s", symbol)
	}

	result := resp.Chart.Result[0]
	series := &models.MPriceSeries{
		Symbol:   symbol,
		Currency: result.Meta.Currency,
		Source:   s.Name(),
		Points:   []models.MPricePoint{},
	}

	if len(result.Timestamp) == 0 {
		return series, nil
	}
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote data in response for %s", symbol)
	}

	opens := result.Indicators.Quote[0].Open
	if len(opens) != len(result.Timestamp) {
		s.Logger.Info("Data alignment error for %s: Mismatched array lengths", symbol)
		return nil, fmt.Errorf("data alignment error for %s", symbol)
	}

	offset := result.Meta.Gmtoffset
	byDay := make(map[int64]models.MPricePoint, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if opens[i] == nil {
			s.Logger.Debug("Skipping null open for %s at index %d", symbol, i)
			continue
		}
		d := sessionDay(ts, offset)
		byDay[d] = models.MPricePoint{Timestamp: d, Open: *opens[i]}
	}

	points := make([]models.MPricePoint, 0, len(byDay))
	for _, p := range byDay {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp < points[j].Timestamp
	})

	for _, div := range result.Events.Dividends {
		if div.Amount <= 0 {
			continue
		}
		d := sessionDay(div.Date, offset)
		idx := sort.Search(len(points), func(i int) bool { return points[i].Timestamp >= d })
		if idx == len(points) {
			s.Logger.Debug("Dropping dividend of %s on %d: no session on or after it", symbol, d)
			continue
		}
		points[idx].Dividends += div.Amount
	}

	series.Points = points
	return series, nil
}

// -----------------------------------------------------------------------------

// sessionDay maps an exchange timestamp to midnight UTC of its local date.
func sessionDay(ts, gmtoffset int64) int64 {
	local := ts + gmtoffset
	return local - ((local%daySeconds)+daySeconds)%daySeconds
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func clip(points []models.MPricePoint, from, to int64) []models.MPricePoint {
	out := points[:0]
	for _, p := range points {
		if p.Timestamp >= from && p.Timestamp <= to {
			out = append(out, p)
		}
	}
	return out
}
