package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"

	"yield-dashboard/src/analysis"
	"yield-dashboard/src/helpers"
	"yield-dashboard/src/interfaces"
	"yield-dashboard/src/logger"
	"yield-dashboard/src/models"
	"yield-dashboard/src/present"
	"yield-dashboard/src/utils"
)

// Cache outcomes reported in MProcessingMetrics.CacheHit.
const (
	CacheMemory   = "memory"
	CacheDatabase = "database"
	CacheMiss     = "miss"
)

// healthAware sources report their own per-provider outcomes.
type healthAware interface {
	SetHealthReporter(h interfaces.IHealthReporter)
}

// sourceLister exposes the provider names behind a composite source.
type sourceLister interface {
	SourceNames() []string
}

// DashboardService runs fetch, metrics, simulation and formatting for one
// request at a time. It is safe for concurrent use.
type DashboardService struct {
	Config    *models.MConfig
	Source    interfaces.IDataSource
	DB        interfaces.IDatabase
	Cache     *utils.SeriesCache
	Analysis  *analysis.AnalysisFacade
	Scheduler *utils.MarketScheduler
	Logger    *logger.Logger

	validate  *validator.Validate
	symbols   atomic.Value // []string
	health    interfaces.IHealthReporter
	listeners []func([]string)
	mu        sync.RWMutex
}

// -----------------------------------------------------------------------------

// NewDashboardService wires the pipeline. db may be nil; the stored symbol
// list, when present, wins over the configured one.
func NewDashboardService(
	cfg *models.MConfig,
	source interfaces.IDataSource,
	db interfaces.IDatabase,
	cache *utils.SeriesCache,
	log *logger.Logger,
) *DashboardService {
	s := &DashboardService{
		Config:   cfg,
		Source:   source,
		DB:       db,
		Cache:    cache,
		Analysis: analysis.NewAnalysisFacade(cfg, log),
		Logger:   log,
		validate: validator.New(),
	}

	symbols := append([]string(nil), cfg.DataSource.Symbols...)
	if db != nil {
		stored, err := db.LoadSymbols()
		if err != nil {
			log.Warning("Could not load stored symbols, using configured list: %v", err)
		} else if len(stored) > 0 {
			symbols = stored
		}
	}
	s.symbols.Store(symbols)
	s.Scheduler = utils.NewMarketScheduler(symbols, log)

	return s
}

// -----------------------------------------------------------------------------

// SetHealthReporter forwards provider outcomes to h.
func (s *DashboardService) SetHealthReporter(h interfaces.IHealthReporter) {
	s.mu.Lock()
	s.health = h
	s.mu.Unlock()

	if ha, ok := s.Source.(healthAware); ok {
		ha.SetHealthReporter(h)
	}
}

// OnSymbolsChanged registers a callback run after every symbol list update.
func (s *DashboardService) OnSymbolsChanged(fn func([]string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// -----------------------------------------------------------------------------

// Symbols returns a copy of the asset list.
func (s *DashboardService) Symbols() []string {
	return append([]string(nil), s.symbols.Load().([]string)...)
}

// -----------------------------------------------------------------------------

// UpdateSymbols replaces the asset list, stores it and notifies listeners.
func (s *DashboardService) UpdateSymbols(symbols []string) error {
	cleaned := make([]string, 0, len(symbols))
	seen := make(map[string]bool)
	for _, sym := range symbols {
		sym = strings.TrimSpace(sym)
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		cleaned = append(cleaned, sym)
	}
	if len(cleaned) == 0 {
		return helpers.NewValidationError(fmt.Errorf("symbol list is empty"))
	}

	if s.DB != nil {
		if err := s.DB.SaveSymbols(cleaned); err != nil {
			return err
		}
	}

	s.symbols.Store(cleaned)
	s.Scheduler.UpdateSymbols(cleaned)
	s.Logger.Info("Updated symbol list. New count: %d", len(cleaned))

	s.mu.RLock()
	listeners := make([]func([]string), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(append([]string(nil), cleaned...))
	}
	return nil
}

// -----------------------------------------------------------------------------

// SourceNames lists the providers in priority order.
func (s *DashboardService) SourceNames() []string {
	if l, ok := s.Source.(sourceLister); ok {
		return l.SourceNames()
	}
	return []string{s.Source.Name()}
}

// -----------------------------------------------------------------------------

// Compute recomputes the whole dashboard for the request.
func (s *DashboardService) Compute(ctx context.Context, req models.MDashboardRequest) (*models.MDashboard, error) {
	req, err := s.checkRequest(req)
	if err != nil {
		return nil, err
	}

	fetchStart := time.Now()
	series, cacheHit, err := s.loadSeries(ctx, req)
	if err != nil {
		return nil, err
	}
	fetchTime := time.Since(fetchStart)

	computeStart := time.Now()
	snap, err := s.Analysis.BuildSnapshot(series)
	if err != nil {
		return nil, err
	}
	cal := s.Scheduler.CalendarFor(req.Symbol)
	snap.ExpectedSessions = cal.SessionsBetween(req.Start, req.End)

	sim, err := s.Analysis.SimulateInto(&snap, series, req.Contribution)
	if err != nil {
		return nil, err
	}

	priceChart, dividendChart := s.Analysis.BuildCharts(series, s.Config.Dashboard.ChartMaxPoints)

	currency := series.Currency
	if currency == "" {
		currency = s.Config.Dashboard.Currency
	}

	result := &models.MDashboard{
		Request:       req,
		Snapshot:      snap,
		Simulation:    sim,
		PriceChart:    priceChart,
		DividendChart: dividendChart,
		Display:       present.FormatDashboard(snap, sim, currency),
		Currency:      currency,
		Source:        series.Source,
		MarketOpen:    s.Scheduler.IsMarketOpen(req.Symbol),
		Metrics: models.MProcessingMetrics{
			FetchTimeSeconds:   fetchTime.Seconds(),
			ComputeTimeSeconds: time.Since(computeStart).Seconds(),
			CacheHit:           cacheHit,
		},
	}

	if s.DB != nil {
		if err := s.DB.SaveSnapshot(snap); err != nil {
			s.Logger.Warning("Failed to record snapshot for %s: %v", req.Symbol, err)
		}
	}

	s.Logger.Info("Computed %s [%s -> %s]: %d sessions, %d dividends (cache: %s, fetch %.3fs)",
		req.Symbol, req.Start.Format(time.DateOnly), req.End.Format(time.DateOnly),
		snap.SessionCount, snap.DividendCount, cacheHit, fetchTime.Seconds())
	return result, nil
}

// -----------------------------------------------------------------------------

// Simulate runs only the investment simulation for the request.
func (s *DashboardService) Simulate(ctx context.Context, req models.MDashboardRequest) (models.MInvestmentSimulation, error) {
	req, err := s.checkRequest(req)
	if err != nil {
		return models.MInvestmentSimulation{}, err
	}

	series, _, err := s.loadSeries(ctx, req)
	if err != nil {
		return models.MInvestmentSimulation{}, err
	}
	return s.Analysis.Simulate(series, req.Contribution)
}

// -----------------------------------------------------------------------------

// checkRequest validates the request and normalises its dates to UTC days.
func (s *DashboardService) checkRequest(req models.MDashboardRequest) (models.MDashboardRequest, error) {
	req.Symbol = strings.TrimSpace(req.Symbol)
	if req.Contribution < 0 {
		return req, helpers.NewValidationError(helpers.ErrNegativeContribution)
	}
	if err := s.validate.Struct(req); err != nil {
		return req, helpers.NewValidationError(err)
	}

	known := false
	for _, sym := range s.Symbols() {
		if sym == req.Symbol {
			known = true
			break
		}
	}
	if !known {
		return req, fmt.Errorf("%w: %s", helpers.ErrUnknownSymbol, req.Symbol)
	}

	req.Start = utcDay(req.Start)
	req.End = utcDay(req.End)
	return req, nil
}

// -----------------------------------------------------------------------------

// loadSeries looks in memory, then in the database, then asks the providers.
func (s *DashboardService) loadSeries(ctx context.Context, req models.MDashboardRequest) (*models.MPriceSeries, string, error) {
	if series, ok := s.Cache.Get(req.Symbol, req.Start, req.End); ok {
		return series, CacheMemory, nil
	}

	if s.DB != nil {
		series, err := s.DB.LoadSeries(req.Symbol, req.Start, req.End, s.Cache.TTL)
		if err != nil {
			s.Logger.Warning("Stored series lookup failed for %s: %v", req.Symbol, err)
		} else if series != nil && !series.IsEmpty() {
			s.Cache.Put(series)
			return series, CacheDatabase, nil
		}
	}

	series, err := s.Source.FetchSeries(ctx, req.Symbol, req.Start, req.End)
	s.reportSource(err == nil)
	if err != nil {
		return nil, CacheMiss, err
	}
	if series.IsEmpty() {
		return nil, CacheMiss, fmt.Errorf("%w: no sessions for %s between %s and %s", helpers.ErrEmptySeries,
			req.Symbol, req.Start.Format(time.DateOnly), req.End.Format(time.DateOnly))
	}

	stored := *series
	stored.Start = req.Start
	stored.End = req.End
	s.Cache.Put(&stored)
	if s.DB != nil {
		if err := s.DB.SaveSeries(&stored); err != nil {
			s.Logger.Warning("Failed to store series for %s: %v", req.Symbol, err)
		}
	}
	return &stored, CacheMiss, nil
}

// -----------------------------------------------------------------------------

// reportSource covers sources that do not report per provider themselves.
func (s *DashboardService) reportSource(healthy bool) {
	if _, ok := s.Source.(healthAware); ok {
		return
	}
	s.mu.RLock()
	h := s.health
	s.mu.RUnlock()
	if h != nil {
		h.ReportSource(s.Source.Name(), healthy)
	}
}

func utcDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
