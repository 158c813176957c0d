package datasource

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"yield-dashboard/src/helpers"
	"yield-dashboard/src/interfaces"
	"yield-dashboard/src/logger"
	"yield-dashboard/src/models"
)

// MultiSourceManager keeps the registered providers in priority order and
// falls back from one to the next.
type MultiSourceManager struct {
	Sources map[string]interfaces.IDataSource
	Logger  *logger.Logger
	order   []string
	health  interfaces.IHealthReporter
	mu      sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMultiSourceManager(sources []interfaces.IDataSource, log *logger.Logger) *MultiSourceManager {
	m := &MultiSourceManager{
		Sources: make(map[string]interfaces.IDataSource),
		Logger:  log,
	}

	for _, s := range sources {
		if _, exists := m.Sources[s.Name()]; exists {
			continue
		}
		m.Sources[s.Name()] = s
		m.order = append(m.order, s.Name())
	}

	return m
}

// -----------------------------------------------------------------------------

// SetHealthReporter registers where fetch outcomes are reported.
func (m *MultiSourceManager) SetHealthReporter(h interfaces.IHealthReporter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.health = h
}

// -----------------------------------------------------------------------------

// AddSource appends a source at the lowest priority.
func (m *MultiSourceManager) AddSource(source interfaces.IDataSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := source.Name()
	if _, exists := m.Sources[name]; exists {
		return fmt.Errorf("source %s already exists", name)
	}

	m.Sources[name] = source
	m.order = append(m.order, name)
	m.Logger.Info("Added source: %s", name)
	return nil
}

// -----------------------------------------------------------------------------

// RemoveSource removes a source
func (m *MultiSourceManager) RemoveSource(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.Sources[name]; !exists {
		return fmt.Errorf("source %s not found", name)
	}

	delete(m.Sources, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.Logger.Info("Removed source: %s", name)
	return nil
}

// -----------------------------------------------------------------------------

// GetSource retrieves a source by name
func (m *MultiSourceManager) GetSource(name string) (interfaces.IDataSource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	source, exists := m.Sources[name]
	if !exists {
		return nil, fmt.Errorf("source %s not found", name)
	}
	return source, nil
}

// -----------------------------------------------------------------------------

// GetAllSources returns the sources in priority order
func (m *MultiSourceManager) GetAllSources() []interfaces.IDataSource {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]interfaces.IDataSource, 0, len(m.order))
	for _, name := range m.order {
		list = append(list, m.Sources[name])
	}
	return list
}

// -----------------------------------------------------------------------------

// SourceNames returns the source names in priority order
func (m *MultiSourceManager) SourceNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

// -----------------------------------------------------------------------------

// Name returns "MultiSourceManager"
func (m *MultiSourceManager) Name() string {
	return "MultiSourceManager"
}

// -----------------------------------------------------------------------------

// FetchSeries asks each source in turn and returns the first non-empty
// series. An empty series is returned only when no source has data; an
// error only when every source failed.
func (m *MultiSourceManager) FetchSeries(ctx context.Context, symbol string, start, end time.Time) (*models.MPriceSeries, error) {
	sources := m.GetAllSources()
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: no data source configured", helpers.ErrDataUnavailable)
	}

	var empty *models.MPriceSeries
	var errs []error

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, helpers.NewDataSourceError(m.Name(), symbol, err)
		}

		series, err := src.FetchSeries(ctx, symbol, start, end)
		m.report(src.Name(), err == nil)
		if err != nil {
			m.Logger.Warning("Source %s failed for %s: %v", src.Name(), symbol, err)
			errs = append(errs, err)
			continue
		}

		if series.IsEmpty() {
			m.Logger.Info("Source %s has no sessions for %s, trying next", src.Name(), symbol)
			if empty == nil {
				empty = series
			}
			continue
		}
		return series, nil
	}

	if empty != nil {
		return empty, nil
	}
	return nil, helpers.NewDataSourceError(m.Name(), symbol, errors.Join(errs...))
}

// -----------------------------------------------------------------------------

func (m *MultiSourceManager) report(name string, healthy bool) {
	m.mu.RLock()
	h := m.health
	m.mu.RUnlock()
	if h != nil {
		h.ReportSource(name, healthy)
	}
}
