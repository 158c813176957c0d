package utils

import (
	"sync"
	"time"

	"yield-dashboard/src/logger"
)

type MarketScheduler struct {
	Calendars map[string]*TradingCalendar
	Logger    *logger.Logger
	now       func() time.Time
	mu        sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(symbols []string, l *logger.Logger) *MarketScheduler {
	ms := &MarketScheduler{
		Calendars: make(map[string]*TradingCalendar),
		Logger:    l,
		now:       time.Now,
	}
	ms.MapSymbolsToCalendars(symbols)
	return ms
}

// -----------------------------------------------------------------------------

// MapSymbolsToCalendars replaces the symbol to calendar mapping. Symbols on
// the same exchange share one calendar.
func (ms *MarketScheduler) MapSymbolsToCalendars(symbols []string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	byMIC := make(map[string]*TradingCalendar)
	ms.Calendars = make(map[string]*TradingCalendar)

	for _, symbol := range symbols {
		mic := MICForSymbol(symbol)
		cal, ok := byMIC[mic]
		if !ok {
			cal = GetCalendar(symbol)
			byMIC[mic] = cal
		}
		ms.Calendars[symbol] = cal
	}

	ms.Logger.Info("MarketScheduler: Mapped %d symbols to %d unique calendars.",
		len(symbols), len(byMIC))
}

// UpdateSymbols updates the scheduler with a new list of symbols
func (ms *MarketScheduler) UpdateSymbols(symbols []string) {
	ms.MapSymbolsToCalendars(symbols)
}

// -----------------------------------------------------------------------------

// CalendarFor returns the calendar of a symbol, loading it when unmapped.
func (ms *MarketScheduler) CalendarFor(symbol string) *TradingCalendar {
	ms.mu.RLock()
	cal, ok := ms.Calendars[symbol]
	ms.mu.RUnlock()
	if ok {
		return cal
	}
	return GetCalendar(symbol)
}

// -----------------------------------------------------------------------------

// IsMarketOpen reports whether the exchange of symbol is trading right now.
func (ms *MarketScheduler) IsMarketOpen(symbol string) bool {
	return ms.CalendarFor(symbol).IsOpenOnMinute(ms.now().UTC())
}

// -----------------------------------------------------------------------------

// AnyMarketOpen checks if ANY tracked markets are currently open
func (ms *MarketScheduler) AnyMarketOpen() bool {
	now := ms.now().UTC()

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	seen := make(map[*TradingCalendar]bool)
	for _, cal := range ms.Calendars {
		if seen[cal] {
			continue
		}
		seen[cal] = true
		if cal.IsOpenOnMinute(now) {
			return true
		}
	}
	return false
}
