package models

import "time"

// MPricePoint is one trading session of the provider table, restricted to
// the columns the dashboard reads.
type MPricePoint struct {
	Timestamp int64   `json:"timestamp"` // session date, unix seconds UTC
	Open      float64 `json:"open"`
	Dividends float64 `json:"dividends"`
}

// MDividendEvent is a session on which a distribution was paid.
type MDividendEvent struct {
	Timestamp int64   `json:"timestamp"`
	Amount    float64 `json:"amount"`
}

// MPriceSeries is the fetched history for one symbol and date range.
// Points are strictly increasing by timestamp.
type MPriceSeries struct {
	Symbol    string        `json:"symbol"`
	Currency  string        `json:"currency"`
	Source    string        `json:"source"`
	Start     time.Time     `json:"start"`
	End       time.Time     `json:"end"`
	Points    []MPricePoint `json:"points"`
	FetchedAt time.Time     `json:"fetched_at"`
}

// -----------------------------------------------------------------------------

// IsEmpty reports whether the series holds no sessions.
func (s *MPriceSeries) IsEmpty() bool {
	return s == nil || len(s.Points) == 0
}

// -----------------------------------------------------------------------------

// Dividends returns the sessions with a positive distribution, in order.
func (s *MPriceSeries) Dividends() []MDividendEvent {
	if s == nil {
		return nil
	}
	var events []MDividendEvent
	for _, p := range s.Points {
		if p.Dividends > 0 {
			events = append(events, MDividendEvent{Timestamp: p.Timestamp, Amount: p.Dividends})
		}
	}
	return events
}
