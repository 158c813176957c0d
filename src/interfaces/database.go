package interfaces

import (
	"time"

	"yield-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// IDatabase defines the contract for storage operations.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveSeries stores the sessions of a fetched series and records the fetch.
	SaveSeries(series *models.MPriceSeries) error

	// -----------------------------------------------------------------------------

	// LoadSeries returns a stored series for the exact range when it was
	// fetched less than maxAge ago, or nil when there is none.
	LoadSeries(symbol string, start, end time.Time, maxAge time.Duration) (*models.MPriceSeries, error)

	// -----------------------------------------------------------------------------
	// SaveSnapshot records a computed metrics snapshot.
	SaveSnapshot(snapshot models.MMetricsSnapshot) error

	// -----------------------------------------------------------------------------
	// SaveSymbols replaces the stored asset list.
	SaveSymbols(symbols []string) error

	// LoadSymbols returns the stored asset list, empty when never saved.
	LoadSymbols() ([]string, error)

	// -----------------------------------------------------------------------------

	// CleanupOldData removes data older than the retention policy.
	CleanupOldData() error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
