package interfaces

import (
	"context"
	"time"

	"yield-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// IDataSource interface for fetching daily history from a market-data provider.
// -----------------------------------------------------------------------------

type IDataSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// FetchSeries retrieves the daily sessions of symbol in the closed
	// range [start, end].
	FetchSeries(ctx context.Context, symbol string, start, end time.Time) (*models.MPriceSeries, error)
}
