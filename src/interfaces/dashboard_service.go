package interfaces

import (
	"context"

	"yield-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// IDashboardService is what the presentation layers need from the pipeline.
// -----------------------------------------------------------------------------

type IDashboardService interface {
	// Compute runs fetch, metrics, simulation and formatting for a request.
	Compute(ctx context.Context, req models.MDashboardRequest) (*models.MDashboard, error)

	// Simulate only runs the investment simulation.
	Simulate(ctx context.Context, req models.MDashboardRequest) (models.MInvestmentSimulation, error)

	// Symbols returns the configured asset list.
	Symbols() []string

	// UpdateSymbols replaces the asset list.
	UpdateSymbols(symbols []string) error

	// SourceNames lists the registered providers in priority order.
	SourceNames() []string
}
