package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"yield-dashboard/src/models"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

// -----------------------------------------------------------------------------

func newReportCmd(configPath *string) *cobra.Command {
	var (
		start        string
		end          string
		contribution float64
	)

	cmd := &cobra.Command{
		Use:   "report SYMBOL",
		Short: "Compute the dashboard for one asset and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), *configPath, true)
			if err != nil {
				return err
			}
			defer app.Close()

			req, err := reportRequest(args[0], start, end, contribution, app.Config.DataSource.DefaultRangeDays, time.Now())
			if err != nil {
				return err
			}

			dashboard, err := app.Service.Compute(cmd.Context(), req)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderReport(dashboard))
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "first day, YYYY-MM-DD (default: end minus the default range)")
	cmd.Flags().StringVar(&end, "end", "", "last day, YYYY-MM-DD (default: today)")
	cmd.Flags().Float64Var(&contribution, "contribution", 1000, "amount invested on the first day")
	return cmd
}

// -----------------------------------------------------------------------------

// reportRequest fills the defaults of the report flags.
func reportRequest(symbol, start, end string, contribution float64, rangeDays int, now time.Time) (models.MDashboardRequest, error) {
	req := models.MDashboardRequest{Symbol: symbol, Contribution: contribution}

	req.End = now.UTC()
	if end != "" {
		t, err := time.Parse(time.DateOnly, end)
		if err != nil {
			return req, fmt.Errorf("invalid --end: %w", err)
		}
		req.End = t
	}

	req.Start = req.End.AddDate(0, 0, -rangeDays)
	if start != "" {
		t, err := time.Parse(time.DateOnly, start)
		if err != nil {
			return req, fmt.Errorf("invalid --start: %w", err)
		}
		req.Start = t
	}
	return req, nil
}

// -----------------------------------------------------------------------------

// renderReport lays out the display strings as terminal tables.
func renderReport(d *models.MDashboard) string {
	v := d.Display
	title := titleStyle.Render(fmt.Sprintf("%s  %s -> %s", d.Request.Symbol,
		d.Request.Start.Format(time.DateOnly), d.Request.End.Format(time.DateOnly)))

	prices := newTable("Price", "Value").Rows(
		[]string{"Latest open", v.LatestPrice},
		[]string{"Last update", v.LastUpdate},
		[]string{"Period return", v.PeriodReturn},
		[]string{"Minimum", v.MinPrice},
		[]string{"Maximum", v.MaxPrice},
		[]string{"P/E (price / dividends)", v.PriceToEarnings},
		[]string{"Trailing yield", v.TrailingYield},
	)

	dividends := newTable("Dividends", "Value").Rows(
		[]string{"Payments", v.DividendCount},
		[]string{"Minimum", v.DividendMin},
		[]string{"Maximum", v.DividendMax},
		[]string{"Mean", v.DividendMean},
		[]string{"Total", v.DividendTotal},
	)

	simulation := newTable("Simulation", "Value").Rows(
		[]string{"Shares bought", v.SharesBought},
		[]string{"Dividend income", v.DividendIncome},
		[]string{"Ending value", v.EndingValue},
		[]string{"Return", v.ReturnPct},
	)

	footer := faintStyle.Render(fmt.Sprintf("source %s | %d of %d expected sessions | cache %s",
		d.Source, d.Snapshot.SessionCount, d.Snapshot.ExpectedSessions, d.Metrics.CacheHit))

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		lipgloss.JoinHorizontal(lipgloss.Top, prices.String(), dividends.String(), simulation.String()),
		footer,
	)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}
