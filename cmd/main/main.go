package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// -----------------------------------------------------------------------------

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// -----------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "yield-dashboard",
		Short:         "Price and dividend dashboard for listed assets",
		SilenceUsage:  true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/default.yaml", "path to config file")

	rootCmd.AddCommand(
		newServeCmd(&configPath),
		newReportCmd(&configPath),
		newSymbolsCmd(&configPath),
	)
	return rootCmd
}

// -----------------------------------------------------------------------------

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web dashboard and the gRPC health server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

// -----------------------------------------------------------------------------

func newSymbolsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "symbols",
		Short: "List the assets offered by the dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), *configPath, true)
			if err != nil {
				return err
			}
			defer app.Close()

			for _, sym := range app.Service.Symbols() {
				fmt.Fprintln(cmd.OutOrStdout(), sym)
			}
			return nil
		},
	}
}
