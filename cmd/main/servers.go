package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"yield-dashboard/src/grpc_control"
	"yield-dashboard/src/logger"
	"yield-dashboard/src/server"
)

// maintenanceInterval spaces retention cleanup of the database and cache.
const maintenanceInterval = time.Hour

// -----------------------------------------------------------------------------

// runServe starts the dashboard and the health server, then blocks until a
// signal arrives or a server fails.
func runServe(parent context.Context, configPath string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, configPath, false)
	if err != nil {
		return err
	}
	defer app.Close()

	conf := app.Config.MConfig

	health := grpc_control.NewHealthService(conf, app.Sources.SourceNames(), logger.NewLogger(conf, "HealthService"))
	app.Service.SetHealthReporter(health)

	srv := server.NewDashboardServer(conf, app.Service, logger.NewLogger(conf, "DashboardServer"))

	// Keep the config file in step with the stored list
	var saveMu sync.Mutex
	app.Service.OnSymbolsChanged(func(symbols []string) {
		saveMu.Lock()
		defer saveMu.Unlock()
		app.Config.DataSource.Symbols = symbols
		if err := app.Config.Save(app.ConfigPath); err != nil {
			app.Logger.Warning("Failed to save config: %v", err)
		}
	})

	errCh := make(chan error, 2)
	go func() { errCh <- srv.Start() }()
	go func() { errCh <- health.Start() }()
	go runMaintenance(ctx, app)

	select {
	case <-ctx.Done():
		app.Logger.Info("Shutting down...")
	case err = <-errCh:
		if err != nil {
			app.Logger.Error("Server failed: %v", err)
		}
	}

	if stopErr := srv.Stop(); stopErr != nil {
		app.Logger.Warning("HTTP shutdown: %v", stopErr)
	}
	health.Stop()
	app.Logger.Info("Shutdown complete.")
	return err
}

// -----------------------------------------------------------------------------

// runMaintenance applies the retention policy until ctx ends.
func runMaintenance(ctx context.Context, app *app) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := app.DB.CleanupOldData(); err != nil {
				app.Logger.Warning("Cleanup failed: %v", err)
			}
			app.Cache.Cleanup()
		}
	}
}
