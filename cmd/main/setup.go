package main

import (
	"context"
	"fmt"
	"time"

	"yield-dashboard/src/config"
	"yield-dashboard/src/dashboard"
	datasource "yield-dashboard/src/data_source"
	"yield-dashboard/src/data_source/polygon"
	"yield-dashboard/src/data_source/yahoo"
	"yield-dashboard/src/helpers"
	"yield-dashboard/src/interfaces"
	"yield-dashboard/src/logger"
	"yield-dashboard/src/models"
	"yield-dashboard/src/network"
	"yield-dashboard/src/storage"
	"yield-dashboard/src/utils"
)

// app holds the wired pipeline shared by every command.
type app struct {
	Config     *config.Config
	ConfigPath string
	Logger     *logger.Logger
	DB         interfaces.IDatabase
	Sources    *datasource.MultiSourceManager
	Cache      *utils.SeriesCache
	Service    *dashboard.DashboardService
}

// -----------------------------------------------------------------------------

// newApp loads the config and builds every component. quiet raises the log
// level so terminal output stays readable.
func newApp(ctx context.Context, configPath string, quiet bool) (*app, error) {
	conf, err := config.NewConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	if quiet && conf.LogLevel != "DEBUG" {
		conf.LogLevel = "WARNING"
	}

	appLogger := logger.NewLogger(conf.MConfig, conf.Name)

	db, err := setupDatabase(ctx, conf.MConfig, appLogger)
	if err != nil {
		return nil, err
	}

	networkManager := setupNetwork(conf.MConfig)
	multiSource, err := setupDataSources(conf.MConfig, appLogger, networkManager)
	if err != nil {
		db.Close()
		return nil, err
	}

	cache := utils.NewSeriesCache(conf.Cache, logger.NewLogger(conf.MConfig, "SeriesCache"))
	service := dashboard.NewDashboardService(conf.MConfig, multiSource, db, cache,
		logger.NewLogger(conf.MConfig, "DashboardService"))

	return &app{
		Config:     conf,
		ConfigPath: configPath,
		Logger:     appLogger,
		DB:         db,
		Sources:    multiSource,
		Cache:      cache,
		Service:    service,
	}, nil
}

// -----------------------------------------------------------------------------

// Close releases the database and flushes the logger.
func (a *app) Close() {
	if err := a.DB.Close(); err != nil {
		a.Logger.Error("Failed to close database: %v", err)
	}
	_ = a.Logger.Sync()
}

// -----------------------------------------------------------------------------

// setupDatabase connects to the configured backend, retrying while it starts.
func setupDatabase(ctx context.Context, config *models.MConfig, appLogger *logger.Logger) (interfaces.IDatabase, error) {
	var db interfaces.IDatabase

	err := helpers.RetryWithBackoff(ctx, appLogger, "database connection", 5, time.Second, func() error {
		var err error
		switch config.Storage.DBType {
		case "postgres":
			db, err = storage.NewPostgresDB(config, logger.NewLogger(config, "PostgresDB"))
		default:
			db, err = storage.NewAsyncSQLiteDB(config, logger.NewLogger(config, "SQLiteDB"))
		}
		if err != nil {
			return err
		}
		if err := db.Initialize(); err != nil {
			db.Close()
			return err
		}
		return nil
	})
	if err != nil {
		appLogger.Error("Failed to init db: %v", err)
		return nil, err
	}
	return db, nil
}

// -----------------------------------------------------------------------------

// setupNetwork initializes the network manager
func setupNetwork(config *models.MConfig) *network.AsyncNetworkManager {
	return network.NewAsyncNetworkManager(config, logger.NewLogger(config, "NetworkManager"))
}

// -----------------------------------------------------------------------------

// setupDataSources builds the providers in configured order behind a manager.
func setupDataSources(config *models.MConfig, appLogger *logger.Logger, networkManager *network.AsyncNetworkManager) (*datasource.MultiSourceManager, error) {
	var sources []interfaces.IDataSource
	appLogger.Info("Initializing data sources...")

	for _, srcCfg := range config.DataSource.Sources {
		switch srcCfg.Name {
		case "yahoo":
			sources = append(sources, yahoo.NewYahooFinanceSource(config, srcCfg, networkManager))
		case "polygon":
			src, err := polygon.NewPolygonSource(config, srcCfg, networkManager.Client)
			if err != nil {
				appLogger.Warning("Skipping source %s: %v", srcCfg.Name, err)
				continue
			}
			sources = append(sources, src)
		default:
			appLogger.Warning("Unknown source type in config: %s", srcCfg.Name)
			continue
		}
		appLogger.Info("Added source: %s", srcCfg.Name)
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no valid data sources")
	}

	return datasource.NewMultiSourceManager(sources, logger.NewLogger(config, "MultiSourceManager")), nil
}
