package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"yield-dashboard/src/helpers"
	"yield-dashboard/src/logger"
	"yield-dashboard/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	sqlStore
	Schema string
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	// Schema is named after the executable
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable name: %w", err)
	}
	name := filepath.Base(exe)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return newPostgresDB(cfg, log, name), nil
}

func newPostgresDB(cfg *models.MConfig, log *logger.Logger, schema string) *PostgresDB {
	d := &PostgresDB{Schema: schema}
	d.sqlStore = sqlStore{
		Config: cfg,
		Logger: log,
		dollar: true,
		table: func(name string) string {
			return fmt.Sprintf(`"%s"."%s"`, schema, name)
		},
	}
	return d
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return helpers.NewDatabaseError("open postgres", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return helpers.NewDatabaseError("ping postgres", err)
	}

	d.DB = db

	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	if err := d.createTables(d.schemaDDL()); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) schemaDDL() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			symbol TEXT NOT NULL,
			timestamp BIGINT NOT NULL,
			open DOUBLE PRECISION NOT NULL,
			dividends DOUBLE PRECISION NOT NULL DEFAULT 0,
			PRIMARY KEY (symbol, timestamp)
		);`, d.table("price_sessions")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			symbol TEXT NOT NULL,
			start_ts BIGINT NOT NULL,
			end_ts BIGINT NOT NULL,
			source TEXT,
			currency TEXT,
			session_count INTEGER,
			fetched_at BIGINT,
			PRIMARY KEY (symbol, start_ts, end_ts)
		);`, d.table("series_fetches")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			symbol TEXT NOT NULL,
			computed_at BIGINT NOT NULL,
			session_count INTEGER,
			latest_price DOUBLE PRECISION,
			period_return_pct DOUBLE PRECISION,
			dividend_total DOUBLE PRECISION,
			trailing_yield_pct DOUBLE PRECISION,
			payload TEXT
		);`, d.table("metric_snapshots")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			symbol TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			updated_at BIGINT
		);`, d.table("symbols")),
	}
}
