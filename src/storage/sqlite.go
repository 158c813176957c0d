package storage

import (
	"database/sql"
	"os"
	"path/filepath"

	"yield-dashboard/src/helpers"
	"yield-dashboard/src/logger"
	"yield-dashboard/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type AsyncSQLiteDB struct {
	sqlStore
}

// -----------------------------------------------------------------------------

func NewAsyncSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*AsyncSQLiteDB, error) {
	return &AsyncSQLiteDB{sqlStore{
		Config: cfg,
		Logger: log,
		table:  func(name string) string { return name },
	}}, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath

	if dir := filepath.Dir(dsn); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return helpers.NewDatabaseError("create db dir", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return helpers.NewDatabaseError("open sqlite", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return helpers.NewDatabaseError("ping sqlite", err)
	}

	// one writer at a time
	db.SetMaxOpenConns(1)
	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	if err := d.createTables(sqliteSchema); err != nil {
		return err
	}

	d.Logger.Info("SQLite initialized at %s", dsn)
	return nil
}

// -----------------------------------------------------------------------------

// SQLite types: INTEGER for int64, REAL for float64, TEXT for string
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS price_sessions (
		symbol TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		open REAL NOT NULL,
		dividends REAL NOT NULL DEFAULT 0,
		PRIMARY KEY (symbol, timestamp)
	);`,
	`CREATE TABLE IF NOT EXISTS series_fetches (
		symbol TEXT NOT NULL,
		start_ts INTEGER NOT NULL,
		end_ts INTEGER NOT NULL,
		source TEXT,
		currency TEXT,
		session_count INTEGER,
		fetched_at INTEGER,
		PRIMARY KEY (symbol, start_ts, end_ts)
	);`,
	`CREATE TABLE IF NOT EXISTS metric_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		computed_at INTEGER NOT NULL,
		session_count INTEGER,
		latest_price REAL,
		period_return_pct REAL,
		dividend_total REAL,
		trailing_yield_pct REAL,
		payload TEXT
	);`,
	`CREATE INDEX IF NOT EXISTS idx_metric_snapshots_symbol ON metric_snapshots (symbol, computed_at);`,
	`CREATE TABLE IF NOT EXISTS symbols (
		symbol TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		updated_at INTEGER
	);`,
}
