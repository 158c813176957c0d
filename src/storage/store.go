package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"yield-dashboard/src/helpers"
	"yield-dashboard/src/logger"
	"yield-dashboard/src/models"
)

// sqlStore holds the statements both backends share. Queries are written
// with '?' placeholders and rebound for the driver.
type sqlStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger

	// table qualifies a table name (schema prefix on Postgres).
	table func(name string) string
	// dollar switches placeholders to $1..$n.
	dollar bool
}

// -----------------------------------------------------------------------------

func (s *sqlStore) bind(query string) string {
	if !s.dollar {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// -----------------------------------------------------------------------------

func (s *sqlStore) SaveSeries(series *models.MPriceSeries) error {
	if series == nil {
		return nil
	}

	tx, err := s.DB.Begin()
	if err != nil {
		return helpers.NewDatabaseError("save series", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(s.bind(fmt.Sprintf(`
		INSERT INTO %s (symbol, timestamp, open, dividends)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (symbol, timestamp) DO UPDATE SET
			open = excluded.open,
			dividends = excluded.dividends
	`, s.table("price_sessions"))))
	if err != nil {
		return helpers.NewDatabaseError("save series", err)
	}
	defer stmt.Close()

	for _, p := range series.Points {
		if _, err := stmt.Exec(series.Symbol, p.Timestamp, p.Open, p.Dividends); err != nil {
			return helpers.NewDatabaseError("save series", err)
		}
	}

	_, err = tx.Exec(s.bind(fmt.Sprintf(`
		INSERT INTO %s (symbol, start_ts, end_ts, source, currency, session_count, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, start_ts, end_ts) DO UPDATE SET
			source = excluded.source,
			currency = excluded.currency,
			session_count = excluded.session_count,
			fetched_at = excluded.fetched_at
	`, s.table("series_fetches"))),
		series.Symbol, dayUnix(series.Start), dayUnix(series.End), series.Source, series.Currency,
		len(series.Points), fetchedAt(series).Unix())
	if err != nil {
		return helpers.NewDatabaseError("save series", err)
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (s *sqlStore) LoadSeries(symbol string, start, end time.Time, maxAge time.Duration) (*models.MPriceSeries, error) {
	var source, currency string
	var sessionCount int
	var fetched int64

	row := s.DB.QueryRow(s.bind(fmt.Sprintf(`
		SELECT source, currency, session_count, fetched_at FROM %s
		WHERE symbol = ? AND start_ts = ? AND end_ts = ?
	`, s.table("series_fetches"))), symbol, dayUnix(start), dayUnix(end))

	if err := row.Scan(&source, &currency, &sessionCount, &fetched); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, helpers.NewDatabaseError("load series", err)
	}

	fetchedAt := time.Unix(fetched, 0).UTC()
	if maxAge > 0 && time.Since(fetchedAt) > maxAge {
		return nil, nil
	}

	rows, err := s.DB.Query(s.bind(fmt.Sprintf(`
		SELECT timestamp, open, dividends FROM %s
		WHERE symbol = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp
	`, s.table("price_sessions"))), symbol, dayUnix(start), dayUnix(end))
	if err != nil {
		return nil, helpers.NewDatabaseError("load series", err)
	}
	defer rows.Close()

	points := []models.MPricePoint{}
	for rows.Next() {
		var p models.MPricePoint
		if err := rows.Scan(&p.Timestamp, &p.Open, &p.Dividends); err != nil {
			return nil, helpers.NewDatabaseError("load series", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, helpers.NewDatabaseError("load series", err)
	}

	// sessions of an overlapping fetch may have been cleaned up since
	if len(points) != sessionCount {
		s.Logger.Debug("Stored series %s is incomplete (%d/%d sessions)", symbol, len(points), sessionCount)
		return nil, nil
	}

	return &models.MPriceSeries{
		Symbol:    symbol,
		Currency:  currency,
		Source:    source,
		Start:     time.Unix(dayUnix(start), 0).UTC(),
		End:       time.Unix(dayUnix(end), 0).UTC(),
		Points:    points,
		FetchedAt: fetchedAt,
	}, nil
}

// -----------------------------------------------------------------------------

func (s *sqlStore) SaveSnapshot(snapshot models.MMetricsSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return helpers.NewDatabaseError("save snapshot", err)
	}

	_, err = s.DB.Exec(s.bind(fmt.Sprintf(`
		INSERT INTO %s (symbol, computed_at, session_count, latest_price, period_return_pct, dividend_total, trailing_yield_pct, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, s.table("metric_snapshots"))),
		snapshot.Symbol, time.Now().UTC().Unix(), snapshot.SessionCount, snapshot.LatestPrice,
		nullable(snapshot.PeriodReturnPct), snapshot.DividendTotal, nullable(snapshot.TrailingYieldPct), string(payload))
	if err != nil {
		return helpers.NewDatabaseError("save snapshot", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// LatestSnapshot returns the most recent stored snapshot of symbol, or nil.
func (s *sqlStore) LatestSnapshot(symbol string) (*models.MMetricsSnapshot, error) {
	var payload string
	row := s.DB.QueryRow(s.bind(fmt.Sprintf(`
		SELECT payload FROM %s WHERE symbol = ? ORDER BY computed_at DESC, id DESC LIMIT 1
	`, s.table("metric_snapshots"))), symbol)

	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, helpers.NewDatabaseError("load snapshot", err)
	}

	var snap models.MMetricsSnapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, helpers.NewDatabaseError("load snapshot", err)
	}
	return &snap, nil
}

// -----------------------------------------------------------------------------

func (s *sqlStore) SaveSymbols(symbols []string) error {
	tx, err := s.DB.Begin()
	if err != nil {
		return helpers.NewDatabaseError("save symbols", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s`, s.table("symbols"))); err != nil {
		return helpers.NewDatabaseError("save symbols", err)
	}

	stmt, err := tx.Prepare(s.bind(fmt.Sprintf(`
		INSERT INTO %s (symbol, position, updated_at) VALUES (?, ?, ?)
	`, s.table("symbols"))))
	if err != nil {
		return helpers.NewDatabaseError("save symbols", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Unix()
	for i, sym := range symbols {
		if _, err := stmt.Exec(sym, i, now); err != nil {
			return helpers.NewDatabaseError("save symbols", err)
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (s *sqlStore) LoadSymbols() ([]string, error) {
	rows, err := s.DB.Query(fmt.Sprintf(`SELECT symbol FROM %s ORDER BY position`, s.table("symbols")))
	if err != nil {
		return nil, helpers.NewDatabaseError("load symbols", err)
	}
	defer rows.Close()

	symbols := []string{}
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, helpers.NewDatabaseError("load symbols", err)
		}
		symbols = append(symbols, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, helpers.NewDatabaseError("load symbols", err)
	}
	return symbols, nil
}

// -----------------------------------------------------------------------------

// CleanupOldData drops fetches and snapshots older than the retention and the
// sessions no remaining fetch covers.
func (s *sqlStore) CleanupOldData() error {
	retentionDays := s.Config.Storage.RetentionDays
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Unix()

	s.Logger.Info("Cleaning up data older than %d days (timestamp < %d)...", retentionDays, cutoff)

	if _, err := s.DB.Exec(s.bind(fmt.Sprintf(`DELETE FROM %s WHERE fetched_at < ?`, s.table("series_fetches"))), cutoff); err != nil {
		s.Logger.Error("Cleanup series_fetches error: %v", err)
	}
	if _, err := s.DB.Exec(s.bind(fmt.Sprintf(`DELETE FROM %s WHERE computed_at < ?`, s.table("metric_snapshots"))), cutoff); err != nil {
		s.Logger.Error("Cleanup metric_snapshots error: %v", err)
	}

	sessions := s.table("price_sessions")
	query := fmt.Sprintf(`
		DELETE FROM %s WHERE NOT EXISTS (
			SELECT 1 FROM %s f
			WHERE f.symbol = %s.symbol AND %s.timestamp BETWEEN f.start_ts AND f.end_ts
		)
	`, sessions, s.table("series_fetches"), sessions, sessions)
	if _, err := s.DB.Exec(query); err != nil {
		s.Logger.Error("Cleanup price_sessions error: %v", err)
		return helpers.NewDatabaseError("cleanup", err)
	}

	s.Logger.Info("Cleanup completed")
	return nil
}

// -----------------------------------------------------------------------------

func (s *sqlStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *sqlStore) createTables(ddl []string) error {
	for _, q := range ddl {
		if _, err := s.DB.Exec(q); err != nil {
			return helpers.NewDatabaseError("create tables", err)
		}
	}
	return nil
}

func dayUnix(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix()
}

func fetchedAt(series *models.MPriceSeries) time.Time {
	if series.FetchedAt.IsZero() {
		return time.Now().UTC()
	}
	return series.FetchedAt
}

func nullable(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
