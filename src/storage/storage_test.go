package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"yield-dashboard/src/interfaces"
	"yield-dashboard/src/logger"
	"yield-dashboard/src/models"
)

var _ interfaces.IDatabase = (*AsyncSQLiteDB)(nil)
var _ interfaces.IDatabase = (*PostgresDB)(nil)

type SQLiteSuite struct {
	suite.Suite
	db *AsyncSQLiteDB
}

func TestSQLiteSuite(t *testing.T) {
	suite.Run(t, new(SQLiteSuite))
}

func (s *SQLiteSuite) SetupTest() {
	cfg := &models.MConfig{Storage: models.MStorageConfig{
		DBType:        "sqlite",
		DBPath:        filepath.Join(s.T().TempDir(), "data", "dashboard.db"),
		RetentionDays: 30,
	}}
	db, err := NewAsyncSQLiteDB(cfg, logger.NewNopLogger())
	s.Require().NoError(err)
	s.Require().NoError(db.Initialize())
	s.db = db
}

func (s *SQLiteSuite) TearDownTest() {
	s.NoError(s.db.Close())
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func sampleSeries() *models.MPriceSeries {
	return &models.MPriceSeries{
		Symbol:   "TAEE11.SA",
		Currency: "BRL",
		Source:   "yahoo",
		Start:    day(2),
		End:      day(4),
		Points: []models.MPricePoint{
			{Timestamp: day(2).Unix(), Open: 34.1},
			{Timestamp: day(3).Unix(), Open: 34.5, Dividends: 0.42},
			{Timestamp: day(4).Unix(), Open: 35},
		},
		FetchedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func (s *SQLiteSuite) TestInitializeIsIdempotent() {
	s.NoError(s.db.Initialize())
}

func (s *SQLiteSuite) TestSeriesRoundTrip() {
	in := sampleSeries()
	s.Require().NoError(s.db.SaveSeries(in))

	out, err := s.db.LoadSeries(in.Symbol, in.Start, in.End, time.Hour)
	s.Require().NoError(err)
	s.Require().NotNil(out)

	s.Equal(in.Points, out.Points)
	s.Equal("yahoo", out.Source)
	s.Equal("BRL", out.Currency)
	s.Equal(in.FetchedAt.Unix(), out.FetchedAt.Unix())
	s.Equal(in.Start, out.Start)
}

func (s *SQLiteSuite) TestSeriesUpsert() {
	in := sampleSeries()
	s.Require().NoError(s.db.SaveSeries(in))

	in.Points[0].Open = 40
	s.Require().NoError(s.db.SaveSeries(in))

	out, err := s.db.LoadSeries(in.Symbol, in.Start, in.End, 0)
	s.Require().NoError(err)
	s.Require().NotNil(out)
	s.Equal(40.0, out.Points[0].Open)
	s.Len(out.Points, 3)
}

func (s *SQLiteSuite) TestLoadSeriesMisses() {
	in := sampleSeries()
	in.FetchedAt = time.Now().Add(-2 * time.Hour)
	s.Require().NoError(s.db.SaveSeries(in))

	out, err := s.db.LoadSeries(in.Symbol, in.Start, in.End, time.Hour)
	s.NoError(err)
	s.Nil(out, "stale fetch")

	out, err = s.db.LoadSeries(in.Symbol, in.Start, day(5), 0)
	s.NoError(err)
	s.Nil(out, "different range")

	out, err = s.db.LoadSeries("VALE3.SA", in.Start, in.End, 0)
	s.NoError(err)
	s.Nil(out, "unknown symbol")
}

func (s *SQLiteSuite) TestSnapshots() {
	ret := 2.5
	snap := models.MMetricsSnapshot{Symbol: "TAEE11.SA", SessionCount: 3, LatestPrice: 35, PeriodReturnPct: &ret,
		Undefined: map[string]string{"price_to_earnings": models.ReasonDivisionByZero}}
	s.Require().NoError(s.db.SaveSnapshot(snap))

	snap.LatestPrice = 36
	s.Require().NoError(s.db.SaveSnapshot(snap))

	got, err := s.db.LatestSnapshot("TAEE11.SA")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(36.0, got.LatestPrice)
	s.Require().NotNil(got.PeriodReturnPct)
	s.Equal(2.5, *got.PeriodReturnPct)
	s.Nil(got.PriceToEarnings)

	none, err := s.db.LatestSnapshot("PETR4.SA")
	s.NoError(err)
	s.Nil(none)
}

func (s *SQLiteSuite) TestSymbols() {
	got, err := s.db.LoadSymbols()
	s.Require().NoError(err)
	s.Empty(got)

	s.Require().NoError(s.db.SaveSymbols([]string{"VALE3.SA", "PETR4.SA"}))
	s.Require().NoError(s.db.SaveSymbols([]string{"TAEE11.SA", "BBAS3.SA", "EGIE3.SA"}))

	got, err = s.db.LoadSymbols()
	s.Require().NoError(err)
	s.Equal([]string{"TAEE11.SA", "BBAS3.SA", "EGIE3.SA"}, got)
}

func (s *SQLiteSuite) TestCleanupOldData() {
	fresh := sampleSeries()
	s.Require().NoError(s.db.SaveSeries(fresh))

	old := sampleSeries()
	old.Symbol = "VALE3.SA"
	old.FetchedAt = time.Now().AddDate(0, 0, -60)
	s.Require().NoError(s.db.SaveSeries(old))

	s.Require().NoError(s.db.CleanupOldData())

	out, err := s.db.LoadSeries(fresh.Symbol, fresh.Start, fresh.End, 0)
	s.NoError(err)
	s.NotNil(out)

	var remaining int
	s.Require().NoError(s.db.DB.QueryRow(`SELECT COUNT(*) FROM price_sessions WHERE symbol = 'VALE3.SA'`).Scan(&remaining))
	s.Equal(0, remaining)
}

func TestBindPlaceholders(t *testing.T) {
	pg := newPostgresDB(&models.MConfig{}, logger.NewNopLogger(), "yield-dashboard")
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", pg.bind("SELECT * FROM t WHERE a = ? AND b = ?"))
	assert.Equal(t, `"yield-dashboard"."symbols"`, pg.table("symbols"))

	lite, err := NewAsyncSQLiteDB(&models.MConfig{}, logger.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, "a = ?", lite.bind("a = ?"))
}

func TestParseSymbolRef(t *testing.T) {
	ref, ok := ParseSymbolRef("market.assets.ticker")
	require.True(t, ok)
	assert.Equal(t, SymbolRef{Schema: "market", Table: "assets", Field: "ticker"}, ref)

	_, ok = ParseSymbolRef("PETR4.SA")
	assert.False(t, ok)
}
