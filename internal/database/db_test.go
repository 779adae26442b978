package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/bryandaniel1/operation-monitor/internal/models"
)

var _ models.Database = (*DB)(nil)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	require.NoError(t, db.InitSchema())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInitSchemaIsRepeatable(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.InitSchema())

	version, err := db.SchemaVersion()
	require.NoError(t, err)
	require.EqualValues(t, 2, version)
}

func TestPragmasApplyToEveryConnection(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// hold both so the pool opens a second connection
	first, err := db.Conn(ctx)
	require.NoError(t, err)
	defer first.Close()
	second, err := db.Conn(ctx)
	require.NoError(t, err)
	defer second.Close()

	for _, conn := range []*sql.Conn{first, second} {
		var timeout int
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout))
		require.Equal(t, 5000, timeout)

		var mode string
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
		require.Equal(t, "wal", mode)
	}
}

func TestDSN(t *testing.T) {
	require.Equal(t,
		"events.db?_pragma=journal_mode%28WAL%29&_pragma=synchronous%28NORMAL%29&_pragma=busy_timeout%285000%29",
		dsn("events.db"))
}

func TestSearchEvents(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	day := time.Date(2026, 5, 4, 0, 0, 0, 0, time.Local)

	lat, lng := 37.4, -122.1
	located := models.SearchEvent{
		ID:           uuid.NewString(),
		IPAddress:    "8.8.8.8",
		TimeSearched: day.Add(9 * time.Hour),
		Elapsed:      120 * time.Millisecond,
		Location:     &models.LocationRecord{IPAddress: "8.8.8.8", City: "Mountain View", Latitude: &lat, Longitude: &lng},
	}
	missing := models.SearchEvent{
		ID:           uuid.NewString(),
		IPAddress:    "10.0.0.1",
		TimeSearched: day.Add(8 * time.Hour),
		Elapsed:      30 * time.Millisecond,
	}
	otherDay := models.SearchEvent{
		ID:           uuid.NewString(),
		IPAddress:    "1.1.1.1",
		TimeSearched: day.Add(-time.Minute),
	}
	for _, e := range []models.SearchEvent{located, missing, otherDay} {
		require.NoError(t, db.SaveSearchEvent(ctx, e))
	}

	events, err := db.GetSearchEvents(ctx, day)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "10.0.0.1", events[0].IPAddress)
	require.Nil(t, events[0].Location)
	require.Equal(t, "Mountain View", events[1].Location.City)
	require.Equal(t, 120*time.Millisecond, events[1].Elapsed)
	require.True(t, located.TimeSearched.Equal(events[1].TimeSearched))

	got, err := db.GetSearchEvent(ctx, located.ID)
	require.NoError(t, err)
	require.Equal(t, located.ID, got.ID)

	got, err = db.GetSearchEvent(ctx, "unknown")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestTracerEvents(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now()

	e := models.TracerEvent{
		ID:            uuid.NewString(),
		RequestIP:     "198.51.100.7",
		DestinationIP: "93.184.216.34",
		TimeExecuted:  now,
		Elapsed:       3 * time.Second,
		Hops:          models.HopSequence{{IPAddress: "10.0.0.1"}, nil, {IPAddress: "93.184.216.34"}},
	}
	require.NoError(t, db.SaveTracerEvent(ctx, e))

	events, err := db.GetTracerEvents(ctx, now)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Len(t, events[0].Hops, 3)
	require.Nil(t, events[0].Hops[1])

	got, err := db.GetTracerEvent(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, "93.184.216.34", got.Hops[2].IPAddress)
}

func TestStockEventsAndActivity(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	day := time.Date(2026, 5, 4, 0, 0, 0, 0, time.Local)

	require.NoError(t, db.SaveStockEvent(ctx, models.StockEvent{ID: uuid.NewString(), Symbol: "AAPL", Kind: "price", TimeSearched: day.Add(10 * time.Hour), Elapsed: 100 * time.Millisecond, Found: true}))
	require.NoError(t, db.SaveStockEvent(ctx, models.StockEvent{ID: uuid.NewString(), Symbol: "AAPL", Kind: "history", TimeSearched: day.Add(10*time.Hour + time.Minute), Elapsed: 300 * time.Millisecond, Found: true}))
	require.NoError(t, db.SaveSearchEvent(ctx, models.SearchEvent{ID: uuid.NewString(), IPAddress: "8.8.8.8", TimeSearched: day.Add(14 * time.Hour)}))

	stocks, err := db.GetStockEvents(ctx, day)
	require.NoError(t, err)
	require.Len(t, stocks, 2)
	require.Equal(t, "price", stocks[0].Kind)
	require.True(t, stocks[1].Found)

	activity, err := db.GetActivity(ctx, day)
	require.NoError(t, err)
	require.Equal(t, []models.ActivityPoint{
		{Hour: 10, Type: models.EventStock, Count: 2, AvgElapsed: 200},
		{Hour: 14, Type: models.EventSearch, Count: 1, AvgElapsed: 0},
	}, activity)
}

func TestPruneEvents(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, db.SaveSearchEvent(ctx, models.SearchEvent{ID: "old", IPAddress: "1.1.1.1", TimeSearched: now.AddDate(0, 0, -40)}))
	require.NoError(t, db.SaveStockEvent(ctx, models.StockEvent{ID: "old-stock", Symbol: "X", Kind: "price", TimeSearched: now.AddDate(0, 0, -31)}))
	require.NoError(t, db.SaveSearchEvent(ctx, models.SearchEvent{ID: "new", IPAddress: "1.1.1.1", TimeSearched: now}))

	removed, err := db.PruneEvents(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	require.EqualValues(t, 2, removed)

	got, err := db.GetSearchEvent(ctx, "new")
	require.NoError(t, err)
	require.NotNil(t, got)
}
