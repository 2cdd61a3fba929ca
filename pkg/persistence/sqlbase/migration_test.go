package sqlbase

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationManager_VersionsAreOrdered(t *testing.T) {
	manager := NewMigrationManager(slog.Default(), nil, Postgres, map[int]string{
		3: "SELECT 3",
		1: "SELECT 1",
		2: "SELECT 2",
	})

	assert.Equal(t, []int{1, 2, 3}, manager.Versions())
}

func TestDialect_Rebind(t *testing.T) {
	query := "SELECT * FROM flows WHERE status = $1 LIMIT $2 OFFSET $3"

	assert.Equal(t, query, Postgres.Rebind(query))
	assert.Equal(t, "SELECT * FROM flows WHERE status = ? LIMIT ? OFFSET ?", SQLite.Rebind(query))
	assert.Equal(t, "SELECT 1", SQLite.Rebind("SELECT 1"))
}

func TestDialect_Time(t *testing.T) {
	at := time.Date(2026, 5, 6, 7, 8, 9, 120000000, time.FixedZone("BRT", -3*60*60))

	assert.Equal(t, at, Postgres.Time(at))
	assert.Equal(t, "2026-05-06T10:08:09.120000000Z", SQLite.Time(at))
	assert.Nil(t, SQLite.NullTime(nil))
	assert.Equal(t, "2026-05-06T10:08:09.120000000Z", SQLite.NullTime(&at))
}

func TestTimestamp_Scan(t *testing.T) {
	want := time.Date(2026, 5, 6, 10, 8, 9, 120000000, time.UTC)

	for _, value := range []any{
		want,
		"2026-05-06T10:08:09.120000000Z",
		[]byte("2026-05-06T10:08:09.12Z"),
		"2026-05-06 07:08:09.12-03:00",
	} {
		var ts Timestamp
		require.NoError(t, ts.Scan(value), value)
		assert.True(t, ts.Valid)
		assert.True(t, want.Equal(ts.Time), "%v scanned as %v", value, ts.Time)
	}

	var ts Timestamp
	require.NoError(t, ts.Scan(nil))
	assert.False(t, ts.Valid)

	require.Error(t, ts.Scan("yesterday"))
	require.Error(t, ts.Scan(42))
}
