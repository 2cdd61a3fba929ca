package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleConfig_NextRuns(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC) // Monday

	runs, err := (&ScheduleConfig{Cron: "0 9 * * 1-5"}).NextRuns(from, 3)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC),
	}, runs)
}

func TestScheduleConfig_NextRunsInTimezone(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	runs, err := (&ScheduleConfig{Cron: "0 9 * * *", Timezone: "Asia/Kolkata"}).NextRuns(from, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, time.Date(2026, 1, 10, 3, 30, 0, 0, time.UTC), runs[0].UTC())
}

func TestScheduleConfig_Invalid(t *testing.T) {
	t.Parallel()

	_, err := (&ScheduleConfig{Cron: "not a cron"}).NextRuns(time.Now(), 1)
	require.ErrorIs(t, err, ErrInvalidSchedule)

	_, err = (&ScheduleConfig{Cron: "* * * * *", Timezone: "Mars/Olympus"}).NextRuns(time.Now(), 1)
	require.ErrorIs(t, err, ErrInvalidSchedule)

	var empty *ScheduleConfig
	_, err = empty.NextRuns(time.Now(), 1)
	require.ErrorIs(t, err, ErrInvalidSchedule)

	loc, err := empty.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}
