package models

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
)

// ErrInvalidSchedule is returned when a schedule cannot be evaluated.
var ErrInvalidSchedule = errors.New("invalid schedule configuration")

// Location resolves the configured timezone, defaulting to UTC.
func (s *ScheduleConfig) Location() (*time.Location, error) {
	if s == nil || s.Timezone == "" {
		return time.UTC, nil
	}

	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidSchedule, s.Timezone)
	}

	return loc, nil
}

// NextRuns returns the next count activation times after from, in the
// schedule's timezone. Uses the standard 5-field cron format.
func (s *ScheduleConfig) NextRuns(from time.Time, count int) ([]time.Time, error) {
	if s == nil || s.Cron == "" {
		return nil, fmt.Errorf("%w: cron expression is empty", ErrInvalidSchedule)
	}

	loc, err := s.Location()
	if err != nil {
		return nil, err
	}

	schedule, err := cron.ParseStandard(s.Cron)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
	}

	runs := make([]time.Time, 0, count)
	next := from.In(loc)

	for range count {
		next = schedule.Next(next)
		if next.IsZero() {
			break
		}

		runs = append(runs, next)
	}

	return runs, nil
}
