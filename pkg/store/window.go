package store

import (
	"time"

	"taskdeck/pkg/domain"
)

// dateWindow resolves a date filter into [from, to] epoch-second bounds on
// end_date, in server-local time. The boolean is false when the filter is a
// no-op.
func dateWindow(filter domain.DateFilter, now time.Time) (int64, int64, bool) {
	switch filter {
	case domain.DateFilterWeek:
		from, to := weekBounds(now)
		return from.Unix(), to.Unix(), true
	case domain.DateFilterMonth:
		from, to := monthBounds(now)
		return from.Unix(), to.Unix(), true
	default:
		return 0, 0, false
	}
}

// weekBounds returns Monday 00:00:00 through Sunday 23:59:59 of the week
// containing now.
func weekBounds(now time.Time) (time.Time, time.Time) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	// time.Weekday puts Sunday at 0; shift so Monday starts the week.
	offset := (int(midnight.Weekday()) + 6) % 7
	start := midnight.AddDate(0, 0, -offset)
	end := start.AddDate(0, 0, 7).Add(-time.Second)
	return start, end
}

// monthBounds returns the first second through the last second of the month
// containing now.
func monthBounds(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return start, end
}
