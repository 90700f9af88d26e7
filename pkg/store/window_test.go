package store

import (
	"testing"
	"time"

	"taskdeck/pkg/domain"
)

func TestWeekBounds(t *testing.T) {
	// 2026-03-04 is a Wednesday.
	now := time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)
	start, end := weekBounds(now)
	wantStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 3, 8, 23, 59, 59, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Fatalf("week start expected %v, got %v", wantStart, start)
	}
	if !end.Equal(wantEnd) {
		t.Fatalf("week end expected %v, got %v", wantEnd, end)
	}
}

func TestWeekBoundsOnSunday(t *testing.T) {
	// Sunday belongs to the week that started the previous Monday.
	now := time.Date(2026, 3, 8, 1, 0, 0, 0, time.UTC)
	start, _ := weekBounds(now)
	wantStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Fatalf("week start expected %v, got %v", wantStart, start)
	}
}

func TestMonthBounds(t *testing.T) {
	now := time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC)
	start, end := monthBounds(now)
	wantStart := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 2, 28, 23, 59, 59, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Fatalf("month start expected %v, got %v", wantStart, start)
	}
	if !end.Equal(wantEnd) {
		t.Fatalf("month end expected %v, got %v", wantEnd, end)
	}
}

func TestDateWindowAllIsNoOp(t *testing.T) {
	if _, _, windowed := dateWindow(domain.DateFilterAll, time.Now()); windowed {
		t.Fatalf("'all' must not constrain the window")
	}
	if _, _, windowed := dateWindow(domain.DateFilterWeek, time.Now()); !windowed {
		t.Fatalf("'week' must constrain the window")
	}
}
