// Package planweek provides the Monday-anchored calendar math used by the
// plan grid: week 0 of a plan starts on the Monday of the week containing
// the plan's start date, and every week spans Monday through Sunday.
package planweek

import (
	"fmt"
	"time"
)

// MinWeeks is the smallest planning horizon ever shown: a plan always offers
// at least two weeks, even when brand new.
const MinWeeks = 2

// DateLayout is the wire format for plan start dates.
const DateLayout = "2006-01-02"

// StartOfWeek returns the Monday at 00:00 (in t's location) of the week
// containing t. Stable for any time-of-day input.
func StartOfWeek(t time.Time) time.Time {
	// time.Weekday counts Sunday=0; shift so Monday=0.
	delta := (int(t.Weekday()) + 6) % 7
	t = t.AddDate(0, 0, -delta)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AddDays returns t shifted by n calendar days, handling month and year
// rollover.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// WeeksBetween returns the number of whole Monday-to-Monday boundaries
// between StartOfWeek(start) and StartOfWeek(end). Returns 0 when end
// precedes start; never negative.
func WeeksBetween(start, end time.Time) int {
	s := StartOfWeek(start)
	e := StartOfWeek(end)
	if e.Before(s) {
		return 0
	}
	// Count calendar days, not elapsed hours: in a DST zone the week spanning
	// a transition is 167 or 169 wall-clock hours and dividing hours by 168
	// miscounts it. Re-anchoring both dates in UTC makes the division exact.
	su := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC)
	eu := time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, time.UTC)
	days := int(eu.Sub(su).Hours() / 24)
	return days / 7
}

// ParseDate parses a plan start date in wire format. Unparsable or empty
// input is treated as absent: ok is false and callers fall back to their
// defaults, never an error.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	// Tolerate a trailing time component ("2024-01-01T00:00:00Z").
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// WeekStart returns the Monday beginning week weekIndex of a plan anchored
// at planStart.
func WeekStart(planStart time.Time, weekIndex int) time.Time {
	return AddDays(StartOfWeek(planStart), weekIndex*7)
}

// SlotDate resolves the calendar date of a (weekIndex, dayOfWeek) pair in a
// plan anchored at planStart. dayOfWeek counts Monday=0.
func SlotDate(planStart time.Time, weekIndex, dayOfWeek int) time.Time {
	return AddDays(StartOfWeek(planStart), weekIndex*7+dayOfWeek)
}

// FormatWeekRange renders a human label for the Monday–Sunday span of the
// given week index. Returns "" when planStart is absent or unparsable.
func FormatWeekRange(planStart string, weekIndex int) string {
	start, ok := ParseDate(planStart)
	if !ok {
		return ""
	}
	monday := WeekStart(start, weekIndex)
	sunday := AddDays(monday, 6)
	return fmt.Sprintf("%s – %s", monday.Format("02/01/2006"), sunday.Format("02/01/2006"))
}

// TotalWeeks computes the visible week count for a plan: the maximum of the
// declared metadata count, one past the highest week index present in
// persisted data, the number of weeks already elapsed since the start date
// plus one, and the MinWeeks floor. The grid must never be shorter than what
// has elapsed or what data already exists.
func TotalWeeks(declared, maxPersistedIndex int, planStart string, now time.Time) int {
	total := declared
	if total < MinWeeks {
		total = MinWeeks
	}
	if maxPersistedIndex >= 0 && maxPersistedIndex+1 > total {
		total = maxPersistedIndex + 1
	}
	if start, ok := ParseDate(planStart); ok {
		if elapsed := WeeksBetween(start, now) + 1; elapsed > total {
			total = elapsed
		}
	}
	return total
}
