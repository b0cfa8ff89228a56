package timeslot

import (
	"fmt"
	"time"
)

// ClockLayout is the wire format for slot start/end times ("08:00").
const ClockLayout = "15:04"

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ParseClock parses a "15:04" clock string into minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes since midnight as a "15:04" clock string.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Midnight returns the local-calendar-midnight anchor of t in loc.
func Midnight(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// At combines a date with a "15:04" clock string into an instant in the
// date's location.
func At(date time.Time, clock string) (time.Time, error) {
	minutes, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), minutes/60, minutes%60, 0, 0, date.Location()), nil
}

// NextDay advances a midnight-anchored date to the following local
// midnight. It steps by 25 hours and re-snaps to midnight so DST
// transitions (23h and 25h days) never skip or repeat a date.
func NextDay(date time.Time, loc *time.Location) time.Time {
	return Midnight(date.Add(25*time.Hour), loc)
}

// DateKey returns the calendar-date key used to compare dates that may
// be anchored in different locations (e.g. a DATE column scanned as UTC
// midnight vs a locally-anchored request date).
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// SameDate reports whether two times fall on the same calendar date in
// their own locations.
func SameDate(a, b time.Time) bool {
	return DateKey(a) == DateKey(b)
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
