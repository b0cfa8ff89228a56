package commands

import (
	"fmt"
	"time"

	"dockbook/pkg/core/timeslot"
)

// parseDate reads a "2006-01-02" argument as local midnight in loc.
func parseDate(arg string, loc *time.Location) (time.Time, error) {
	date, err := time.ParseInLocation(timeslot.DateLayout, arg, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", arg, err)
	}
	return date, nil
}

// parseWindow combines a date with start and end clock arguments.
func parseWindow(date time.Time, startArg, endArg string) (time.Time, time.Time, error) {
	start, err := timeslot.At(date, startArg)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := timeslot.At(date, endArg)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end %s must be after start %s", endArg, startArg)
	}
	return start, end, nil
}
