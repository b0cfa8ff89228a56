// Package rules implements the advisory scheduling rules. Rules score
// and warn about a candidate appointment; none of them participates in
// the hard capacity checks, and only a subset may reject, and only when
// enforce mode is switched on.
package rules

import (
	"time"

	"dockbook/pkg/db"
)

// Candidate is the appointment under evaluation.
type Candidate struct {
	Date      time.Time
	SlotStart string
	Start     time.Time
	End       time.Time
	Size      string
	Category  string
	DockCode  string
}

// Context carries the pre-fetched state every rule evaluates against,
// so individual rules stay free of I/O.
type Context struct {
	// DayAppointments are the non-cancelled appointments on the
	// candidate's date.
	DayAppointments []db.Appointment

	// NearbyDayCounts maps date keys within two days of the candidate
	// to their non-cancelled appointment counts.
	NearbyDayCounts map[string]int

	// CategoryAppointments are recent non-cancelled appointments
	// sharing the candidate's category.
	CategoryAppointments []db.Appointment

	// Now anchors the lead-time calculation.
	Now time.Time
}

// Finding is one rule's verdict on a candidate. Blocking findings turn
// into rejections only when the evaluator runs in enforce mode.
type Finding struct {
	Penalty  int
	Warning  string
	Blocking bool
}

// Rule evaluates one scheduling concern. A nil return means the rule
// has nothing to say about the candidate.
type Rule interface {
	Name() string
	Evaluate(evalCtx *Context, c Candidate) *Finding
}

// overlapCount returns how many appointments in the list temporally
// overlap [start, end).
func overlapCount(appointments []db.Appointment, start, end time.Time) int {
	count := 0
	for _, a := range appointments {
		if a.Start.Before(end) && start.Before(a.End) {
			count++
		}
	}
	return count
}
