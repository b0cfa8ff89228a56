package admission

import (
	"time"

	"dockbook/pkg/core/schedule"
	"dockbook/pkg/db"
)

// FailureCode classifies why an admission attempt did not produce an
// appointment. NO_SLOT, NO_POINTS and NO_DOCK are terminal only for the
// candidate slot they were raised against; the planner retries a
// different candidate.
type FailureCode string

const (
	CodeNoSlot       FailureCode = "NO_SLOT"
	CodeNoPoints     FailureCode = "NO_POINTS"
	CodeNoDock       FailureCode = "NO_DOCK"
	CodeTxConflict   FailureCode = "TRANSACTION_CONFLICT"
	CodeInvalidInput FailureCode = "VALIDATION_INPUT"
)

// Request is a candidate appointment to validate and admit.
type Request struct {
	ProviderName string
	Category     string

	// Date is the calendar day and SlotStart the clock time ("15:04")
	// of the targeted slot; Start/End are the appointment instants.
	Date      time.Time
	SlotStart string
	Start     time.Time
	End       time.Time

	// PointsNeeded overrides the duration-derived point cost when
	// positive.
	PointsNeeded int

	// ExternalRef makes the request idempotent: a repeat bearing the
	// same reference updates the existing appointment in place.
	ExternalRef string

	// ExcludeID targets an edit: the appointment re-validates against
	// budget and docks without counting itself.
	ExcludeID string
}

// Result reports the outcome of an admission attempt. The capacity
// figures are populated on failures too, so callers can present
// actionable alternatives instead of a bare rejection.
type Result struct {
	Admitted    bool
	Code        FailureCode // empty when admitted
	Message     string
	Appointment *db.Appointment

	Slot         *schedule.EffectiveSlot
	MaxPoints    int
	PointsUsed   int
	PointsFree   int
	PointsNeeded int
	ActiveDocks  int
}

// Retryable reports whether a different candidate slot could still
// succeed.
func (r *Result) Retryable() bool {
	return r.Code == CodeNoPoints || r.Code == CodeNoDock
}
