package docks

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dockbook/pkg/core/timeslot"
	"dockbook/pkg/db"
)

// AppointmentStore lists the non-cancelled appointments on a date.
type AppointmentStore interface {
	ListDayAppointments(ctx context.Context, date time.Time) ([]db.Appointment, error)
}

// BufferSource provides the global dock idle buffer in minutes.
type BufferSource interface {
	BufferMinutes(ctx context.Context) (int, error)
}

// Assigner finds a time-free dock among the docks serving a slot. A
// dock is free when no appointment on it has a buffered window
// [start-buffer, end+buffer) overlapping the candidate window. Ties
// between free docks go to the one with fewest appointments that day,
// then ascending sort order.
type Assigner struct {
	avail  *Availability
	appts  AppointmentStore
	buffer BufferSource
	logger *zap.Logger
}

// NewAssigner creates a dock assigner.
func NewAssigner(avail *Availability, appts AppointmentStore, buffer BufferSource, logger *zap.Logger) *Assigner {
	return &Assigner{avail: avail, appts: appts, buffer: buffer, logger: logger}
}

// FindFreeDock returns the best free dock for the candidate window, or
// nil when every qualifying dock conflicts. excludeID leaves one
// appointment out of the conflict check so an edit does not collide
// with itself.
func (s *Assigner) FindFreeDock(ctx context.Context, date time.Time, slotStart string, start, end time.Time, excludeID string) (*db.Dock, error) {
	candidates, err := s.avail.ActiveDocks(ctx, date, slotStart)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	bufferMinutes, err := s.buffer.BufferMinutes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get buffer minutes: %w", err)
	}
	buffer := time.Duration(bufferMinutes) * time.Minute

	appointments, err := s.appts.ListDayAppointments(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch day appointments: %w", err)
	}

	dayCount := make(map[string]int)
	conflicted := make(map[string]bool)
	for _, a := range appointments {
		if a.ID == excludeID {
			continue
		}
		dayCount[a.DockID]++
		if timeslot.Overlaps(a.Start.Add(-buffer), a.End.Add(buffer), start, end) {
			conflicted[a.DockID] = true
		}
	}

	// Candidates are ordered by sort order, so the first dock with the
	// lowest day count wins the tie.
	var best *db.Dock
	bestCount := 0
	for i := range candidates {
		dock := &candidates[i]
		if conflicted[dock.ID] {
			continue
		}
		count := dayCount[dock.ID]
		if best == nil || count < bestCount {
			best = dock
			bestCount = count
		}
	}

	if best == nil {
		s.logger.Debug("No free dock",
			zap.String("date", timeslot.DateKey(date)),
			zap.String("slot_start", slotStart),
			zap.Int("candidates", len(candidates)))
		return nil, nil
	}

	return best, nil
}
