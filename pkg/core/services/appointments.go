package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dockbook/pkg/core/capacity"
	"dockbook/pkg/core/timeslot"
	"dockbook/pkg/db"
)

// Appointments serves the appointment lifecycle outside admission:
// lookups, usage reporting and cancellation. Admission itself lives in
// the admission package; cancellation happens here because it only
// flips status, freeing both the slot budget and the dock immediately.
type Appointments struct {
	store  db.Store
	ledger *capacity.Ledger
	logger *zap.Logger
}

// NewAppointments creates an appointments service over store.
func NewAppointments(store db.Store, logger *zap.Logger) *Appointments {
	return &Appointments{
		store:  store,
		ledger: capacity.NewLedger(store, logger),
		logger: logger,
	}
}

// Get returns one appointment by id.
func (s *Appointments) Get(ctx context.Context, id string) (*db.Appointment, error) {
	return s.store.GetAppointment(ctx, id)
}

// ListByDate returns the non-cancelled appointments on a date.
func (s *Appointments) ListByDate(ctx context.Context, date time.Time) ([]db.Appointment, error) {
	return s.store.ListDayAppointments(ctx, date)
}

// Cancel marks the appointment cancelled. No capacity bookkeeping is
// needed: the ledger and the dock assigner both skip cancelled rows, so
// the budget and the dock free up the moment the status lands.
func (s *Appointments) Cancel(ctx context.Context, id string) (*db.Appointment, error) {
	appt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Cancelled() {
		return appt, nil
	}

	appt.Status = db.StatusCancelled
	if err := s.store.UpdateAppointment(ctx, appt); err != nil {
		return nil, fmt.Errorf("failed to cancel appointment: %w", err)
	}

	s.logger.Info("Appointment cancelled",
		zap.String("id", appt.ID),
		zap.String("date", timeslot.DateKey(appt.SlotDate)),
		zap.String("slot_start", appt.SlotStartTime),
		zap.Int("points_freed", appt.PointsUsed))
	return appt, nil
}

// SlotUsage returns the points consumed in a slot.
func (s *Appointments) SlotUsage(ctx context.Context, date time.Time, slotStart string) (int, error) {
	return s.ledger.Usage(ctx, date, slotStart, "")
}

// SlotUsageBreakdown returns per-appointment contributions and the
// total, for presenting who occupies a slot.
func (s *Appointments) SlotUsageBreakdown(ctx context.Context, date time.Time, slotStart string) ([]capacity.UsageEntry, int, error) {
	return s.ledger.UsageBreakdown(ctx, date, slotStart)
}
