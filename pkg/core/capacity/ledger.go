package capacity

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dockbook/pkg/db"
)

// Store defines the database operations the ledger needs.
type Store interface {
	ListSlotAppointments(ctx context.Context, date time.Time, slotStart string) ([]db.Appointment, error)
}

// UsageEntry is one appointment's contribution to a slot's consumed
// points.
type UsageEntry struct {
	AppointmentID string
	ProviderName  string
	Size          string
	PointsUsed    int
}

// Ledger sums the points already consumed in a slot.
type Ledger struct {
	store  Store
	logger *zap.Logger
}

// NewLedger creates a capacity ledger over the given store.
func NewLedger(store Store, logger *zap.Logger) *Ledger {
	return &Ledger{store: store, logger: logger}
}

// Usage returns the points consumed by non-cancelled appointments in
// the slot. excludeID, when non-empty, leaves one appointment out of
// the sum so an edit can re-validate against the budget without
// counting itself.
func (l *Ledger) Usage(ctx context.Context, date time.Time, slotStart string, excludeID string) (int, error) {
	appointments, err := l.store.ListSlotAppointments(ctx, date, slotStart)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch slot appointments: %w", err)
	}

	total := 0
	for _, a := range appointments {
		if a.ID == excludeID {
			continue
		}
		total += a.PointsUsed
	}

	l.logger.Debug("Slot usage computed",
		zap.Time("date", date),
		zap.String("slot_start", slotStart),
		zap.Int("points", total))

	return total, nil
}

// UsageBreakdown returns the per-appointment contributions alongside the
// total, for callers that present who is occupying a slot.
func (l *Ledger) UsageBreakdown(ctx context.Context, date time.Time, slotStart string) ([]UsageEntry, int, error) {
	appointments, err := l.store.ListSlotAppointments(ctx, date, slotStart)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch slot appointments: %w", err)
	}

	entries := make([]UsageEntry, 0, len(appointments))
	total := 0
	for _, a := range appointments {
		entries = append(entries, UsageEntry{
			AppointmentID: a.ID,
			ProviderName:  a.ProviderName,
			Size:          a.Size,
			PointsUsed:    a.PointsUsed,
		})
		total += a.PointsUsed
	}

	return entries, total, nil
}
