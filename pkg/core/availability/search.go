package availability

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dockbook/pkg/core/schedule"
	"dockbook/pkg/core/timeslot"
	"dockbook/pkg/db"
)

// Store lists the non-cancelled appointments on a date.
type Store interface {
	ListDayAppointments(ctx context.Context, date time.Time) ([]db.Appointment, error)
}

// SlotSource resolves the effective slots for a date.
type SlotSource interface {
	EffectiveSlots(ctx context.Context, date time.Time) ([]schedule.EffectiveSlot, error)
}

// DockSource lists the docks serving a recurring slot on a date.
type DockSource interface {
	ActiveDocksForTemplate(ctx context.Context, date time.Time, templateID string) ([]db.Dock, error)
}

// SlotOption is a bookable slot found by the search.
type SlotOption struct {
	Start           string
	End             string
	PointsAvailable int
	DocksAvailable  int
}

// DaySlots groups the qualifying slots of one date.
type DaySlots struct {
	Date  time.Time
	Slots []SlotOption
}

// Search scans a date range for slots with spare points and a plausibly
// free dock. The dock check is a deliberately coarse heuristic (same-
// slot booking count per dock below the slot budget) rather than the
// exact buffered-overlap check the admission transaction runs; the
// search is for presenting options quickly, admission re-validates.
type Search struct {
	slots  SlotSource
	docks  DockSource
	store  Store
	loc    *time.Location
	logger *zap.Logger
}

// NewSearch creates an availability search.
func NewSearch(slots SlotSource, docks DockSource, store Store, loc *time.Location, logger *zap.Logger) *Search {
	return &Search{slots: slots, docks: docks, store: store, loc: loc, logger: logger}
}

// FindAvailableSlots returns, day by day over [from, to], the slots
// that can still fit pointsNeeded. Days with no qualifying slot are
// omitted.
func (s *Search) FindAvailableSlots(ctx context.Context, from, to time.Time, pointsNeeded int) ([]DaySlots, error) {
	if pointsNeeded <= 0 {
		return nil, fmt.Errorf("points needed must be positive, got %d", pointsNeeded)
	}

	start := timeslot.Midnight(from, s.loc)
	end := timeslot.Midnight(to, s.loc)
	if end.Before(start) {
		return nil, fmt.Errorf("date range end %s precedes start %s", timeslot.DateKey(end), timeslot.DateKey(start))
	}

	var days []DaySlots
	for date := start; !date.After(end); date = timeslot.NextDay(date, s.loc) {
		options, err := s.searchDay(ctx, date, pointsNeeded)
		if err != nil {
			return nil, err
		}
		if len(options) > 0 {
			days = append(days, DaySlots{Date: date, Slots: options})
		}
	}

	s.logger.Debug("Availability search completed",
		zap.String("from", timeslot.DateKey(start)),
		zap.String("to", timeslot.DateKey(end)),
		zap.Int("points_needed", pointsNeeded),
		zap.Int("days_with_slots", len(days)))

	return days, nil
}

func (s *Search) searchDay(ctx context.Context, date time.Time, pointsNeeded int) ([]SlotOption, error) {
	slots, err := s.slots.EffectiveSlots(ctx, date)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, nil
	}

	appointments, err := s.store.ListDayAppointments(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch day appointments: %w", err)
	}

	var options []SlotOption
	for _, slot := range slots {
		if slot.Closed() {
			continue
		}

		used := 0
		perDock := make(map[string]int)
		for _, a := range appointments {
			if a.SlotStartTime != slot.Start {
				continue
			}
			used += a.PointsUsed
			perDock[a.DockID]++
		}

		available := slot.MaxPoints - used
		if available < pointsNeeded {
			continue
		}

		docks, err := s.docks.ActiveDocksForTemplate(ctx, date, slot.TemplateID)
		if err != nil {
			return nil, err
		}
		plausible := 0
		for _, dock := range docks {
			if perDock[dock.ID] < slot.MaxPoints {
				plausible++
			}
		}
		if plausible == 0 {
			continue
		}

		options = append(options, SlotOption{
			Start:           slot.Start,
			End:             slot.End,
			PointsAvailable: available,
			DocksAvailable:  plausible,
		})
	}

	return options, nil
}
