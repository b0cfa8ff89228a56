package rules

import (
	"context"
	"sort"
	"time"

	"dockbook/pkg/core/availability"
	"dockbook/pkg/core/capacity"
	"dockbook/pkg/core/timeslot"
	"dockbook/pkg/db"
)

// RankedSlot is one candidate with its preference score. Higher is
// better.
type RankedSlot struct {
	Date  time.Time
	Slot  availability.SlotOption
	Score int
}

// RankAvailableSlots orders search results for presentation: spare
// points and docks score positively, as do size and category preference
// matches, while concurrent load on the slot's window scores against.
// Purely an ordering for alternatives, never a gate.
func (e *Evaluator) RankAvailableSlots(ctx context.Context, days []availability.DaySlots, size, category string) ([]RankedSlot, error) {
	var history []db.Appointment
	if e.cfg.CategoryPreferredTime && category != "" {
		var err error
		history, err = e.store.ListCategoryAppointments(ctx, category)
		if err != nil {
			return nil, err
		}
	}
	preferred, hasPreferred := preferredHour(&Context{CategoryAppointments: history})

	var ranked []RankedSlot
	for _, day := range days {
		appointments, err := e.store.ListDayAppointments(ctx, day.Date)
		if err != nil {
			return nil, err
		}
		for _, slot := range day.Slots {
			score := slot.PointsAvailable*3 + slot.DocksAvailable*2

			start, err := timeslot.At(day.Date, slot.Start)
			if err != nil {
				continue
			}
			end, err := timeslot.At(day.Date, slot.End)
			if err != nil {
				continue
			}

			if e.sizePreferenceMatch(start, size) {
				score += 5
			}
			if hasPreferred && start.Hour() == preferred {
				score += 5
			}
			score -= overlapCount(appointments, start, end) * 4

			ranked = append(ranked, RankedSlot{Date: day.Date, Slot: slot, Score: score})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}

func (e *Evaluator) sizePreferenceMatch(start time.Time, size string) bool {
	switch size {
	case capacity.SizeL:
		return start.Hour() < e.cfg.PreferredLargeBeforeHour
	case capacity.SizeS:
		return start.Hour() >= e.cfg.PreferredSmallAfterHour
	}
	return false
}
