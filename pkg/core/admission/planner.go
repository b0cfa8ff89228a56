package admission

import (
	"context"
	"time"

	"go.uber.org/zap"

	"dockbook/pkg/core/availability"
	"dockbook/pkg/core/capacity"
	"dockbook/pkg/core/timeslot"
)

// Admitter runs a single admission attempt. Implemented by Engine.
type Admitter interface {
	ValidateAndAdmit(ctx context.Context, req Request) (*Result, error)
}

// SlotFinder searches a date range for slots with spare capacity.
type SlotFinder interface {
	FindAvailableSlots(ctx context.Context, from, to time.Time, pointsNeeded int) ([]availability.DaySlots, error)
}

// searchHorizonDays bounds how far forward the planner looks for an
// alternative slot after a definitive rejection.
const searchHorizonDays = 7

// Planner retries admission against different candidate slots. This is
// the caller-level retry loop, deliberately separate from the
// serialization-conflict retry inside the transaction runner: a
// NO_POINTS or NO_DOCK outcome is definitive for its slot, so the
// planner moves forward to the next plausible candidate, up to a fixed
// attempt budget, then surfaces the last rejection as terminal.
type Planner struct {
	admitter Admitter
	search   SlotFinder
	attempts int
	loc      *time.Location
	logger   *zap.Logger
}

// NewPlanner creates a planner with the given total attempt budget
// (first attempt included).
func NewPlanner(admitter Admitter, search SlotFinder, attempts int, loc *time.Location, logger *zap.Logger) *Planner {
	if attempts < 1 {
		attempts = 1
	}
	return &Planner{admitter: admitter, search: search, attempts: attempts, loc: loc, logger: logger}
}

// Admit tries the requested slot first, then walks forward through the
// availability search for alternatives while attempts remain.
func (p *Planner) Admit(ctx context.Context, req Request) (*Result, error) {
	// The engine derives duration-priced points on its own copy of the
	// request, so derive them here too before the search loop needs them.
	if req.PointsNeeded <= 0 {
		_, points := capacity.PointsForDuration(req.End.Sub(req.Start))
		req.PointsNeeded = points
	}

	res, err := p.admitter.ValidateAndAdmit(ctx, req)
	if err != nil || res.Admitted || !res.Retryable() {
		return res, err
	}

	duration := req.End.Sub(req.Start)

	for attempt := 1; attempt < p.attempts; attempt++ {
		next, err := p.nextCandidate(ctx, req)
		if err != nil {
			return nil, err
		}
		if next == nil {
			p.logger.Debug("No further candidate slots", zap.String("after", timeslot.DateKey(req.Date)))
			break
		}

		req, err = retarget(req, next.date, next.start, duration)
		if err != nil {
			return nil, err
		}
		p.logger.Debug("Retrying admission against alternative slot",
			zap.Int("attempt", attempt+1),
			zap.String("date", timeslot.DateKey(req.Date)),
			zap.String("slot_start", req.SlotStart))

		res, err = p.admitter.ValidateAndAdmit(ctx, req)
		if err != nil || res.Admitted || !res.Retryable() {
			return res, err
		}
	}

	return res, nil
}

type candidate struct {
	date  time.Time
	start string
}

// nextCandidate finds the first slot strictly after the current
// candidate with enough spare points and a plausible dock.
func (p *Planner) nextCandidate(ctx context.Context, req Request) (*candidate, error) {
	from := timeslot.Midnight(req.Date, p.loc)
	to := from.AddDate(0, 0, searchHorizonDays)

	days, err := p.search.FindAvailableSlots(ctx, from, to, req.PointsNeeded)
	if err != nil {
		return nil, err
	}

	currentDay := timeslot.DateKey(req.Date)
	for _, day := range days {
		dayKey := timeslot.DateKey(day.Date)
		if dayKey < currentDay {
			continue
		}
		for _, slot := range day.Slots {
			// Clock strings compare chronologically
			if dayKey == currentDay && slot.Start <= req.SlotStart {
				continue
			}
			return &candidate{date: day.Date, start: slot.Start}, nil
		}
	}

	return nil, nil
}

func retarget(req Request, date time.Time, slotStart string, duration time.Duration) (Request, error) {
	start, err := timeslot.At(date, slotStart)
	if err != nil {
		return req, err
	}
	req.Date = date
	req.SlotStart = slotStart
	req.Start = start
	req.End = start.Add(duration)
	return req, nil
}
