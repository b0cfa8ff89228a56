package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dockbook/pkg/core/capacity"
	"dockbook/pkg/core/docks"
	"dockbook/pkg/core/schedule"
	"dockbook/pkg/core/timeslot"
	"dockbook/pkg/db"
)

// Engine runs the atomic check-and-reserve for candidate appointments.
// Every attempt executes lookup, validation and the final write inside
// one serializable transaction, so two concurrent admissions against
// the same slot or dock cannot both pass a stale read. Serialization
// conflicts are retried inside the TxRunner; the engine only ever sees
// a clean outcome or db.ErrTxConflict.
type Engine struct {
	runner   db.TxRunner
	buffer   docks.BufferSource
	closures *schedule.Closures
	loc      *time.Location
	logger   *zap.Logger
}

// NewEngine creates an admission engine.
func NewEngine(runner db.TxRunner, buffer docks.BufferSource, closures *schedule.Closures, loc *time.Location, logger *zap.Logger) *Engine {
	return &Engine{runner: runner, buffer: buffer, closures: closures, loc: loc, logger: logger}
}

// ValidateAndAdmit checks the candidate against the slot budget and the
// dock timetable, and persists the appointment when both pass. The
// returned error is reserved for infrastructure failures; every policy
// outcome, including rejections, arrives as a Result.
func (e *Engine) ValidateAndAdmit(ctx context.Context, req Request) (*Result, error) {
	if res := validateRequest(&req, e.loc); res != nil {
		return res, nil
	}

	size, points := capacity.PointsForDuration(req.End.Sub(req.Start))
	if req.PointsNeeded <= 0 {
		req.PointsNeeded = points
	}

	var res *Result
	err := e.runner.Serializable(ctx, func(s db.Store) error {
		attempted, err := e.attempt(ctx, s, req, size)
		if err != nil {
			return err
		}
		res = attempted
		return nil
	})
	if err != nil {
		if errors.Is(err, db.ErrTxConflict) {
			e.logger.Warn("Admission gave up after serialization conflicts",
				zap.String("date", timeslot.DateKey(req.Date)),
				zap.String("slot_start", req.SlotStart))
			return &Result{
				Code:         CodeTxConflict,
				Message:      "admission kept conflicting with concurrent bookings, try again",
				PointsNeeded: req.PointsNeeded,
			}, nil
		}
		return nil, err
	}

	if res.Admitted {
		e.logger.Info("Appointment admitted",
			zap.String("id", res.Appointment.ID),
			zap.String("date", timeslot.DateKey(req.Date)),
			zap.String("slot_start", res.Appointment.SlotStartTime),
			zap.String("dock_id", res.Appointment.DockID),
			zap.Int("points", res.Appointment.PointsUsed))
	}

	return res, nil
}

// attempt runs one full validation pass over a transaction-scoped
// store. The resolver is built without a cache: admission must see the
// transaction's own snapshot, never a TTL-cached one.
func (e *Engine) attempt(ctx context.Context, s db.Store, req Request, size string) (*Result, error) {
	avail := docks.NewAvailability(s, nil, e.logger)
	resolver := schedule.NewResolver(s, avail, nil, e.closures, e.loc, e.logger)
	avail.BindSlots(resolver)
	ledger := capacity.NewLedger(s, e.logger)
	assigner := docks.NewAssigner(avail, s, e.buffer, e.logger)

	// Idempotent upsert: a repeat request bearing the same external
	// reference re-validates excluding itself and updates the existing
	// appointment instead of creating a duplicate.
	var existing *db.Appointment
	if req.ExcludeID != "" {
		a, err := s.GetAppointment(ctx, req.ExcludeID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return invalidInput(fmt.Sprintf("appointment %s does not exist", req.ExcludeID)), nil
			}
			return nil, err
		}
		existing = a
	} else if req.ExternalRef != "" {
		a, err := s.GetAppointmentByExternalRef(ctx, req.ExternalRef)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			return nil, err
		}
		if a != nil {
			existing = a
			req.ExcludeID = a.ID
		}
	}

	slot, err := resolver.ResolveSlot(ctx, req.Date, req.SlotStart)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return &Result{
			Code:         CodeNoSlot,
			Message:      fmt.Sprintf("no slot covers %s on %s", req.SlotStart, timeslot.DateKey(req.Date)),
			PointsNeeded: req.PointsNeeded,
		}, nil
	}

	res := &Result{
		Slot:         slot,
		MaxPoints:    slot.MaxPoints,
		PointsNeeded: req.PointsNeeded,
		ActiveDocks:  slot.ActiveDockCount,
	}

	usage, err := ledger.Usage(ctx, req.Date, slot.Start, req.ExcludeID)
	if err != nil {
		return nil, err
	}
	res.PointsUsed = usage
	res.PointsFree = slot.MaxPoints - usage

	if res.PointsFree < req.PointsNeeded {
		res.Code = CodeNoPoints
		res.Message = fmt.Sprintf("slot %s has %d of %d points free, %d needed",
			slot.Start, res.PointsFree, slot.MaxPoints, req.PointsNeeded)
		return res, nil
	}

	dock, err := assigner.FindFreeDock(ctx, req.Date, slot.Start, req.Start, req.End, req.ExcludeID)
	if err != nil {
		return nil, err
	}
	if dock == nil {
		res.Code = CodeNoDock
		res.Message = fmt.Sprintf("all %d qualifying docks conflict in slot %s", slot.ActiveDockCount, slot.Start)
		return res, nil
	}

	appt := existing
	if appt == nil {
		appt = &db.Appointment{ID: uuid.New().String(), ExternalRef: req.ExternalRef}
	}
	appt.ProviderName = req.ProviderName
	appt.Category = req.Category
	appt.Start = req.Start
	appt.End = req.End
	appt.SlotDate = timeslot.Midnight(req.Start, e.loc)
	appt.SlotStartTime = slot.Start
	appt.Size = size
	appt.PointsUsed = req.PointsNeeded
	appt.DockID = dock.ID
	appt.Status = db.StatusConfirmed

	if existing != nil {
		err = s.UpdateAppointment(ctx, appt)
	} else {
		err = s.CreateAppointment(ctx, appt)
	}
	if err != nil {
		return nil, err
	}

	res.Admitted = true
	res.Appointment = appt
	res.PointsUsed = usage + req.PointsNeeded
	res.PointsFree = slot.MaxPoints - res.PointsUsed
	return res, nil
}

func validateRequest(req *Request, loc *time.Location) *Result {
	switch {
	case req.ProviderName == "":
		return invalidInput("provider name is required")
	case req.Date.IsZero():
		return invalidInput("date is required")
	case !req.End.After(req.Start):
		return invalidInput("end must be after start")
	}
	if _, err := timeslot.ParseClock(req.SlotStart); err != nil {
		return invalidInput(err.Error())
	}
	// The appointment is persisted under Start's day, so a Date on a
	// different day would debit the wrong budget.
	if !timeslot.SameDate(timeslot.Midnight(req.Start, loc), timeslot.Midnight(req.Date, loc)) {
		return invalidInput("start time does not fall on the requested date")
	}
	return nil
}

func invalidInput(msg string) *Result {
	return &Result{Code: CodeInvalidInput, Message: msg}
}
