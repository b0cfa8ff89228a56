package schedule

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dockbook/pkg/cache"
	"dockbook/pkg/core/timeslot"
	"dockbook/pkg/db"
)

// Store defines the database operations the resolver needs.
// ListSlotOverrides must return overrides most recently created first.
type Store interface {
	ListSlotTemplates(ctx context.Context, weekday int) ([]db.SlotTemplate, error)
	ListSlotOverrides(ctx context.Context, date time.Time) ([]db.SlotOverride, error)
}

// DockCounter counts the docks actively serving a recurring slot on a
// date. Implemented by the dock availability resolver.
type DockCounter interface {
	CountForTemplate(ctx context.Context, date time.Time, templateID string) (int, error)
}

// EffectiveSlot is a slot as it applies on a concrete date, after
// template and override resolution. A slot with MaxPoints == 0 is
// closed and always reports zero active docks.
type EffectiveSlot struct {
	TemplateID      string
	Start           string // "15:04"
	End             string // "15:04"
	MaxPoints       int
	IsOverride      bool
	Reason          string
	ActiveDockCount int
}

// Closed reports whether the slot accepts no appointments on this date.
func (s *EffectiveSlot) Closed() bool {
	return s.MaxPoints == 0
}

// Resolver merges the recurring weekly schedule with date-specific
// overrides and closure rules into the effective slots for a date.
//
// Resolution order per template slot: specific-time override (replaces
// points and reason for that start time) beats whole-day override
// (replaces points and reason, keeps template times) beats the raw
// template. When several overrides share a key, the most recently
// created one wins.
type Resolver struct {
	store    Store
	docks    DockCounter
	cache    *cache.Cache[string, []EffectiveSlot] // nil disables caching
	closures *Closures
	loc      *time.Location
	logger   *zap.Logger
}

// NewResolver creates a resolver. Pass a nil cache for uncached
// resolution (the admission transaction re-validates against the store
// directly and must not read stale slots).
func NewResolver(store Store, docks DockCounter, c *cache.Cache[string, []EffectiveSlot], closures *Closures, loc *time.Location, logger *zap.Logger) *Resolver {
	return &Resolver{store: store, docks: docks, cache: c, closures: closures, loc: loc, logger: logger}
}

// EffectiveSlots returns the slots in effect on date, ordered by start
// time. Results are cached per date with a short TTL; every mutation to
// templates, overrides or dock config must invalidate the cache.
func (r *Resolver) EffectiveSlots(ctx context.Context, date time.Time) ([]EffectiveSlot, error) {
	date = timeslot.Midnight(date, r.loc)
	key := timeslot.DateKey(date)

	if r.cache != nil {
		if slots, ok := r.cache.Get(key); ok {
			return slots, nil
		}
	}

	slots, err := r.resolve(ctx, date)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		r.cache.Set(key, slots)
	}

	return slots, nil
}

func (r *Resolver) resolve(ctx context.Context, date time.Time) ([]EffectiveSlot, error) {
	templates, err := r.store.ListSlotTemplates(ctx, int(date.Weekday()))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch slot templates: %w", err)
	}

	// A closure day shuts every slot regardless of overrides.
	if reason, closed := r.closures.Match(date); closed {
		slots := make([]EffectiveSlot, 0, len(templates))
		for _, tpl := range templates {
			slots = append(slots, EffectiveSlot{
				TemplateID: tpl.ID,
				Start:      tpl.StartTime,
				End:        tpl.EndTime,
				IsOverride: true,
				Reason:     reason,
			})
		}
		r.logger.Debug("Closure day", zap.String("date", timeslot.DateKey(date)), zap.String("reason", reason))
		return slots, nil
	}

	overrides, err := r.store.ListSlotOverrides(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch slot overrides: %w", err)
	}

	// Overrides arrive most recently created first; keeping only the
	// first match per key makes the precedence explicit instead of
	// depending on store query order.
	byStart := make(map[string]db.SlotOverride)
	var wholeDay *db.SlotOverride
	for _, o := range overrides {
		if o.StartTime == nil {
			if wholeDay == nil {
				ov := o
				wholeDay = &ov
			}
			continue
		}
		if _, seen := byStart[*o.StartTime]; !seen {
			byStart[*o.StartTime] = o
		}
	}

	slots := make([]EffectiveSlot, 0, len(templates))
	for _, tpl := range templates {
		slot := EffectiveSlot{
			TemplateID: tpl.ID,
			Start:      tpl.StartTime,
			End:        tpl.EndTime,
			MaxPoints:  tpl.MaxPoints,
		}

		if o, ok := byStart[tpl.StartTime]; ok {
			slot.Start = *o.StartTime
			slot.MaxPoints = o.MaxPoints
			slot.Reason = o.Reason
			slot.IsOverride = true
		} else if wholeDay != nil {
			slot.MaxPoints = wholeDay.MaxPoints
			slot.Reason = wholeDay.Reason
			slot.IsOverride = true
		}

		if !slot.Closed() {
			count, err := r.docks.CountForTemplate(ctx, date, tpl.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to count active docks: %w", err)
			}
			slot.ActiveDockCount = count
		}

		slots = append(slots, slot)
	}

	return slots, nil
}

// ResolveSlot finds the slot a clock time belongs to: an exact start
// time match first, otherwise the slot whose [start, end) window
// contains it. Returns nil when no slot covers the time.
func (r *Resolver) ResolveSlot(ctx context.Context, date time.Time, at string) (*EffectiveSlot, error) {
	slots, err := r.EffectiveSlots(ctx, date)
	if err != nil {
		return nil, err
	}

	for i := range slots {
		if slots[i].Start == at {
			return &slots[i], nil
		}
	}

	minutes, err := timeslot.ParseClock(at)
	if err != nil {
		return nil, err
	}
	for i := range slots {
		start, err := timeslot.ParseClock(slots[i].Start)
		if err != nil {
			return nil, err
		}
		end, err := timeslot.ParseClock(slots[i].End)
		if err != nil {
			return nil, err
		}
		if start <= minutes && minutes < end {
			return &slots[i], nil
		}
	}

	return nil, nil
}

// TemplateForSlot returns the recurring slot owning a clock time on a
// date, for callers that only need the template identity.
func (r *Resolver) TemplateForSlot(ctx context.Context, date time.Time, slotStart string) (string, error) {
	slot, err := r.ResolveSlot(ctx, date, slotStart)
	if err != nil {
		return "", err
	}
	if slot == nil {
		return "", fmt.Errorf("no slot at %s on %s: %w", slotStart, timeslot.DateKey(date), db.ErrNotFound)
	}
	return slot.TemplateID, nil
}
