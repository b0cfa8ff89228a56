package docks

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dockbook/pkg/db"
)

// Store defines the database operations the dock resolvers need.
// ListDockOverrides must return overrides most recently created first.
type Store interface {
	ListDocks(ctx context.Context) ([]db.Dock, error)
	ListDockSlotAvailability(ctx context.Context, templateID string) ([]db.DockSlotAvailability, error)
	ListDockOverrides(ctx context.Context, date time.Time) ([]db.DockOverride, error)
}

// SlotResolver maps a clock time on a date to its owning recurring slot.
type SlotResolver interface {
	TemplateForSlot(ctx context.Context, date time.Time, slotStart string) (string, error)
}

// Availability computes which docks legitimately serve a slot on a
// date. A dock qualifies when it is globally active and either its
// template-level declaration or a date-level override says so; an
// override always beats the template declaration, in both directions.
type Availability struct {
	store  Store
	slots  SlotResolver
	logger *zap.Logger
}

// NewAvailability creates a dock availability resolver. slots may be
// nil at construction and bound later with BindSlots: the slot resolver
// and the dock availability resolver reference each other.
func NewAvailability(store Store, slots SlotResolver, logger *zap.Logger) *Availability {
	return &Availability{store: store, slots: slots, logger: logger}
}

// BindSlots wires the slot resolver after construction.
func (a *Availability) BindSlots(slots SlotResolver) {
	a.slots = slots
}

// ActiveDocks returns the docks serving the slot at slotStart on date,
// ordered by sort order.
func (a *Availability) ActiveDocks(ctx context.Context, date time.Time, slotStart string) ([]db.Dock, error) {
	templateID, err := a.slots.TemplateForSlot(ctx, date, slotStart)
	if err != nil {
		return nil, err
	}
	return a.ActiveDocksForTemplate(ctx, date, templateID)
}

// ActiveDocksForTemplate returns the docks serving a recurring slot on
// date, ordered by sort order.
func (a *Availability) ActiveDocksForTemplate(ctx context.Context, date time.Time, templateID string) ([]db.Dock, error) {
	docks, err := a.store.ListDocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch docks: %w", err)
	}

	declared := make(map[string]bool)
	availability, err := a.store.ListDockSlotAvailability(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dock slot availability: %w", err)
	}
	for _, entry := range availability {
		declared[entry.DockID] = entry.IsActive
	}

	overrides, err := a.store.ListDockOverrides(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dock overrides: %w", err)
	}
	// First match per dock wins; the store returns most recent first.
	overridden := make(map[string]bool)
	for _, o := range overrides {
		if _, seen := overridden[o.DockID]; !seen {
			overridden[o.DockID] = o.IsActive
		}
	}

	var active []db.Dock
	for _, dock := range docks {
		if !dock.Active {
			continue
		}
		if enabled, ok := overridden[dock.ID]; ok {
			if enabled {
				active = append(active, dock)
			}
			continue
		}
		if declared[dock.ID] {
			active = append(active, dock)
		}
	}

	return active, nil
}

// CountForTemplate implements schedule.DockCounter.
func (a *Availability) CountForTemplate(ctx context.Context, date time.Time, templateID string) (int, error) {
	docks, err := a.ActiveDocksForTemplate(ctx, date, templateID)
	if err != nil {
		return 0, err
	}
	return len(docks), nil
}
