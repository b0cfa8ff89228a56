package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dockbook/pkg/core/timeslot"
	"dockbook/pkg/db"
)

// Invalidator drops cached resolver state. Satisfied by cache.Cache.
type Invalidator interface {
	Invalidate()
}

// Admin applies schedule and dock configuration mutations. Every
// successful mutation invalidates the schedule cache so subsequent
// resolver reads see the change immediately rather than after TTL
// expiry.
type Admin struct {
	store  db.AdminStore
	cache  Invalidator
	logger *zap.Logger
}

// NewAdmin creates an admin service over store, invalidating cache on
// every successful mutation.
func NewAdmin(store db.AdminStore, cache Invalidator, logger *zap.Logger) *Admin {
	return &Admin{store: store, cache: cache, logger: logger}
}

// CreateSlotTemplate adds a recurring weekly slot.
func (a *Admin) CreateSlotTemplate(ctx context.Context, tpl *db.SlotTemplate) error {
	if tpl.Weekday < 0 || tpl.Weekday > 6 {
		return fmt.Errorf("weekday must be 0-6, got %d", tpl.Weekday)
	}
	if tpl.MaxPoints < 0 {
		return fmt.Errorf("max points must not be negative, got %d", tpl.MaxPoints)
	}
	startMin, err := timeslot.ParseClock(tpl.StartTime)
	if err != nil {
		return err
	}
	endMin, err := timeslot.ParseClock(tpl.EndTime)
	if err != nil {
		return err
	}
	if endMin <= startMin {
		return fmt.Errorf("slot end %s must be after start %s", tpl.EndTime, tpl.StartTime)
	}
	if tpl.ID == "" {
		tpl.ID = uuid.New().String()
	}

	if err := a.store.CreateSlotTemplate(ctx, tpl); err != nil {
		return err
	}
	a.cache.Invalidate()
	a.logger.Info("Slot template created",
		zap.String("id", tpl.ID),
		zap.Int("weekday", tpl.Weekday),
		zap.String("start", tpl.StartTime),
		zap.Int("max_points", tpl.MaxPoints))
	return nil
}

// SetSlotTemplateActive enables or disables a recurring slot.
func (a *Admin) SetSlotTemplateActive(ctx context.Context, id string, active bool) error {
	if err := a.store.SetSlotTemplateActive(ctx, id, active); err != nil {
		return err
	}
	a.cache.Invalidate()
	a.logger.Info("Slot template toggled", zap.String("id", id), zap.Bool("active", active))
	return nil
}

// CreateSlotOverride adds a date-specific budget replacement.
func (a *Admin) CreateSlotOverride(ctx context.Context, ov *db.SlotOverride) error {
	if ov.MaxPoints < 0 {
		return fmt.Errorf("max points must not be negative, got %d", ov.MaxPoints)
	}
	if ov.StartTime != nil {
		if _, err := timeslot.ParseClock(*ov.StartTime); err != nil {
			return err
		}
	}
	if ov.DateEnd != nil && ov.DateEnd.Before(ov.Date) {
		return fmt.Errorf("override end date %s precedes start %s",
			timeslot.DateKey(*ov.DateEnd), timeslot.DateKey(ov.Date))
	}
	if ov.ID == "" {
		ov.ID = uuid.New().String()
	}

	if err := a.store.CreateSlotOverride(ctx, ov); err != nil {
		return err
	}
	a.cache.Invalidate()
	a.logger.Info("Slot override created",
		zap.String("date", timeslot.DateKey(ov.Date)),
		zap.Int("max_points", ov.MaxPoints),
		zap.String("reason", ov.Reason))
	return nil
}

// CreateDock registers a new loading bay.
func (a *Admin) CreateDock(ctx context.Context, dock *db.Dock) error {
	if dock.Name == "" || dock.Code == "" {
		return fmt.Errorf("dock name and code are required")
	}
	if dock.ID == "" {
		dock.ID = uuid.New().String()
	}
	if err := a.store.CreateDock(ctx, dock); err != nil {
		return err
	}
	a.cache.Invalidate()
	a.logger.Info("Dock created", zap.String("id", dock.ID), zap.String("code", dock.Code))
	return nil
}

// SetDockActive enables or disables a dock globally.
func (a *Admin) SetDockActive(ctx context.Context, id string, active bool) error {
	if err := a.store.SetDockActive(ctx, id, active); err != nil {
		return err
	}
	a.cache.Invalidate()
	a.logger.Info("Dock toggled", zap.String("id", id), zap.Bool("active", active))
	return nil
}

// SetDockSlotAvailability declares whether a dock serves a recurring
// slot.
func (a *Admin) SetDockSlotAvailability(ctx context.Context, dockID, templateID string, isActive bool) error {
	if err := a.store.SetDockSlotAvailability(ctx, dockID, templateID, isActive); err != nil {
		return err
	}
	a.cache.Invalidate()
	a.logger.Info("Dock slot availability set",
		zap.String("dock_id", dockID),
		zap.String("template_id", templateID),
		zap.Bool("active", isActive))
	return nil
}

// CreateDockOverride enables or disables a dock for specific dates.
func (a *Admin) CreateDockOverride(ctx context.Context, ov *db.DockOverride) error {
	if ov.DateEnd != nil && ov.DateEnd.Before(ov.Date) {
		return fmt.Errorf("override end date %s precedes start %s",
			timeslot.DateKey(*ov.DateEnd), timeslot.DateKey(ov.Date))
	}
	if ov.ID == "" {
		ov.ID = uuid.New().String()
	}
	if err := a.store.CreateDockOverride(ctx, ov); err != nil {
		return err
	}
	a.cache.Invalidate()
	a.logger.Info("Dock override created",
		zap.String("dock_id", ov.DockID),
		zap.String("date", timeslot.DateKey(ov.Date)),
		zap.Bool("active", ov.IsActive))
	return nil
}
