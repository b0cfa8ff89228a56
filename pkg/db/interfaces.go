package db

import (
	"context"
	"errors"
	"time"
)

// ErrTxConflict is returned by a TxRunner when a serializable
// transaction keeps failing with serialization conflicts after the
// bounded retries are exhausted.
var ErrTxConflict = errors.New("serialization conflict")

// ErrNotFound is returned by point lookups when no row matches.
var ErrNotFound = errors.New("not found")

// Store defines the read and write operations the core components run,
// both against the pool and inside a serializable transaction.
// List methods that return appointments exclude cancelled ones and
// date parameters match on the calendar date only.
type Store interface {
	// Schedule configuration
	ListSlotTemplates(ctx context.Context, weekday int) ([]SlotTemplate, error)
	ListSlotOverrides(ctx context.Context, date time.Time) ([]SlotOverride, error)

	// Dock configuration
	ListDocks(ctx context.Context) ([]Dock, error)
	ListDockSlotAvailability(ctx context.Context, templateID string) ([]DockSlotAvailability, error)
	ListDockOverrides(ctx context.Context, date time.Time) ([]DockOverride, error)

	// Appointments
	ListSlotAppointments(ctx context.Context, date time.Time, slotStart string) ([]Appointment, error)
	ListDayAppointments(ctx context.Context, date time.Time) ([]Appointment, error)
	ListCategoryAppointments(ctx context.Context, category string) ([]Appointment, error)
	GetAppointment(ctx context.Context, id string) (*Appointment, error)
	GetAppointmentByExternalRef(ctx context.Context, ref string) (*Appointment, error)
	CreateAppointment(ctx context.Context, appt *Appointment) error
	UpdateAppointment(ctx context.Context, appt *Appointment) error
}

// TxRunner executes fn inside a transaction with serializable isolation,
// retrying transparently on serialization conflicts a bounded number of
// times before giving up with ErrTxConflict.
type TxRunner interface {
	Serializable(ctx context.Context, fn func(Store) error) error
}

// SettingsStore holds the globally tunable values.
type SettingsStore interface {
	GetBufferMinutes(ctx context.Context) (int, error)
	SetBufferMinutes(ctx context.Context, minutes int) error
}

// AdminStore defines the mutation operations for schedule and dock
// configuration. Every caller must invalidate the schedule cache after
// a successful mutation.
type AdminStore interface {
	CreateSlotTemplate(ctx context.Context, tpl *SlotTemplate) error
	SetSlotTemplateActive(ctx context.Context, id string, active bool) error
	CreateSlotOverride(ctx context.Context, ov *SlotOverride) error
	CreateDock(ctx context.Context, dock *Dock) error
	SetDockActive(ctx context.Context, id string, active bool) error
	SetDockSlotAvailability(ctx context.Context, dockID, templateID string, isActive bool) error
	CreateDockOverride(ctx context.Context, ov *DockOverride) error
}
