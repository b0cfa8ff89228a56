package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dockbook/pkg/core/timeslot"
	"dockbook/pkg/db"
)

// apptStore is a minimal in-memory db.Store for appointment lifecycle
// tests; the schedule and dock methods are unused here.
type apptStore struct {
	appointments map[string]*db.Appointment
}

func newApptStore() *apptStore {
	return &apptStore{appointments: make(map[string]*db.Appointment)}
}

func (m *apptStore) ListSlotTemplates(ctx context.Context, weekday int) ([]db.SlotTemplate, error) {
	return nil, nil
}

func (m *apptStore) ListSlotOverrides(ctx context.Context, date time.Time) ([]db.SlotOverride, error) {
	return nil, nil
}

func (m *apptStore) ListDocks(ctx context.Context) ([]db.Dock, error) {
	return nil, nil
}

func (m *apptStore) ListDockSlotAvailability(ctx context.Context, templateID string) ([]db.DockSlotAvailability, error) {
	return nil, nil
}

func (m *apptStore) ListDockOverrides(ctx context.Context, date time.Time) ([]db.DockOverride, error) {
	return nil, nil
}

func (m *apptStore) ListSlotAppointments(ctx context.Context, date time.Time, slotStart string) ([]db.Appointment, error) {
	var out []db.Appointment
	for _, a := range m.appointments {
		if !a.Cancelled() && timeslot.SameDate(a.SlotDate, date) && a.SlotStartTime == slotStart {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *apptStore) ListDayAppointments(ctx context.Context, date time.Time) ([]db.Appointment, error) {
	var out []db.Appointment
	for _, a := range m.appointments {
		if !a.Cancelled() && timeslot.SameDate(a.SlotDate, date) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *apptStore) ListCategoryAppointments(ctx context.Context, category string) ([]db.Appointment, error) {
	return nil, nil
}

func (m *apptStore) GetAppointment(ctx context.Context, id string) (*db.Appointment, error) {
	if a, ok := m.appointments[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, fmt.Errorf("appointment %s: %w", id, db.ErrNotFound)
}

func (m *apptStore) GetAppointmentByExternalRef(ctx context.Context, ref string) (*db.Appointment, error) {
	return nil, db.ErrNotFound
}

func (m *apptStore) CreateAppointment(ctx context.Context, a *db.Appointment) error {
	copied := *a
	m.appointments[a.ID] = &copied
	return nil
}

func (m *apptStore) UpdateAppointment(ctx context.Context, a *db.Appointment) error {
	if _, ok := m.appointments[a.ID]; !ok {
		return db.ErrNotFound
	}
	copied := *a
	m.appointments[a.ID] = &copied
	return nil
}

var serviceMonday = time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

func seedAppointment(store *apptStore, id, provider string, points int) {
	start := serviceMonday.Add(8 * time.Hour)
	store.appointments[id] = &db.Appointment{
		ID:            id,
		ProviderName:  provider,
		Start:         start,
		End:           start.Add(time.Hour),
		SlotDate:      serviceMonday,
		SlotStartTime: "08:00",
		Size:          "M",
		PointsUsed:    points,
		DockID:        "d1",
		Status:        db.StatusConfirmed,
	}
}

func TestCancel_FreesSlotBudget(t *testing.T) {
	store := newApptStore()
	seedAppointment(store, "a1", "Acme Logistics", 2)
	seedAppointment(store, "a2", "Rapid Freight", 1)
	svc := NewAppointments(store, zap.NewNop())
	ctx := context.Background()

	usage, err := svc.SlotUsage(ctx, serviceMonday, "08:00")
	require.NoError(t, err)
	assert.Equal(t, 3, usage)

	appt, err := svc.Cancel(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, appt.Cancelled())

	usage, err = svc.SlotUsage(ctx, serviceMonday, "08:00")
	require.NoError(t, err)
	assert.Equal(t, 1, usage)

	day, err := svc.ListByDate(ctx, serviceMonday)
	require.NoError(t, err)
	assert.Len(t, day, 1)
}

func TestCancel_Idempotent(t *testing.T) {
	store := newApptStore()
	seedAppointment(store, "a1", "Acme Logistics", 2)
	svc := NewAppointments(store, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Cancel(ctx, "a1")
	require.NoError(t, err)
	appt, err := svc.Cancel(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, appt.Cancelled())
}

func TestCancel_UnknownAppointment(t *testing.T) {
	svc := NewAppointments(newApptStore(), zap.NewNop())

	_, err := svc.Cancel(context.Background(), "missing")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestSlotUsageBreakdown(t *testing.T) {
	store := newApptStore()
	seedAppointment(store, "a1", "Acme Logistics", 2)
	seedAppointment(store, "a2", "Rapid Freight", 1)
	svc := NewAppointments(store, zap.NewNop())

	entries, total, err := svc.SlotUsageBreakdown(context.Background(), serviceMonday, "08:00")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, entries, 2)
}
