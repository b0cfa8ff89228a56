package admission

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dockbook/pkg/core/timeslot"
	"dockbook/pkg/db"
)

// memStore is an in-memory db.Store for admission tests.
type memStore struct {
	mu            sync.Mutex
	templates     []db.SlotTemplate
	overrides     []db.SlotOverride
	docks         []db.Dock
	dockAvail     []db.DockSlotAvailability
	dockOverrides []db.DockOverride
	appointments  map[string]*db.Appointment
}

func newMemStore() *memStore {
	return &memStore{appointments: make(map[string]*db.Appointment)}
}

func (m *memStore) ListSlotTemplates(ctx context.Context, weekday int) ([]db.SlotTemplate, error) {
	var out []db.SlotTemplate
	for _, t := range m.templates {
		if t.Weekday == weekday && t.Active {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) ListSlotOverrides(ctx context.Context, date time.Time) ([]db.SlotOverride, error) {
	var out []db.SlotOverride
	for _, o := range m.overrides {
		if timeslot.SameDate(o.Date, date) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memStore) ListDocks(ctx context.Context) ([]db.Dock, error) {
	return m.docks, nil
}

func (m *memStore) ListDockSlotAvailability(ctx context.Context, templateID string) ([]db.DockSlotAvailability, error) {
	var out []db.DockSlotAvailability
	for _, e := range m.dockAvail {
		if e.TemplateID == templateID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) ListDockOverrides(ctx context.Context, date time.Time) ([]db.DockOverride, error) {
	var out []db.DockOverride
	for _, o := range m.dockOverrides {
		if timeslot.SameDate(o.Date, date) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memStore) ListSlotAppointments(ctx context.Context, date time.Time, slotStart string) ([]db.Appointment, error) {
	var out []db.Appointment
	for _, a := range m.appointments {
		if !a.Cancelled() && timeslot.SameDate(a.SlotDate, date) && a.SlotStartTime == slotStart {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memStore) ListDayAppointments(ctx context.Context, date time.Time) ([]db.Appointment, error) {
	var out []db.Appointment
	for _, a := range m.appointments {
		if !a.Cancelled() && timeslot.SameDate(a.SlotDate, date) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memStore) ListCategoryAppointments(ctx context.Context, category string) ([]db.Appointment, error) {
	var out []db.Appointment
	for _, a := range m.appointments {
		if !a.Cancelled() && a.Category == category {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memStore) GetAppointment(ctx context.Context, id string) (*db.Appointment, error) {
	if a, ok := m.appointments[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, fmt.Errorf("appointment %s: %w", id, db.ErrNotFound)
}

func (m *memStore) GetAppointmentByExternalRef(ctx context.Context, ref string) (*db.Appointment, error) {
	for _, a := range m.appointments {
		if a.ExternalRef == ref && ref != "" {
			copied := *a
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("appointment ref %s: %w", ref, db.ErrNotFound)
}

func (m *memStore) CreateAppointment(ctx context.Context, a *db.Appointment) error {
	copied := *a
	m.appointments[a.ID] = &copied
	return nil
}

func (m *memStore) UpdateAppointment(ctx context.Context, a *db.Appointment) error {
	if _, ok := m.appointments[a.ID]; !ok {
		return fmt.Errorf("appointment %s: %w", a.ID, db.ErrNotFound)
	}
	copied := *a
	m.appointments[a.ID] = &copied
	return nil
}

// memRunner serializes transactions with a mutex, which is equivalent
// to serializable isolation for these tests.
type memRunner struct {
	store *memStore
	err   error // forced outcome, when set
}

func (r *memRunner) Serializable(ctx context.Context, fn func(db.Store) error) error {
	if r.err != nil {
		return r.err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return fn(r.store)
}

// fixedBuffer implements docks.BufferSource
type fixedBuffer struct{ minutes int }

func (f *fixedBuffer) BufferMinutes(ctx context.Context) (int, error) {
	return f.minutes, nil
}

// monday 2025-06-09
var monday = time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

func mondayAt(hour, minute int) time.Time {
	return time.Date(2025, 6, 9, hour, minute, 0, 0, time.UTC)
}

// slotFixture configures a Monday 08:00-10:00 slot with the given
// budget and dock count.
func slotFixture(maxPoints, dockCount int) *memStore {
	store := newMemStore()
	store.templates = []db.SlotTemplate{
		{ID: "t1", Weekday: 1, StartTime: "08:00", EndTime: "10:00", MaxPoints: maxPoints, Active: true},
	}
	for i := 0; i < dockCount; i++ {
		id := fmt.Sprintf("d%d", i+1)
		store.docks = append(store.docks, db.Dock{ID: id, Name: "Dock " + id, Code: id, SortOrder: i + 1, Active: true})
		store.dockAvail = append(store.dockAvail, db.DockSlotAvailability{DockID: id, TemplateID: "t1", IsActive: true})
	}
	return store
}

func newTestEngine(store *memStore) *Engine {
	return NewEngine(&memRunner{store: store}, &fixedBuffer{minutes: 15}, nil, time.UTC, zap.NewNop())
}

func mediumRequest(name string, startHour, startMinute int) Request {
	start := mondayAt(startHour, startMinute)
	return Request{
		ProviderName: name,
		Date:         monday,
		SlotStart:    "08:00",
		Start:        start,
		End:          start.Add(60 * time.Minute), // size M, 2 points
	}
}

func TestValidateAndAdmit_SequentialBudgetExhaustion(t *testing.T) {
	// Monday 08:00-10:00 slot, maxPoints=3; two size-M (2pt) requests:
	// the first admits (0 -> 2), the second rejects NO_POINTS (2+2 > 3)
	store := slotFixture(3, 2)
	engine := newTestEngine(store)
	ctx := context.Background()

	res, err := engine.ValidateAndAdmit(ctx, mediumRequest("Acme Logistics", 8, 0))
	require.NoError(t, err)
	assert.True(t, res.Admitted)
	assert.Equal(t, 2, res.PointsUsed)
	assert.Equal(t, 1, res.PointsFree)

	res, err = engine.ValidateAndAdmit(ctx, mediumRequest("Rapid Freight", 9, 0))
	require.NoError(t, err)
	assert.False(t, res.Admitted)
	assert.Equal(t, CodeNoPoints, res.Code)
	assert.Equal(t, 2, res.PointsUsed)
	assert.Equal(t, 1, res.PointsFree)
	assert.Equal(t, 3, res.MaxPoints)
	assert.Len(t, store.appointments, 1)
}

func TestValidateAndAdmit_DockExhaustionDespiteFreePoints(t *testing.T) {
	// Ample points (5) but a single dock: the second of two
	// back-to-back requests violating the buffer rejects NO_DOCK
	store := slotFixture(5, 1)
	engine := newTestEngine(store)
	ctx := context.Background()

	first := mediumRequest("Acme Logistics", 8, 0) // 08:00-09:00
	res, err := engine.ValidateAndAdmit(ctx, first)
	require.NoError(t, err)
	require.True(t, res.Admitted)

	// 09:05 start is inside the 15-minute post-buffer of the first
	second := mediumRequest("Rapid Freight", 9, 5)
	res, err = engine.ValidateAndAdmit(ctx, second)
	require.NoError(t, err)
	assert.False(t, res.Admitted)
	assert.Equal(t, CodeNoDock, res.Code)
	assert.Equal(t, 3, res.PointsFree) // points were not the problem
	assert.Equal(t, 1, res.ActiveDocks)
}

func TestValidateAndAdmit_NoSlot(t *testing.T) {
	store := slotFixture(3, 1)
	engine := newTestEngine(store)

	req := mediumRequest("Acme Logistics", 13, 0)
	req.SlotStart = "13:00"
	res, err := engine.ValidateAndAdmit(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Admitted)
	assert.Equal(t, CodeNoSlot, res.Code)
}

func TestValidateAndAdmit_TimeContainingSlotMatch(t *testing.T) {
	store := slotFixture(3, 1)
	engine := newTestEngine(store)

	// 08:30 is not a slot start but falls inside 08:00-10:00
	req := mediumRequest("Acme Logistics", 8, 30)
	req.SlotStart = "08:30"
	res, err := engine.ValidateAndAdmit(context.Background(), req)
	require.NoError(t, err)
	require.True(t, res.Admitted)
	assert.Equal(t, "08:00", res.Appointment.SlotStartTime)
}

func TestValidateAndAdmit_Idempotence(t *testing.T) {
	store := slotFixture(3, 2)
	engine := newTestEngine(store)
	ctx := context.Background()

	req := mediumRequest("Acme Logistics", 8, 0)
	req.ExternalRef = "order-42"

	res, err := engine.ValidateAndAdmit(ctx, req)
	require.NoError(t, err)
	require.True(t, res.Admitted)
	firstID := res.Appointment.ID

	// The identical repeat updates in place instead of duplicating
	res, err = engine.ValidateAndAdmit(ctx, req)
	require.NoError(t, err)
	require.True(t, res.Admitted)
	assert.Equal(t, firstID, res.Appointment.ID)
	assert.Len(t, store.appointments, 1)
	assert.Equal(t, 2, res.PointsUsed)
}

func TestValidateAndAdmit_EditRevalidatesExcludingItself(t *testing.T) {
	store := slotFixture(3, 1)
	engine := newTestEngine(store)
	ctx := context.Background()

	res, err := engine.ValidateAndAdmit(ctx, mediumRequest("Acme Logistics", 8, 0))
	require.NoError(t, err)
	require.True(t, res.Admitted)
	id := res.Appointment.ID

	// Shift the only appointment by 30 minutes; without self-exclusion
	// this would collide with its own dock booking
	edit := mediumRequest("Acme Logistics", 8, 30)
	edit.ExcludeID = id
	res, err = engine.ValidateAndAdmit(ctx, edit)
	require.NoError(t, err)
	require.True(t, res.Admitted)
	assert.Equal(t, id, res.Appointment.ID)
	assert.Equal(t, mondayAt(8, 30), res.Appointment.Start)
	assert.Len(t, store.appointments, 1)
}

func TestValidateAndAdmit_EditUnknownAppointment(t *testing.T) {
	store := slotFixture(3, 1)
	engine := newTestEngine(store)

	req := mediumRequest("Acme Logistics", 8, 0)
	req.ExcludeID = "missing"
	res, err := engine.ValidateAndAdmit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, CodeInvalidInput, res.Code)
}

func TestValidateAndAdmit_CancelledAppointmentsFreeResources(t *testing.T) {
	store := slotFixture(3, 1)
	engine := newTestEngine(store)
	ctx := context.Background()

	res, err := engine.ValidateAndAdmit(ctx, mediumRequest("Acme Logistics", 8, 0))
	require.NoError(t, err)
	require.True(t, res.Admitted)

	// Cancel and rebook the same window
	store.appointments[res.Appointment.ID].Status = db.StatusCancelled

	res, err = engine.ValidateAndAdmit(ctx, mediumRequest("Rapid Freight", 8, 0))
	require.NoError(t, err)
	assert.True(t, res.Admitted)
}

func TestValidateAndAdmit_InputValidation(t *testing.T) {
	engine := newTestEngine(slotFixture(3, 1))
	ctx := context.Background()

	req := mediumRequest("", 8, 0)
	res, err := engine.ValidateAndAdmit(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, CodeInvalidInput, res.Code)

	req = mediumRequest("Acme Logistics", 8, 0)
	req.End = req.Start
	res, err = engine.ValidateAndAdmit(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, CodeInvalidInput, res.Code)

	req = mediumRequest("Acme Logistics", 8, 0)
	req.SlotStart = "8am"
	res, err = engine.ValidateAndAdmit(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, CodeInvalidInput, res.Code)

	// Start on Tuesday with Date still Monday would debit Tuesday's
	// budget against Monday's slot
	req = mediumRequest("Acme Logistics", 8, 0)
	req.Start = req.Start.AddDate(0, 0, 1)
	req.End = req.End.AddDate(0, 0, 1)
	res, err = engine.ValidateAndAdmit(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, CodeInvalidInput, res.Code)
}

func TestValidateAndAdmit_TxConflictSurfaced(t *testing.T) {
	store := slotFixture(3, 1)
	engine := NewEngine(&memRunner{store: store, err: db.ErrTxConflict}, &fixedBuffer{minutes: 15}, nil, time.UTC, zap.NewNop())

	res, err := engine.ValidateAndAdmit(context.Background(), mediumRequest("Acme Logistics", 8, 0))
	require.NoError(t, err)
	assert.False(t, res.Admitted)
	assert.Equal(t, CodeTxConflict, res.Code)
}

func TestValidateAndAdmit_ParallelAdmissionsOnePointSlot(t *testing.T) {
	// N parallel admissions against a 1-point slot must admit exactly
	// one and reject the rest with NO_POINTS
	const n = 8
	store := slotFixture(1, 3)
	engine := newTestEngine(store)

	start := mondayAt(8, 0)
	results := make([]*Result, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := Request{
				ProviderName: fmt.Sprintf("Provider %d", i),
				Date:         monday,
				SlotStart:    "08:00",
				Start:        start,
				End:          start.Add(20 * time.Minute), // size S, 1 point
			}
			results[i], errs[i] = engine.ValidateAndAdmit(context.Background(), req)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
	}

	admitted := 0
	rejected := 0
	for _, res := range results {
		if res.Admitted {
			admitted++
		} else {
			assert.Equal(t, CodeNoPoints, res.Code)
			rejected++
		}
	}
	assert.Equal(t, 1, admitted)
	assert.Equal(t, n-1, rejected)
	assert.Len(t, store.appointments, 1)
}
