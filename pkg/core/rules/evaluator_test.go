package rules

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dockbook/internal/config"
	"dockbook/pkg/core/availability"
	"dockbook/pkg/core/capacity"
	"dockbook/pkg/core/timeslot"
	"dockbook/pkg/db"
)

type mockRuleStore struct {
	byDay      map[string][]db.Appointment
	byCategory map[string][]db.Appointment
}

func (m *mockRuleStore) ListDayAppointments(ctx context.Context, date time.Time) ([]db.Appointment, error) {
	return m.byDay[timeslot.DateKey(date)], nil
}

func (m *mockRuleStore) ListCategoryAppointments(ctx context.Context, category string) ([]db.Appointment, error) {
	return m.byCategory[category], nil
}

var (
	ruleMonday = time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	ruleNow    = time.Date(2025, 6, 7, 9, 0, 0, 0, time.UTC) // two days ahead of ruleMonday
)

func appointmentAt(date time.Time, hour, minute, durationMinutes int) db.Appointment {
	start := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
	return db.Appointment{
		Start:    start,
		End:      start.Add(time.Duration(durationMinutes) * time.Minute),
		SlotDate: date,
		Status:   db.StatusConfirmed,
	}
}

func testCandidate(hour int, size string) Candidate {
	start := time.Date(2025, 6, 9, hour, 0, 0, 0, time.UTC)
	return Candidate{
		Date:      ruleMonday,
		SlotStart: timeslot.FormatClock(hour * 60),
		Start:     start,
		End:       start.Add(60 * time.Minute),
		Size:      size,
	}
}

func newTestEvaluator(cfg config.RulesConfig, store Store) *Evaluator {
	e := NewEvaluator(cfg, store, zap.NewNop())
	e.now = func() time.Time { return ruleNow }
	return e
}

func TestEvaluateSlot_CleanCandidateScoresFull(t *testing.T) {
	cfg := config.Default().Rules
	e := newTestEvaluator(cfg, &mockRuleStore{})

	eval, err := e.EvaluateSlot(context.Background(), testCandidate(9, capacity.SizeM))
	require.NoError(t, err)
	assert.True(t, eval.Allowed)
	assert.Equal(t, 100, eval.Score)
	assert.Empty(t, eval.Warnings)
}

func TestEvaluateSlot_OverlapPenalizedButAdvisory(t *testing.T) {
	cfg := config.Default().Rules
	store := &mockRuleStore{byDay: map[string][]db.Appointment{
		"2025-06-09": {appointmentAt(ruleMonday, 9, 30, 60)},
	}}
	e := newTestEvaluator(cfg, store)

	eval, err := e.EvaluateSlot(context.Background(), testCandidate(9, capacity.SizeM))
	require.NoError(t, err)
	assert.True(t, eval.Allowed)
	assert.Equal(t, 100-cfg.Penalties.AvoidConcurrency, eval.Score)
	require.Len(t, eval.Warnings, 1)
	assert.Contains(t, eval.Warnings[0], "avoid-concurrency")
}

func TestEvaluateSlot_EnforcedOverlapRejectsWithSuggestion(t *testing.T) {
	cfg := config.Default().Rules
	cfg.Enforce = true
	cfg.MinLeadTime = false // isolate the concurrency rule
	store := &mockRuleStore{byDay: map[string][]db.Appointment{
		"2025-06-09": {appointmentAt(ruleMonday, 9, 30, 60)},
	}}
	e := newTestEvaluator(cfg, store)

	eval, err := e.EvaluateSlot(context.Background(), testCandidate(9, capacity.SizeM))
	require.NoError(t, err)
	assert.False(t, eval.Allowed)
	require.NotNil(t, eval.Suggestion)
	// First step clear of the 09:30-10:30 booking
	assert.Equal(t, time.Date(2025, 6, 9, 10, 30, 0, 0, time.UTC), *eval.Suggestion)
}

func TestEvaluateSlot_EnforcedCapSuggestionClearsTheCap(t *testing.T) {
	cfg := config.Default().Rules
	cfg.Enforce = true
	cfg.AvoidConcurrency = false // isolate the cap rule
	cfg.MinLeadTime = false
	cfg.MaxSimultaneousCap = 2
	store := &mockRuleStore{byDay: map[string][]db.Appointment{
		"2025-06-09": {appointmentAt(ruleMonday, 9, 0, 120)},
	}}
	e := newTestEvaluator(cfg, store)

	eval, err := e.EvaluateSlot(context.Background(), testCandidate(9, capacity.SizeM))
	require.NoError(t, err)
	assert.False(t, eval.Allowed)
	require.NotNil(t, eval.Suggestion)
	// Any start before 11:00 would still sit at the two-appointment cap
	assert.Equal(t, time.Date(2025, 6, 9, 11, 0, 0, 0, time.UTC), *eval.Suggestion)
}

func TestEvaluateSlot_MaxSimultaneousCapReached(t *testing.T) {
	cfg := config.Default().Rules
	cfg.AvoidConcurrency = false
	cfg.MaxSimultaneousCap = 3
	store := &mockRuleStore{byDay: map[string][]db.Appointment{
		"2025-06-09": {
			appointmentAt(ruleMonday, 9, 0, 60),
			appointmentAt(ruleMonday, 9, 15, 60),
		},
	}}
	e := newTestEvaluator(cfg, store)

	eval, err := e.EvaluateSlot(context.Background(), testCandidate(9, capacity.SizeM))
	require.NoError(t, err)
	assert.True(t, eval.Allowed) // advisory mode
	found := false
	for _, w := range eval.Warnings {
		if strings.Contains(w, "max-simultaneous") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestEvaluateSlot_MinLeadTimeEnforceVersusAdvisory(t *testing.T) {
	// A request three hours out against a 24h minimum: enforce mode
	// rejects with a suggestion, advisory mode allows with a warning
	cfg := config.Default().Rules
	cfg.MinLeadHours = 24
	cfg.AvoidConcurrency = false
	cfg.MaxSimultaneous = false

	shortNotice := Candidate{
		Date:      timeslot.Midnight(ruleNow, time.UTC),
		SlotStart: "12:00",
		Start:     ruleNow.Add(3 * time.Hour),
		End:       ruleNow.Add(4 * time.Hour),
		Size:      capacity.SizeM,
	}

	cfg.Enforce = true
	e := newTestEvaluator(cfg, &mockRuleStore{})
	eval, err := e.EvaluateSlot(context.Background(), shortNotice)
	require.NoError(t, err)
	assert.False(t, eval.Allowed)
	require.NotNil(t, eval.Suggestion)
	// Earliest compliant time: exactly 24 hours out
	assert.Equal(t, ruleNow.Add(24*time.Hour), *eval.Suggestion)

	cfg.Enforce = false
	e = newTestEvaluator(cfg, &mockRuleStore{})
	eval, err = e.EvaluateSlot(context.Background(), shortNotice)
	require.NoError(t, err)
	assert.True(t, eval.Allowed)
	require.Len(t, eval.Warnings, 1)
	assert.Contains(t, eval.Warnings[0], "min-lead-time")
	assert.Equal(t, 100-cfg.Penalties.MinLeadTime, eval.Score)
}

func TestEvaluateSlot_SizePriorityNudges(t *testing.T) {
	cfg := config.Default().Rules
	cfg.PreferredLargeBeforeHour = 12
	cfg.PreferredSmallAfterHour = 14
	e := newTestEvaluator(cfg, &mockRuleStore{})
	ctx := context.Background()

	eval, err := e.EvaluateSlot(ctx, testCandidate(15, capacity.SizeL))
	require.NoError(t, err)
	require.Len(t, eval.Warnings, 1)
	assert.Contains(t, eval.Warnings[0], "size-priority")

	eval, err = e.EvaluateSlot(ctx, testCandidate(9, capacity.SizeS))
	require.NoError(t, err)
	require.Len(t, eval.Warnings, 1)
	assert.Contains(t, eval.Warnings[0], "size-priority")

	// Large job in the morning is where it should be
	eval, err = e.EvaluateSlot(ctx, testCandidate(9, capacity.SizeL))
	require.NoError(t, err)
	assert.Empty(t, eval.Warnings)
}

func TestEvaluateSlot_DailyConcentrationSuggestsLighterDay(t *testing.T) {
	cfg := config.Default().Rules
	cfg.AvoidConcurrency = false
	cfg.MaxSimultaneous = false
	cfg.DailyCountThreshold = 2

	byDay := map[string][]db.Appointment{
		"2025-06-09": {
			appointmentAt(ruleMonday, 7, 0, 30),
			appointmentAt(ruleMonday, 7, 30, 30),
		},
		"2025-06-10": {appointmentAt(ruleMonday.AddDate(0, 0, 1), 7, 0, 30)},
	}
	e := newTestEvaluator(cfg, &mockRuleStore{byDay: byDay})

	eval, err := e.EvaluateSlot(context.Background(), testCandidate(9, capacity.SizeM))
	require.NoError(t, err)
	require.Len(t, eval.Warnings, 1)
	assert.Contains(t, eval.Warnings[0], "daily-concentration")
	assert.Contains(t, eval.Warnings[0], "2025-06-07") // earliest empty nearby day
}

func TestEvaluateSlot_DockDistributionPreference(t *testing.T) {
	cfg := config.Default().Rules
	cfg.DockBySize = map[string]string{capacity.SizeL: "A"}
	e := newTestEvaluator(cfg, &mockRuleStore{})

	c := testCandidate(9, capacity.SizeL)
	c.DockCode = "B"
	eval, err := e.EvaluateSlot(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, eval.Warnings, 1)
	assert.Contains(t, eval.Warnings[0], "dock-distribution")

	c.DockCode = "A"
	eval, err = e.EvaluateSlot(context.Background(), c)
	require.NoError(t, err)
	assert.Empty(t, eval.Warnings)
}

func TestEvaluateSlot_CategoryPreferredTime(t *testing.T) {
	cfg := config.Default().Rules
	history := []db.Appointment{
		appointmentAt(ruleMonday.AddDate(0, 0, -7), 8, 0, 60),
		appointmentAt(ruleMonday.AddDate(0, 0, -14), 8, 30, 60),
		appointmentAt(ruleMonday.AddDate(0, 0, -21), 14, 0, 60),
	}
	store := &mockRuleStore{byCategory: map[string][]db.Appointment{"produce": history}}
	e := newTestEvaluator(cfg, store)

	c := testCandidate(14, capacity.SizeM)
	c.Category = "produce"
	eval, err := e.EvaluateSlot(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, eval.Warnings, 1)
	assert.Contains(t, eval.Warnings[0], "08:00")

	// Within an hour of the preferred hour is fine
	c = testCandidate(9, capacity.SizeM)
	c.Category = "produce"
	eval, err = e.EvaluateSlot(context.Background(), c)
	require.NoError(t, err)
	assert.Empty(t, eval.Warnings)
}

func TestRankAvailableSlots_OrdersByPreference(t *testing.T) {
	cfg := config.Default().Rules
	cfg.PreferredLargeBeforeHour = 12
	e := newTestEvaluator(cfg, &mockRuleStore{})

	days := []availability.DaySlots{{
		Date: ruleMonday,
		Slots: []availability.SlotOption{
			{Start: "14:00", End: "16:00", PointsAvailable: 1, DocksAvailable: 1},
			{Start: "08:00", End: "10:00", PointsAvailable: 3, DocksAvailable: 2},
		},
	}}

	ranked, err := e.RankAvailableSlots(context.Background(), days, capacity.SizeL, "")
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	// Morning slot wins on spare capacity and the large-job preference
	assert.Equal(t, "08:00", ranked[0].Slot.Start)
	assert.Equal(t, "14:00", ranked[1].Slot.Start)
	assert.Greater(t, ranked[0].Score, ranked[1].Score)
}

func TestRankAvailableSlots_ConcurrentLoadScoresAgainst(t *testing.T) {
	cfg := config.Default().Rules
	store := &mockRuleStore{byDay: map[string][]db.Appointment{
		"2025-06-09": {appointmentAt(ruleMonday, 8, 30, 60)},
	}}
	e := newTestEvaluator(cfg, store)

	days := []availability.DaySlots{{
		Date: ruleMonday,
		Slots: []availability.SlotOption{
			{Start: "08:00", End: "10:00", PointsAvailable: 2, DocksAvailable: 1},
			{Start: "10:00", End: "12:00", PointsAvailable: 2, DocksAvailable: 1},
		},
	}}

	ranked, err := e.RankAvailableSlots(context.Background(), days, capacity.SizeM, "")
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "10:00", ranked[0].Slot.Start) // no concurrent load
}
