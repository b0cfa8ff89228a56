package postgres

import (
	"context"
	"fmt"
	"time"

	"dockbook/pkg/core/timeslot"
	"dockbook/pkg/db"
)

// ListSlotTemplates retrieves the active recurring slots for a weekday,
// ordered by start time.
func (s *Store) ListSlotTemplates(ctx context.Context, weekday int) ([]db.SlotTemplate, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, weekday, start_time, end_time, max_points, active, created_at
		FROM slot_template
		WHERE weekday = $1 AND active
		ORDER BY start_time
	`, weekday)
	if err != nil {
		return nil, fmt.Errorf("failed to query slot templates: %w", err)
	}
	defer rows.Close()

	var templates []db.SlotTemplate
	for rows.Next() {
		var t db.SlotTemplate
		if err := rows.Scan(&t.ID, &t.Weekday, &t.StartTime, &t.EndTime, &t.MaxPoints, &t.Active, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan slot template: %w", err)
		}
		templates = append(templates, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating slot templates: %w", err)
	}

	return templates, nil
}

// ListSlotOverrides retrieves the overrides whose date range covers the
// given date, most recently created first.
func (s *Store) ListSlotOverrides(ctx context.Context, date time.Time) ([]db.SlotOverride, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, date, date_end, start_time, max_points, reason, created_at
		FROM slot_override
		WHERE date <= $1::date AND $1::date <= COALESCE(date_end, date)
		ORDER BY created_at DESC, id DESC
	`, timeslot.DateKey(date))
	if err != nil {
		return nil, fmt.Errorf("failed to query slot overrides: %w", err)
	}
	defer rows.Close()

	var overrides []db.SlotOverride
	for rows.Next() {
		var o db.SlotOverride
		if err := rows.Scan(&o.ID, &o.Date, &o.DateEnd, &o.StartTime, &o.MaxPoints, &o.Reason, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan slot override: %w", err)
		}
		overrides = append(overrides, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating slot overrides: %w", err)
	}

	return overrides, nil
}

// CreateSlotTemplate inserts a new recurring slot.
func (s *Store) CreateSlotTemplate(ctx context.Context, tpl *db.SlotTemplate) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO slot_template (id, weekday, start_time, end_time, max_points, active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, tpl.ID, tpl.Weekday, tpl.StartTime, tpl.EndTime, tpl.MaxPoints, tpl.Active)
	if err != nil {
		return fmt.Errorf("failed to insert slot template: %w", err)
	}
	return nil
}

// SetSlotTemplateActive enables or disables a recurring slot.
func (s *Store) SetSlotTemplateActive(ctx context.Context, id string, active bool) error {
	tag, err := s.q.Exec(ctx, `UPDATE slot_template SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("failed to update slot template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("slot template %s: %w", id, db.ErrNotFound)
	}
	return nil
}

// CreateSlotOverride inserts a date-specific budget replacement.
func (s *Store) CreateSlotOverride(ctx context.Context, ov *db.SlotOverride) error {
	var dateEnd *string
	if ov.DateEnd != nil {
		d := timeslot.DateKey(*ov.DateEnd)
		dateEnd = &d
	}
	_, err := s.q.Exec(ctx, `
		INSERT INTO slot_override (id, date, date_end, start_time, max_points, reason)
		VALUES ($1, $2::date, $3::date, $4, $5, $6)
	`, ov.ID, timeslot.DateKey(ov.Date), dateEnd, ov.StartTime, ov.MaxPoints, ov.Reason)
	if err != nil {
		return fmt.Errorf("failed to insert slot override: %w", err)
	}
	return nil
}
