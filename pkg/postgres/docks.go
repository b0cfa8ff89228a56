package postgres

import (
	"context"
	"fmt"
	"time"

	"dockbook/pkg/core/timeslot"
	"dockbook/pkg/db"
)

// ListDocks retrieves all docks ordered by sort order.
func (s *Store) ListDocks(ctx context.Context) ([]db.Dock, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, name, code, sort_order, active, created_at
		FROM dock
		ORDER BY sort_order, code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query docks: %w", err)
	}
	defer rows.Close()

	var docks []db.Dock
	for rows.Next() {
		var d db.Dock
		if err := rows.Scan(&d.ID, &d.Name, &d.Code, &d.SortOrder, &d.Active, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dock: %w", err)
		}
		docks = append(docks, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating docks: %w", err)
	}

	return docks, nil
}

// ListDockSlotAvailability retrieves the dock availability declarations
// for a recurring slot.
func (s *Store) ListDockSlotAvailability(ctx context.Context, templateID string) ([]db.DockSlotAvailability, error) {
	rows, err := s.q.Query(ctx, `
		SELECT dock_id, template_id, is_active
		FROM dock_slot_availability
		WHERE template_id = $1
	`, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dock slot availability: %w", err)
	}
	defer rows.Close()

	var entries []db.DockSlotAvailability
	for rows.Next() {
		var e db.DockSlotAvailability
		if err := rows.Scan(&e.DockID, &e.TemplateID, &e.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan dock slot availability: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dock slot availability: %w", err)
	}

	return entries, nil
}

// ListDockOverrides retrieves the dock overrides whose date range covers
// the given date, most recently created first.
func (s *Store) ListDockOverrides(ctx context.Context, date time.Time) ([]db.DockOverride, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, dock_id, date, date_end, is_active, created_at
		FROM dock_override
		WHERE date <= $1::date AND $1::date <= COALESCE(date_end, date)
		ORDER BY created_at DESC, id DESC
	`, timeslot.DateKey(date))
	if err != nil {
		return nil, fmt.Errorf("failed to query dock overrides: %w", err)
	}
	defer rows.Close()

	var overrides []db.DockOverride
	for rows.Next() {
		var o db.DockOverride
		if err := rows.Scan(&o.ID, &o.DockID, &o.Date, &o.DateEnd, &o.IsActive, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dock override: %w", err)
		}
		overrides = append(overrides, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dock overrides: %w", err)
	}

	return overrides, nil
}

// CreateDock inserts a new dock.
func (s *Store) CreateDock(ctx context.Context, dock *db.Dock) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO dock (id, name, code, sort_order, active)
		VALUES ($1, $2, $3, $4, $5)
	`, dock.ID, dock.Name, dock.Code, dock.SortOrder, dock.Active)
	if err != nil {
		return fmt.Errorf("failed to insert dock: %w", err)
	}
	return nil
}

// SetDockActive enables or disables a dock globally.
func (s *Store) SetDockActive(ctx context.Context, id string, active bool) error {
	tag, err := s.q.Exec(ctx, `UPDATE dock SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("failed to update dock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("dock %s: %w", id, db.ErrNotFound)
	}
	return nil
}

// SetDockSlotAvailability declares whether a dock serves a recurring slot.
func (s *Store) SetDockSlotAvailability(ctx context.Context, dockID, templateID string, isActive bool) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO dock_slot_availability (dock_id, template_id, is_active)
		VALUES ($1, $2, $3)
		ON CONFLICT (dock_id, template_id) DO UPDATE SET is_active = EXCLUDED.is_active
	`, dockID, templateID, isActive)
	if err != nil {
		return fmt.Errorf("failed to upsert dock slot availability: %w", err)
	}
	return nil
}

// CreateDockOverride inserts a date-specific dock enable/disable.
func (s *Store) CreateDockOverride(ctx context.Context, ov *db.DockOverride) error {
	var dateEnd *string
	if ov.DateEnd != nil {
		d := timeslot.DateKey(*ov.DateEnd)
		dateEnd = &d
	}
	_, err := s.q.Exec(ctx, `
		INSERT INTO dock_override (id, dock_id, date, date_end, is_active)
		VALUES ($1, $2, $3::date, $4::date, $5)
	`, ov.ID, ov.DockID, timeslot.DateKey(ov.Date), dateEnd, ov.IsActive)
	if err != nil {
		return fmt.Errorf("failed to insert dock override: %w", err)
	}
	return nil
}
