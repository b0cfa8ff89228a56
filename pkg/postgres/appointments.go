package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"dockbook/pkg/core/timeslot"
	"dockbook/pkg/db"
)

const appointmentColumns = `
	id, provider_name, category, start_at, end_at, slot_date, slot_start_time,
	size, points_used, dock_id, status, external_ref, checked_in_at,
	checked_out_at, created_at, updated_at`

func scanAppointment(row pgx.Row) (*db.Appointment, error) {
	var a db.Appointment
	err := row.Scan(
		&a.ID, &a.ProviderName, &a.Category, &a.Start, &a.End, &a.SlotDate,
		&a.SlotStartTime, &a.Size, &a.PointsUsed, &a.DockID, &a.Status,
		&a.ExternalRef, &a.CheckedInAt, &a.CheckedOutAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) queryAppointments(ctx context.Context, sql string, args ...any) ([]db.Appointment, error) {
	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var appointments []db.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating appointments: %w", err)
	}

	return appointments, nil
}

// ListSlotAppointments retrieves the non-cancelled appointments booked
// into a specific slot on a date.
func (s *Store) ListSlotAppointments(ctx context.Context, date time.Time, slotStart string) ([]db.Appointment, error) {
	return s.queryAppointments(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointment
		WHERE slot_date = $1::date AND slot_start_time = $2 AND status <> $3
		ORDER BY start_at
	`, timeslot.DateKey(date), slotStart, db.StatusCancelled)
}

// ListDayAppointments retrieves the non-cancelled appointments on a date.
func (s *Store) ListDayAppointments(ctx context.Context, date time.Time) ([]db.Appointment, error) {
	return s.queryAppointments(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointment
		WHERE slot_date = $1::date AND status <> $2
		ORDER BY start_at
	`, timeslot.DateKey(date), db.StatusCancelled)
}

// ListCategoryAppointments retrieves the non-cancelled appointments of a
// category, most recent first, capped to keep preference calculations
// cheap.
func (s *Store) ListCategoryAppointments(ctx context.Context, category string) ([]db.Appointment, error) {
	return s.queryAppointments(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointment
		WHERE category = $1 AND status <> $2
		ORDER BY start_at DESC
		LIMIT 200
	`, category, db.StatusCancelled)
}

// GetAppointment retrieves an appointment by ID.
func (s *Store) GetAppointment(ctx context.Context, id string) (*db.Appointment, error) {
	a, err := scanAppointment(s.q.QueryRow(ctx, `
		SELECT `+appointmentColumns+` FROM appointment WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("appointment %s: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return a, nil
}

// GetAppointmentByExternalRef retrieves an appointment by its external
// reference key.
func (s *Store) GetAppointmentByExternalRef(ctx context.Context, ref string) (*db.Appointment, error) {
	a, err := scanAppointment(s.q.QueryRow(ctx, `
		SELECT `+appointmentColumns+` FROM appointment WHERE external_ref = $1 AND external_ref <> ''
	`, ref))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("appointment ref %s: %w", ref, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment by external ref: %w", err)
	}
	return a, nil
}

// CreateAppointment inserts a new appointment.
func (s *Store) CreateAppointment(ctx context.Context, a *db.Appointment) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO appointment (
			id, provider_name, category, start_at, end_at, slot_date,
			slot_start_time, size, points_used, dock_id, status, external_ref
		)
		VALUES ($1, $2, $3, $4, $5, $6::date, $7, $8, $9, $10, $11, $12)
	`, a.ID, a.ProviderName, a.Category, a.Start, a.End, timeslot.DateKey(a.SlotDate),
		a.SlotStartTime, a.Size, a.PointsUsed, a.DockID, a.Status, a.ExternalRef)
	if err != nil {
		return fmt.Errorf("failed to insert appointment: %w", err)
	}
	return nil
}

// UpdateAppointment rewrites the mutable fields of an appointment.
func (s *Store) UpdateAppointment(ctx context.Context, a *db.Appointment) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE appointment SET
			provider_name = $2, category = $3, start_at = $4, end_at = $5,
			slot_date = $6::date, slot_start_time = $7, size = $8,
			points_used = $9, dock_id = $10, status = $11, updated_at = NOW()
		WHERE id = $1
	`, a.ID, a.ProviderName, a.Category, a.Start, a.End, timeslot.DateKey(a.SlotDate),
		a.SlotStartTime, a.Size, a.PointsUsed, a.DockID, a.Status)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("appointment %s: %w", a.ID, db.ErrNotFound)
	}
	return nil
}
