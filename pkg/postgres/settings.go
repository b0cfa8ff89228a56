package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"dockbook/pkg/db"
)

const bufferMinutesKey = "buffer_minutes"

// GetBufferMinutes retrieves the global dock idle buffer. Returns
// db.ErrNotFound when the setting has never been written, so the caller
// can fall back to its configured default.
func (s *Store) GetBufferMinutes(ctx context.Context) (int, error) {
	var value string
	err := s.q.QueryRow(ctx, `SELECT value FROM setting WHERE key = $1`, bufferMinutesKey).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("setting %s: %w", bufferMinutesKey, db.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get buffer minutes: %w", err)
	}

	minutes, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid buffer minutes value %q: %w", value, err)
	}
	return minutes, nil
}

// SetBufferMinutes writes the global dock idle buffer.
func (s *Store) SetBufferMinutes(ctx context.Context, minutes int) error {
	if minutes < 0 {
		return fmt.Errorf("buffer minutes must not be negative, got %d", minutes)
	}
	_, err := s.q.Exec(ctx, `
		INSERT INTO setting (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, bufferMinutesKey, strconv.Itoa(minutes))
	if err != nil {
		return fmt.Errorf("failed to set buffer minutes: %w", err)
	}
	return nil
}
