package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"dockbook/pkg/db"
)

// Serializable runs fn inside a transaction with serializable isolation.
// Serialization conflicts (including deadlocks, which Postgres also
// reports for mutually blocked serializable transactions) are retried
// transparently up to the configured bound, then surfaced as
// db.ErrTxConflict.
func (d *DB) Serializable(ctx context.Context, fn func(db.Store) error) error {
	return retryOnConflict(d.conflictRetries, func() error {
		return d.runSerializable(ctx, fn)
	})
}

func (d *DB) runSerializable(ctx context.Context, fn func(db.Store) error) error {
	tx, err := d.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("failed to begin serializable transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Store{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit serializable transaction: %w", err)
	}

	return nil
}

// retryOnConflict runs attempt, repeating it up to retries extra times
// while it keeps failing with a serialization conflict. The final
// conflict is wrapped in db.ErrTxConflict so callers can classify it
// without knowing about SQLSTATEs.
func retryOnConflict(retries int, attempt func() error) error {
	var err error
	for i := 0; i <= retries; i++ {
		err = attempt()
		if err == nil || !isSerializationFailure(err) {
			return err
		}
	}
	return fmt.Errorf("%w after %d retries: %v", db.ErrTxConflict, retries, err)
}

// isSerializationFailure reports whether err is a transient conflict
// worth retrying: SQLSTATE 40001 (serialization_failure) or 40P01
// (deadlock_detected).
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
