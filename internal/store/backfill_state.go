package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// GetLastBackfill retrieves the completion time of the last backfill
// pass for a score family. Returns the zero time if the family has
// never run.
func (s *Store) GetLastBackfill(ctx context.Context, family string) (time.Time, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT last_run FROM backfill_state WHERE family = ?
	`, family).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, value)
}

// SetLastBackfill records the completion time of a backfill pass for a
// score family.
func (s *Store) SetLastBackfill(ctx context.Context, family string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO backfill_state (family, last_run, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(family) DO UPDATE SET
			last_run = excluded.last_run,
			updated_at = CURRENT_TIMESTAMP
	`, family, at.Format(time.RFC3339))
	return err
}
