package store

import (
	"context"
	"database/sql"
	"errors"
)

// UpsertTrainingLoadPoint stores or replaces one day's CTL/ATL point.
// Load points are derived data, so overwriting is always allowed.
func (s *Store) UpsertTrainingLoadPoint(ctx context.Context, p *TrainingLoadPoint) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO training_load_points (date, ctl, atl, computed_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(date) DO UPDATE SET
			ctl = excluded.ctl,
			atl = excluded.atl,
			computed_at = CURRENT_TIMESTAMP
	`, p.Date, p.CTL, p.ATL)
	return err
}

// GetTrainingLoadPoint retrieves one day's CTL/ATL point.
// Returns ErrNoRecord if the day was never computed.
func (s *Store) GetTrainingLoadPoint(ctx context.Context, date string) (*TrainingLoadPoint, error) {
	var p TrainingLoadPoint
	err := s.db.QueryRowContext(ctx, `
		SELECT date, ctl, atl FROM training_load_points WHERE date = ?
	`, date).Scan(&p.Date, &p.CTL, &p.ATL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetTrainingLoadRange retrieves points for [start, end] inclusive,
// ordered by date ascending.
func (s *Store) GetTrainingLoadRange(ctx context.Context, start, end string) ([]TrainingLoadPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, ctl, atl FROM training_load_points
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []TrainingLoadPoint
	for rows.Next() {
		var p TrainingLoadPoint
		if err := rows.Scan(&p.Date, &p.CTL, &p.ATL); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// GetTrainingLoadBefore retrieves the most recent point strictly before
// date, for seeding a progressive recomputation.
// Returns ErrNoRecord if no earlier point exists.
func (s *Store) GetTrainingLoadBefore(ctx context.Context, date string) (*TrainingLoadPoint, error) {
	var p TrainingLoadPoint
	err := s.db.QueryRowContext(ctx, `
		SELECT date, ctl, atl FROM training_load_points
		WHERE date < ?
		ORDER BY date DESC
		LIMIT 1
	`, date).Scan(&p.Date, &p.CTL, &p.ATL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
