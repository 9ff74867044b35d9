package store

import (
	"context"
	"time"
)

// UpsertActivity stores or updates an activity summary.
func (s *Store) UpsertActivity(ctx context.Context, a *Activity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (
			id, name, type, start_date, start_date_local, day, moving_time,
			average_power, normalized_power, average_hr, max_hr,
			platform_tss, intensity_factor, rpe, strength_volume, sets,
			body_mass, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			start_date = excluded.start_date,
			start_date_local = excluded.start_date_local,
			day = excluded.day,
			moving_time = excluded.moving_time,
			average_power = excluded.average_power,
			normalized_power = excluded.normalized_power,
			average_hr = excluded.average_hr,
			max_hr = excluded.max_hr,
			platform_tss = excluded.platform_tss,
			intensity_factor = excluded.intensity_factor,
			rpe = excluded.rpe,
			strength_volume = excluded.strength_volume,
			sets = excluded.sets,
			body_mass = excluded.body_mass,
			updated_at = CURRENT_TIMESTAMP
	`,
		a.ID, a.Name, a.Type,
		a.StartDate.Format(time.RFC3339), a.StartDateLocal.Format(time.RFC3339),
		a.Day(), a.MovingTime,
		a.AveragePower, a.NormalizedPower, a.AverageHR, a.MaxHR,
		a.PlatformTSS, a.IntensityFactor, a.RPE, a.StrengthVolume, a.Sets,
		a.BodyMass,
	)
	return err
}

// GetActivitiesForDay retrieves all activities on a local calendar day,
// ordered by start time. An empty slice means a rest day.
func (s *Store) GetActivitiesForDay(ctx context.Context, day string) ([]Activity, error) {
	return s.queryActivities(ctx, `
		SELECT id, name, type, start_date, start_date_local, moving_time,
			average_power, normalized_power, average_hr, max_hr,
			platform_tss, intensity_factor, rpe, strength_volume, sets, body_mass
		FROM activities
		WHERE day = ?
		ORDER BY start_date_local ASC
	`, day)
}

// GetActivitiesInRange retrieves activities whose local day falls in
// [start, end] inclusive, ordered by start time.
func (s *Store) GetActivitiesInRange(ctx context.Context, start, end string) ([]Activity, error) {
	return s.queryActivities(ctx, `
		SELECT id, name, type, start_date, start_date_local, moving_time,
			average_power, normalized_power, average_hr, max_hr,
			platform_tss, intensity_factor, rpe, strength_volume, sets, body_mass
		FROM activities
		WHERE day >= ? AND day <= ?
		ORDER BY start_date_local ASC
	`, start, end)
}

// EarliestActivityDay returns the local day of the oldest stored
// activity, or "" when no activities exist.
func (s *Store) EarliestActivityDay(ctx context.Context) (string, error) {
	var day string
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MIN(day), '') FROM activities`).Scan(&day)
	return day, err
}

func (s *Store) queryActivities(ctx context.Context, query string, args ...any) ([]Activity, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []Activity
	for rows.Next() {
		var a Activity
		var startDate, startDateLocal string
		err := rows.Scan(
			&a.ID, &a.Name, &a.Type, &startDate, &startDateLocal, &a.MovingTime,
			&a.AveragePower, &a.NormalizedPower, &a.AverageHR, &a.MaxHR,
			&a.PlatformTSS, &a.IntensityFactor, &a.RPE, &a.StrengthVolume,
			&a.Sets, &a.BodyMass,
		)
		if err != nil {
			return nil, err
		}
		a.StartDate, _ = time.Parse(time.RFC3339, startDate)
		a.StartDateLocal, _ = time.Parse(time.RFC3339, startDateLocal)
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
