package store

import (
	"context"
	"database/sql"
	"errors"
)

// UpsertDaySample stores or replaces one day's raw sample. Samples are
// append-only except for "today", which ingestion rewrites intraday.
func (s *Store) UpsertDaySample(ctx context.Context, sample *DaySample) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO day_samples (
			date, hrv, resting_hr, sleep_duration, time_in_bed,
			deep_sleep, rem_sleep, wake_events, bedtime, wake_time,
			respiratory_rate, steps, active_calories, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(date) DO UPDATE SET
			hrv = excluded.hrv,
			resting_hr = excluded.resting_hr,
			sleep_duration = excluded.sleep_duration,
			time_in_bed = excluded.time_in_bed,
			deep_sleep = excluded.deep_sleep,
			rem_sleep = excluded.rem_sleep,
			wake_events = excluded.wake_events,
			bedtime = excluded.bedtime,
			wake_time = excluded.wake_time,
			respiratory_rate = excluded.respiratory_rate,
			steps = excluded.steps,
			active_calories = excluded.active_calories,
			updated_at = CURRENT_TIMESTAMP
	`,
		sample.Date, sample.HRV, sample.RestingHR, sample.SleepDuration,
		sample.TimeInBed, sample.DeepSleep, sample.RemSleep, sample.WakeEvents,
		sample.Bedtime, sample.WakeTime, sample.RespiratoryRate,
		sample.Steps, sample.ActiveCalories,
	)
	return err
}

// GetDaySample retrieves one day's raw sample.
// Returns ErrNoRecord if the day has no stored sample.
func (s *Store) GetDaySample(ctx context.Context, date string) (*DaySample, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT date, hrv, resting_hr, sleep_duration, time_in_bed,
			deep_sleep, rem_sleep, wake_events, bedtime, wake_time,
			respiratory_rate, steps, active_calories
		FROM day_samples
		WHERE date = ?
	`, date)

	var sm DaySample
	err := row.Scan(
		&sm.Date, &sm.HRV, &sm.RestingHR, &sm.SleepDuration, &sm.TimeInBed,
		&sm.DeepSleep, &sm.RemSleep, &sm.WakeEvents, &sm.Bedtime, &sm.WakeTime,
		&sm.RespiratoryRate, &sm.Steps, &sm.ActiveCalories,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, err
	}
	return &sm, nil
}

// GetDaySampleRange retrieves samples for [start, end] inclusive,
// ordered by date ascending. Days without samples are simply absent.
func (s *Store) GetDaySampleRange(ctx context.Context, start, end string) ([]DaySample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, hrv, resting_hr, sleep_duration, time_in_bed,
			deep_sleep, rem_sleep, wake_events, bedtime, wake_time,
			respiratory_rate, steps, active_calories
		FROM day_samples
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []DaySample
	for rows.Next() {
		var sm DaySample
		err := rows.Scan(
			&sm.Date, &sm.HRV, &sm.RestingHR, &sm.SleepDuration, &sm.TimeInBed,
			&sm.DeepSleep, &sm.RemSleep, &sm.WakeEvents, &sm.Bedtime, &sm.WakeTime,
			&sm.RespiratoryRate, &sm.Steps, &sm.ActiveCalories,
		)
		if err != nil {
			return nil, err
		}
		samples = append(samples, sm)
	}
	return samples, rows.Err()
}
