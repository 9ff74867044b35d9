package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Authentication (singleton row)
		`CREATE TABLE IF NOT EXISTS auth (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			athlete_id INTEGER NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Raw daily physiological samples. Every metric column is
		// nullable: NULL means "not measured", which is distinct from
		// a measured zero.
		`CREATE TABLE IF NOT EXISTS day_samples (
			date TEXT PRIMARY KEY,
			hrv REAL,
			resting_hr REAL,
			sleep_duration INTEGER,
			time_in_bed INTEGER,
			deep_sleep INTEGER,
			rem_sleep INTEGER,
			wake_events INTEGER,
			bedtime INTEGER,
			wake_time INTEGER,
			respiratory_rate REAL,
			steps INTEGER,
			active_calories REAL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Completed training sessions (already de-duplicated upstream)
		`CREATE TABLE IF NOT EXISTS activities (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			start_date TEXT NOT NULL,
			start_date_local TEXT NOT NULL,
			day TEXT NOT NULL,
			moving_time INTEGER NOT NULL,
			average_power REAL,
			normalized_power REAL,
			average_hr REAL,
			max_hr REAL,
			platform_tss REAL,
			intensity_factor REAL,
			rpe REAL,
			strength_volume REAL,
			sets INTEGER,
			body_mass REAL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activities_day ON activities(day)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_start_date ON activities(start_date)`,

		// Computed composite scores, one row per day. Each family
		// carries the completeness bitmask of the inputs it was
		// computed from; upserts enforce monotonic completeness.
		`CREATE TABLE IF NOT EXISTS score_records (
			date TEXT PRIMARY KEY,
			recovery_score REAL,
			recovery_band TEXT,
			recovery_inputs INTEGER,
			sleep_score REAL,
			sleep_band TEXT,
			sleep_inputs INTEGER,
			strain_score REAL,
			strain_band TEXT,
			strain_inputs INTEGER,
			computed_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Chronic/acute training load recurrence, one row per day.
		// TSB is derived at read time, never stored.
		`CREATE TABLE IF NOT EXISTS training_load_points (
			date TEXT PRIMARY KEY,
			ctl REAL NOT NULL,
			atl REAL NOT NULL,
			computed_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Ingestion bookkeeping (key-value)
		`CREATE TABLE IF NOT EXISTS sync_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Backfill bookkeeping: last completed pass per score family
		`CREATE TABLE IF NOT EXISTS backfill_state (
			family TEXT PRIMARY KEY,
			last_run TEXT NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
