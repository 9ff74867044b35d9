package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetScoreRecord retrieves one day's computed scores.
// Returns ErrNoRecord if the day has never been scored.
func (s *Store) GetScoreRecord(ctx context.Context, date string) (*ScoreRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT date,
			recovery_score, recovery_band, recovery_inputs,
			sleep_score, sleep_band, sleep_inputs,
			strain_score, strain_band, strain_inputs,
			computed_at
		FROM score_records
		WHERE date = ?
	`, date)

	rec, err := scanScoreRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRecord
	}
	return rec, err
}

// GetScoreRange retrieves score records for [start, end] inclusive,
// ordered by date ascending.
func (s *Store) GetScoreRange(ctx context.Context, start, end string) ([]ScoreRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date,
			recovery_score, recovery_band, recovery_inputs,
			sleep_score, sleep_band, sleep_inputs,
			strain_score, strain_band, strain_inputs,
			computed_at
		FROM score_records
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ScoreRecord
	for rows.Next() {
		rec, err := scanScoreRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// UpsertScores applies the non-nil family sections of rec to the day's
// row, atomically. Each section is checked against the stored
// completeness mask: a section computed from fewer inputs than what is
// already stored is rejected with ErrCompletenessRegression and the
// whole upsert rolls back. Families left nil in rec are untouched, so
// one family can improve without risking the others.
func (s *Store) UpsertScores(ctx context.Context, rec *ScoreRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	existing, err := getScoreRecordTx(ctx, tx, rec.Date)
	if err != nil && !errors.Is(err, ErrNoRecord) {
		return err
	}

	merged := ScoreRecord{Date: rec.Date}
	if existing != nil {
		merged = *existing
	}

	apply := func(name string, next, prev *FamilyScore) (*FamilyScore, error) {
		if next == nil {
			return prev, nil
		}
		if prev != nil && !next.Inputs.AtLeast(prev.Inputs) {
			return nil, fmt.Errorf("%s for %s: have %d input groups, write has %d: %w",
				name, rec.Date, prev.Inputs.Count(), next.Inputs.Count(), ErrCompletenessRegression)
		}
		return next, nil
	}

	if merged.Recovery, err = apply("recovery", rec.Recovery, merged.Recovery); err != nil {
		return err
	}
	if merged.Sleep, err = apply("sleep", rec.Sleep, merged.Sleep); err != nil {
		return err
	}
	if merged.Strain, err = apply("strain", rec.Strain, merged.Strain); err != nil {
		return err
	}

	var recScore, slpScore, strScore *float64
	var recBand, slpBand, strBand *string
	var recInputs, slpInputs, strInputs *int
	if merged.Recovery != nil {
		recScore = merged.Recovery.Score
		recBand = &merged.Recovery.Band
		n := int(merged.Recovery.Inputs)
		recInputs = &n
	}
	if merged.Sleep != nil {
		slpScore = merged.Sleep.Score
		slpBand = &merged.Sleep.Band
		n := int(merged.Sleep.Inputs)
		slpInputs = &n
	}
	if merged.Strain != nil {
		strScore = merged.Strain.Score
		strBand = &merged.Strain.Band
		n := int(merged.Strain.Inputs)
		strInputs = &n
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO score_records (
			date, recovery_score, recovery_band, recovery_inputs,
			sleep_score, sleep_band, sleep_inputs,
			strain_score, strain_band, strain_inputs, computed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(date) DO UPDATE SET
			recovery_score = excluded.recovery_score,
			recovery_band = excluded.recovery_band,
			recovery_inputs = excluded.recovery_inputs,
			sleep_score = excluded.sleep_score,
			sleep_band = excluded.sleep_band,
			sleep_inputs = excluded.sleep_inputs,
			strain_score = excluded.strain_score,
			strain_band = excluded.strain_band,
			strain_inputs = excluded.strain_inputs,
			computed_at = CURRENT_TIMESTAMP
	`,
		rec.Date, recScore, recBand, recInputs,
		slpScore, slpBand, slpInputs,
		strScore, strBand, strInputs,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScoreRecord(row rowScanner) (*ScoreRecord, error) {
	var rec ScoreRecord
	var recScore, slpScore, strScore *float64
	var recBand, slpBand, strBand *string
	var recInputs, slpInputs, strInputs *int
	var computedAt string

	err := row.Scan(
		&rec.Date,
		&recScore, &recBand, &recInputs,
		&slpScore, &slpBand, &slpInputs,
		&strScore, &strBand, &strInputs,
		&computedAt,
	)
	if err != nil {
		return nil, err
	}

	family := func(score *float64, band *string, inputs *int) *FamilyScore {
		if band == nil && inputs == nil {
			return nil
		}
		f := &FamilyScore{Score: score}
		if band != nil {
			f.Band = *band
		}
		if inputs != nil {
			f.Inputs = Completeness(*inputs)
		}
		return f
	}

	rec.Recovery = family(recScore, recBand, recInputs)
	rec.Sleep = family(slpScore, slpBand, slpInputs)
	rec.Strain = family(strScore, strBand, strInputs)
	rec.ComputedAt, _ = time.Parse("2006-01-02 15:04:05", computedAt)
	return &rec, nil
}

func getScoreRecordTx(ctx context.Context, tx *sql.Tx, date string) (*ScoreRecord, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT date,
			recovery_score, recovery_band, recovery_inputs,
			sleep_score, sleep_band, sleep_inputs,
			strain_score, strain_band, strain_inputs,
			computed_at
		FROM score_records
		WHERE date = ?
	`, date)

	rec, err := scanScoreRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRecord
	}
	return rec, err
}
