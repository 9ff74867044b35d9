package backfill

import (
	"context"
	"errors"

	"veloready/internal/store"
)

// RecoveryScore returns the day's record if its recovery family has
// been computed, nil otherwise. A record whose Recovery.Score is nil is
// the explicit insufficient-data state, not a missing record.
func (s *Service) RecoveryScore(ctx context.Context, date string) (*store.ScoreRecord, error) {
	return s.scoreFor(ctx, date, func(r *store.ScoreRecord) bool { return r.Recovery != nil })
}

// SleepScore returns the day's record if its sleep family has been
// computed, nil otherwise.
func (s *Service) SleepScore(ctx context.Context, date string) (*store.ScoreRecord, error) {
	return s.scoreFor(ctx, date, func(r *store.ScoreRecord) bool { return r.Sleep != nil })
}

// StrainScore returns the day's record if its strain family has been
// computed, nil otherwise.
func (s *Service) StrainScore(ctx context.Context, date string) (*store.ScoreRecord, error) {
	return s.scoreFor(ctx, date, func(r *store.ScoreRecord) bool { return r.Strain != nil })
}

func (s *Service) scoreFor(ctx context.Context, date string, has func(*store.ScoreRecord) bool) (*store.ScoreRecord, error) {
	rec, err := s.store.GetScoreRecord(ctx, date)
	if errors.Is(err, store.ErrNoRecord) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !has(rec) {
		return nil, nil
	}
	return rec, nil
}

// TrainingLoad returns the day's CTL/ATL point, nil when never computed.
func (s *Service) TrainingLoad(ctx context.Context, date string) (*store.TrainingLoadPoint, error) {
	p, err := s.store.GetTrainingLoadPoint(ctx, date)
	if errors.Is(err, store.ErrNoRecord) {
		return nil, nil
	}
	return p, err
}

// TrainingLoadRange returns the stored points for [start, end]
// inclusive, ordered by date.
func (s *Service) TrainingLoadRange(ctx context.Context, start, end string) ([]store.TrainingLoadPoint, error) {
	return s.store.GetTrainingLoadRange(ctx, start, end)
}

// ScoreRange returns the stored score records for [start, end]
// inclusive, ordered by date.
func (s *Service) ScoreRange(ctx context.Context, start, end string) ([]store.ScoreRecord, error) {
	return s.store.GetScoreRange(ctx, start, end)
}
