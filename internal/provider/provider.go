// Package provider defines the collaborator contracts the scoring core
// consumes (raw samples, activities and rolling baselines) together
// with store-backed reference implementations.
package provider

import (
	"context"
	"errors"
	"time"

	"veloready/internal/analysis"
	"veloready/internal/store"
)

// SampleProvider supplies one day's raw physiological sample.
// A (nil, nil) return means no data was recorded for the day, which is
// different from any field being zero.
type SampleProvider interface {
	Sample(ctx context.Context, date string) (*store.DaySample, error)
}

// ActivityProvider supplies a day's completed activities, already
// de-duplicated across source platforms. An empty slice is a rest day.
type ActivityProvider interface {
	Activities(ctx context.Context, date string) ([]store.Activity, error)
}

// BaselineProvider supplies rolling-mean references for the vitals.
// Nil fields mean insufficient history for that metric.
type BaselineProvider interface {
	Baselines(ctx context.Context, asOf string) (*analysis.Baseline, error)
}

// StoreProvider implements all three collaborator contracts over the
// local store, for the common case where ingestion has already landed
// the raw data.
type StoreProvider struct {
	store *store.Store
}

// NewStoreProvider wraps a store as the sample/activity/baseline
// collaborators.
func NewStoreProvider(s *store.Store) *StoreProvider {
	return &StoreProvider{store: s}
}

// Sample returns the stored sample for a day, or (nil, nil) when none
// was recorded.
func (p *StoreProvider) Sample(ctx context.Context, date string) (*store.DaySample, error) {
	sample, err := p.store.GetDaySample(ctx, date)
	if errors.Is(err, store.ErrNoRecord) {
		return nil, nil
	}
	return sample, err
}

// Activities returns the stored activities for a local calendar day.
func (p *StoreProvider) Activities(ctx context.Context, date string) ([]store.Activity, error) {
	return p.store.GetActivitiesForDay(ctx, date)
}

// Baseline window: mean of the preceding baselineWindowDays, requiring
// at least baselineMinSamples observed values.
const (
	baselineWindowDays = 7
	baselineMinSamples = 3
)

// Baselines computes 7-day rolling means over the days strictly before
// asOf. Metrics with fewer than three observations stay nil.
func (p *StoreProvider) Baselines(ctx context.Context, asOf string) (*analysis.Baseline, error) {
	day, err := time.Parse(store.DateFormat, asOf)
	if err != nil {
		return nil, err
	}
	start := store.DayKey(day.AddDate(0, 0, -baselineWindowDays))
	end := store.DayKey(day.AddDate(0, 0, -1))

	samples, err := p.store.GetDaySampleRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	var hrv, rhr, sleep, resp, bed, wake meanAcc
	for i := range samples {
		s := &samples[i]
		hrv.addFloat(s.HRV)
		rhr.addFloat(s.RestingHR)
		sleep.addInt(s.SleepDuration)
		resp.addFloat(s.RespiratoryRate)
		bed.addInt(s.Bedtime)
		wake.addInt(s.WakeTime)
	}

	return &analysis.Baseline{
		HRV:             hrv.mean(),
		RestingHR:       rhr.mean(),
		SleepDuration:   sleep.mean(),
		RespiratoryRate: resp.mean(),
		Bedtime:         bed.mean(),
		WakeTime:        wake.mean(),
	}, nil
}

// meanAcc accumulates present values for one metric.
type meanAcc struct {
	sum float64
	n   int
}

func (m *meanAcc) addFloat(v *float64) {
	if v != nil {
		m.sum += *v
		m.n++
	}
}

func (m *meanAcc) addInt(v *int) {
	if v != nil {
		m.sum += float64(*v)
		m.n++
	}
}

func (m *meanAcc) mean() *float64 {
	if m.n < baselineMinSamples {
		return nil
	}
	v := m.sum / float64(m.n)
	return &v
}
