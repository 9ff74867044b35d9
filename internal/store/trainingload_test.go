package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainingLoadPoint_RoundTrip(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertTrainingLoadPoint(ctx, &TrainingLoadPoint{
		Date: "2026-03-01", CTL: 45.2, ATL: 60.8,
	}))

	got, err := s.GetTrainingLoadPoint(ctx, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 45.2, got.CTL)
	assert.Equal(t, 60.8, got.ATL)
	assert.InDelta(t, -15.6, got.TSB(), 0.001)

	// Derived data: overwriting is always allowed
	require.NoError(t, s.UpsertTrainingLoadPoint(ctx, &TrainingLoadPoint{
		Date: "2026-03-01", CTL: 46, ATL: 58,
	}))
	got, err = s.GetTrainingLoadPoint(ctx, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 46.0, got.CTL)
}

func TestGetTrainingLoadBefore(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	_, err := s.GetTrainingLoadBefore(ctx, "2026-03-01")
	assert.ErrorIs(t, err, ErrNoRecord)

	for _, d := range []string{"2026-02-26", "2026-02-28", "2026-03-02"} {
		require.NoError(t, s.UpsertTrainingLoadPoint(ctx, &TrainingLoadPoint{Date: d, CTL: 40, ATL: 40}))
	}

	got, err := s.GetTrainingLoadBefore(ctx, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-28", got.Date, "strictly before, most recent first")
}

func TestGetTrainingLoadRange(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	for i, d := range []string{"2026-03-01", "2026-03-02", "2026-03-03"} {
		require.NoError(t, s.UpsertTrainingLoadPoint(ctx, &TrainingLoadPoint{
			Date: d, CTL: float64(40 + i), ATL: 40,
		}))
	}

	points, err := s.GetTrainingLoadRange(ctx, "2026-03-01", "2026-03-02")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "2026-03-01", points[0].Date)
	assert.Equal(t, 41.0, points[1].CTL)
}

func TestBackfillState(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	got, err := s.GetLastBackfill(ctx, "recovery")
	require.NoError(t, err)
	assert.True(t, got.IsZero(), "never-run family reads as the zero time")

	at := time.Date(2026, 3, 1, 6, 30, 0, 0, time.UTC)
	require.NoError(t, s.SetLastBackfill(ctx, "recovery", at))

	got, err = s.GetLastBackfill(ctx, "recovery")
	require.NoError(t, err)
	assert.True(t, got.Equal(at))

	// Families are independent
	other, err := s.GetLastBackfill(ctx, "sleep")
	require.NoError(t, err)
	assert.True(t, other.IsZero())
}
