package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivity_DayRouting(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	// A late ride that starts at 23:30 local belongs to its local day
	lateRide := &Activity{
		ID:             1,
		Name:           "Night ride",
		Type:           "Ride",
		StartDate:      time.Date(2026, 3, 2, 4, 30, 0, 0, time.UTC),
		StartDateLocal: time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC),
		MovingTime:     1800,
	}
	require.NoError(t, s.UpsertActivity(ctx, lateRide))

	onDay, err := s.GetActivitiesForDay(ctx, "2026-03-01")
	require.NoError(t, err)
	require.Len(t, onDay, 1)
	assert.Equal(t, "Night ride", onDay[0].Name)

	nextDay, err := s.GetActivitiesForDay(ctx, "2026-03-02")
	require.NoError(t, err)
	assert.Empty(t, nextDay)
}

func TestActivity_OptionalFieldsRoundTrip(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertActivity(ctx, &Activity{
		ID:             7,
		Type:           "WeightTraining",
		StartDateLocal: time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC),
		MovingTime:     2400,
		RPE:            floatPtr(8),
		StrengthVolume: floatPtr(5200),
		Sets:           intPtr(18),
	}))

	got, err := s.GetActivitiesForDay(ctx, "2026-03-01")
	require.NoError(t, err)
	require.Len(t, got, 1)

	a := got[0]
	require.NotNil(t, a.RPE)
	assert.Equal(t, 8.0, *a.RPE)
	assert.Equal(t, 18, *a.Sets)
	assert.Nil(t, a.AveragePower, "unmeasured power stays absent")
	assert.Nil(t, a.PlatformTSS)
}

func TestUpsertActivity_Idempotent(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	a := &Activity{
		ID:             3,
		Name:           "Morning run",
		Type:           "Run",
		StartDateLocal: time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC),
		MovingTime:     3000,
	}
	require.NoError(t, s.UpsertActivity(ctx, a))

	a.MovingTime = 3100 // corrected upstream
	require.NoError(t, s.UpsertActivity(ctx, a))

	got, err := s.GetActivitiesForDay(ctx, "2026-03-01")
	require.NoError(t, err)
	require.Len(t, got, 1, "same ID must not duplicate")
	assert.Equal(t, 3100, got[0].MovingTime)
}

func TestEarliestActivityDay(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	day, err := s.EarliestActivityDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", day)

	for i, d := range []time.Time{
		time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	} {
		require.NoError(t, s.UpsertActivity(ctx, &Activity{
			ID: int64(i + 1), Type: "Ride", StartDateLocal: d, MovingTime: 3600,
		}))
	}

	day, err = s.EarliestActivityDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-10", day)
}
