package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 {
	return &f
}

func intPtr(i int) *int {
	return &i
}

func TestUpsertScores_PartialFamilyWrites(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertScores(ctx, &ScoreRecord{
		Date:     "2026-03-01",
		Recovery: &FamilyScore{Score: floatPtr(72), Band: "Green", Inputs: InputHRV | InputRestingHR},
	}))

	// A later sleep-only write must not disturb the recovery section
	require.NoError(t, s.UpsertScores(ctx, &ScoreRecord{
		Date:  "2026-03-01",
		Sleep: &FamilyScore{Score: floatPtr(85), Band: "Excellent", Inputs: InputSleepSession},
	}))

	rec, err := s.GetScoreRecord(ctx, "2026-03-01")
	require.NoError(t, err)

	require.NotNil(t, rec.Recovery)
	assert.Equal(t, 72.0, *rec.Recovery.Score)
	assert.Equal(t, "Green", rec.Recovery.Band)
	assert.Equal(t, InputHRV|InputRestingHR, rec.Recovery.Inputs)

	require.NotNil(t, rec.Sleep)
	assert.Equal(t, 85.0, *rec.Sleep.Score)

	assert.Nil(t, rec.Strain, "untouched family stays absent")
}

func TestUpsertScores_RejectsCompletenessRegression(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertScores(ctx, &ScoreRecord{
		Date:     "2026-03-01",
		Recovery: &FamilyScore{Score: floatPtr(72), Band: "Green", Inputs: InputHRV | InputRestingHR | InputSleepSession},
	}))

	// Recompute from fewer input groups must be rejected
	err := s.UpsertScores(ctx, &ScoreRecord{
		Date:     "2026-03-01",
		Recovery: &FamilyScore{Score: floatPtr(40), Band: "Amber", Inputs: InputHRV},
	})
	require.ErrorIs(t, err, ErrCompletenessRegression)

	rec, err := s.GetScoreRecord(ctx, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 72.0, *rec.Recovery.Score, "stored score survives the rejected write")
}

func TestUpsertScores_RegressionRollsBackWholeWrite(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertScores(ctx, &ScoreRecord{
		Date:  "2026-03-01",
		Sleep: &FamilyScore{Score: floatPtr(85), Band: "Excellent", Inputs: InputSleepSession},
	}))

	// One good family and one regressing family in the same write: atomic
	err := s.UpsertScores(ctx, &ScoreRecord{
		Date:     "2026-03-01",
		Recovery: &FamilyScore{Score: floatPtr(60), Band: "Amber", Inputs: InputHRV},
		Sleep:    &FamilyScore{Score: floatPtr(30), Band: "Poor", Inputs: 0},
	})
	require.ErrorIs(t, err, ErrCompletenessRegression)

	rec, err := s.GetScoreRecord(ctx, "2026-03-01")
	require.NoError(t, err)
	assert.Nil(t, rec.Recovery, "rolled-back family must not land")
	assert.Equal(t, 85.0, *rec.Sleep.Score)
}

func TestUpsertScores_EqualCompletenessMayReplace(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertScores(ctx, &ScoreRecord{
		Date:     "2026-03-01",
		Recovery: &FamilyScore{Score: floatPtr(72), Band: "Green", Inputs: InputHRV | InputRestingHR},
	}))

	// Same number of input groups: the fresher computation wins
	require.NoError(t, s.UpsertScores(ctx, &ScoreRecord{
		Date:     "2026-03-01",
		Recovery: &FamilyScore{Score: floatPtr(68), Band: "Green", Inputs: InputHRV | InputSleepSession},
	}))

	rec, err := s.GetScoreRecord(ctx, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 68.0, *rec.Recovery.Score)
}

func TestScoreRecord_NilScoreSentinelRoundTrips(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertScores(ctx, &ScoreRecord{
		Date:  "2026-03-01",
		Sleep: &FamilyScore{Score: nil, Band: "No Data", Inputs: 0},
	}))

	rec, err := s.GetScoreRecord(ctx, "2026-03-01")
	require.NoError(t, err)

	require.NotNil(t, rec.Sleep, "the family was evaluated")
	assert.Nil(t, rec.Sleep.Score, "nil score must come back nil, never zero")
	assert.Equal(t, "No Data", rec.Sleep.Band)
}

func TestGetScoreRecord_NoRecord(t *testing.T) {
	s := NewTestStore(t)

	_, err := s.GetScoreRecord(context.Background(), "2026-03-01")
	assert.ErrorIs(t, err, ErrNoRecord)
}

func TestGetScoreRange_OrderedInclusive(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	for _, d := range []string{"2026-03-03", "2026-03-01", "2026-03-02", "2026-03-05"} {
		require.NoError(t, s.UpsertScores(ctx, &ScoreRecord{
			Date:   d,
			Strain: &FamilyScore{Score: floatPtr(5), Band: "Light", Inputs: InputActivities},
		}))
	}

	records, err := s.GetScoreRange(ctx, "2026-03-01", "2026-03-03")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "2026-03-01", records[0].Date)
	assert.Equal(t, "2026-03-03", records[2].Date)
}

func TestCompleteness(t *testing.T) {
	full := InputHRV | InputRestingHR | InputSleepSession
	partial := InputHRV | InputTrainingLoad

	assert.Equal(t, 3, full.Count())
	assert.True(t, full.AtLeast(partial))
	assert.False(t, partial.AtLeast(full))
	// Comparison is by count, not by subset
	assert.True(t, partial.AtLeast(InputSleepSession|InputActivities))
}

func TestFamilyScoreEqual(t *testing.T) {
	a := &FamilyScore{Score: floatPtr(70), Band: "Green", Inputs: InputHRV}

	assert.True(t, a.Equal(&FamilyScore{Score: floatPtr(70), Band: "Green", Inputs: InputHRV}))
	assert.False(t, a.Equal(&FamilyScore{Score: floatPtr(71), Band: "Green", Inputs: InputHRV}))
	assert.False(t, a.Equal(&FamilyScore{Score: nil, Band: "Green", Inputs: InputHRV}))
	assert.False(t, a.Equal(nil))

	sentinel := &FamilyScore{Band: "No Data"}
	assert.True(t, sentinel.Equal(&FamilyScore{Band: "No Data"}))
}
