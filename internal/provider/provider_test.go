package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veloready/internal/store"
)

func floatPtr(f float64) *float64 {
	return &f
}

func intPtr(i int) *int {
	return &i
}

func TestStoreProvider_SampleAbsentIsNil(t *testing.T) {
	p := NewStoreProvider(store.NewTestStore(t))

	sample, err := p.Sample(context.Background(), "2026-03-01")
	require.NoError(t, err)
	assert.Nil(t, sample, "a missing day is not an error")
}

func TestBaselines_RollingMeanExcludesToday(t *testing.T) {
	st := store.NewTestStore(t)
	p := NewStoreProvider(st)
	ctx := context.Background()

	// Three prior days at 58/60/62 and a wildly different "today" that
	// must not contaminate its own baseline
	priors := []struct {
		date string
		hrv  float64
	}{
		{"2026-03-05", 58},
		{"2026-03-06", 60},
		{"2026-03-07", 62},
	}
	for _, d := range priors {
		require.NoError(t, st.UpsertDaySample(ctx, &store.DaySample{
			Date: d.date,
			HRV:  floatPtr(d.hrv),
		}))
	}
	require.NoError(t, st.UpsertDaySample(ctx, &store.DaySample{
		Date: "2026-03-08",
		HRV:  floatPtr(20),
	}))

	base, err := p.Baselines(ctx, "2026-03-08")
	require.NoError(t, err)

	require.NotNil(t, base.HRV)
	assert.InDelta(t, 60, *base.HRV, 0.001)
}

func TestBaselines_RequiresMinimumHistory(t *testing.T) {
	st := store.NewTestStore(t)
	p := NewStoreProvider(st)
	ctx := context.Background()

	// Two days of HRV is below the minimum; three days of RHR is enough
	require.NoError(t, st.UpsertDaySample(ctx, &store.DaySample{
		Date: "2026-03-05", HRV: floatPtr(58), RestingHR: floatPtr(50),
	}))
	require.NoError(t, st.UpsertDaySample(ctx, &store.DaySample{
		Date: "2026-03-06", HRV: floatPtr(62), RestingHR: floatPtr(52),
	}))
	require.NoError(t, st.UpsertDaySample(ctx, &store.DaySample{
		Date: "2026-03-07", RestingHR: floatPtr(48),
	}))

	base, err := p.Baselines(ctx, "2026-03-08")
	require.NoError(t, err)

	assert.Nil(t, base.HRV, "two observations are not a baseline")
	require.NotNil(t, base.RestingHR)
	assert.InDelta(t, 50, *base.RestingHR, 0.001)
}

func TestBaselines_WindowIsSevenDays(t *testing.T) {
	st := store.NewTestStore(t)
	p := NewStoreProvider(st)
	ctx := context.Background()

	// An old outlier just outside the window plus three in-window days
	require.NoError(t, st.UpsertDaySample(ctx, &store.DaySample{
		Date: "2026-02-28", HRV: floatPtr(200),
	}))
	for _, d := range []string{"2026-03-03", "2026-03-05", "2026-03-07"} {
		require.NoError(t, st.UpsertDaySample(ctx, &store.DaySample{
			Date: d, HRV: floatPtr(60),
		}))
	}

	base, err := p.Baselines(ctx, "2026-03-08")
	require.NoError(t, err)

	require.NotNil(t, base.HRV)
	assert.InDelta(t, 60, *base.HRV, 0.001, "the outlier outside the window must not count")
}
