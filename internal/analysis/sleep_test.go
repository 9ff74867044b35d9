package analysis

import (
	"math"
	"testing"

	"veloready/internal/store"
)

func TestScoreSleep_NoSession(t *testing.T) {
	sample := &store.DaySample{
		Date:      "2026-03-01",
		HRV:       floatPtr(60), // vitals alone are not a sleep session
		RestingHR: floatPtr(48),
	}

	res := ScoreSleep(sample, nil, DefaultProfile())

	if res.Score != nil {
		t.Errorf("Score = %v, want nil sentinel", *res.Score)
	}
	if res.Band != BandNoData {
		t.Errorf("Band = %q, want %q", res.Band, BandNoData)
	}
	if res.Inputs != 0 {
		t.Errorf("Inputs = %v, want 0", res.Inputs)
	}
}

func TestScoreSleep_AllInputsExactWeights(t *testing.T) {
	profile := DefaultProfile()
	profile.SleepNeed = 27360

	sample := &store.DaySample{
		Date:          "2026-03-01",
		SleepDuration: intPtr(27360), // exactly at need -> performance 100
		TimeInBed:     intPtr(28800), // 95% efficiency -> 100
		DeepSleep:     intPtr(6840),
		RemSleep:      intPtr(6840), // 50% deep+REM -> 100
		WakeEvents:    intPtr(2),    // 100 - 25 -> 75
		Bedtime:       intPtr(1380),
		WakeTime:      intPtr(420), // zero drift -> 100
	}
	baseline := &Baseline{
		SleepDuration: floatPtr(27360),
		Bedtime:       floatPtr(1380),
		WakeTime:      floatPtr(420),
	}

	res := ScoreSleep(sample, baseline, profile)

	if res.Score == nil {
		t.Fatal("Expected a score with all inputs present")
	}
	// 100*0.30 + 100*0.22 + 100*0.32 + 75*0.14 + 100*0.02 = 96.5
	if math.Abs(*res.Score-96.5) > 0.001 {
		t.Errorf("Score = %v, want exactly the fixed-weight sum 96.5", *res.Score)
	}
	if res.Band != BandSleepExcellent {
		t.Errorf("Band = %q, want %q", res.Band, BandSleepExcellent)
	}
	if res.Inputs&store.InputSleepSession == 0 {
		t.Error("Inputs missing the sleep-session bit")
	}
}

func TestScoreSleep_MissingEfficiencyRenormalizes(t *testing.T) {
	profile := DefaultProfile()
	profile.SleepNeed = 27360

	sample := &store.DaySample{
		Date:          "2026-03-01",
		SleepDuration: intPtr(27360),
		DeepSleep:     intPtr(6840),
		RemSleep:      intPtr(6840),
		WakeEvents:    intPtr(2),
		Bedtime:       intPtr(1380),
		WakeTime:      intPtr(420),
		// TimeInBed absent: efficiency is excluded, not zeroed
	}
	baseline := &Baseline{
		SleepDuration: floatPtr(27360),
		Bedtime:       floatPtr(1380),
		WakeTime:      floatPtr(420),
	}

	res := ScoreSleep(sample, baseline, profile)

	if res.Score == nil {
		t.Fatal("Expected a score")
	}
	if res.Efficiency != nil {
		t.Errorf("Efficiency = %v, want nil", *res.Efficiency)
	}
	// (100*0.30 + 100*0.32 + 75*0.14 + 100*0.02) / 0.78 = 95.5128
	if math.Abs(*res.Score-95.5128) > 0.001 {
		t.Errorf("Score = %v, want 95.5128 after renormalization", *res.Score)
	}
}

func TestScoreSleep_ZeroWakeEventsDiffersFromAbsent(t *testing.T) {
	profile := DefaultProfile()
	profile.SleepNeed = 27360

	short := func(wakeEvents *int) *store.DaySample {
		return &store.DaySample{
			Date:          "2026-03-01",
			SleepDuration: intPtr(24624), // 10% under need -> performance 87.5
			WakeEvents:    wakeEvents,
		}
	}

	measured := ScoreSleep(short(intPtr(0)), nil, profile)
	absent := ScoreSleep(short(nil), nil, profile)

	if measured.Disturbances == nil || *measured.Disturbances != 100 {
		t.Errorf("Disturbances = %v, want 100 for a measured zero", measured.Disturbances)
	}
	if absent.Disturbances != nil {
		t.Errorf("Disturbances = %v, want nil when unmeasured", *absent.Disturbances)
	}

	// The measured perfect night must score higher than one where the
	// metric was simply never recorded
	if measured.Score == nil || absent.Score == nil {
		t.Fatal("Expected scores in both cases")
	}
	if *measured.Score <= *absent.Score {
		t.Errorf("measured-zero score %v should exceed absent score %v", *measured.Score, *absent.Score)
	}
	// (87.5*0.30 + 100*0.14) / 0.44 = 91.4773
	if math.Abs(*measured.Score-91.4773) > 0.001 {
		t.Errorf("measured-zero score = %v, want 91.4773", *measured.Score)
	}
	if math.Abs(*absent.Score-87.5) > 0.001 {
		t.Errorf("absent score = %v, want 87.5", *absent.Score)
	}
}

func TestScoreSleep_NeedPersonalizedTowardBaseline(t *testing.T) {
	profile := DefaultProfile() // 8h need

	sample := &store.DaySample{
		Date:          "2026-03-01",
		SleepDuration: intPtr(27000), // 7.5h
	}
	baseline := &Baseline{SleepDuration: floatPtr(25200)} // athlete averages 7h

	withBaseline := ScoreSleep(sample, baseline, profile)
	withoutBaseline := ScoreSleep(sample, nil, profile)

	// Blended need = (28800 + 25200) / 2 = 27000, so the night is exactly
	// at need with the baseline and undersleeping without it
	if withBaseline.Performance == nil || *withBaseline.Performance != 100 {
		t.Errorf("personalized performance = %v, want 100", withBaseline.Performance)
	}
	if withoutBaseline.Performance == nil || *withoutBaseline.Performance >= 100 {
		t.Errorf("unpersonalized performance = %v, want < 100", withoutBaseline.Performance)
	}
}

func TestSleepPerformanceScore(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		need     float64
		want     float64
	}{
		{"exactly at need", 28800, 28800, 100},
		{"10% under is penalized steeply", 25920, 28800, 87.5},
		{"25% over is penalized gently", 36000, 28800, 85},
		{"severe deprivation floors at zero", 0, 28800, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sleepPerformanceScore(tt.duration, tt.need)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("sleepPerformanceScore(%v, %v) = %v, want %v", tt.duration, tt.need, got, tt.want)
			}
		})
	}
}

func TestStageQualityScore(t *testing.T) {
	tests := []struct {
		prop float64
		want float64
	}{
		{0.20, 50},  // half the ideal floor
		{0.40, 100}, // band edges inclusive
		{0.45, 100},
		{0.55, 100},
		{0.65, 80}, // 10 points over costs 20
	}

	for _, tt := range tests {
		got := stageQualityScore(tt.prop)
		if math.Abs(got-tt.want) > 0.001 {
			t.Errorf("stageQualityScore(%v) = %v, want %v", tt.prop, got, tt.want)
		}
	}
}

func TestDisturbanceScore(t *testing.T) {
	tests := []struct {
		events int
		want   float64
	}{
		{0, 100},
		{4, 50},
		{8, 0},
		{12, 0}, // floors, never negative
	}

	for _, tt := range tests {
		if got := disturbanceScore(tt.events); got != tt.want {
			t.Errorf("disturbanceScore(%d) = %v, want %v", tt.events, got, tt.want)
		}
	}
}

func TestClockDeviation_WrapsMidnight(t *testing.T) {
	// 00:10 vs 23:50 is 20 minutes apart, not 23h40m
	if got := clockDeviation(10, 1430); got != 20 {
		t.Errorf("clockDeviation(10, 1430) = %v, want 20", got)
	}
	if got := clockDeviation(1430, 10); got != 20 {
		t.Errorf("clockDeviation(1430, 10) = %v, want 20", got)
	}
	if got := clockDeviation(600, 600); got != 0 {
		t.Errorf("clockDeviation(600, 600) = %v, want 0", got)
	}
}

func TestTimingScore(t *testing.T) {
	// 90 minutes of average drift scores zero
	if got := timingScore(1470, 510, 1380, 420); got != 0 {
		t.Errorf("timingScore with 90min drift = %v, want 0", got)
	}
	// 45 minutes of average drift scores 50
	if got := timingScore(1425, 465, 1380, 420); math.Abs(got-50) > 0.001 {
		t.Errorf("timingScore with 45min drift = %v, want 50", got)
	}
}

func TestSleepBand(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{85, BandSleepExcellent},
		{80, BandSleepExcellent},
		{79.9, BandSleepGood},
		{60, BandSleepGood},
		{59.9, BandSleepFair},
		{40, BandSleepFair},
		{39.9, BandSleepPoor},
	}

	for _, tt := range tests {
		if got := sleepBand(tt.score); got != tt.want {
			t.Errorf("sleepBand(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}
