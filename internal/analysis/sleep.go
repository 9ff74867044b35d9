package analysis

import (
	"math"

	"veloready/internal/store"
)

// Sleep composite weights. Renormalized over the sub-scores whose
// inputs were present; never padded with fabricated values.
const (
	sleepPerformanceWeight = 0.30
	sleepEfficiencyWeight  = 0.22
	sleepStageWeight       = 0.32
	sleepDisturbanceWeight = 0.14
	sleepTimingWeight      = 0.02
)

// Stage-quality ideal band: deep+REM proportion of total sleep
const (
	stageIdealLow  = 0.40
	stageIdealHigh = 0.55
)

// Sleep score bands
const (
	BandSleepPoor      = "Poor"
	BandSleepFair      = "Fair"
	BandSleepGood      = "Good"
	BandSleepExcellent = "Excellent"
)

// BandNoData is the explicit sentinel band for a day whose score could
// not be computed. Downstream consumers suppress their own logic on it
// rather than reasoning from a fabricated mid-range number.
const BandNoData = "No Data"

// SleepResult is one night's composite sleep score with its sub-scores
// retained for auditability. Score is nil when no sleep session was
// recorded at all.
type SleepResult struct {
	Score  *float64
	Band   string
	Inputs store.Completeness

	Performance  *float64
	Efficiency   *float64
	StageQuality *float64
	Disturbances *float64
	Timing       *float64
}

// ScoreSleep computes a 0-100 sleep score from five weighted sub-scores.
// Missing fields are excluded from both numerator and denominator of the
// composite. A night with no sleep session at all produces the explicit
// "no data" sentinel.
func ScoreSleep(sample *store.DaySample, baseline *Baseline, profile AthleteProfile) SleepResult {
	if !sample.HasSleepSession() {
		return SleepResult{Band: BandNoData}
	}

	duration := float64(*sample.SleepDuration)
	res := SleepResult{Inputs: store.InputSleepSession}

	need := profile.SleepNeed
	if need <= 0 {
		need = DefaultProfile().SleepNeed
	}
	if baseline != nil && baseline.SleepDuration != nil && *baseline.SleepDuration > 0 {
		// Personalize need toward the athlete's own recent average
		need = 0.5*need + 0.5**baseline.SleepDuration
	}
	res.Performance = ptr(sleepPerformanceScore(duration, need))

	if sample.TimeInBed != nil && *sample.TimeInBed > 0 {
		res.Efficiency = ptr(sleepEfficiencyScore(duration, float64(*sample.TimeInBed)))
	}

	if sample.DeepSleep != nil && sample.RemSleep != nil && duration > 0 {
		prop := float64(*sample.DeepSleep+*sample.RemSleep) / duration
		res.StageQuality = ptr(stageQualityScore(prop))
	}

	// A measured zero wake events is a real (perfect) observation,
	// strictly better than the field being absent and excluded.
	if sample.WakeEvents != nil {
		res.Disturbances = ptr(disturbanceScore(*sample.WakeEvents))
	}

	if sample.Bedtime != nil && sample.WakeTime != nil &&
		baseline != nil && baseline.Bedtime != nil && baseline.WakeTime != nil {
		res.Timing = ptr(timingScore(
			float64(*sample.Bedtime), float64(*sample.WakeTime),
			*baseline.Bedtime, *baseline.WakeTime,
		))
	}

	score, ok := weightedComposite([]weighted{
		{res.Performance, sleepPerformanceWeight},
		{res.Efficiency, sleepEfficiencyWeight},
		{res.StageQuality, sleepStageWeight},
		{res.Disturbances, sleepDisturbanceWeight},
		{res.Timing, sleepTimingWeight},
	})
	if !ok {
		return SleepResult{Band: BandNoData}
	}

	res.Score = &score
	res.Band = sleepBand(score)
	return res
}

// sleepPerformanceScore peaks at duration ≈ need and falls off both
// sides, with undersleeping penalized more steeply than oversleeping.
func sleepPerformanceScore(duration, need float64) float64 {
	deviation := (duration - need) / need
	if deviation < 0 {
		return clamp(100+deviation*125, 0, 100)
	}
	return clamp(100-deviation*60, 0, 100)
}

// sleepEfficiencyScore maps time-asleep over time-in-bed onto 0-100,
// with >= 95% efficiency scoring full marks.
func sleepEfficiencyScore(duration, timeInBed float64) float64 {
	eff := duration / timeInBed
	return clamp((eff-0.60)/(0.95-0.60)*100, 0, 100)
}

// stageQualityScore rewards a deep+REM proportion inside the ideal
// band, falling off linearly outside it.
func stageQualityScore(prop float64) float64 {
	switch {
	case prop < stageIdealLow:
		return clamp(prop/stageIdealLow*100, 0, 100)
	case prop > stageIdealHigh:
		return clamp(100-(prop-stageIdealHigh)*200, 0, 100)
	default:
		return 100
	}
}

// disturbanceScore is inverse in the wake-event count.
func disturbanceScore(wakeEvents int) float64 {
	return clamp(100-12.5*float64(wakeEvents), 0, 100)
}

// timingScore penalizes deviation of bedtime and waketime from the
// athlete's own baseline, 90 minutes of average drift scoring zero.
func timingScore(bedtime, waketime, baseBed, baseWake float64) float64 {
	drift := (clockDeviation(bedtime, baseBed) + clockDeviation(waketime, baseWake)) / 2
	return clamp(100-drift*(100.0/90.0), 0, 100)
}

// clockDeviation returns minutes between two clock times, shortest way
// around midnight.
func clockDeviation(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > 720 {
		d = 1440 - d
	}
	return d
}

func sleepBand(score float64) string {
	switch {
	case score >= 80:
		return BandSleepExcellent
	case score >= 60:
		return BandSleepGood
	case score >= 40:
		return BandSleepFair
	default:
		return BandSleepPoor
	}
}

// weighted pairs a possibly-absent sub-score with its nominal weight.
type weighted struct {
	score  *float64
	weight float64
}

// weightedComposite combines the present sub-scores with their weights
// renormalized to sum 1. Absent sub-scores are excluded from both
// numerator and denominator. With all present, the result is exactly
// the documented fixed-weight sum. Returns ok=false when nothing was
// present.
func weightedComposite(parts []weighted) (float64, bool) {
	var sum, weightSum float64
	for _, p := range parts {
		if p.score == nil {
			continue
		}
		sum += *p.score * p.weight
		weightSum += p.weight
	}
	if weightSum == 0 {
		return 0, false
	}
	return sum / weightSum, true
}
