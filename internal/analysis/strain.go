package analysis

import (
	"log/slog"
	"math"

	"veloready/internal/store"
)

// maxDailyStrain is the practical ceiling of the strain scale. Source
// material carried both ~18 and 20; 20 is the convention used here.
const maxDailyStrain = 20.0

// restingStrainFloor keeps zero-exercise days above literal zero:
// merely being awake carries some physiological cost.
const restingStrainFloor = 0.3

// Component scale factors
const (
	cardioStrainScale      = 35.0
	strengthStrainScale    = 1.2
	nonExerciseStrainScale = 25.0
)

// recoveryFactor bounds: under-recovery amplifies the perceived cost of
// the same workload by at most 15%, good recovery dampens it likewise.
const recoveryFactorSwing = 0.15

// Strain score bands
const (
	BandStrainLight    = "Light"
	BandStrainModerate = "Moderate"
	BandStrainHard     = "Hard"
	BandStrainVeryHard = "Very Hard"
)

// StrainBands holds the ordered cut points of the band partition.
type StrainBands struct {
	Light    float64 // below this: Light
	Moderate float64 // below this: Moderate
	Hard     float64 // below this: Hard, above: Very Hard
}

// DefaultStrainBands returns the shipped cut points.
func DefaultStrainBands() StrainBands {
	return StrainBands{Light: 6, Moderate: 12, Hard: 16}
}

// StrainInputs gathers everything the day's strain draws on. Every
// field is independently optional.
type StrainInputs struct {
	Sample     *store.DaySample
	Baseline   *Baseline
	Activities []store.Activity
	Sleep      SleepResult
}

// StrainResult is one day's strain with its components kept for
// auditability.
type StrainResult struct {
	Score  float64
	Band   string
	Inputs store.Completeness

	CardioLoad      float64
	StrengthLoad    float64
	NonExerciseLoad float64
	RecoveryFactor  float64
}

// ScoreStrain computes the bounded daily strain from cardio, strength
// and non-exercise components, modulated by the recovery factor and
// capped. Zero-exercise days floor at a small non-zero baseline.
func ScoreStrain(in StrainInputs, profile AthleteProfile, bands StrainBands, logger *slog.Logger) StrainResult {
	res := StrainResult{RecoveryFactor: 1}

	var cardioStress float64
	for i := range in.Activities {
		a := &in.Activities[i]
		load := EstimateCardioLoad(a, profile, logger)

		if isStrengthActivity(a) {
			res.StrengthLoad += strengthFactor(a, profile) * strengthStrainScale
			continue
		}

		stress := load.Value()
		if a.IntensityFactor != nil && *a.IntensityFactor > 0 {
			// Weight intense sessions a little above their raw stress
			stress *= 0.85 + 0.3**a.IntensityFactor
		}
		cardioStress += stress
	}
	if len(in.Activities) > 0 {
		res.Inputs |= store.InputActivities
	}
	res.CardioLoad = cardioFactor(cardioStress) * cardioStrainScale

	if in.Sample != nil && (in.Sample.Steps != nil || in.Sample.ActiveCalories != nil) {
		res.NonExerciseLoad = nonExerciseFactor(in.Sample) * nonExerciseStrainScale
		res.Inputs |= store.InputAmbientMovement
	}

	factor, factorInputs := recoveryFactor(in.Sample, in.Baseline, in.Sleep)
	res.RecoveryFactor = factor
	res.Inputs |= factorInputs

	total := (res.CardioLoad + res.StrengthLoad + res.NonExerciseLoad) * factor
	res.Score = clamp(total, restingStrainFloor, maxDailyStrain)
	res.Band = strainBand(res.Score, bands)
	return res
}

// isStrengthActivity routes sessions with strength markers through the
// RPE/volume model instead of the cardio one.
func isStrengthActivity(a *store.Activity) bool {
	switch a.Type {
	case "WeightTraining", "Workout", "Crossfit":
		return true
	}
	return a.RPE != nil && a.StrengthVolume != nil && bestPower(a) == 0 && a.AverageHR == nil
}

// cardioFactor saturates the day's summed stress so a single monster
// session can't blow past the scale.
func cardioFactor(stress float64) float64 {
	if stress <= 0 {
		return 0
	}
	return stress / (stress + 250)
}

// strengthFactor models perceived session cost from effort, duration
// and volume relative to body mass.
func strengthFactor(a *store.Activity, profile AthleteProfile) float64 {
	rpe := 5.0 // moderate default when unreported
	if a.RPE != nil {
		rpe = clamp(*a.RPE, 1, 10)
	}
	hours := float64(a.MovingTime) / 3600.0

	f := (rpe / 10.0) * hours

	bodyMass := profile.BodyMassKG
	if a.BodyMass != nil && *a.BodyMass > 0 {
		bodyMass = *a.BodyMass
	}
	if a.StrengthVolume != nil && bodyMass > 0 {
		f *= 1 + math.Min(1, *a.StrengthVolume/(bodyMass*100))
	}
	if a.Sets != nil {
		f += 0.02 * float64(*a.Sets)
	}
	return f
}

// nonExerciseFactor captures incidental daily movement (NEAT) from
// steps and active calories.
func nonExerciseFactor(sample *store.DaySample) float64 {
	var f float64
	if sample.Steps != nil {
		f += math.Min(float64(*sample.Steps), 25000) / 25000 * 0.25
	}
	if sample.ActiveCalories != nil {
		f += math.Min(*sample.ActiveCalories, 1250) / 1250 * 0.15
	}
	return f
}

// recoveryFactor converts HRV/RHR deviation from baseline and sleep
// quality into a bounded multiplier around 1.0. Under-recovery makes
// the same workload cost more; good recovery dampens it.
func recoveryFactor(sample *store.DaySample, base *Baseline, sleep SleepResult) (float64, store.Completeness) {
	var wellness, weight float64
	var inputs store.Completeness

	if sample != nil && base != nil {
		if sample.HRV != nil && base.HRV != nil && *base.HRV > 0 {
			wellness += clamp((*sample.HRV-*base.HRV) / *base.HRV * 3, -1, 1)
			weight++
			inputs |= store.InputHRV
		}
		if sample.RestingHR != nil && base.RestingHR != nil && *base.RestingHR > 0 {
			wellness += clamp((*base.RestingHR-*sample.RestingHR) / *base.RestingHR * 5, -1, 1)
			weight++
			inputs |= store.InputRestingHR
		}
	}
	if sleep.Score != nil {
		wellness += clamp((*sleep.Score-50)/50, -1, 1)
		weight++
		inputs |= store.InputSleepSession
	}

	if weight == 0 {
		return 1, 0
	}

	// wellness > 0 means well recovered, which dampens strain
	factor := 1 - recoveryFactorSwing*(wellness/weight)
	return clamp(factor, 1-recoveryFactorSwing, 1+recoveryFactorSwing), inputs
}

func strainBand(score float64, bands StrainBands) string {
	switch {
	case score < bands.Light:
		return BandStrainLight
	case score < bands.Moderate:
		return BandStrainModerate
	case score < bands.Hard:
		return BandStrainHard
	default:
		return BandStrainVeryHard
	}
}
