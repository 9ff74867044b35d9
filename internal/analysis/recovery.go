package analysis

import (
	"math"

	"veloready/internal/store"
)

// Recovery composite weights, renormalized over present sub-scores.
const (
	recoveryHRVWeight         = 0.30
	recoveryRHRWeight         = 0.20
	recoverySleepWeight       = 0.30
	recoveryRespiratoryWeight = 0.10
	recoveryFormWeight        = 0.10
)

// Recovery score bands
const (
	BandRecoveryRed   = "Red"
	BandRecoveryAmber = "Amber"
	BandRecoveryGreen = "Green"
	BandRecoveryPeak  = "Peak"
)

// AnomalyConfig tunes the compound-anomaly (alcohol signature) detector.
// The joint suppression pattern and the sleep-data precondition are
// fixed; the thresholds are calibration knobs.
type AnomalyConfig struct {
	// Threshold the summed deviation score must exceed to fire
	Threshold float64
	// PenaltyScale converts excess deviation into a score multiplier
	PenaltyScale float64
	// MaxPenalty bounds the multiplier from below
	MaxPenalty float64
}

// DefaultAnomalyConfig returns the shipped calibration.
func DefaultAnomalyConfig() AnomalyConfig {
	return AnomalyConfig{
		Threshold:    0.45,
		PenaltyScale: 0.5,
		MaxPenalty:   0.75,
	}
}

// RecoveryInputs gathers everything the recovery composite draws on.
// Every field is independently optional.
type RecoveryInputs struct {
	Sample   *store.DaySample
	Baseline *Baseline
	// Sleep is the day's sleep composite; its nil Score suppresses the
	// sleep contribution and the anomaly detector.
	Sleep SleepResult
	// Load is the day's training-load point, nil before any history.
	Load *store.TrainingLoadPoint
	// YesterdayTSS dampens form when yesterday was a big day.
	YesterdayTSS float64
}

// RecoveryResult is one day's recovery composite with sub-scores kept
// for auditability. Score is nil when no sub-score input was present.
type RecoveryResult struct {
	Score  *float64
	Band   string
	Inputs store.Completeness

	HRVScore         *float64
	RHRScore         *float64
	SleepScore       *float64
	RespiratoryScore *float64
	FormScore        *float64

	// AnomalyApplied reports that the compound-effect penalty fired.
	AnomalyApplied bool
}

// ScoreRecovery computes a 0-100 recovery score from independently
// nilable sub-scores. Absent inputs are excluded from both numerator
// and denominator, never treated as zero. With every input absent, the
// result is the explicit insufficient-data sentinel.
func ScoreRecovery(in RecoveryInputs, cfg AnomalyConfig) RecoveryResult {
	res := RecoveryResult{}

	sample := in.Sample
	base := in.Baseline

	if sample != nil && base != nil {
		if sample.HRV != nil && base.HRV != nil && *base.HRV > 0 && *sample.HRV > 0 {
			res.HRVScore = ptr(hrvScore(*sample.HRV, *base.HRV))
			res.Inputs |= store.InputHRV
		}
		if sample.RestingHR != nil && base.RestingHR != nil && *base.RestingHR > 0 {
			res.RHRScore = ptr(rhrScore(*sample.RestingHR, *base.RestingHR))
			res.Inputs |= store.InputRestingHR
		}
		if sample.RespiratoryRate != nil && base.RespiratoryRate != nil && *base.RespiratoryRate > 0 {
			res.RespiratoryScore = ptr(respiratoryScore(*sample.RespiratoryRate, *base.RespiratoryRate))
			res.Inputs |= store.InputRespiratoryRate
		}
	}

	if in.Sleep.Score != nil {
		res.SleepScore = in.Sleep.Score
		res.Inputs |= store.InputSleepSession
	}

	if in.Load != nil {
		res.FormScore = ptr(formScore(in.Load.TSB(), in.YesterdayTSS))
		res.Inputs |= store.InputTrainingLoad
	}

	score, ok := weightedComposite([]weighted{
		{res.HRVScore, recoveryHRVWeight},
		{res.RHRScore, recoveryRHRWeight},
		{res.SleepScore, recoverySleepWeight},
		{res.RespiratoryScore, recoveryRespiratoryWeight},
		{res.FormScore, recoveryFormWeight},
	})
	if !ok {
		return RecoveryResult{Band: BandNoData}
	}

	// The compound detector is disabled entirely without sleep data:
	// HRV and RHR alone produce too many false positives.
	if in.Sleep.Score != nil {
		if penalty, fired := compoundAnomalyPenalty(sample, base, in.Sleep, cfg); fired {
			score = clamp(score*penalty, 0, 100)
			res.AnomalyApplied = true
		}
	}

	res.Score = &score
	res.Band = recoveryBand(score)
	return res
}

// hrvScore maps the log-ratio of the day's HRV to its baseline onto
// 0-100; 50 is exactly at baseline.
func hrvScore(hrv, baseline float64) float64 {
	return clamp(50+100*math.Log(hrv/baseline), 0, 100)
}

// rhrScore rewards a resting heart rate below baseline; 50 is exactly
// at baseline.
func rhrScore(rhr, baseline float64) float64 {
	deviation := (baseline - rhr) / baseline
	return clamp(50+deviation*500, 0, 100)
}

// respiratoryScore penalizes elevation above the baseline respiratory
// rate; 50 is exactly at baseline.
func respiratoryScore(rate, baseline float64) float64 {
	deviation := (rate - baseline) / baseline
	return clamp(50-deviation*500, 0, 100)
}

// formScore maps training stress balance onto 0-100, damped when
// yesterday carried a heavy load that the acute trend hasn't fully
// absorbed yet.
func formScore(tsb, yesterdayTSS float64) float64 {
	return clamp(50+2*tsb-0.05*yesterdayTSS, 0, 100)
}

// compoundAnomalyPenalty detects the joint signature of suppressed HRV,
// elevated RHR and degraded sleep quality. All three deviations must be
// present and their sum must exceed the calibrated threshold.
// Precondition: the day has sleep data (enforced by the caller).
func compoundAnomalyPenalty(sample *store.DaySample, base *Baseline, sleep SleepResult, cfg AnomalyConfig) (float64, bool) {
	if sample == nil || base == nil ||
		sample.HRV == nil || base.HRV == nil || *base.HRV <= 0 ||
		sample.RestingHR == nil || base.RestingHR == nil || *base.RestingHR <= 0 ||
		sleep.Score == nil {
		return 1, false
	}

	hrvSuppression := math.Max(0, (*base.HRV-*sample.HRV) / *base.HRV)
	rhrElevation := math.Max(0, (*sample.RestingHR-*base.RestingHR) / *base.RestingHR)
	sleepDegradation := math.Max(0, (70-*sleep.Score)/70)

	if hrvSuppression == 0 || rhrElevation == 0 || sleepDegradation == 0 {
		return 1, false
	}

	compound := hrvSuppression + rhrElevation + sleepDegradation
	if compound <= cfg.Threshold {
		return 1, false
	}

	penalty := clamp(1-cfg.PenaltyScale*(compound-cfg.Threshold), cfg.MaxPenalty, 1)
	return penalty, true
}

func recoveryBand(score float64) string {
	switch {
	case score >= 90:
		return BandRecoveryPeak
	case score >= 66:
		return BandRecoveryGreen
	case score >= 33:
		return BandRecoveryAmber
	default:
		return BandRecoveryRed
	}
}
