package analysis

import (
	"log/slog"
	"math"

	"veloready/internal/store"
)

// LoadSource identifies which rung of the data-availability priority
// chain produced an activity's load estimate. Persisted nowhere, but
// surfaced so callers can audit fallback decisions.
type LoadSource int

const (
	SourceNone LoadSource = iota
	SourcePower
	SourcePlatform
	SourceHeartRate
	SourceDurationOnly
)

// String returns the metric label for the source.
func (s LoadSource) String() string {
	switch s {
	case SourcePower:
		return "power"
	case SourcePlatform:
		return "platform"
	case SourceHeartRate:
		return "heart_rate"
	case SourceDurationOnly:
		return "duration_only"
	default:
		return "none"
	}
}

// CardioLoad is one activity's normalized training stress. TSS and TRIMP
// are independently optional; Source records the rung of the priority
// chain that produced them.
type CardioLoad struct {
	TSS    *float64
	TRIMP  *float64
	Source LoadSource
}

// Value returns the best available stress number for the daily load
// recurrence: TSS when known, else the TRIMP approximation, else zero.
func (c CardioLoad) Value() float64 {
	if c.TSS != nil {
		return *c.TSS
	}
	if c.TRIMP != nil {
		return *c.TRIMP
	}
	return 0
}

// Gender coefficient for the Banister TRIMP exponential (male default)
const trimpExponent = 1.92

// Threshold TRIMP for 1 hour at lactate threshold (~88% max HR),
// used to convert TRIMP to an HR-based TSS
const thresholdTRIMPPerHour = 100.0

// Conservative per-minute TRIMP when only duration is known
// (moderate-intensity assumption)
const durationOnlyTRIMPPerMinute = 0.6

// EstimateCardioLoad converts one activity into TSS/TRIMP through a
// strict priority chain, because input completeness varies by source:
//
//  1. power + FTP: tss = 100 * hours * IF^2
//  2. source-supplied TSS used verbatim
//  3. heart rate: Banister TRIMP converted to an HR-based TSS
//  4. duration only: conservative moderate-intensity TRIMP
//
// An activity lacking even duration contributes zero load and is
// logged, never silently dropped.
func EstimateCardioLoad(a *store.Activity, profile AthleteProfile, logger *slog.Logger) CardioLoad {
	if logger == nil {
		logger = slog.Default()
	}

	if a.MovingTime <= 0 {
		logger.Warn("activity has no duration, contributes zero load",
			"activity_id", a.ID, "type", a.Type)
		return CardioLoad{Source: SourceNone}
	}

	hours := float64(a.MovingTime) / 3600.0
	minutes := float64(a.MovingTime) / 60.0

	// TRIMP is computable independently of the TSS chain whenever the
	// HR triad is present; keep it alongside whichever TSS wins.
	trimp := banisterTRIMP(a, profile, minutes)

	if power := bestPower(a); power > 0 && profile.FTP > 0 {
		intensity := power / profile.FTP
		tss := 100 * hours * intensity * intensity
		return CardioLoad{TSS: &tss, TRIMP: trimp, Source: SourcePower}
	}

	if a.PlatformTSS != nil {
		// Trust a power-meter platform's own number
		tss := *a.PlatformTSS
		return CardioLoad{TSS: &tss, TRIMP: trimp, Source: SourcePlatform}
	}

	if trimp != nil {
		tss := *trimp / thresholdTRIMPPerHour * 100
		return CardioLoad{TSS: &tss, TRIMP: trimp, Source: SourceHeartRate}
	}

	fallback := minutes * durationOnlyTRIMPPerMinute
	logger.Info("no power, platform TSS or heart rate; using duration-only TRIMP",
		"activity_id", a.ID, "type", a.Type, "trimp", fallback)
	return CardioLoad{TRIMP: &fallback, Source: SourceDurationOnly}
}

// bestPower prefers normalized power over average power.
func bestPower(a *store.Activity) float64 {
	if a.NormalizedPower != nil && *a.NormalizedPower > 0 {
		return *a.NormalizedPower
	}
	if a.AveragePower != nil && *a.AveragePower > 0 {
		return *a.AveragePower
	}
	return 0
}

// banisterTRIMP calculates Training Impulse (Banister model)
// TRIMP = duration (min) * ΔHR ratio * e^(b * ΔHR ratio)
// Requires average HR, max HR and resting HR all known; returns nil
// otherwise.
func banisterTRIMP(a *store.Activity, profile AthleteProfile, minutes float64) *float64 {
	if a.AverageHR == nil || *a.AverageHR <= 0 {
		return nil
	}

	maxHR := profile.MaxHR
	if a.MaxHR != nil && *a.MaxHR > maxHR {
		maxHR = *a.MaxHR
	}
	restingHR := profile.RestingHR

	hrReserve := maxHR - restingHR
	if hrReserve <= 0 || restingHR <= 0 {
		return nil
	}

	hrRatio := clamp((*a.AverageHR-restingHR)/hrReserve, 0, 1)
	trimp := minutes * hrRatio * math.Exp(trimpExponent*hrRatio)
	return &trimp
}
