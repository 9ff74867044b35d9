package analysis

import "math"

// AthleteProfile holds the athlete physiology the calculators normalize
// against. Zero values mean "not configured"; each calculator degrades
// along its documented fallback chain rather than erroring.
type AthleteProfile struct {
	FTP        float64 // watts, functional threshold power
	MaxHR      float64 // bpm
	RestingHR  float64 // bpm
	BodyMassKG float64
	SleepNeed  float64 // seconds of sleep per night
}

// DefaultProfile returns sensible defaults if not configured
func DefaultProfile() AthleteProfile {
	return AthleteProfile{
		FTP:        200,
		MaxHR:      185,
		RestingHR:  50,
		BodyMassKG: 75,
		SleepNeed:  8 * 3600,
	}
}

// HasHRZones reports whether the profile carries a usable heart-rate
// reserve for TRIMP calculations.
func (p AthleteProfile) HasHRZones() bool {
	return p.MaxHR > p.RestingHR && p.RestingHR > 0
}

// Baseline is a rolling reference (7-day mean) for the day's vitals,
// supplied by an external collaborator. A nil field means insufficient
// history for that metric; the dependent sub-score is then excluded.
type Baseline struct {
	HRV             *float64 // ms
	RestingHR       *float64 // bpm
	SleepDuration   *float64 // seconds
	RespiratoryRate *float64 // breaths/min
	Bedtime         *float64 // minutes after midnight
	WakeTime        *float64 // minutes after midnight
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func ptr(v float64) *float64 { return &v }
