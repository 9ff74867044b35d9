package healthsync

import (
	"time"

	"veloready/internal/store"
)

// WellnessDay is one day of physiological data from the VeloHub API.
// Pointer fields carry the wire-level distinction between a missing
// metric and a measured zero straight through to the store.
type WellnessDay struct {
	Date            string   `json:"date"` // YYYY-MM-DD
	HRV             *float64 `json:"hrv"`
	RestingHR       *float64 `json:"resting_hr"`
	SleepSeconds    *int     `json:"sleep_seconds"`
	TimeInBed       *int     `json:"time_in_bed_seconds"`
	DeepSeconds     *int     `json:"deep_seconds"`
	RemSeconds      *int     `json:"rem_seconds"`
	WakeEvents      *int     `json:"wake_events"`
	BedtimeMinutes  *int     `json:"bedtime_minutes"`
	WakeTimeMinutes *int     `json:"wake_time_minutes"`
	RespiratoryRate *float64 `json:"respiratory_rate"`
	Steps           *int     `json:"steps"`
	ActiveCalories  *float64 `json:"active_calories"`
}

// Activity is one completed session from the VeloHub API. The platform
// de-duplicates sessions across connected sources before serving them.
type Activity struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	StartDate       time.Time `json:"start_date"`
	StartDateLocal  time.Time `json:"start_date_local"`
	MovingTime      int       `json:"moving_time"` // seconds
	AveragePower    *float64  `json:"average_watts"`
	NormalizedPower *float64  `json:"weighted_average_watts"`
	AverageHR       *float64  `json:"average_heartrate"`
	MaxHR           *float64  `json:"max_heartrate"`
	TSS             *float64  `json:"tss"`
	IntensityFactor *float64  `json:"intensity_factor"`
	RPE             *float64  `json:"perceived_exertion"`
	StrengthVolume  *float64  `json:"strength_volume"`
	Sets            *int      `json:"sets"`
	BodyMass        *float64  `json:"body_mass"`
}

// toStoreSample converts a wire wellness day to the store model.
func (w *WellnessDay) toStoreSample() *store.DaySample {
	return &store.DaySample{
		Date:            w.Date,
		HRV:             w.HRV,
		RestingHR:       w.RestingHR,
		SleepDuration:   w.SleepSeconds,
		TimeInBed:       w.TimeInBed,
		DeepSleep:       w.DeepSeconds,
		RemSleep:        w.RemSeconds,
		WakeEvents:      w.WakeEvents,
		Bedtime:         w.BedtimeMinutes,
		WakeTime:        w.WakeTimeMinutes,
		RespiratoryRate: w.RespiratoryRate,
		Steps:           w.Steps,
		ActiveCalories:  w.ActiveCalories,
	}
}

// toStoreActivity converts a wire activity to the store model.
func (a *Activity) toStoreActivity() *store.Activity {
	return &store.Activity{
		ID:              a.ID,
		Name:            a.Name,
		Type:            a.Type,
		StartDate:       a.StartDate,
		StartDateLocal:  a.StartDateLocal,
		MovingTime:      a.MovingTime,
		AveragePower:    a.AveragePower,
		NormalizedPower: a.NormalizedPower,
		AverageHR:       a.AverageHR,
		MaxHR:           a.MaxHR,
		PlatformTSS:     a.TSS,
		IntensityFactor: a.IntensityFactor,
		RPE:             a.RPE,
		StrengthVolume:  a.StrengthVolume,
		Sets:            a.Sets,
		BodyMass:        a.BodyMass,
	}
}
