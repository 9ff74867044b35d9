package store

import (
	"math/bits"
	"time"
)

// DateFormat is the canonical day key used throughout the store.
const DateFormat = "2006-01-02"

// DayKey formats a timestamp as the canonical day key in local time.
func DayKey(t time.Time) string {
	return t.Format(DateFormat)
}

// DaySample holds one day's raw physiological inputs. Every field is
// independently optional: a nil pointer means the metric was never
// measured that day, which downstream formulas treat differently from a
// measured zero.
type DaySample struct {
	Date            string   `db:"date"`             // YYYY-MM-DD
	HRV             *float64 `db:"hrv"`              // ms, rMSSD
	RestingHR       *float64 `db:"resting_hr"`       // bpm
	SleepDuration   *int     `db:"sleep_duration"`   // seconds asleep
	TimeInBed       *int     `db:"time_in_bed"`      // seconds
	DeepSleep       *int     `db:"deep_sleep"`       // seconds
	RemSleep        *int     `db:"rem_sleep"`        // seconds
	WakeEvents      *int     `db:"wake_events"`      // count
	Bedtime         *int     `db:"bedtime"`          // minutes after midnight
	WakeTime        *int     `db:"wake_time"`        // minutes after midnight
	RespiratoryRate *float64 `db:"respiratory_rate"` // breaths/min
	Steps           *int     `db:"steps"`
	ActiveCalories  *float64 `db:"active_calories"` // kcal
}

// HasSleepSession reports whether the day has any recorded sleep at all.
// Sleep-dependent logic (stage scoring, the compound-anomaly detector)
// must be suppressed entirely when this is false.
func (s *DaySample) HasSleepSession() bool {
	return s != nil && s.SleepDuration != nil
}

// Activity is one completed training session. Sessions are assumed
// already de-duplicated across source platforms by the ingestion layer.
type Activity struct {
	ID              int64     `db:"id"`
	Name            string    `db:"name"`
	Type            string    `db:"type"` // "Ride", "Run", "WeightTraining", ...
	StartDate       time.Time `db:"start_date"`
	StartDateLocal  time.Time `db:"start_date_local"`
	MovingTime      int       `db:"moving_time"`      // seconds
	AveragePower    *float64  `db:"average_power"`    // watts
	NormalizedPower *float64  `db:"normalized_power"` // watts
	AverageHR       *float64  `db:"average_hr"`       // bpm
	MaxHR           *float64  `db:"max_hr"`           // bpm
	PlatformTSS     *float64  `db:"platform_tss"`     // source-supplied TSS
	IntensityFactor *float64  `db:"intensity_factor"` // source-supplied IF
	RPE             *float64  `db:"rpe"`              // 1-10 perceived effort
	StrengthVolume  *float64  `db:"strength_volume"`  // kg * reps
	Sets            *int      `db:"sets"`
	BodyMass        *float64  `db:"body_mass"` // kg at session time
}

// Day returns the local calendar day the activity belongs to.
func (a *Activity) Day() string {
	return DayKey(a.StartDateLocal)
}

// Completeness is a bitmask of the input groups that were present when a
// score was computed. Writes to a day's score are monotonic in
// completeness: a recompute from fewer inputs must never replace a score
// computed from more.
type Completeness uint16

const (
	InputHRV Completeness = 1 << iota
	InputRestingHR
	InputSleepSession
	InputRespiratoryRate
	InputTrainingLoad
	InputActivities
	InputAmbientMovement
)

// Count returns the number of input groups present.
func (c Completeness) Count() int {
	return bits.OnesCount16(uint16(c))
}

// AtLeast reports whether writing c over prev would preserve the
// monotonic-completeness invariant.
func (c Completeness) AtLeast(prev Completeness) bool {
	return c.Count() >= prev.Count()
}

// FamilyScore is one score family's slice of a day's record. A nil Score
// with a non-nil FamilyScore means the family was evaluated but had
// insufficient data, an explicit sentinel distinct from a low score.
type FamilyScore struct {
	Score  *float64
	Band   string
	Inputs Completeness
}

// Equal reports whether two family slices carry the same value, band and
// completeness. Used to elide no-op upserts.
func (f *FamilyScore) Equal(other *FamilyScore) bool {
	if f == nil || other == nil {
		return f == other
	}
	if f.Band != other.Band || f.Inputs != other.Inputs {
		return false
	}
	if (f.Score == nil) != (other.Score == nil) {
		return false
	}
	return f.Score == nil || *f.Score == *other.Score
}

// ScoreRecord is one day's computed composite scores. Families are
// independently optional so that a partial upsert can improve one family
// without touching the others.
type ScoreRecord struct {
	Date       string // YYYY-MM-DD
	Recovery   *FamilyScore
	Sleep      *FamilyScore
	Strain     *FamilyScore
	ComputedAt time.Time
}

// TrainingLoadPoint is one day of the chronic/acute load recurrence.
// TSB is derived, never stored.
type TrainingLoadPoint struct {
	Date string // YYYY-MM-DD
	CTL  float64
	ATL  float64
}

// TSB returns the training stress balance (form) for the point.
func (p TrainingLoadPoint) TSB() float64 {
	return p.CTL - p.ATL
}

// Auth holds OAuth tokens for the health-platform API.
type Auth struct {
	AthleteID    int64     `db:"athlete_id"`
	AccessToken  string    `db:"access_token"`
	RefreshToken string    `db:"refresh_token"`
	ExpiresAt    time.Time `db:"expires_at"`
}
