package analysis

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"veloready/internal/store"
)

// ErrInvalidRange is returned when a progressive computation is asked
// for a reversed date range. This is a caller bug, never a data state.
var ErrInvalidRange = errors.New("training load range end precedes start")

// EMA decay constants derived from the 42-day chronic and 7-day acute
// time constants
const (
	ctlTimeConstantDays = 42
	atlTimeConstantDays = 7

	ctlAlpha = 2.0 / (ctlTimeConstantDays + 1)
	atlAlpha = 2.0 / (atlTimeConstantDays + 1)
)

// Cold-start seeding: with less than a full chronic window of history,
// seed from the mean TSS of the earliest seedSampleDays of data, scaled
// down so week one doesn't read artificially fresh.
const (
	seedSampleDays = 7
	ctlSeedFactor  = 0.7
	atlSeedFactor  = 0.4
)

// ChronicWindow returns the span of the chronic time constant, the
// history length below which cold-start seeding applies.
func ChronicWindow() time.Duration {
	return ctlTimeConstantDays * 24 * time.Hour
}

// DailyTSS is one day's summed training stress.
type DailyTSS struct {
	Date string // YYYY-MM-DD
	TSS  float64
}

// StepLoad advances the CTL/ATL recurrence by one day. Rest days pass
// tss = 0 so both loads decay.
func StepLoad(prevCTL, prevATL, tss float64) (ctl, atl float64) {
	ctl = prevCTL + (tss-prevCTL)*ctlAlpha
	atl = prevATL + (tss-prevATL)*atlAlpha
	return ctl, atl
}

// SeedLoad derives a starting CTL/ATL for an athlete whose history is
// shorter than the chronic time constant. It averages the earliest
// seedSampleDays of non-empty history. No history at all yields the
// valid "untrained" state CTL = ATL = 0.
func SeedLoad(history []DailyTSS) store.TrainingLoadPoint {
	if len(history) == 0 {
		return store.TrainingLoadPoint{}
	}

	sorted := make([]DailyTSS, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	n := seedSampleDays
	if len(sorted) < n {
		n = len(sorted)
	}
	var sum float64
	for _, d := range sorted[:n] {
		sum += d.TSS
	}
	mean := sum / float64(n)

	return store.TrainingLoadPoint{
		CTL: mean * ctlSeedFactor,
		ATL: mean * atlSeedFactor,
	}
}

// ProgressiveLoad emits one TrainingLoadPoint per calendar day in
// [start, end], strictly in chronological order. Days missing from
// tssByDay contribute zero stress. seed carries the prior day's point;
// nil seeds from the untrained state. Re-chunking a range and
// re-seeding each chunk with the previous chunk's last point reproduces
// the single-pass series exactly.
func ProgressiveLoad(start, end time.Time, tssByDay map[string]float64, seed *store.TrainingLoadPoint) ([]store.TrainingLoadPoint, error) {
	startDay := start.Truncate(24 * time.Hour)
	endDay := end.Truncate(24 * time.Hour)
	if endDay.Before(startDay) {
		return nil, fmt.Errorf("%s before %s: %w",
			endDay.Format(store.DateFormat), startDay.Format(store.DateFormat), ErrInvalidRange)
	}

	var ctl, atl float64
	if seed != nil {
		ctl, atl = seed.CTL, seed.ATL
	}

	var points []store.TrainingLoadPoint
	for d := startDay; !d.After(endDay); d = d.AddDate(0, 0, 1) {
		key := d.Format(store.DateFormat)
		tss := tssByDay[key] // 0 if rest day

		ctl, atl = StepLoad(ctl, atl, tss)
		points = append(points, store.TrainingLoadPoint{Date: key, CTL: ctl, ATL: atl})
	}

	return points, nil
}

// FormDescription returns a human-readable description of TSB
func FormDescription(tsb float64) string {
	switch {
	case tsb > 25:
		return "Very fresh (possibly detrained)"
	case tsb > 10:
		return "Fresh and ready to race"
	case tsb > 0:
		return "Neutral - good for training"
	case tsb > -10:
		return "Slightly fatigued"
	case tsb > -25:
		return "Tired but building fitness"
	default:
		return "Very fatigued - rest needed"
	}
}
