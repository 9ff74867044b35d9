// Package backfill maintains the derived per-day records, composite
// scores and training-load points, over a trailing window without
// destroying good data or recomputing redundantly.
package backfill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/singleflight"

	"veloready/internal/analysis"
	"veloready/internal/metrics"
	"veloready/internal/provider"
	"veloready/internal/store"
)

// Config tunes the scheduler. Zero values fall back to defaults.
type Config struct {
	WindowDays int           // trailing window to maintain
	Throttle   time.Duration // minimum interval between passes per family
	Profile    analysis.AthleteProfile
	Anomaly    analysis.AnomalyConfig
	Bands      analysis.StrainBands
}

// DefaultConfig returns the shipped scheduler settings.
func DefaultConfig() Config {
	return Config{
		WindowDays: 60,
		Throttle:   24 * time.Hour,
		Profile:    analysis.DefaultProfile(),
		Anomaly:    analysis.DefaultAnomalyConfig(),
		Bands:      analysis.DefaultStrainBands(),
	}
}

// Service orchestrates recomputation of scores and training load over a
// historical window and serves the computed records.
type Service struct {
	store      *store.Store
	samples    provider.SampleProvider
	activities provider.ActivityProvider
	baselines  provider.BaselineProvider
	cfg        Config
	logger     *slog.Logger
	group      singleflight.Group
	now        func() time.Time
}

// New creates a scheduler over the given store and collaborators.
func New(s *store.Store, samples provider.SampleProvider, activities provider.ActivityProvider, baselines provider.BaselineProvider, cfg Config, logger *slog.Logger) *Service {
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = DefaultConfig().WindowDays
	}
	if cfg.Throttle <= 0 {
		cfg.Throttle = DefaultConfig().Throttle
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      s,
		samples:    samples,
		activities: activities,
		baselines:  baselines,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Report aggregates per-day outcomes of one backfill run. A day appears
// under Updated if any family wrote it, under Skipped if a collaborator
// failed for it, and under Errored if a write failed.
type Report struct {
	UpdatedDays []string
	SkippedDays []string
	ErroredDays []string
	// ThrottledFamilies lists families whose full pass was elided
	// because they ran within the throttle interval.
	ThrottledFamilies []string
}

func (r *Report) merge(other *Report) {
	r.UpdatedDays = appendUnique(r.UpdatedDays, other.UpdatedDays...)
	r.SkippedDays = appendUnique(r.SkippedDays, other.SkippedDays...)
	r.ErroredDays = appendUnique(r.ErroredDays, other.ErroredDays...)
	r.ThrottledFamilies = append(r.ThrottledFamilies, other.ThrottledFamilies...)
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		seen := false
		for _, d := range dst {
			if d == v {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, v)
		}
	}
	return dst
}

// scoreFamilies is the recompute order. Training load runs first
// because the recovery form sub-score reads its points.
var scoreFamilies = []string{
	metrics.FamilyTrainingLoad,
	metrics.FamilySleep,
	metrics.FamilyStrain,
	metrics.FamilyRecovery,
}

// RunBackfill recomputes the trailing window for every score family.
// window <= 0 uses the configured default. Each family pass is
// single-flighted: a concurrent caller awaits the in-flight pass and
// shares its result. With force false, a family that completed a pass
// within the throttle interval only recomputes today, whose inputs
// change intraday.
func (s *Service) RunBackfill(ctx context.Context, window int, force bool) (*Report, error) {
	if window <= 0 {
		window = s.cfg.WindowDays
	}

	metrics.BackfillActive.Set(1)
	defer metrics.BackfillActive.Set(0)

	report := &Report{}
	for _, family := range scoreFamilies {
		res, err, _ := s.group.Do(family, func() (any, error) {
			return s.runFamily(ctx, family, window, force)
		})
		if err != nil {
			return report, fmt.Errorf("backfill %s: %w", family, err)
		}
		report.merge(res.(*Report))
	}
	return report, nil
}

// runFamily performs one family's pass over the window.
func (s *Service) runFamily(ctx context.Context, family string, window int, force bool) (*Report, error) {
	report := &Report{}
	today := store.DayKey(s.now())

	days := s.windowDays(window)
	throttled := false
	if !force {
		lastRun, err := s.store.GetLastBackfill(ctx, family)
		if err != nil {
			return report, fmt.Errorf("reading last run: %w", err)
		}
		if !lastRun.IsZero() && s.now().Sub(lastRun) < s.cfg.Throttle {
			// Today bypasses the throttle: its inputs change intraday.
			metrics.BackfillThrottledTotal.WithLabelValues(family).Inc()
			report.ThrottledFamilies = append(report.ThrottledFamilies, family)
			throttled = true
			days = []string{today}
		}
	}

	var err error
	if family == metrics.FamilyTrainingLoad {
		err = s.trainingLoadPass(ctx, days, report)
	} else {
		err = s.scorePass(ctx, family, days, report)
	}
	if err != nil {
		return report, err
	}

	if !throttled {
		// Only a full pass resets the throttle clock
		if err := s.store.SetLastBackfill(ctx, family, s.now()); err != nil {
			return report, fmt.Errorf("recording last run: %w", err)
		}
	}
	metrics.BackfillPassesTotal.WithLabelValues(family).Inc()

	s.logger.Info("backfill pass complete", "family", family,
		"days", len(days), "updated", len(report.UpdatedDays),
		"skipped", len(report.SkippedDays), "errored", len(report.ErroredDays))
	return report, nil
}

// windowDays lists the trailing window oldest-first, ending on the
// local calendar day. Truncating the clock reading would snap to the
// UTC boundary and point at the wrong day east of UTC, so the day is
// rebuilt from its local date components.
func (s *Service) windowDays(window int) []string {
	y, m, d := s.now().Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	days := make([]string, 0, window)
	for i := window - 1; i >= 0; i-- {
		days = append(days, store.DayKey(end.AddDate(0, 0, -i)))
	}
	return days
}

// trainingLoadPass recomputes the CTL/ATL series covering the window.
// The recurrence needs an unbroken daily history, so the pass extends
// back to the earliest stored activity when no prior point exists, and
// cold-starts with the seeded load when history is short.
func (s *Service) trainingLoadPass(ctx context.Context, days []string, report *Report) error {
	if len(days) == 0 {
		return nil
	}
	windowStart := days[0]

	start := windowStart
	var seed *store.TrainingLoadPoint

	prior, err := s.store.GetTrainingLoadBefore(ctx, windowStart)
	switch {
	case err == nil:
		seed = prior
	case errors.Is(err, store.ErrNoRecord):
		earliest, err := s.store.EarliestActivityDay(ctx)
		if err != nil {
			return fmt.Errorf("finding earliest activity: %w", err)
		}
		if earliest != "" && earliest < windowStart {
			start = earliest
		}
	default:
		return fmt.Errorf("reading prior load point: %w", err)
	}

	startDay, err := time.Parse(store.DateFormat, start)
	if err != nil {
		return err
	}
	endDay, err := time.Parse(store.DateFormat, days[len(days)-1])
	if err != nil {
		return err
	}

	tssByDay := make(map[string]float64)
	var history []analysis.DailyTSS
	for d := startDay; !d.After(endDay); d = d.AddDate(0, 0, 1) {
		key := store.DayKey(d)
		activities, err := s.activities.Activities(ctx, key)
		if err != nil {
			// The day still enters the recurrence as a rest day so the
			// series stays unbroken; it is reported, not aborted on.
			s.logger.Warn("activity provider failed, day skipped", "date", key, "error", err)
			metrics.BackfillDaysTotal.WithLabelValues(metrics.FamilyTrainingLoad, metrics.OutcomeSkipped).Inc()
			report.SkippedDays = appendUnique(report.SkippedDays, key)
			continue
		}
		var tss float64
		for i := range activities {
			load := analysis.EstimateCardioLoad(&activities[i], s.cfg.Profile, s.logger)
			metrics.CardioLoadSourceTotal.WithLabelValues(load.Source.String()).Inc()
			tss += load.Value()
		}
		tssByDay[key] = tss
		history = append(history, analysis.DailyTSS{Date: key, TSS: tss})
	}

	if seed == nil && endDay.Sub(startDay) < analysis.ChronicWindow() {
		seeded := analysis.SeedLoad(history)
		seed = &seeded
	}

	points, err := analysis.ProgressiveLoad(startDay, endDay, tssByDay, seed)
	if err != nil {
		return err
	}

	for i := range points {
		p := &points[i]
		existing, err := s.store.GetTrainingLoadPoint(ctx, p.Date)
		if err == nil && loadEqual(existing, p) {
			metrics.BackfillDaysTotal.WithLabelValues(metrics.FamilyTrainingLoad, metrics.OutcomeUnchanged).Inc()
			continue
		}
		if err != nil && !errors.Is(err, store.ErrNoRecord) {
			return fmt.Errorf("reading load point %s: %w", p.Date, err)
		}
		if err := s.store.UpsertTrainingLoadPoint(ctx, p); err != nil {
			metrics.BackfillDaysTotal.WithLabelValues(metrics.FamilyTrainingLoad, metrics.OutcomeErrored).Inc()
			report.ErroredDays = appendUnique(report.ErroredDays, p.Date)
			return fmt.Errorf("writing load point %s: %w", p.Date, err)
		}
		metrics.BackfillDaysTotal.WithLabelValues(metrics.FamilyTrainingLoad, metrics.OutcomeUpdated).Inc()
		report.UpdatedDays = appendUnique(report.UpdatedDays, p.Date)
	}
	return nil
}

func loadEqual(a, b *store.TrainingLoadPoint) bool {
	const eps = 1e-9
	return math.Abs(a.CTL-b.CTL) < eps && math.Abs(a.ATL-b.ATL) < eps
}

// scorePass recomputes one composite-score family over the window days.
// A day is written only when absent or when today's inputs allow a
// completeness at least as high as what is stored; identical recomputes
// are elided so an immediate second pass performs zero writes.
func (s *Service) scorePass(ctx context.Context, family string, days []string, report *Report) error {
	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return err
		}

		prospective, err := s.computeFamily(ctx, family, day)
		if err != nil {
			// Upstream failure: the day is skipped, the window continues
			s.logger.Warn("day skipped", "family", family, "date", day, "error", err)
			metrics.BackfillDaysTotal.WithLabelValues(family, metrics.OutcomeSkipped).Inc()
			report.SkippedDays = appendUnique(report.SkippedDays, day)
			continue
		}

		existing, err := s.store.GetScoreRecord(ctx, day)
		if err != nil && !errors.Is(err, store.ErrNoRecord) {
			return fmt.Errorf("reading record %s: %w", day, err)
		}

		var current *store.FamilyScore
		if existing != nil {
			current = familyOf(existing, family)
		}
		if current != nil {
			if !prospective.Inputs.AtLeast(current.Inputs) {
				// Inputs got worse (source data retracted); keeping the
				// better historical score is the whole point.
				metrics.BackfillDaysTotal.WithLabelValues(family, metrics.OutcomeUnchanged).Inc()
				continue
			}
			if prospective.Equal(current) {
				metrics.BackfillDaysTotal.WithLabelValues(family, metrics.OutcomeUnchanged).Inc()
				continue
			}
		}

		rec := &store.ScoreRecord{Date: day}
		setFamily(rec, family, prospective)
		if err := s.store.UpsertScores(ctx, rec); err != nil {
			metrics.BackfillDaysTotal.WithLabelValues(family, metrics.OutcomeErrored).Inc()
			report.ErroredDays = appendUnique(report.ErroredDays, day)
			return fmt.Errorf("writing %s for %s: %w", family, day, err)
		}
		metrics.BackfillDaysTotal.WithLabelValues(family, metrics.OutcomeUpdated).Inc()
		report.UpdatedDays = appendUnique(report.UpdatedDays, day)
	}
	return nil
}

// computeFamily evaluates one family's score for one day from current
// provider inputs.
func (s *Service) computeFamily(ctx context.Context, family, day string) (*store.FamilyScore, error) {
	sample, err := s.samples.Sample(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("fetching sample: %w", err)
	}
	baseline, err := s.baselines.Baselines(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("fetching baselines: %w", err)
	}

	sleep := analysis.ScoreSleep(sample, baseline, s.cfg.Profile)

	switch family {
	case metrics.FamilySleep:
		return &store.FamilyScore{Score: sleep.Score, Band: sleep.Band, Inputs: sleep.Inputs}, nil

	case metrics.FamilyStrain:
		activities, err := s.activities.Activities(ctx, day)
		if err != nil {
			return nil, fmt.Errorf("fetching activities: %w", err)
		}
		res := analysis.ScoreStrain(analysis.StrainInputs{
			Sample:     sample,
			Baseline:   baseline,
			Activities: activities,
			Sleep:      sleep,
		}, s.cfg.Profile, s.cfg.Bands, s.logger)
		score := res.Score
		return &store.FamilyScore{Score: &score, Band: res.Band, Inputs: res.Inputs}, nil

	case metrics.FamilyRecovery:
		load, err := s.store.GetTrainingLoadPoint(ctx, day)
		if err != nil && !errors.Is(err, store.ErrNoRecord) {
			return nil, fmt.Errorf("fetching load point: %w", err)
		}
		res := analysis.ScoreRecovery(analysis.RecoveryInputs{
			Sample:       sample,
			Baseline:     baseline,
			Sleep:        sleep,
			Load:         load,
			YesterdayTSS: s.yesterdayTSS(ctx, day),
		}, s.cfg.Anomaly)
		if res.AnomalyApplied {
			metrics.AnomalyPenaltiesTotal.Inc()
		}
		return &store.FamilyScore{Score: res.Score, Band: res.Band, Inputs: res.Inputs}, nil
	}
	return nil, fmt.Errorf("unknown score family %q", family)
}

// yesterdayTSS sums the prior day's estimated stress for form damping.
// Failures degrade to zero rather than failing the day.
func (s *Service) yesterdayTSS(ctx context.Context, day string) float64 {
	d, err := time.Parse(store.DateFormat, day)
	if err != nil {
		return 0
	}
	activities, err := s.activities.Activities(ctx, store.DayKey(d.AddDate(0, 0, -1)))
	if err != nil {
		return 0
	}
	var tss float64
	for i := range activities {
		tss += analysis.EstimateCardioLoad(&activities[i], s.cfg.Profile, s.logger).Value()
	}
	return tss
}

func familyOf(rec *store.ScoreRecord, family string) *store.FamilyScore {
	switch family {
	case metrics.FamilyRecovery:
		return rec.Recovery
	case metrics.FamilySleep:
		return rec.Sleep
	case metrics.FamilyStrain:
		return rec.Strain
	}
	return nil
}

func setFamily(rec *store.ScoreRecord, family string, f *store.FamilyScore) {
	switch family {
	case metrics.FamilyRecovery:
		rec.Recovery = f
	case metrics.FamilySleep:
		rec.Sleep = f
	case metrics.FamilyStrain:
		rec.Strain = f
	}
}
