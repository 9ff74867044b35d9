package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label value constants to prevent typos
const (
	// Score families
	FamilyTrainingLoad = "training_load"
	FamilyRecovery     = "recovery"
	FamilySleep        = "sleep"
	FamilyStrain       = "strain"

	// Per-day backfill outcomes
	OutcomeUpdated   = "updated"
	OutcomeUnchanged = "unchanged"
	OutcomeSkipped   = "skipped"
	OutcomeErrored   = "errored"
)

// Backfill metrics
var (
	BackfillPassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backfill_passes_total",
			Help: "Total number of completed backfill passes per score family",
		},
		[]string{"family"},
	)

	BackfillDaysTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backfill_days_total",
			Help: "Per-day backfill outcomes per score family",
		},
		[]string{"family", "outcome"},
	)

	BackfillThrottledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backfill_throttled_total",
			Help: "Backfill passes skipped because the family ran recently",
		},
		[]string{"family"},
	)

	BackfillActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backfill_active",
			Help: "Whether a backfill pass is currently running (1) or not (0)",
		},
	)
)

// Calculator metrics
var (
	CardioLoadSourceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardio_load_source_total",
			Help: "Which rung of the cardio-load priority chain estimated each activity",
		},
		[]string{"source"},
	)

	AnomalyPenaltiesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recovery_anomaly_penalties_total",
			Help: "Recovery scores reduced by the compound-anomaly detector",
		},
	)
)
