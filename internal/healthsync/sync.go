package healthsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"veloready/internal/store"
)

const (
	lastActivitySyncKey = "last_activity_sync"
	lastWellnessSyncKey = "last_wellness_sync"

	// wellnessLookbackDays bounds the first wellness pull; later pulls
	// re-fetch a short overlap because vitals for recent days are
	// revised as devices upload late.
	wellnessLookbackDays = 90
	wellnessOverlapDays  = 3
)

// Syncer pulls wellness samples and activities from VeloHub into the
// local store.
type Syncer struct {
	client *Client
	store  *store.Store
	logger *slog.Logger
}

// NewSyncer creates a sync service over the client and store.
func NewSyncer(client *Client, s *store.Store, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{client: client, store: s, logger: logger}
}

// Result contains the results of a sync operation
type Result struct {
	WellnessDaysStored int
	ActivitiesFetched  int
	ActivitiesStored   int
	Errors             []error
}

// SyncAll performs a full sync: wellness samples, then activities.
func (s *Syncer) SyncAll(ctx context.Context) (*Result, error) {
	result := &Result{}

	if err := s.syncWellness(ctx, result); err != nil {
		return result, fmt.Errorf("syncing wellness: %w", err)
	}
	if err := s.syncActivities(ctx, result); err != nil {
		return result, fmt.Errorf("syncing activities: %w", err)
	}
	return result, nil
}

// syncWellness fetches daily samples since the last sync (with a short
// overlap) and upserts them.
func (s *Syncer) syncWellness(ctx context.Context, result *Result) error {
	today := time.Now()
	start := today.AddDate(0, 0, -wellnessLookbackDays)

	if lastStr, _ := s.store.GetSyncState(ctx, lastWellnessSyncKey); lastStr != "" {
		if last, err := time.Parse(time.RFC3339, lastStr); err == nil {
			start = last.AddDate(0, 0, -wellnessOverlapDays)
		}
	}

	days, err := s.client.GetWellness(ctx, store.DayKey(start), store.DayKey(today))
	if err != nil {
		return err
	}

	for i := range days {
		if err := s.store.UpsertDaySample(ctx, days[i].toStoreSample()); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("storing sample %s: %w", days[i].Date, err))
			continue
		}
		result.WellnessDaysStored++
	}

	s.logger.Info("wellness sync complete", "days", result.WellnessDaysStored)
	return s.store.SetSyncState(ctx, lastWellnessSyncKey, today.Format(time.RFC3339))
}

// syncActivities fetches all activities since the last sync and upserts
// them.
func (s *Syncer) syncActivities(ctx context.Context, result *Result) error {
	var after time.Time
	if lastStr, _ := s.store.GetSyncState(ctx, lastActivitySyncKey); lastStr != "" {
		after, _ = time.Parse(time.RFC3339, lastStr)
	}

	activities, err := s.client.GetAllActivities(ctx, after, nil)
	if err != nil {
		return err
	}
	result.ActivitiesFetched = len(activities)

	for i := range activities {
		if err := s.store.UpsertActivity(ctx, activities[i].toStoreActivity()); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("storing activity %d: %w", activities[i].ID, err))
			continue
		}
		result.ActivitiesStored++
	}

	s.logger.Info("activity sync complete",
		"fetched", result.ActivitiesFetched, "stored", result.ActivitiesStored)
	return s.store.SetSyncState(ctx, lastActivitySyncKey, time.Now().Format(time.RFC3339))
}
