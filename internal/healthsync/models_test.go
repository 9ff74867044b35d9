package healthsync

import (
	"encoding/json"
	"testing"
)

func TestWellnessDay_WirePreservesAbsence(t *testing.T) {
	// wake_events measured as zero, hrv never measured
	payload := `{"date":"2026-03-01","resting_hr":48,"wake_events":0}`

	var day WellnessDay
	if err := json.Unmarshal([]byte(payload), &day); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	sample := day.toStoreSample()

	if sample.HRV != nil {
		t.Errorf("HRV = %v, want nil for an absent field", *sample.HRV)
	}
	if sample.WakeEvents == nil || *sample.WakeEvents != 0 {
		t.Errorf("WakeEvents = %v, want a measured zero", sample.WakeEvents)
	}
	if sample.RestingHR == nil || *sample.RestingHR != 48 {
		t.Errorf("RestingHR = %v, want 48", sample.RestingHR)
	}
	if sample.HasSleepSession() {
		t.Error("No sleep fields on the wire must not read as a session")
	}
}

func TestActivity_ConvertsToStoreModel(t *testing.T) {
	payload := `{
		"id": 99,
		"type": "Ride",
		"moving_time": 3600,
		"weighted_average_watts": 255,
		"tss": 88.5
	}`

	var a Activity
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	sa := a.toStoreActivity()

	if sa.ID != 99 || sa.MovingTime != 3600 {
		t.Errorf("got ID %d MovingTime %d", sa.ID, sa.MovingTime)
	}
	if sa.NormalizedPower == nil || *sa.NormalizedPower != 255 {
		t.Errorf("NormalizedPower = %v, want 255", sa.NormalizedPower)
	}
	if sa.PlatformTSS == nil || *sa.PlatformTSS != 88.5 {
		t.Errorf("PlatformTSS = %v, want 88.5", sa.PlatformTSS)
	}
	if sa.AveragePower != nil {
		t.Errorf("AveragePower = %v, want nil", *sa.AveragePower)
	}
}
