package config

import (
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Athlete.RestingHR != 50 {
		t.Errorf("Athlete.RestingHR = %v, want 50", cfg.Athlete.RestingHR)
	}
	if cfg.Athlete.MaxHR != 185 {
		t.Errorf("Athlete.MaxHR = %v, want 185", cfg.Athlete.MaxHR)
	}
	if cfg.Athlete.SleepNeedHours != 8 {
		t.Errorf("Athlete.SleepNeedHours = %v, want 8", cfg.Athlete.SleepNeedHours)
	}

	if cfg.Scoring.StrainLightBelow != 6 || cfg.Scoring.StrainModerateBelow != 12 || cfg.Scoring.StrainHardBelow != 16 {
		t.Errorf("strain cut points = %v/%v/%v, want 6/12/16",
			cfg.Scoring.StrainLightBelow, cfg.Scoring.StrainModerateBelow, cfg.Scoring.StrainHardBelow)
	}
	if cfg.Scoring.AnomalyThreshold != 0.45 {
		t.Errorf("Scoring.AnomalyThreshold = %v, want 0.45", cfg.Scoring.AnomalyThreshold)
	}

	if cfg.Backfill.WindowDays != 60 {
		t.Errorf("Backfill.WindowDays = %v, want 60", cfg.Backfill.WindowDays)
	}
	if cfg.Backfill.ThrottleHours != 24 {
		t.Errorf("Backfill.ThrottleHours = %v, want 24", cfg.Backfill.ThrottleHours)
	}

	// Credentials must never have defaults
	if cfg.VeloHub.ClientID != "" {
		t.Errorf("VeloHub.ClientID should be empty, got %q", cfg.VeloHub.ClientID)
	}
}

func TestApplyDefaults(t *testing.T) {
	// A partial config keeps what it sets and inherits the rest
	cfg := Config{
		Athlete:  AthleteConfig{FTP: 280},
		Backfill: BackfillConfig{WindowDays: 90},
	}
	cfg.applyDefaults()

	if cfg.Athlete.FTP != 280 {
		t.Errorf("Athlete.FTP = %v, want the configured 280", cfg.Athlete.FTP)
	}
	if cfg.Athlete.MaxHR != 185 {
		t.Errorf("Athlete.MaxHR = %v, want the default 185", cfg.Athlete.MaxHR)
	}
	if cfg.Backfill.WindowDays != 90 {
		t.Errorf("Backfill.WindowDays = %v, want the configured 90", cfg.Backfill.WindowDays)
	}
	if cfg.Backfill.ThrottleHours != 24 {
		t.Errorf("Backfill.ThrottleHours = %v, want the default 24", cfg.Backfill.ThrottleHours)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		cfg := DefaultConfig()
		cfg.VeloHub.ClientID = "12345"
		cfg.VeloHub.ClientSecret = "abc123secret"
		return cfg
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errContains string
	}{
		{
			name:        "valid config",
			mutate:      func(*Config) {},
			expectError: false,
		},
		{
			name:        "empty client ID",
			mutate:      func(c *Config) { c.VeloHub.ClientID = "" },
			expectError: true,
			errContains: "client_id",
		},
		{
			name:        "placeholder client secret",
			mutate:      func(c *Config) { c.VeloHub.ClientSecret = "YOUR_CLIENT_SECRET" },
			expectError: true,
			errContains: "client_secret",
		},
		{
			name: "resting HR above max HR",
			mutate: func(c *Config) {
				c.Athlete.RestingHR = 190
			},
			expectError: true,
			errContains: "resting_hr",
		},
		{
			name: "disordered strain cut points",
			mutate: func(c *Config) {
				c.Scoring.StrainModerateBelow = 5
			},
			expectError: true,
			errContains: "strictly increasing",
		},
		{
			name: "zero window",
			mutate: func(c *Config) {
				c.Backfill.WindowDays = 0
			},
			expectError: true,
			errContains: "window_days",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.expectError {
				if err == nil {
					t.Fatal("Expected an error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error = %q, want it to mention %q", err, tt.errContains)
				}
			} else if err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}
