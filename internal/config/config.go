package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the application configuration
type Config struct {
	VeloHub  VeloHubConfig  `json:"velohub"`
	Athlete  AthleteConfig  `json:"athlete"`
	Scoring  ScoringConfig  `json:"scoring"`
	Backfill BackfillConfig `json:"backfill"`
}

// VeloHubConfig holds credentials for the VeloHub data platform API
type VeloHubConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	BaseURL      string `json:"base_url,omitempty"`
}

// AthleteConfig holds athlete-specific physiology
type AthleteConfig struct {
	FTP            float64 `json:"ftp"`
	RestingHR      float64 `json:"resting_hr"`
	MaxHR          float64 `json:"max_hr"`
	BodyMassKG     float64 `json:"body_mass_kg"`
	SleepNeedHours float64 `json:"sleep_need_hours"`
}

// ScoringConfig holds the calibration knobs the score formulas expose
type ScoringConfig struct {
	// Strain band cut points (ordered partition)
	StrainLightBelow    float64 `json:"strain_light_below"`
	StrainModerateBelow float64 `json:"strain_moderate_below"`
	StrainHardBelow     float64 `json:"strain_hard_below"`
	// Compound-anomaly detector calibration
	AnomalyThreshold float64 `json:"anomaly_threshold"`
}

// BackfillConfig holds scheduler settings
type BackfillConfig struct {
	WindowDays    int     `json:"window_days"`
	ThrottleHours float64 `json:"throttle_hours"`
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Athlete: AthleteConfig{
			FTP:            200,
			RestingHR:      50,
			MaxHR:          185,
			BodyMassKG:     75,
			SleepNeedHours: 8,
		},
		Scoring: ScoringConfig{
			StrainLightBelow:    6,
			StrainModerateBelow: 12,
			StrainHardBelow:     16,
			AnomalyThreshold:    0.45,
		},
		Backfill: BackfillConfig{
			WindowDays:    60,
			ThrottleHours: 24,
		},
	}
}

// Load reads the configuration from ~/.veloready/config.json
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills zero values with the defaults
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Athlete.FTP == 0 {
		c.Athlete.FTP = d.Athlete.FTP
	}
	if c.Athlete.RestingHR == 0 {
		c.Athlete.RestingHR = d.Athlete.RestingHR
	}
	if c.Athlete.MaxHR == 0 {
		c.Athlete.MaxHR = d.Athlete.MaxHR
	}
	if c.Athlete.BodyMassKG == 0 {
		c.Athlete.BodyMassKG = d.Athlete.BodyMassKG
	}
	if c.Athlete.SleepNeedHours == 0 {
		c.Athlete.SleepNeedHours = d.Athlete.SleepNeedHours
	}
	if c.Scoring.StrainLightBelow == 0 {
		c.Scoring.StrainLightBelow = d.Scoring.StrainLightBelow
	}
	if c.Scoring.StrainModerateBelow == 0 {
		c.Scoring.StrainModerateBelow = d.Scoring.StrainModerateBelow
	}
	if c.Scoring.StrainHardBelow == 0 {
		c.Scoring.StrainHardBelow = d.Scoring.StrainHardBelow
	}
	if c.Scoring.AnomalyThreshold == 0 {
		c.Scoring.AnomalyThreshold = d.Scoring.AnomalyThreshold
	}
	if c.Backfill.WindowDays == 0 {
		c.Backfill.WindowDays = d.Backfill.WindowDays
	}
	if c.Backfill.ThrottleHours == 0 {
		c.Backfill.ThrottleHours = d.Backfill.ThrottleHours
	}
}

// Save writes the configuration to ~/.veloready/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	example.VeloHub = VeloHubConfig{
		ClientID:     "YOUR_CLIENT_ID",
		ClientSecret: "YOUR_CLIENT_SECRET",
	}
	return Save(&example)
}

// Validate checks if the config has required fields
func (c *Config) Validate() error {
	if c.VeloHub.ClientID == "" || c.VeloHub.ClientID == "YOUR_CLIENT_ID" {
		return errors.New("velohub.client_id is required - create an API application in your VeloHub account settings")
	}
	if c.VeloHub.ClientSecret == "" || c.VeloHub.ClientSecret == "YOUR_CLIENT_SECRET" {
		return errors.New("velohub.client_secret is required - create an API application in your VeloHub account settings")
	}

	if c.Athlete.RestingHR >= c.Athlete.MaxHR {
		return fmt.Errorf("athlete.resting_hr (%v) must be less than athlete.max_hr (%v)", c.Athlete.RestingHR, c.Athlete.MaxHR)
	}
	if c.Scoring.StrainLightBelow >= c.Scoring.StrainModerateBelow ||
		c.Scoring.StrainModerateBelow >= c.Scoring.StrainHardBelow {
		return errors.New("scoring strain cut points must be strictly increasing")
	}
	if c.Backfill.WindowDays < 1 {
		return errors.New("backfill.window_days must be at least 1")
	}

	return nil
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".veloready", "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".veloready"), nil
}
