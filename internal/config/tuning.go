package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// Known values for Policy and class names. Kept here as strings so the
// config package does not depend on the tracking package.
var (
	validPolicies = map[string]bool{
		"nearest_to_aim":   true,
		"lowest_health":    true,
		"highest_threat":   true,
		"visibility_first": true,
	}
	validClasses = map[string]bool{
		"hostile":          true,
		"neutral":          true,
		"non_player_agent": true,
	}
)

// TuningConfig represents the root configuration for the tracking engine.
// Every field is optional; the Get* accessors supply defaults for fields
// omitted from the JSON, so partial configs are safe.
type TuningConfig struct {
	// Entity history
	HistoryLength    *int     `json:"history_length,omitempty"`
	HistoryWindow    *string  `json:"history_window,omitempty"` // duration string like "30s"
	ExpiryWindow     *string  `json:"expiry_window,omitempty"`  // duration string like "30s"
	VelocityLookback *int     `json:"velocity_lookback,omitempty"`
	MinVelocityDt    *float64 `json:"min_velocity_dt,omitempty"` // seconds

	// Threat scoring
	ThreatRefreshInterval *string            `json:"threat_refresh_interval,omitempty"` // duration string like "200ms"
	MinThreatDistance     *float64           `json:"min_threat_distance,omitempty"`
	AlignmentThreshold    *float64           `json:"alignment_threshold,omitempty"`
	VisibilityBonus       *float64           `json:"visibility_bonus,omitempty"`
	RearBonus             *float64           `json:"rear_bonus,omitempty"`
	DistanceWeight        *float64           `json:"distance_weight,omitempty"`
	ClassWeight           *float64           `json:"class_weight,omitempty"`
	AlignmentWeight       *float64           `json:"alignment_weight,omitempty"`
	HealthWeight          *float64           `json:"health_weight,omitempty"`
	MaxHealth             *float64           `json:"max_health,omitempty"`
	ClassWeights          map[string]float64 `json:"class_weights,omitempty"`
	ThreatThreshold       *int               `json:"threat_threshold,omitempty"`

	// Target selection
	Policy              *string  `json:"policy,omitempty"`
	MaxAngularRadiusDeg *float64 `json:"max_angular_radius_deg,omitempty"`
	MaxSelectHz         *float64 `json:"max_select_hz,omitempty"`
	ExcludedClasses     []string `json:"excluded_classes,omitempty"`

	// Prediction and smoothing
	LeadTimeSeconds *float64 `json:"lead_time_seconds,omitempty"`
	SmoothingFactor *float64 `json:"smoothing_factor,omitempty"`

	// Correction network (optional)
	NeuralEnabled       *bool    `json:"neural_enabled,omitempty"`
	NeuralSeed          *uint64  `json:"neural_seed,omitempty"`
	NeuralLearningRate  *float64 `json:"neural_learning_rate,omitempty"`
	NeuralDecayFactor   *float64 `json:"neural_decay_factor,omitempty"`
	NeuralMinConfidence *float64 `json:"neural_min_confidence,omitempty"`

	// Background scanner
	ScanInterval *string `json:"scan_interval,omitempty"` // duration string like "50ms"
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil,
// which resolves every accessor to its built-in default.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/<tool>/ or deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.HistoryLength != nil && *c.HistoryLength < 2 {
		return fmt.Errorf("history_length must be at least 2, got %d", *c.HistoryLength)
	}
	if c.VelocityLookback != nil && *c.VelocityLookback < 1 {
		return fmt.Errorf("velocity_lookback must be at least 1, got %d", *c.VelocityLookback)
	}
	if c.MinVelocityDt != nil && *c.MinVelocityDt <= 0 {
		return fmt.Errorf("min_velocity_dt must be positive, got %f", *c.MinVelocityDt)
	}

	for name, s := range map[string]*string{
		"history_window":          c.HistoryWindow,
		"expiry_window":           c.ExpiryWindow,
		"threat_refresh_interval": c.ThreatRefreshInterval,
		"scan_interval":           c.ScanInterval,
	} {
		if s == nil || *s == "" {
			continue
		}
		d, err := time.ParseDuration(*s)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *s, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must be non-negative, got %s", name, *s)
		}
	}

	if c.MinThreatDistance != nil && *c.MinThreatDistance <= 0 {
		return fmt.Errorf("min_threat_distance must be positive, got %f", *c.MinThreatDistance)
	}
	if c.AlignmentThreshold != nil && (*c.AlignmentThreshold < -1 || *c.AlignmentThreshold > 1) {
		return fmt.Errorf("alignment_threshold must be between -1 and 1, got %f", *c.AlignmentThreshold)
	}
	for name, w := range map[string]*float64{
		"distance_weight":  c.DistanceWeight,
		"class_weight":     c.ClassWeight,
		"alignment_weight": c.AlignmentWeight,
		"health_weight":    c.HealthWeight,
	} {
		if w != nil && *w < 0 {
			return fmt.Errorf("%s must be non-negative, got %f", name, *w)
		}
	}
	if c.MaxHealth != nil && *c.MaxHealth <= 0 {
		return fmt.Errorf("max_health must be positive, got %f", *c.MaxHealth)
	}
	for name, w := range c.ClassWeights {
		if !validClasses[name] {
			return fmt.Errorf("unknown class %q in class_weights", name)
		}
		if w < 0 || w > 100 {
			return fmt.Errorf("class weight for %q must be between 0 and 100, got %f", name, w)
		}
	}
	if c.ThreatThreshold != nil && (*c.ThreatThreshold < 0 || *c.ThreatThreshold > 100) {
		return fmt.Errorf("threat_threshold must be between 0 and 100, got %d", *c.ThreatThreshold)
	}

	if c.Policy != nil && !validPolicies[*c.Policy] {
		return fmt.Errorf("unknown policy %q", *c.Policy)
	}
	if c.MaxAngularRadiusDeg != nil && (*c.MaxAngularRadiusDeg <= 0 || *c.MaxAngularRadiusDeg > 180) {
		return fmt.Errorf("max_angular_radius_deg must be in (0, 180], got %f", *c.MaxAngularRadiusDeg)
	}
	if c.MaxSelectHz != nil && *c.MaxSelectHz <= 0 {
		return fmt.Errorf("max_select_hz must be positive, got %f", *c.MaxSelectHz)
	}
	for _, name := range c.ExcludedClasses {
		if !validClasses[name] {
			return fmt.Errorf("unknown class %q in excluded_classes", name)
		}
	}

	if c.LeadTimeSeconds != nil && *c.LeadTimeSeconds < 0 {
		return fmt.Errorf("lead_time_seconds must be non-negative, got %f", *c.LeadTimeSeconds)
	}
	if c.SmoothingFactor != nil && *c.SmoothingFactor < 1 {
		return fmt.Errorf("smoothing_factor must be at least 1, got %f", *c.SmoothingFactor)
	}

	if c.NeuralLearningRate != nil && *c.NeuralLearningRate < 0 {
		return fmt.Errorf("neural_learning_rate must be non-negative, got %f", *c.NeuralLearningRate)
	}
	if c.NeuralDecayFactor != nil && *c.NeuralDecayFactor < 0 {
		return fmt.Errorf("neural_decay_factor must be non-negative, got %f", *c.NeuralDecayFactor)
	}
	if c.NeuralMinConfidence != nil && (*c.NeuralMinConfidence < 0 || *c.NeuralMinConfidence > 1) {
		return fmt.Errorf("neural_min_confidence must be between 0 and 1, got %f", *c.NeuralMinConfidence)
	}

	return nil
}

func durationOr(s *string, def time.Duration) time.Duration {
	if s == nil || *s == "" {
		return def
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return def // default on parse error
	}
	return d
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

// GetHistoryLength returns the per-entity sample capacity.
func (c *TuningConfig) GetHistoryLength() int { return intOr(c.HistoryLength, 30) }

// GetHistoryWindow returns how far back samples are retained relative to the newest one.
func (c *TuningConfig) GetHistoryWindow() time.Duration {
	return durationOr(c.HistoryWindow, 30*time.Second)
}

// GetExpiryWindow returns how long an unseen entity is kept before Prune removes it.
func (c *TuningConfig) GetExpiryWindow() time.Duration {
	return durationOr(c.ExpiryWindow, 30*time.Second)
}

// GetVelocityLookback returns how many samples back velocity is differenced over.
func (c *TuningConfig) GetVelocityLookback() int { return intOr(c.VelocityLookback, 5) }

// GetMinVelocityDt returns the smallest elapsed time (seconds) used for velocity.
func (c *TuningConfig) GetMinVelocityDt() float64 { return floatOr(c.MinVelocityDt, 1e-3) }

// GetThreatRefreshInterval returns the minimum time between threat recomputations.
func (c *TuningConfig) GetThreatRefreshInterval() time.Duration {
	return durationOr(c.ThreatRefreshInterval, 200*time.Millisecond)
}

func (c *TuningConfig) GetMinThreatDistance() float64  { return floatOr(c.MinThreatDistance, 10) }
func (c *TuningConfig) GetAlignmentThreshold() float64 { return floatOr(c.AlignmentThreshold, 0.8) }
func (c *TuningConfig) GetVisibilityBonus() float64    { return floatOr(c.VisibilityBonus, 15) }
func (c *TuningConfig) GetRearBonus() float64          { return floatOr(c.RearBonus, 10) }
func (c *TuningConfig) GetDistanceWeight() float64     { return floatOr(c.DistanceWeight, 0.4) }
func (c *TuningConfig) GetClassWeight() float64        { return floatOr(c.ClassWeight, 0.35) }
func (c *TuningConfig) GetAlignmentWeight() float64    { return floatOr(c.AlignmentWeight, 0.25) }
func (c *TuningConfig) GetHealthWeight() float64       { return floatOr(c.HealthWeight, 0) }
func (c *TuningConfig) GetMaxHealth() float64          { return floatOr(c.MaxHealth, 100) }
func (c *TuningConfig) GetThreatThreshold() int        { return intOr(c.ThreatThreshold, 60) }

// GetClassWeights returns the per-class sub-score table, filling in
// defaults for classes the config does not mention. The table is example
// data; it is meant to be tuned per deployment.
func (c *TuningConfig) GetClassWeights() map[string]float64 {
	out := map[string]float64{
		"hostile":          100,
		"non_player_agent": 40,
		"neutral":          10,
	}
	for k, v := range c.ClassWeights {
		out[k] = v
	}
	return out
}

// GetPolicy returns the ranking policy name.
func (c *TuningConfig) GetPolicy() string {
	if c.Policy == nil || *c.Policy == "" {
		return "nearest_to_aim"
	}
	return *c.Policy
}

func (c *TuningConfig) GetMaxAngularRadiusDeg() float64 { return floatOr(c.MaxAngularRadiusDeg, 30) }
func (c *TuningConfig) GetMaxSelectHz() float64         { return floatOr(c.MaxSelectHz, 60) }

// GetExcludedClasses returns a copy of the excluded class names.
func (c *TuningConfig) GetExcludedClasses() []string {
	return append([]string(nil), c.ExcludedClasses...)
}

func (c *TuningConfig) GetLeadTimeSeconds() float64 { return floatOr(c.LeadTimeSeconds, 0.1) }
func (c *TuningConfig) GetSmoothingFactor() float64 { return floatOr(c.SmoothingFactor, 5) }

func (c *TuningConfig) GetNeuralEnabled() bool {
	if c.NeuralEnabled == nil {
		return false
	}
	return *c.NeuralEnabled
}

func (c *TuningConfig) GetNeuralSeed() uint64 {
	if c.NeuralSeed == nil {
		return 12345
	}
	return *c.NeuralSeed
}

func (c *TuningConfig) GetNeuralLearningRate() float64 { return floatOr(c.NeuralLearningRate, 0.01) }
func (c *TuningConfig) GetNeuralDecayFactor() float64  { return floatOr(c.NeuralDecayFactor, 0.01) }
func (c *TuningConfig) GetNeuralMinConfidence() float64 {
	return floatOr(c.NeuralMinConfidence, 0.2)
}

// GetScanInterval returns the polling period of the background scanner.
func (c *TuningConfig) GetScanInterval() time.Duration {
	return durationOr(c.ScanInterval, 50*time.Millisecond)
}
