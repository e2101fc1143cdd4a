package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestEmptyTuningConfigDefaults(t *testing.T) {
	cfg := EmptyTuningConfig()

	if got := cfg.GetHistoryLength(); got != 30 {
		t.Errorf("GetHistoryLength() = %d, want 30", got)
	}
	if got := cfg.GetExpiryWindow(); got != 30*time.Second {
		t.Errorf("GetExpiryWindow() = %v, want 30s", got)
	}
	if got := cfg.GetThreatRefreshInterval(); got != 200*time.Millisecond {
		t.Errorf("GetThreatRefreshInterval() = %v, want 200ms", got)
	}
	if got := cfg.GetPolicy(); got != "nearest_to_aim" {
		t.Errorf("GetPolicy() = %q, want nearest_to_aim", got)
	}
	if got := cfg.GetMaxSelectHz(); got != 60 {
		t.Errorf("GetMaxSelectHz() = %f, want 60", got)
	}
	if got := cfg.GetSmoothingFactor(); got != 5 {
		t.Errorf("GetSmoothingFactor() = %f, want 5", got)
	}
	if cfg.GetNeuralEnabled() {
		t.Error("GetNeuralEnabled() = true, want false")
	}
	if got := cfg.GetNeuralSeed(); got != 12345 {
		t.Errorf("GetNeuralSeed() = %d, want 12345", got)
	}
	weights := cfg.GetClassWeights()
	if weights["hostile"] != 100 || weights["neutral"] != 10 || weights["non_player_agent"] != 40 {
		t.Errorf("GetClassWeights() = %v", weights)
	}
}

func TestLoadTuningConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "history_length": 50,
  "expiry_window": "10s",
  "policy": "visibility_first",
  "max_angular_radius_deg": 15,
  "class_weights": {"neutral": 55},
  "excluded_classes": ["neutral"],
  "smoothing_factor": 8,
  "neural_enabled": true
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("LoadTuningConfig failed: %v", err)
	}

	if got := cfg.GetHistoryLength(); got != 50 {
		t.Errorf("GetHistoryLength() = %d, want 50", got)
	}
	if got := cfg.GetExpiryWindow(); got != 10*time.Second {
		t.Errorf("GetExpiryWindow() = %v, want 10s", got)
	}
	if got := cfg.GetPolicy(); got != "visibility_first" {
		t.Errorf("GetPolicy() = %q", got)
	}
	if got := cfg.GetMaxAngularRadiusDeg(); got != 15 {
		t.Errorf("GetMaxAngularRadiusDeg() = %f, want 15", got)
	}
	weights := cfg.GetClassWeights()
	if weights["neutral"] != 55 || weights["hostile"] != 100 {
		t.Errorf("partial class_weights not merged with defaults: %v", weights)
	}
	if got := cfg.GetExcludedClasses(); len(got) != 1 || got[0] != "neutral" {
		t.Errorf("GetExcludedClasses() = %v", got)
	}
	if !cfg.GetNeuralEnabled() {
		t.Error("GetNeuralEnabled() = false, want true")
	}
	// Omitted fields keep defaults
	if got := cfg.GetVelocityLookback(); got != 5 {
		t.Errorf("GetVelocityLookback() = %d, want default 5", got)
	}
}

func TestLoadTuningConfig_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("wrong extension", func(t *testing.T) {
		path := filepath.Join(tmpDir, "config.yaml")
		if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadTuningConfig(path); err == nil {
			t.Error("expected error for non-json extension")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadTuningConfig(filepath.Join(tmpDir, "missing.json")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(tmpDir, "bad.json")
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := LoadTuningConfig(path)
		if err == nil || !strings.Contains(err.Error(), "parse") {
			t.Errorf("expected parse error, got %v", err)
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		path := filepath.Join(tmpDir, "invalid.json")
		if err := os.WriteFile(path, []byte(`{"policy": "random"}`), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := LoadTuningConfig(path)
		if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
			t.Errorf("expected validation error, got %v", err)
		}
	})
}

func TestValidate(t *testing.T) {
	ptrInt := func(v int) *int { return &v }
	ptrFloat := func(v float64) *float64 { return &v }
	ptrString := func(v string) *string { return &v }

	tests := []struct {
		name    string
		cfg     TuningConfig
		wantErr bool
	}{
		{"empty", TuningConfig{}, false},
		{"history too short", TuningConfig{HistoryLength: ptrInt(1)}, true},
		{"lookback zero", TuningConfig{VelocityLookback: ptrInt(0)}, true},
		{"bad duration", TuningConfig{ExpiryWindow: ptrString("soon")}, true},
		{"negative duration", TuningConfig{ThreatRefreshInterval: ptrString("-1s")}, true},
		{"alignment out of range", TuningConfig{AlignmentThreshold: ptrFloat(1.5)}, true},
		{"negative weight", TuningConfig{DistanceWeight: ptrFloat(-0.1)}, true},
		{"unknown class weight", TuningConfig{ClassWeights: map[string]float64{"alien": 10}}, true},
		{"class weight too large", TuningConfig{ClassWeights: map[string]float64{"hostile": 120}}, true},
		{"unknown policy", TuningConfig{Policy: ptrString("closest")}, true},
		{"radius zero", TuningConfig{MaxAngularRadiusDeg: ptrFloat(0)}, true},
		{"radius too wide", TuningConfig{MaxAngularRadiusDeg: ptrFloat(181)}, true},
		{"unknown excluded class", TuningConfig{ExcludedClasses: []string{"robot"}}, true},
		{"smoothing below one", TuningConfig{SmoothingFactor: ptrFloat(0.5)}, true},
		{"negative lead", TuningConfig{LeadTimeSeconds: ptrFloat(-1)}, true},
		{"min confidence above one", TuningConfig{NeuralMinConfidence: ptrFloat(2)}, true},
		{"valid mix", TuningConfig{
			HistoryLength:   ptrInt(40),
			Policy:          ptrString("highest_threat"),
			SmoothingFactor: ptrFloat(1),
			ExcludedClasses: []string{"neutral"},
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDurationFallbackOnParseError(t *testing.T) {
	bad := "later"
	cfg := &TuningConfig{ScanInterval: &bad}
	if got := cfg.GetScanInterval(); got != 50*time.Millisecond {
		t.Errorf("GetScanInterval() = %v, want default 50ms", got)
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	empty := EmptyTuningConfig()

	// The defaults file and the built-in fallbacks must agree.
	if cfg.GetHistoryLength() != empty.GetHistoryLength() {
		t.Errorf("history_length: file %d, built-in %d", cfg.GetHistoryLength(), empty.GetHistoryLength())
	}
	if cfg.GetThreatRefreshInterval() != empty.GetThreatRefreshInterval() {
		t.Errorf("threat_refresh_interval: file %v, built-in %v", cfg.GetThreatRefreshInterval(), empty.GetThreatRefreshInterval())
	}
	if cfg.GetPolicy() != empty.GetPolicy() {
		t.Errorf("policy: file %q, built-in %q", cfg.GetPolicy(), empty.GetPolicy())
	}
	if cfg.GetSmoothingFactor() != empty.GetSmoothingFactor() {
		t.Errorf("smoothing_factor: file %f, built-in %f", cfg.GetSmoothingFactor(), empty.GetSmoothingFactor())
	}
	if cfg.GetScanInterval() != empty.GetScanInterval() {
		t.Errorf("scan_interval: file %v, built-in %v", cfg.GetScanInterval(), empty.GetScanInterval())
	}
}
