package tracking

import (
	"time"

	"github.com/banshee-data/tracksight/internal/config"
	"github.com/banshee-data/tracksight/internal/monitoring"
)

// Config holds every engine parameter. Components take it by value at
// construction; runtime changes go through the Engine setters.
type Config struct {
	// Entity history
	HistoryLength    int     // Ring buffer capacity per entity
	HistoryWindow    float64 // Seconds of history retained relative to the newest sample
	ExpiryWindow     float64 // Seconds without an update before Prune drops the entity
	VelocityLookback int     // Samples back used for velocity differencing
	MinVelocityDt    float64 // Smallest elapsed time (s) accepted for velocity

	// Threat scoring
	ThreatRefreshInterval time.Duration
	MinThreatDistance     float64 // Distance at or under which the distance sub-score saturates
	AlignmentThreshold    float64 // Cosine above which an entity counts as heading for the observer
	VisibilityBonus       float64 // Flat points added for visible entities
	RearBonus             float64 // Flat points added for entities behind the observer's facing
	DistanceWeight        float64
	ClassWeight           float64
	AlignmentWeight       float64
	HealthWeight          float64
	MaxHealth             float64
	ClassWeights          map[Classification]float64 // Per-class sub-score in [0, 100]
	ThreatThreshold       int                        // Score above which an entity counts as a threat

	// Target selection
	Policy           Policy
	MaxAngularRadius float64 // Degrees from the aim direction
	MaxSelectHz      float64
	ExcludedClasses  []Classification

	// Prediction and smoothing
	LeadTime        float64 // Seconds
	SmoothingFactor float64

	// Background scanning
	ScanInterval time.Duration
}

// DefaultConfig returns the built-in defaults, identical to those in
// config/tuning.defaults.json.
func DefaultConfig() Config {
	return ConfigFromTuning(config.EmptyTuningConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig. Unknown
// policy or class names are logged and replaced by defaults; LoadTuningConfig
// already rejects them, so this only matters for hand-built configs.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	policy, err := ParsePolicy(cfg.GetPolicy())
	if err != nil {
		monitoring.Logf("tracking: %v, using %s", err, PolicyNearestToAim)
		policy = PolicyNearestToAim
	}

	classWeights := make(map[Classification]float64)
	for name, w := range cfg.GetClassWeights() {
		c, err := ParseClassification(name)
		if err != nil {
			monitoring.Logf("tracking: ignoring class weight: %v", err)
			continue
		}
		classWeights[c] = w
	}

	var excluded []Classification
	for _, name := range cfg.GetExcludedClasses() {
		c, err := ParseClassification(name)
		if err != nil {
			monitoring.Logf("tracking: ignoring excluded class: %v", err)
			continue
		}
		excluded = append(excluded, c)
	}

	return Config{
		HistoryLength:         cfg.GetHistoryLength(),
		HistoryWindow:         cfg.GetHistoryWindow().Seconds(),
		ExpiryWindow:          cfg.GetExpiryWindow().Seconds(),
		VelocityLookback:      cfg.GetVelocityLookback(),
		MinVelocityDt:         cfg.GetMinVelocityDt(),
		ThreatRefreshInterval: cfg.GetThreatRefreshInterval(),
		MinThreatDistance:     cfg.GetMinThreatDistance(),
		AlignmentThreshold:    cfg.GetAlignmentThreshold(),
		VisibilityBonus:       cfg.GetVisibilityBonus(),
		RearBonus:             cfg.GetRearBonus(),
		DistanceWeight:        cfg.GetDistanceWeight(),
		ClassWeight:           cfg.GetClassWeight(),
		AlignmentWeight:       cfg.GetAlignmentWeight(),
		HealthWeight:          cfg.GetHealthWeight(),
		MaxHealth:             cfg.GetMaxHealth(),
		ClassWeights:          classWeights,
		ThreatThreshold:       cfg.GetThreatThreshold(),
		Policy:                policy,
		MaxAngularRadius:      cfg.GetMaxAngularRadiusDeg(),
		MaxSelectHz:           cfg.GetMaxSelectHz(),
		ExcludedClasses:       excluded,
		LeadTime:              cfg.GetLeadTimeSeconds(),
		SmoothingFactor:       cfg.GetSmoothingFactor(),
		ScanInterval:          cfg.GetScanInterval(),
	}
}

func (c Config) excluded(class Classification) bool {
	for _, x := range c.ExcludedClasses {
		if x == class {
			return true
		}
	}
	return false
}
