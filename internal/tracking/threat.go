package tracking

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// ThreatScorer turns an entity's state into a 0-100 score. Score is pure;
// Refresh applies it to a whole store at a bounded rate.
type ThreatScorer struct {
	cfg Config

	// lastComputeTime is the monotonic time of the last full refresh.
	lastComputeTime time.Time
}

// NewThreatScorer creates a scorer for the given configuration.
func NewThreatScorer(cfg Config) *ThreatScorer {
	return &ThreatScorer{cfg: cfg}
}

// distanceScore is 100 at or inside MinThreatDistance and falls off as 1/d.
func (s *ThreatScorer) distanceScore(d float64) float64 {
	minDist := s.cfg.MinThreatDistance
	if minDist <= 0 {
		minDist = 1
	}
	if d <= minDist {
		return 100
	}
	return 100 * minDist / d
}

// alignmentScore is 100 when the entity's movement heads for the observer.
// A stationary entity has no heading and scores 0.
func (s *ThreatScorer) alignmentScore(e TrackedEntity, observerPos Vec3) float64 {
	toObserver := r3.Sub(observerPos, e.Position())
	if r3.Norm(e.Velocity) < degenerateNorm || r3.Norm(toObserver) < degenerateNorm {
		return 0
	}
	if r3.Cos(e.Velocity, toObserver) > s.cfg.AlignmentThreshold {
		return 100
	}
	return 0
}

func (s *ThreatScorer) healthScore(health float64) float64 {
	maxHealth := s.cfg.MaxHealth
	if maxHealth <= 0 {
		return 0
	}
	return 100 * math.Max(0, math.Min(1, health/maxHealth))
}

// Score computes the composite score for e as seen from the observer.
// Sub-scores are each in [0, 100] and combined as a weighted mean, then
// the flat visibility and rear bonuses are added and the result clamped.
func (s *ThreatScorer) Score(e TrackedEntity, observerPos, observerFacing Vec3) int {
	pos := e.Position()
	dist := r3.Norm(r3.Sub(pos, observerPos))
	if !isFinite(dist) {
		return 0
	}

	subs := []float64{
		s.distanceScore(dist),
		s.cfg.ClassWeights[e.Classification],
		s.alignmentScore(e, observerPos),
		s.healthScore(e.Health),
	}
	weights := []float64{
		s.cfg.DistanceWeight,
		s.cfg.ClassWeight,
		s.cfg.AlignmentWeight,
		s.cfg.HealthWeight,
	}

	var base float64
	if total := floats.Sum(weights); total > 0 {
		base = floats.Dot(subs, weights) / total
	}

	if e.Visible {
		base += s.cfg.VisibilityBonus
	}
	if behind(observerPos, observerFacing, pos) {
		base += s.cfg.RearBonus
	}

	if math.IsNaN(base) {
		return 0
	}
	return int(math.Round(math.Max(0, math.Min(100, base))))
}

// behind reports whether target lies in the half-space behind the
// observer's facing. A degenerate facing never counts as behind.
func behind(observerPos, facing, target Vec3) bool {
	to := r3.Sub(target, observerPos)
	if r3.Norm(facing) < degenerateNorm || r3.Norm(to) < degenerateNorm {
		return false
	}
	return r3.Dot(facing, to) < 0
}

// Refresh rescores every entity in the store, at most once per
// ThreatRefreshInterval. Between refreshes only entities that have never
// been scored are computed; the rest keep their cached score. It returns
// true when a full refresh ran.
func (s *ThreatScorer) Refresh(store *EntityStore, observerPos, observerFacing Vec3, now time.Time) bool {
	full := s.lastComputeTime.IsZero() || now.Sub(s.lastComputeTime) >= s.cfg.ThreatRefreshInterval

	for _, e := range store.Entities() {
		if !full && e.scored {
			continue
		}
		store.SetScore(e.ID, s.Score(e, observerPos, observerFacing))
	}

	if full {
		s.lastComputeTime = now
	}
	return full
}
