package tracking

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Policy selects the primary ranking key used by TargetSelector.
type Policy int

const (
	PolicyNearestToAim    Policy = iota // minimise angular offset
	PolicyLowestHealth                  // minimise health
	PolicyHighestThreat                 // maximise threat score
	PolicyVisibilityFirst               // visible before hidden, then offset
)

var policyNames = map[Policy]string{
	PolicyNearestToAim:    "nearest_to_aim",
	PolicyLowestHealth:    "lowest_health",
	PolicyHighestThreat:   "highest_threat",
	PolicyVisibilityFirst: "visibility_first",
}

func (p Policy) String() string {
	if s, ok := policyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParsePolicy maps a config name to a Policy.
func ParsePolicy(s string) (Policy, error) {
	for p, name := range policyNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown policy %q", s)
}

// TargetCandidate is the result of one selection cycle. It is never stored
// beyond the selector's rate-limit cache.
type TargetCandidate struct {
	Entity            TrackedEntity
	Distance          float64
	AngularOffset     float64 // Degrees from the aim direction
	PredictedPosition Vec3
	Confidence        float64 // [0, 1]
}

// TargetSelector filters and ranks entities into a single best candidate.
type TargetSelector struct {
	cfg       Config
	predictor *MovementPredictor

	// Rate-limit cache for Select.
	lastComputeTime time.Time
	last            TargetCandidate
	hasLast         bool
}

// NewTargetSelector creates a selector. A nil predictor means linear prediction.
func NewTargetSelector(cfg Config, predictor *MovementPredictor) *TargetSelector {
	if predictor == nil {
		predictor = NewMovementPredictor(nil)
	}
	return &TargetSelector{cfg: cfg, predictor: predictor}
}

// better reports whether a ranks strictly ahead of b under policy. Ties on
// the primary key fall back to angular offset, then to the lower id.
func better(a, b TargetCandidate, policy Policy) bool {
	switch policy {
	case PolicyLowestHealth:
		if a.Entity.Health != b.Entity.Health {
			return a.Entity.Health < b.Entity.Health
		}
	case PolicyHighestThreat:
		if a.Entity.ThreatScore != b.Entity.ThreatScore {
			return a.Entity.ThreatScore > b.Entity.ThreatScore
		}
	case PolicyVisibilityFirst:
		if a.Entity.Visible != b.Entity.Visible {
			return a.Entity.Visible
		}
	}
	if a.AngularOffset != b.AngularOffset {
		return a.AngularOffset < b.AngularOffset
	}
	return a.Entity.ID < b.Entity.ID
}

// candidate builds the TargetCandidate for e, or returns ok=false when e
// fails the exclusion or angular filters.
func (s *TargetSelector) candidate(e TrackedEntity, observerPos, aimDir Vec3, maxRadius float64) (TargetCandidate, bool) {
	if s.cfg.excluded(e.Classification) || e.SampleCount() == 0 {
		return TargetCandidate{}, false
	}
	to := r3.Sub(e.Position(), observerPos)
	dist := r3.Norm(to)
	if !isFinite(dist) {
		return TargetCandidate{}, false
	}

	offset, ok := angleBetweenDeg(aimDir, to)
	if !ok {
		// Entity sits on the observer: no direction, treat as dead ahead.
		offset = 0
	}
	if !(offset <= maxRadius) {
		return TargetCandidate{}, false
	}

	return TargetCandidate{
		Entity:            e,
		Distance:          dist,
		AngularOffset:     offset,
		PredictedPosition: s.predictor.PredictFrom(e, s.cfg.LeadTime, observerPos),
		Confidence:        s.confidence(e, offset, maxRadius),
	}, true
}

// confidence falls linearly with angular offset, halves for hidden
// entities and scales with how much history backs the velocity estimate.
func (s *TargetSelector) confidence(e TrackedEntity, offset, maxRadius float64) float64 {
	c := 1.0
	if maxRadius > 0 {
		c = 1 - offset/maxRadius
	}
	if !e.Visible {
		c *= 0.5
	}
	lookback := s.cfg.VelocityLookback
	if lookback < 1 {
		lookback = 1
	}
	c *= math.Min(1, float64(e.SampleCount())/float64(lookback))
	return math.Max(0, math.Min(1, c))
}

// SelectBest returns the best candidate among entities, or ok=false when
// none passes the filters. A degenerate aim direction yields no candidate.
func (s *TargetSelector) SelectBest(entities []TrackedEntity, observerPos, aimDir Vec3, policy Policy, maxAngularRadius float64) (TargetCandidate, bool) {
	if r3.Norm(aimDir) < degenerateNorm || !isFiniteVec(aimDir) || !isFiniteVec(observerPos) {
		return TargetCandidate{}, false
	}

	var best TargetCandidate
	found := false
	for _, e := range entities {
		c, ok := s.candidate(e, observerPos, aimDir, maxAngularRadius)
		if !ok {
			continue
		}
		if !found || better(c, best, policy) {
			best = c
			found = true
		}
	}
	return best, found
}

// SelectBestErr is SelectBest for callers that prefer an error to a flag.
func (s *TargetSelector) SelectBestErr(entities []TrackedEntity, observerPos, aimDir Vec3, policy Policy, maxAngularRadius float64) (TargetCandidate, error) {
	c, ok := s.SelectBest(entities, observerPos, aimDir, policy, maxAngularRadius)
	if !ok {
		return TargetCandidate{}, ErrNoCandidate
	}
	return c, nil
}

// Select is the rate-limited form of SelectBest. Within 1/MaxSelectHz of
// the last computation it returns the cached result, unless the cached
// target no longer passes the selection filters.
func (s *TargetSelector) Select(now time.Time, entities []TrackedEntity, observerPos, aimDir Vec3, policy Policy, maxAngularRadius float64) (TargetCandidate, bool) {
	if !s.lastComputeTime.IsZero() && s.cfg.MaxSelectHz > 0 {
		interval := time.Duration(float64(time.Second) / s.cfg.MaxSelectHz)
		if now.Sub(s.lastComputeTime) < interval && s.cachedStillValid(entities, observerPos, aimDir, maxAngularRadius) {
			return s.last, s.hasLast
		}
	}

	s.last, s.hasLast = s.SelectBest(entities, observerPos, aimDir, policy, maxAngularRadius)
	s.lastComputeTime = now
	return s.last, s.hasLast
}

func (s *TargetSelector) cachedStillValid(entities []TrackedEntity, observerPos, aimDir Vec3, maxAngularRadius float64) bool {
	if !s.hasLast {
		// Cached "nothing" stays valid until the interval elapses.
		return true
	}
	if r3.Norm(aimDir) < degenerateNorm || !isFiniteVec(aimDir) || !isFiniteVec(observerPos) {
		return false
	}
	for _, e := range entities {
		if e.ID == s.last.Entity.ID {
			_, ok := s.candidate(e, observerPos, aimDir, maxAngularRadius)
			return ok
		}
	}
	return false
}

// SetLeadTime changes the prediction horizon used for candidates.
func (s *TargetSelector) SetLeadTime(seconds float64) {
	s.cfg.LeadTime = seconds
}

// Invalidate drops the cached selection so the next Select recomputes.
func (s *TargetSelector) Invalidate() {
	s.lastComputeTime = time.Time{}
	s.hasLast = false
	s.last = TargetCandidate{}
}
