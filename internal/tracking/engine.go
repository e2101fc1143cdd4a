package tracking

import (
	"errors"
	"fmt"
	"sync"

	"github.com/banshee-data/tracksight/internal/monitoring"
	"github.com/banshee-data/tracksight/internal/timeutil"
)

// Frame is everything the host supplies for one tick.
type Frame struct {
	Timestamp        float64       `json:"timestamp"` // Host seconds, same clock as observation timestamps
	ObserverPosition Vec3          `json:"observer_position"`
	ObserverFacing   Vec3          `json:"observer_facing"` // Current aim direction
	Observations     []Observation `json:"observations"`
}

// Result is the engine's output for one tick.
type Result struct {
	Candidate    TargetCandidate
	HasCandidate bool

	// Aim is the smoothed orientation to apply this tick and AimDelta the
	// step from the current facing. Both are zero-valued without a candidate
	// or when the current facing is degenerate.
	Aim      Orientation
	AimDelta Orientation

	Assessment Assessment
	Accepted   int // Observations ingested
	Rejected   int // Observations dropped as invalid
	Pruned     int // Entities expired this tick
}

// Engine runs the per-tick pipeline: ingest, prune, score, select,
// predict and smooth. Tick calls are serialised; the engine is meant to be
// driven from a single host loop.
type Engine struct {
	mu sync.Mutex

	cfg       Config
	clock     timeutil.Clock
	store     *EntityStore
	scorer    *ThreatScorer
	predictor *MovementPredictor
	selector  *TargetSelector
	smoother  AimSmoother

	lastCandidate TargetCandidate
	hasCandidate  bool
}

// NewEngine wires the pipeline. A nil clock uses the real clock; a nil
// corrector keeps prediction linear.
func NewEngine(cfg Config, clock timeutil.Clock, corrector Corrector) *Engine {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	predictor := NewMovementPredictor(corrector)
	return &Engine{
		cfg:       cfg,
		clock:     clock,
		store:     NewEntityStore(cfg),
		scorer:    NewThreatScorer(cfg),
		predictor: predictor,
		selector:  NewTargetSelector(cfg, predictor),
	}
}

// Store exposes the entity store for read access and persistence.
func (e *Engine) Store() *EntityStore { return e.store }

// Predictor exposes the movement predictor.
func (e *Engine) Predictor() *MovementPredictor { return e.predictor }

// Config returns the current configuration.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Tick processes one frame. Malformed observations are skipped and counted;
// nothing in a frame can abort the tick.
func (e *Engine) Tick(frame Frame) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	var res Result
	for _, obs := range frame.Observations {
		if err := e.store.Update(obs); err != nil {
			res.Rejected++
			if errors.Is(err, ErrInvalidSample) {
				monitoring.Debugf("tracking: dropped observation: %v", err)
			}
			continue
		}
		res.Accepted++
	}

	if isFinite(frame.Timestamp) {
		res.Pruned = e.store.Prune(frame.Timestamp)
	}

	now := e.clock.Now()
	e.scorer.Refresh(e.store, frame.ObserverPosition, frame.ObserverFacing, now)

	entities := e.store.Entities()
	res.Assessment = Assess(entities, frame.ObserverPosition, e.cfg.ThreatThreshold)

	res.Candidate, res.HasCandidate = e.selector.Select(now, entities,
		frame.ObserverPosition, frame.ObserverFacing, e.cfg.Policy, e.cfg.MaxAngularRadius)
	e.lastCandidate, e.hasCandidate = res.Candidate, res.HasCandidate

	if !res.HasCandidate {
		return res
	}

	current, err := OrientationOf(frame.ObserverFacing)
	if err != nil {
		return res
	}
	desired, err := LookAt(frame.ObserverPosition, res.Candidate.PredictedPosition)
	if err != nil {
		// Predicted point coincides with the observer: hold the current aim.
		res.Aim = current
		return res
	}
	res.Aim = e.smoother.Step(current, desired, e.cfg.SmoothingFactor)
	res.AimDelta = AngleDelta(current, res.Aim)
	return res
}

// ReportOutcome feeds the result of engaging the last selected target to
// the corrector, if it adapts. It returns false when there was no target
// or the corrector does not learn.
func (e *Engine) ReportOutcome(success bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, ok := e.predictor.Corrector().(Reinforcer)
	if !ok || !e.hasCandidate {
		return false
	}
	r.Reinforce(success, e.lastCandidate.Confidence)
	return true
}

// SetPolicy changes the ranking policy and drops the cached selection.
func (e *Engine) SetPolicy(p Policy) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.Policy = p
	e.selector.Invalidate()
}

// SetSmoothing changes the smoothing factor. Values below 1 are clamped to 1.
func (e *Engine) SetSmoothing(factor float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !(factor >= 1) {
		factor = 1
	}
	e.cfg.SmoothingFactor = factor
}

// SetLeadTime changes the prediction horizon in seconds. Negative values become zero.
func (e *Engine) SetLeadTime(seconds float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !(seconds > 0) {
		seconds = 0
	}
	e.cfg.LeadTime = seconds
	e.selector.SetLeadTime(seconds)
	e.selector.Invalidate()
}

// SetMaxAngularRadius changes the selection cone half-angle in degrees.
// Values outside (0, 180] leave the current radius in place.
func (e *Engine) SetMaxAngularRadius(deg float64) error {
	if !(deg > 0 && deg <= 180) {
		return fmt.Errorf("max angular radius %v outside (0, 180]", deg)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.MaxAngularRadius = deg
	e.selector.Invalidate()
	return nil
}
