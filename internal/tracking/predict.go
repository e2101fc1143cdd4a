package tracking

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Features is the context handed to a Corrector for one prediction.
type Features struct {
	Velocity     Vec3
	LeadTime     float64 // Seconds
	Distance     float64 // From the observer; zero when unknown
	ClosingSpeed float64 // Velocity component toward the observer; zero when unknown
}

// Corrector refines the linear extrapolation with an additive offset.
type Corrector interface {
	Correct(f Features) Vec3
}

// Reinforcer is implemented by correctors that adapt from engagement outcomes.
type Reinforcer interface {
	Reinforce(success bool, confidence float64)
}

// IdentityCorrector applies no correction. It is the default, keeping the
// predictor purely linear.
type IdentityCorrector struct{}

// Correct returns the zero vector.
func (IdentityCorrector) Correct(Features) Vec3 { return Vec3{} }

// MovementPredictor extrapolates an entity's position forward in time.
type MovementPredictor struct {
	corrector Corrector
}

// NewMovementPredictor creates a predictor. A nil corrector means IdentityCorrector.
func NewMovementPredictor(c Corrector) *MovementPredictor {
	if c == nil {
		c = IdentityCorrector{}
	}
	return &MovementPredictor{corrector: c}
}

// Corrector returns the active correction strategy.
func (p *MovementPredictor) Corrector() Corrector { return p.corrector }

// Predict returns the entity's position leadTime seconds ahead, with no
// observer context for the corrector.
func (p *MovementPredictor) Predict(e TrackedEntity, leadTime float64) Vec3 {
	return p.predict(e, leadTime, Features{})
}

// PredictFrom is Predict with distance and closing speed measured from the
// observer, which lets a context-aware corrector scale its output.
func (p *MovementPredictor) PredictFrom(e TrackedEntity, leadTime float64, observerPos Vec3) Vec3 {
	pos := e.Position()
	toObserver := r3.Sub(observerPos, pos)
	f := Features{Distance: r3.Norm(toObserver)}
	if dir := unitOrZero(toObserver); dir != (Vec3{}) {
		f.ClosingSpeed = r3.Dot(e.Velocity, dir)
	}
	return p.predict(e, leadTime, f)
}

// predict is last + velocity*lead + correction. With fewer than two samples
// there is no velocity signal and the current position is returned; a zero
// or invalid lead time also returns it exactly.
func (p *MovementPredictor) predict(e TrackedEntity, leadTime float64, f Features) Vec3 {
	pos := e.Position()
	if e.SampleCount() < 2 || !(leadTime > 0) || math.IsInf(leadTime, 0) {
		return pos
	}

	out := r3.Add(pos, r3.Scale(leadTime, e.Velocity))

	f.Velocity = e.Velocity
	f.LeadTime = leadTime
	if c := p.corrector.Correct(f); isFiniteVec(c) {
		out = r3.Add(out, c)
	}
	return out
}
