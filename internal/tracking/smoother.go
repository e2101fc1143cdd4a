package tracking

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Orientation is an aim direction in degrees. Yaw is measured in the XY
// plane from +X toward +Y, pitch upward from that plane.
type Orientation struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Roll  float64 `json:"roll"`
}

// Forward returns the unit direction vector for o. Roll does not affect it.
func (o Orientation) Forward() Vec3 {
	p := o.Pitch * math.Pi / 180
	y := o.Yaw * math.Pi / 180
	return Vec3{
		X: math.Cos(p) * math.Cos(y),
		Y: math.Cos(p) * math.Sin(y),
		Z: math.Sin(p),
	}
}

// LookAt returns the orientation pointing from one position to another.
func LookAt(from, to Vec3) (Orientation, error) {
	return OrientationOf(r3.Sub(to, from))
}

// OrientationOf converts a direction vector into pitch and yaw.
func OrientationOf(dir Vec3) (Orientation, error) {
	if !isFiniteVec(dir) || r3.Norm(dir) < degenerateNorm {
		return Orientation{}, ErrDegenerateVector
	}
	return Orientation{
		Pitch: math.Atan2(dir.Z, math.Hypot(dir.X, dir.Y)) * 180 / math.Pi,
		Yaw:   math.Atan2(dir.Y, dir.X) * 180 / math.Pi,
	}, nil
}

// AngleDelta returns the per-axis shortest signed rotation from a to b,
// each component in [-180, 180).
func AngleDelta(a, b Orientation) Orientation {
	return Orientation{
		Pitch: normalizeDegrees(b.Pitch - a.Pitch),
		Yaw:   normalizeDegrees(b.Yaw - a.Yaw),
		Roll:  normalizeDegrees(b.Roll - a.Roll),
	}
}

// AimSmoother converts a jump in desired aim into a bounded per-frame step.
type AimSmoother struct{}

// Step moves current toward desired by 1/factor of the wrapped angular
// delta on each axis. Factors below 1 (or NaN) are clamped to 1, which
// returns desired unchanged.
func (AimSmoother) Step(current, desired Orientation, factor float64) Orientation {
	if !(factor > 1) {
		return desired
	}
	d := AngleDelta(current, desired)
	return Orientation{
		Pitch: normalizeDegrees(current.Pitch + d.Pitch/factor),
		Yaw:   normalizeDegrees(current.Yaw + d.Yaw/factor),
		Roll:  normalizeDegrees(current.Roll + d.Roll/factor),
	}
}
