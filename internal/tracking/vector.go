package tracking

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec3 is a position, velocity or direction in the host's world frame.
type Vec3 = r3.Vec

// degenerateNorm is the length below which a direction vector is treated as zero.
const degenerateNorm = 1e-9

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func isFiniteVec(v Vec3) bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

// angleBetweenDeg returns the angle between a and b in degrees.
// ok is false when either vector is degenerate.
func angleBetweenDeg(a, b Vec3) (deg float64, ok bool) {
	if r3.Norm(a) < degenerateNorm || r3.Norm(b) < degenerateNorm {
		return 0, false
	}
	c := r3.Cos(a, b)
	// Rounding can push |cos| just past 1.
	c = math.Max(-1, math.Min(1, c))
	return math.Acos(c) * 180 / math.Pi, true
}

// unitOrZero normalises v, falling back to the zero vector when v is degenerate.
func unitOrZero(v Vec3) Vec3 {
	if r3.Norm(v) < degenerateNorm {
		return Vec3{}
	}
	return r3.Unit(v)
}

// normalizeDegrees wraps a into [-180, 180). Values already in range are
// returned unchanged so exact inputs stay exact.
func normalizeDegrees(a float64) float64 {
	if a >= -180 && a < 180 {
		return a
	}
	a = math.Mod(a+180, 360)
	if a < 0 {
		a += 360
	}
	return a - 180
}
