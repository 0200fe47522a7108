package bgthrust

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

const (
	deg2rad = math.Pi / 180
	// zeroε is the norm under which a vector is considered to be the zero vector.
	zeroε = 1e-12
)

// Norm returns the norm of a given vector which is supposed to be 3x1.
func Norm(v []float64) float64 {
	return floats.Norm(v, 2)
}

// Unit returns the unit vector of a given vector.
// The unit of a (near) zero vector is the zero vector.
func Unit(a []float64) (b []float64) {
	n := Norm(a)
	b = make([]float64, len(a))
	if scalar.EqualWithinAbs(n, 0, zeroε) || math.IsNaN(n) {
		return
	}
	floats.ScaleTo(b, 1/n, a)
	return
}

// Dot performs the inner product.
func Dot(a, b []float64) float64 {
	return floats.Dot(a, b)
}

// Cross performs the cross product.
func Cross(a, b []float64) []float64 {
	return []float64{a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0]}
}

// Add returns a+b as a new vector.
func Add(a, b []float64) []float64 {
	return floats.AddTo(make([]float64, len(a)), a, b)
}

// Sub returns a-b as a new vector.
func Sub(a, b []float64) []float64 {
	return floats.SubTo(make([]float64, len(a)), a, b)
}

// Scale returns s*a as a new vector.
func Scale(s float64, a []float64) []float64 {
	return floats.ScaleTo(make([]float64, len(a)), s, a)
}

// Negate returns -a as a new vector.
func Negate(a []float64) []float64 {
	return Scale(-1, a)
}

// isZero returns whether every component is exactly zero.
func isZero(a []float64) bool {
	for _, v := range a {
		if v != 0 {
			return false
		}
	}
	return true
}

// finite returns whether v is neither NaN nor infinite.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// vecFinite returns whether all components of a are finite.
func vecFinite(a []float64) bool {
	for _, v := range a {
		if !finite(v) {
			return false
		}
	}
	return true
}

// sign returns the sign of a given number.
func sign(v float64) float64 {
	if scalar.EqualWithinAbs(v, 0, zeroε) {
		return 1
	}
	return v / math.Abs(v)
}

// Deg2rad converts degrees to radians, and enforced only positive numbers.
func Deg2rad(a float64) float64 {
	if a < 0 {
		a += 360
	}
	return math.Mod(a*deg2rad, 2*math.Pi)
}

// Rad2deg converts radians to degrees, and enforced only positive numbers.
func Rad2deg(a float64) float64 {
	if a < 0 {
		a += 2 * math.Pi
	}
	return math.Mod(a/deg2rad, 360)
}
