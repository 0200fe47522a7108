package bgthrust

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// ThrustAxis is the local axis along which a vessel's engines push.
var ThrustAxis = []float64{0, 1, 0}

// Identity is the identity rotation.
var Identity = quat.Number{Real: 1}

// PQW2ECI converts a given vector from PQW frame to the inertial frame.
func PQW2ECI(i, ω, Ω float64, vI []float64) []float64 {
	var mulM mat.Dense
	mulM.Mul(R3(-Ω), R1(-i))
	mulM.Mul(&mulM, R3(-ω))
	return MxV33(&mulM, vI)
}

// R3R1R3 performs a 3-1-3 Euler parameter rotation.
// From Schaub and Junkins.
func R3R1R3(θ1, θ2, θ3 float64) *mat.Dense {
	sθ1, cθ1 := math.Sincos(θ1)
	sθ2, cθ2 := math.Sincos(θ2)
	sθ3, cθ3 := math.Sincos(θ3)
	return mat.NewDense(3, 3, []float64{cθ3*cθ1 - sθ3*cθ2*sθ1, cθ3*sθ1 + sθ3*cθ2*cθ1, sθ3 * sθ2,
		-sθ3*cθ1 - cθ3*cθ2*sθ1, -sθ3*sθ1 + cθ3*cθ2*cθ1, cθ3 * sθ2,
		sθ2 * sθ1, -sθ2 * cθ1, cθ2})
}

// R1 rotation about the 1st axis.
func R1(x float64) *mat.Dense {
	s, c := math.Sincos(x)
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, c, s, 0, -s, c})
}

// R2 rotation about the 2nd axis.
func R2(x float64) *mat.Dense {
	s, c := math.Sincos(x)
	return mat.NewDense(3, 3, []float64{c, 0, -s, 0, 1, 0, s, 0, c})
}

// R3 rotation about the 3rd axis.
func R3(x float64) *mat.Dense {
	s, c := math.Sincos(x)
	return mat.NewDense(3, 3, []float64{c, s, 0, -s, c, 0, 0, 0, 1})
}

// MxV33 multiplies a matrix with a vector. Note that there is no dimension check!
func MxV33(m mat.Matrix, v []float64) (o []float64) {
	vVec := mat.NewVecDense(len(v), v)
	var rVec mat.VecDense
	rVec.MulVec(m, vVec)
	return []float64{rVec.AtVec(0), rVec.AtVec(1), rVec.AtVec(2)}
}

// RotateVec rotates v by the unit quaternion q, i.e. q·v·q*.
func RotateVec(q quat.Number, v []float64) []float64 {
	p := quat.Number{Imag: v[0], Jmag: v[1], Kmag: v[2]}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return []float64{r.Imag, r.Jmag, r.Kmag}
}

// Normalize returns q scaled to unit norm. The zero quaternion is returned unchanged.
func Normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 || !finite(n) {
		return q
	}
	return quat.Scale(1/n, q)
}

// FromToRotation returns the shortest rotation taking the direction of from onto the direction of to.
// Returns the zero quaternion if either vector is degenerate.
func FromToRotation(from, to []float64) quat.Number {
	u, v := Unit(from), Unit(to)
	if isZero(u) || isZero(v) {
		return quat.Number{}
	}
	d := Dot(u, v)
	if d < -1+1e-12 {
		// Antiparallel: half turn about any axis orthogonal to u.
		axis := Cross(u, []float64{1, 0, 0})
		if Norm(axis) < 1e-6 {
			axis = Cross(u, []float64{0, 0, 1})
		}
		axis = Unit(axis)
		return quat.Number{Imag: axis[0], Jmag: axis[1], Kmag: axis[2]}
	}
	c := Cross(u, v)
	return Normalize(quat.Number{Real: 1 + d, Imag: c[0], Jmag: c[1], Kmag: c[2]})
}

// QuatFinite returns whether every component of q is finite.
func QuatFinite(q quat.Number) bool {
	return !quat.IsNaN(q) && !quat.IsInf(q)
}

// Forward returns the direction the thrust axis points to when rotated by q.
func Forward(q quat.Number) []float64 {
	return RotateVec(Normalize(q), ThrustAxis)
}
