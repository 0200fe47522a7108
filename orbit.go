package bgthrust

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

const (
	eccentricityε = 5e-5                         // 0.00005
	angleε        = (5e-3 / 360) * (2 * math.Pi) // 0.005 degrees
	distanceε     = 1                            // 1 m
	keplerMaxIter = 100
)

// Orbit defines a two-body orbit from its state vectors at an epoch.
// The orbital elements are always derived from the state vectors.
type Orbit struct {
	a, e, i, Ω, ω, ν float64
	Body             Body
	epoch            float64 // UT of rVec and vVec
	rVec, vVec       []float64
}

// Epoch returns the UT at which the state vectors are defined.
func (o *Orbit) Epoch() float64 {
	return o.epoch
}

// RV returns copies of the state vectors at the epoch.
func (o *Orbit) RV() ([]float64, []float64) {
	return append([]float64(nil), o.rVec...), append([]float64(nil), o.vVec...)
}

// Elements returns the six classical orbital elements (angles in radians).
func (o *Orbit) Elements() (a, e, i, Ω, ω, ν float64) {
	return o.a, o.e, o.i, o.Ω, o.ω, o.ν
}

// SemiMajorAxis returns a (negative for hyperbolic orbits).
func (o *Orbit) SemiMajorAxis() float64 {
	return o.a
}

// Eccentricity returns e.
func (o *Orbit) Eccentricity() float64 {
	return o.e
}

// Energyξ returns the specific mechanical energy ξ.
func (o *Orbit) Energyξ() float64 {
	return -o.Body.μ / (2 * o.a)
}

// H returns the orbital angular momentum vector.
func (o *Orbit) H() []float64 {
	return Cross(o.rVec, o.vVec)
}

// SemiParameter returns the semi parameter p.
func (o *Orbit) SemiParameter() float64 {
	return o.a * (1 - o.e*o.e)
}

// Apoapsis returns the apoapsis radius, +Inf for open orbits.
func (o *Orbit) Apoapsis() float64 {
	if o.e >= 1 {
		return math.Inf(1)
	}
	return o.a * (1 + o.e)
}

// Periapsis returns the periapsis radius.
func (o *Orbit) Periapsis() float64 {
	return o.a * (1 - o.e)
}

// Period returns the period of this orbit in seconds, +Inf for open orbits.
func (o *Orbit) Period() float64 {
	if o.e >= 1 || o.a <= 0 {
		return math.Inf(1)
	}
	return 2 * math.Pi * math.Sqrt(math.Pow(o.a, 3)/o.Body.μ)
}

// StateAtUT returns the position and velocity at the requested UT.
// At the epoch itself the stored vectors are returned unchanged.
func (o *Orbit) StateAtUT(ut float64) (R, V []float64) {
	dt := ut - o.epoch
	if dt == 0 {
		return o.RV()
	}
	return universalKepler(o.rVec, o.vVec, dt, o.Body.μ)
}

// PositionAtUT returns the position relative to the body at the requested UT.
func (o *Orbit) PositionAtUT(ut float64) []float64 {
	R, _ := o.StateAtUT(ut)
	return R
}

// VelocityAtUT returns the inertial velocity at the requested UT.
func (o *Orbit) VelocityAtUT(ut float64) []float64 {
	_, V := o.StateAtUT(ut)
	return V
}

// ProgradeAtUT returns the unit orbital velocity direction at UT.
func (o *Orbit) ProgradeAtUT(ut float64) []float64 {
	return Unit(o.VelocityAtUT(ut))
}

// NormalAtUT returns the unit angular momentum direction at UT.
func (o *Orbit) NormalAtUT(ut float64) []float64 {
	R, V := o.StateAtUT(ut)
	return Unit(Cross(R, V))
}

// RadialOutAtUT returns the unit component of the radius vector perpendicular to the velocity at UT.
func (o *Orbit) RadialOutAtUT(ut float64) []float64 {
	R, V := o.StateAtUT(ut)
	vHat := Unit(V)
	return Unit(Sub(R, Scale(Dot(R, vHat), vHat)))
}

// UpdateFromStateVectors replaces the orbit by the one going through R and V at ut.
// All the elements are recomputed from the new vectors.
func (o *Orbit) UpdateFromStateVectors(R, V []float64, ut float64) {
	o.rVec = append([]float64(nil), R...)
	o.vVec = append([]float64(nil), V...)
	o.epoch = ut
	o.computeElements()
}

// Perturb applies an instantaneous impulse Δv (inertial frame) at ut.
// The position at ut is kept and the elements are recomputed from the new state.
// An exactly zero impulse leaves the orbit untouched.
func (o *Orbit) Perturb(Δv []float64, ut float64) {
	if isZero(Δv) {
		return
	}
	R, V := o.StateAtUT(ut)
	o.UpdateFromStateVectors(R, Add(V, Δv), ut)
}

// computeElements follows Vallado's RV2COE, page 113.
func (o *Orbit) computeElements() {
	R, V := o.rVec, o.vVec
	μ := o.Body.μ
	hVec := Cross(R, V)
	n := Cross([]float64{0, 0, 1}, hVec)
	v := Norm(V)
	r := Norm(R)
	ξ := (v*v)/2 - μ/r
	o.a = -μ / (2 * ξ)
	eVec := make([]float64, 3)
	for i := 0; i < 3; i++ {
		eVec[i] = ((v*v-μ/r)*R[i] - Dot(R, V)*V[i]) / μ
	}
	o.e = Norm(eVec)
	o.i = math.Acos(clampUnit(hVec[2] / Norm(hVec)))

	nNorm := Norm(n)
	o.Ω = 0
	if nNorm > zeroε {
		o.Ω = math.Acos(clampUnit(n[0] / nNorm))
		if n[1] < 0 {
			o.Ω = 2*math.Pi - o.Ω
		}
	}
	o.ω = math.Acos(clampUnit(Dot(n, eVec) / (nNorm * o.e)))
	if math.IsNaN(o.ω) {
		o.ω = 0
	}
	if eVec[2] < 0 {
		o.ω = 2*math.Pi - o.ω
	}
	o.ν = math.Acos(clampUnit(Dot(eVec, R) / (o.e * r)))
	if math.IsNaN(o.ν) {
		o.ν = 0
	}
	if Dot(R, V) < 0 {
		o.ν = 2*math.Pi - o.ν
	}
	// Fix rounding errors.
	o.i = math.Mod(o.i, 2*math.Pi)
	o.Ω = math.Mod(o.Ω, 2*math.Pi)
	o.ω = math.Mod(o.ω, 2*math.Pi)
	o.ν = math.Mod(o.ν, 2*math.Pi)
}

// Copy returns a deep copy of this orbit.
func (o *Orbit) Copy() *Orbit {
	c := *o
	c.rVec, c.vVec = o.RV()
	return &c
}

// String implements the stringer interface.
func (o *Orbit) String() string {
	return fmt.Sprintf("a=%.1f e=%.4f i=%.3f Ω=%.3f ω=%.3f ν=%.3f", o.a, o.e, Rad2deg(o.i), Rad2deg(o.Ω), Rad2deg(o.ω), Rad2deg(o.ν))
}

// Equals returns whether two orbits are identical with free true anomaly.
func (o *Orbit) Equals(o1 *Orbit) (bool, error) {
	if !o.Body.Equals(o1.Body) {
		return false, errors.New("different body")
	}
	if !scalar.EqualWithinAbs(o.a, o1.a, distanceε) {
		return false, errors.New("semi major axis invalid")
	}
	if !scalar.EqualWithinAbs(o.e, o1.e, eccentricityε) {
		return false, errors.New("eccentricity invalid")
	}
	if !scalar.EqualWithinAbs(o.i, o1.i, angleε) {
		return false, errors.New("inclination invalid")
	}
	if o.i > angleε && !scalar.EqualWithinAbs(o.Ω, o1.Ω, angleε) {
		return false, errors.New("RAAN invalid")
	}
	if o.e > eccentricityε && !scalar.EqualWithinAbs(o.ω, o1.ω, angleε) {
		return false, errors.New("argument of periapsis invalid")
	}
	return true, nil
}

// NewOrbitFromRV returns the orbit going through R and V at the epoch.
func NewOrbitFromRV(R, V []float64, epoch float64, b Body) *Orbit {
	o := &Orbit{Body: b}
	o.UpdateFromStateVectors(R, V, epoch)
	return o
}

// NewOrbitFromOE creates an orbit from the orbital elements at an epoch.
// WARNING: Angles must be in degrees not radian.
func NewOrbitFromOE(a, e, i, Ω, ω, ν, epoch float64, b Body) *Orbit {
	i, Ω, ω, ν = Deg2rad(i), Deg2rad(Ω), Deg2rad(ω), Deg2rad(ν)
	p := a * (1 - e*e)
	sinν, cosν := math.Sincos(ν)
	R := []float64{p * cosν / (1 + e*cosν), p * sinν / (1 + e*cosν), 0}
	V := []float64{-math.Sqrt(b.μ/p) * sinν, math.Sqrt(b.μ/p) * (e + cosν), 0}
	return NewOrbitFromRV(PQW2ECI(i, ω, Ω, R), PQW2ECI(i, ω, Ω, V), epoch, b)
}

// universalKepler propagates R0, V0 by dt with the universal variable formulation
// (Curtis, algorithms 3.3 and 3.4), valid for elliptic and hyperbolic orbits.
func universalKepler(R0, V0 []float64, dt, μ float64) ([]float64, []float64) {
	r0 := Norm(R0)
	v0 := Norm(V0)
	vr0 := Dot(R0, V0) / r0
	α := 2/r0 - v0*v0/μ // reciprocal of the semi major axis
	sqrtμ := math.Sqrt(μ)
	if α > 1e-15 {
		// Bound orbit: no need to spin around more than once.
		period := 2 * math.Pi / (sqrtμ * math.Pow(α, 1.5))
		dt = math.Mod(dt, period)
	}

	χ := sqrtμ * math.Abs(α) * dt
	var z, C, S float64
	for iter := 0; iter < keplerMaxIter; iter++ {
		χ2 := χ * χ
		z = α * χ2
		C, S = stumpffC(z), stumpffS(z)
		F := r0*vr0/sqrtμ*χ2*C + (1-α*r0)*χ2*χ*S + r0*χ - sqrtμ*dt
		dF := r0*vr0/sqrtμ*χ*(1-z*S) + (1-α*r0)*χ2*C + r0
		δ := F / dF
		χ -= δ
		if math.Abs(δ) < 1e-11*math.Max(1, math.Abs(χ)) {
			break
		}
	}
	χ2 := χ * χ
	z = α * χ2
	C, S = stumpffC(z), stumpffS(z)

	f := 1 - χ2/r0*C
	g := dt - χ2*χ*S/sqrtμ
	R := Add(Scale(f, R0), Scale(g, V0))
	r := Norm(R)
	fDot := sqrtμ / (r * r0) * (z*χ*S - χ)
	gDot := 1 - χ2/r*C
	V := Add(Scale(fDot, R0), Scale(gDot, V0))
	return R, V
}

func stumpffS(z float64) float64 {
	switch {
	case z > 1e-8:
		sz := math.Sqrt(z)
		return (sz - math.Sin(sz)) / (sz * sz * sz)
	case z < -1e-8:
		sz := math.Sqrt(-z)
		return (math.Sinh(sz) - sz) / (sz * sz * sz)
	}
	return 1.0/6 - z/120
}

func stumpffC(z float64) float64 {
	switch {
	case z > 1e-8:
		return (1 - math.Cos(math.Sqrt(z))) / z
	case z < -1e-8:
		return (math.Cosh(math.Sqrt(-z)) - 1) / -z
	}
	return 0.5 - z/24
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
