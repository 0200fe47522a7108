package bgthrust

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

// vallado is the Earth in kilometers, to reuse the textbook examples as is.
var vallado = NewBody("vallado", 6378.1363, 3.986004415e5, 0, 0, 924645.438)

func TestOrbitRV2COE(t *testing.T) {
	R := []float64{6524.834, 6862.875, 6448.296}
	V := []float64{4.901327, 5.533756, -1.976341}
	o := NewOrbitFromRV(R, V, 0, vallado)
	oT := NewOrbitFromOE(36127.343, 0.832853, 87.869126, 227.898260, 53.384931, 92.335157, 0, vallado)
	if ok, err := o.Equals(oT); !ok {
		t.Logf("\no0: %s\no1: %s", o, oT)
		t.Fatalf("orbits differ: %s", err)
	}
	_, _, _, _, _, ν := o.Elements()
	if ok, err := anglesEqual(Deg2rad(92.335157), ν); !ok {
		t.Fatalf("true anomaly invalid: %s", err)
	}
	if !scalar.EqualWithinAbs(o.Energyξ(), -5.516604, 1e-4) {
		t.Fatalf("incorrect energy ξ=%f", o.Energyξ())
	}
	if !scalar.EqualWithinAbs(Norm(o.H()), Norm(Cross(R, V)), 1e-6) {
		t.Fatal("incorrect h norm")
	}
}

func TestOrbitCOE2RV(t *testing.T) {
	a0 := 36126.64283
	e0 := 0.83280
	i0 := 87.874925
	ω0 := 53.378089
	Ω0 := 227.891253
	ν0 := 92.335027
	R := []float64{6524.344, 6861.535, 6449.125}
	V := []float64{4.902276, 5.533124, -1.975709}

	o0 := NewOrbitFromOE(a0, e0, i0, Ω0, ω0, ν0, 0, vallado)
	R0, V0 := o0.RV()
	if !vectorsEqual(R, R0) {
		t.Fatalf("R vector incorrectly computed:\n%+v\n%+v", R, R0)
	}
	if !vectorsEqual(V, V0) {
		t.Fatal("V vector incorrectly computed")
	}

	o1 := NewOrbitFromRV(R0, V0, 0, vallado)
	if ok, err := o0.Equals(o1); !ok {
		t.Logf("\no0: %s\no1: %s", o0, o1)
		t.Fatal(err)
	}
	if ok, err := anglesEqual(Deg2rad(ν0), o1.ν); !ok {
		t.Fatalf("true anomaly invalid: %s", err)
	}
	if !scalar.EqualWithinAbs(o1.SemiMajorAxis(), a0, 1e-4) || !scalar.EqualWithinAbs(o1.Eccentricity(), e0, 1e-8) {
		t.Fatalf("round trip changed the shape: %s", o1)
	}
}

func TestOrbitEpochIsExact(t *testing.T) {
	o := NewOrbitFromOE(900e3, 0.2, 12, 40, 80, 33, 1234.5, Kerbin)
	R0, V0 := o.RV()
	R, V := o.StateAtUT(1234.5)
	for i := 0; i < 3; i++ {
		if R[i] != R0[i] || V[i] != V0[i] {
			t.Fatalf("state at epoch differs: %v %v vs %v %v", R, V, R0, V0)
		}
	}
	// The returned vectors are copies.
	R[0] = 0
	if o.PositionAtUT(1234.5)[0] == 0 {
		t.Fatal("StateAtUT exposed the orbit's vectors")
	}
}

func TestOrbitPropagation(t *testing.T) {
	for _, o := range []*Orbit{
		lowKerbinOrbit(),
		NewOrbitFromOE(900e3, 0.2, 12, 40, 80, 33, 0, Kerbin),
		NewOrbitFromOE(250e3, 0.05, 95, 10, 270, 180, 0, Mun),
	} {
		R0, V0 := o.RV()
		ξ0 := specificEnergy(o, 0)
		h0 := Norm(o.H())
		for _, dt := range []float64{1, 60, 3600, 3 * o.Period()} {
			R, V := o.StateAtUT(dt)
			ξ := Dot(V, V)/2 - o.Body.GM()/Norm(R)
			if !scalar.EqualWithinRel(ξ, ξ0, 1e-8) {
				t.Fatalf("%s: energy not conserved after %f s: %f != %f", o, dt, ξ, ξ0)
			}
			if h := Norm(Cross(R, V)); !scalar.EqualWithinRel(h, h0, 1e-8) {
				t.Fatalf("%s: angular momentum not conserved after %f s", o, dt)
			}
		}
		R, V := o.StateAtUT(o.Period())
		if !vectorsEqual(R, R0) || !vectorsEqual(V, V0) {
			t.Fatalf("%s: not back to the start after one period:\n%v %v\n%v %v", o, R, V, R0, V0)
		}
	}
	// Half a period on a circular orbit is the opposite point.
	o := lowKerbinOrbit()
	R0, V0 := o.RV()
	R, V := o.StateAtUT(o.Period() / 2)
	if !vectorsEqual(R, Negate(R0)) || !vectorsEqual(V, Negate(V0)) {
		t.Fatalf("half period: %v %v", R, V)
	}
}

func TestOrbitHyperbolic(t *testing.T) {
	o := NewOrbitFromOE(-1e6, 1.5, 0, 0, 0, 0, 0, Kerbin)
	if !math.IsInf(o.Period(), 1) || !math.IsInf(o.Apoapsis(), 1) {
		t.Fatal("an open orbit has no period nor apoapsis")
	}
	ξ0 := specificEnergy(o, 0)
	if ξ0 <= 0 {
		t.Fatalf("hyperbolic energy should be positive: %f", ξ0)
	}
	for _, dt := range []float64{10, 1000, 20000} {
		if ξ := specificEnergy(o, dt); !scalar.EqualWithinRel(ξ, ξ0, 1e-8) {
			t.Fatalf("energy not conserved after %f s: %f != %f", dt, ξ, ξ0)
		}
	}
	if r := Norm(o.PositionAtUT(20000)); r <= o.Periapsis() {
		t.Fatal("the vessel should be escaping")
	}
}

func TestOrbitDirections(t *testing.T) {
	o := lowKerbinOrbit()
	ut := 500.0
	R, V := o.StateAtUT(ut)
	if !vectorsEqual(o.ProgradeAtUT(ut), Unit(V)) {
		t.Fatal("invalid prograde")
	}
	if !vectorsEqual(o.NormalAtUT(ut), []float64{0, 0, 1}) {
		t.Fatalf("normal of a prograde equatorial orbit is +z, got %v", o.NormalAtUT(ut))
	}
	if !vectorsEqual(o.RadialOutAtUT(ut), Unit(R)) {
		t.Fatal("radial out of a circular orbit is along R")
	}
	if !scalar.EqualWithinAbs(Dot(o.RadialOutAtUT(ut), o.ProgradeAtUT(ut)), 0, 1e-9) {
		t.Fatal("radial out must be perpendicular to prograde")
	}
	_, e, i, Ω, ω, ν := o.Elements()
	for _, v := range []float64{e, i, Ω, ω, ν} {
		if math.IsNaN(v) {
			t.Fatalf("circular equatorial elements contain NaN: %s", o)
		}
	}
}

func TestOrbitPerturb(t *testing.T) {
	o := NewOrbitFromOE(900e3, 0.2, 12, 40, 80, 33, 0, Kerbin)
	ut := 750.0
	R, V := o.StateAtUT(ut)
	Δv := []float64{3, -2, 10}
	o.Perturb(Δv, ut)
	R1, V1 := o.StateAtUT(ut)
	for i := 0; i < 3; i++ {
		if R1[i] != R[i] {
			t.Fatalf("position changed by the impulse: %v != %v", R1, R)
		}
		if !scalar.EqualWithinAbs(V1[i]-V[i], Δv[i], 1e-9) {
			t.Fatalf("velocity change %v != %v", Sub(V1, V), Δv)
		}
	}
	if o.Epoch() != ut {
		t.Fatalf("epoch should move to the impulse: %f", o.Epoch())
	}

	// Prograde raises the orbit.
	o = lowKerbinOrbit()
	ξ0 := o.Energyξ()
	o.Perturb(Scale(10, o.ProgradeAtUT(100)), 100)
	if o.Energyξ() <= ξ0 || o.Apoapsis() <= 700e3 {
		t.Fatalf("prograde impulse did not raise the orbit: %s", o)
	}
}

func TestOrbitPerturbZero(t *testing.T) {
	o := NewOrbitFromOE(900e3, 0.2, 12, 40, 80, 33, 0, Kerbin)
	before := *o
	R0, V0 := o.RV()
	o.Perturb([]float64{0, 0, 0}, 1e4)
	R1, V1 := o.RV()
	if o.Epoch() != before.Epoch() || o.a != before.a || o.e != before.e || o.ν != before.ν {
		t.Fatal("zero impulse changed the orbit")
	}
	for i := 0; i < 3; i++ {
		if R0[i] != R1[i] || V0[i] != V1[i] {
			t.Fatal("zero impulse changed the state vectors")
		}
	}
}

func TestOrbitCopy(t *testing.T) {
	o := lowKerbinOrbit()
	c := o.Copy()
	if ok, err := o.Equals(c); !ok {
		t.Fatal(err)
	}
	c.Perturb([]float64{0, 50, 0}, 0)
	if ok, _ := o.Equals(c); ok {
		t.Fatal("perturbing a copy changed the original")
	}
	if ok, err := o.Equals(NewOrbitFromOE(700e3, 0, 0, 0, 0, 0, 0, Mun)); ok || err == nil {
		t.Fatal("orbits around different bodies are different")
	}
}
