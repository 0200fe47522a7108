package bgthrust

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

func TestR1R2R3(t *testing.T) {
	x := math.Pi / 3.0
	s, c := math.Sincos(x)
	r1 := R1(x)
	r2 := R2(x)
	r3 := R3(x)
	// Test items equal to 1.
	if r1.At(0, 0) != r2.At(1, 1) || r1.At(0, 0) != r3.At(2, 2) || r3.At(2, 2) != 1 {
		t.Fatal("expected R1.At(0, 0) = R2.At(1, 1) = R3.At(2, 2) = 1")
	}
	// Test items equal to 0.
	if r1.At(0, 1) != r1.At(0, 2) || r1.At(1, 0) != r1.At(2, 0) || r1.At(0, 1) != 0 {
		t.Fatal("misplaced zeros in R1")
	}
	if r2.At(0, 1) != r2.At(1, 2) || r2.At(1, 0) != r2.At(1, 2) || r2.At(1, 2) != 0 {
		t.Fatal("misplaced zeros in R2")
	}
	if r3.At(2, 0) != r3.At(2, 1) || r3.At(0, 2) != r3.At(1, 2) || r3.At(1, 2) != 0 {
		t.Fatal("misplaced zeros in R3")
	}
	if r1.At(1, 1) != r1.At(2, 2) || r1.At(2, 2) != c {
		t.Fatal("expected R1 cosines misplaced")
	}
	if r1.At(2, 1) != -r1.At(1, 2) || r1.At(1, 2) != s {
		t.Fatal("expected R1 sines misplaced")
	}
	if r2.At(0, 0) != r2.At(2, 2) || r2.At(2, 2) != c {
		t.Fatal("expected R2 cosines misplaced")
	}
	if r2.At(2, 0) != -r2.At(0, 2) || r2.At(2, 0) != s {
		t.Fatal("expected R2 sines misplaced")
	}
	if r3.At(1, 1) != r3.At(0, 0) || r3.At(0, 0) != c {
		t.Fatal("expected R3 cosines misplaced")
	}
	if r3.At(0, 1) != -r3.At(1, 0) || r3.At(0, 1) != s {
		t.Fatal("expected R3 sines misplaced")
	}
}

func TestRot313(t *testing.T) {
	var R1R3, R3R1R3m mat.Dense
	θ1 := math.Pi / 17
	θ2 := math.Pi / 16
	θ3 := math.Pi / 15
	R1R3.Mul(R1(θ2), R3(θ1))
	R3R1R3m.Mul(R3(θ3), &R1R3)
	if !mat.EqualApprox(&R3R1R3m, R3R1R3(θ1, θ2, θ3), 1e-12) {
		t.Logf("\n%v", mat.Formatted(&R3R1R3m))
		t.Logf("\n%v", mat.Formatted(R3R1R3(θ1, θ2, θ3)))
		t.Fatal("failed")
	}
}

func TestPQW2ECI(t *testing.T) {
	i := Deg2rad(87.87)
	ω := Deg2rad(53.38)
	Ω := Deg2rad(227.89)
	Rp := PQW2ECI(i, ω, Ω, []float64{-466.7639, 11447.0219, 0})
	Re := []float64{6525.368103709379, 6861.531814548294, 6449.118636407358}
	if !vectorsEqual(Re, Rp) {
		t.Fatalf("R conversion failed: %v", Rp)
	}
	Vp := PQW2ECI(i, ω, Ω, []float64{-5.996222, 4.753601, 0})
	Ve := []float64{4.902278620687254, 5.533139558121602, -1.9757104281719946}
	if !vectorsEqual(Ve, Vp) {
		t.Fatalf("V conversion failed: %v", Vp)
	}
}

func TestRotateVec(t *testing.T) {
	q := quat.Number{Real: math.Cos(math.Pi / 4), Kmag: math.Sin(math.Pi / 4)}
	if v := RotateVec(q, []float64{1, 0, 0}); !vectorsEqual(v, []float64{0, 1, 0}) {
		t.Fatalf("90° about z should take x to y, got %v", v)
	}
	if v := Forward(Identity); !vectorsEqual(v, ThrustAxis) {
		t.Fatalf("identity forward is %v", v)
	}
	// Forward normalizes.
	if v := Forward(quat.Scale(3, q)); !vectorsEqual(v, []float64{-1, 0, 0}) {
		t.Fatalf("scaled rotation forward is %v", v)
	}
}

func TestFromToRotation(t *testing.T) {
	for _, tc := range []struct {
		from, to []float64
	}{
		{[]float64{0, 1, 0}, []float64{1, 0, 0}},
		{[]float64{0, 1, 0}, []float64{0, 1, 0}},
		{[]float64{0, 1, 0}, []float64{0, -3, 0}},
		{[]float64{1, 0, 0}, []float64{-1, 0, 0}},
		{[]float64{1, 2, 3}, []float64{-4, 0.5, 2}},
	} {
		q := FromToRotation(tc.from, tc.to)
		if !scalar.EqualWithinAbs(quat.Abs(q), 1, 1e-12) {
			t.Fatalf("%v -> %v: rotation is not a unit quaternion: %v", tc.from, tc.to, q)
		}
		if got := RotateVec(q, Unit(tc.from)); !vectorsEqual(got, Unit(tc.to)) {
			t.Fatalf("%v -> %v: got %v", tc.from, tc.to, got)
		}
	}
	if q := FromToRotation([]float64{0, 0, 0}, []float64{1, 0, 0}); q != (quat.Number{}) {
		t.Fatalf("degenerate rotation should be zero, got %v", q)
	}
}

func TestNormalize(t *testing.T) {
	if q := Normalize(quat.Number{}); q != (quat.Number{}) {
		t.Fatal("zero quaternion should be returned unchanged")
	}
	if q := Normalize(quat.Number{Real: 2, Imag: 2, Jmag: 2, Kmag: 2}); !scalar.EqualWithinAbs(quat.Abs(q), 1, 1e-12) {
		t.Fatalf("normalized norm is %f", quat.Abs(q))
	}
	if QuatFinite(quat.Number{Real: math.NaN()}) || QuatFinite(quat.Number{Jmag: math.Inf(1)}) || !QuatFinite(Identity) {
		t.Fatal("QuatFinite fail")
	}
}
