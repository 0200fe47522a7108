package bgthrust

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestCross(t *testing.T) {
	i := []float64{1, 0, 0}
	j := []float64{0, 1, 0}
	k := []float64{0, 0, 1}
	if !vectorsEqual(Cross(i, j), k) {
		t.Fatal("i x j != k")
	}
	if !vectorsEqual(Cross(j, k), i) {
		t.Fatal("j x k != i")
	}
	if !vectorsEqual(Cross([]float64{2, 3, 4}, []float64{5, 6, 7}), []float64{-3, 6, -3}) {
		t.Fatal("cross fail")
	}
	// From Vallado
	if !vectorsEqual(Cross([]float64{6524.834, 6862.875, 6448.296}, []float64{4.901327, 5.533756, -1.976341}), []float64{-4.924667792015100e4, 4.450050424118601e4, 0.246964476137900e4}) {
		t.Fatal("cross fail")
	}
}

func TestAngles(t *testing.T) {
	for _, deg := range []float64{0, 30, 45, 90, 180, 270, 359.5} {
		if r := Deg2rad(deg); !scalar.EqualWithinAbs(r, deg*math.Pi/180, 1e-12) {
			t.Fatalf("Deg2rad(%f) = %f", deg, r)
		}
		if d := Rad2deg(Deg2rad(deg)); !scalar.EqualWithinAbs(d, deg, 1e-9) {
			t.Fatalf("Rad2deg(Deg2rad(%f)) = %f", deg, d)
		}
	}
	if r := Deg2rad(-90); !scalar.EqualWithinAbs(r, 3*math.Pi/2, 1e-12) {
		t.Fatalf("Deg2rad(-90) = %f", r)
	}
	if d := Rad2deg(-math.Pi / 2); !scalar.EqualWithinAbs(d, 270, 1e-9) {
		t.Fatalf("Rad2deg(-π/2) = %f", d)
	}
}

func TestMisc(t *testing.T) {
	if vectorsEqual([]float64{1, 0}, []float64{1, 0, 0}) {
		t.Fatal("vectors of different sizes should not be equal")
	}
	if sign(10) != 1 {
		t.Fatal("sign of 10 != 1")
	}
	if sign(-10) != -1 {
		t.Fatal("sign of -10 != 1")
	}
	if sign(0) != 1 {
		t.Fatal("sign of 0 != 1")
	}
	nilVec := []float64{0, 0, 0}
	if Norm(nilVec) != 0 {
		t.Fatal("norm of a nil vector was not nil")
	}
	five0 := []float64{5, 6, 7}
	five1 := []float64{7, 6, 5}
	if !scalar.EqualWithinAbs(Norm(five0), math.Sqrt(110), 1e-12) || !scalar.EqualWithinAbs(Norm(five0), Norm(five1), 1e-12) {
		t.Fatal("norm of the [5, 6, 7] and permutations is invalid")
	}
	if !isZero(Unit(nilVec)) {
		t.Fatal("unit of a nil vector should be nil")
	}
	if !isZero(Unit([]float64{math.NaN(), 0, 0})) {
		t.Fatal("unit of a NaN vector should be nil")
	}
	if u := Unit(five0); !scalar.EqualWithinAbs(Norm(u), 1, 1e-12) {
		t.Fatalf("unit vector has norm %f", Norm(u))
	}
	if !vectorsEqual(Sub(Add(five0, five1), five1), five0) {
		t.Fatal("add or sub fail")
	}
	if !vectorsEqual(Negate(five0), Scale(-1, five0)) {
		t.Fatal("negate fail")
	}
	if Dot(five0, five1) != 5*7+6*6+7*5 {
		t.Fatal("dot fail")
	}
	if finite(math.NaN()) || finite(math.Inf(-1)) || !finite(0) {
		t.Fatal("finite fail")
	}
	if vecFinite([]float64{1, math.Inf(1), 0}) || !vecFinite(five0) {
		t.Fatal("vecFinite fail")
	}
}
