package bgthrust

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestDeltaVConstantMass(t *testing.T) {
	p := ThrustParameters{StartUT: 0, StopUT: 100, StartMass: 1000, StopMass: 1000, Thrust: []float64{0, 50, 0}}
	if Δv := p.ComputeDeltaV(); !scalar.EqualWithinAbs(Δv, 50*100/1000., 1e-12) {
		t.Fatalf("Δv=%f instead of 5", Δv)
	}
	// Below ε the mass is considered constant, and the stop mass is used.
	p.StopMass = 1000 - 1e-3
	if Δv := p.ComputeDeltaVε(1e-2); !scalar.EqualWithinAbs(Δv, 50*100/p.StopMass, 1e-12) {
		t.Fatalf("Δv=%f should use the constant mass formula", Δv)
	}
	if Δv := p.ComputeDeltaVε(1e-6); scalar.EqualWithinAbs(Δv, 50*100/p.StopMass, 1e-9) {
		t.Fatal("a mass change above ε should use the rocket equation")
	}
}

func TestDeltaVRocketEquation(t *testing.T) {
	p := ThrustParameters{StartUT: 0, StopUT: 100, StartMass: 1000, StopMass: 900, Thrust: []float64{50, 0, 0}}
	exp := 50 / -100. * math.Log(900/1000.) * 100
	Δv := p.ComputeDeltaV()
	if !scalar.EqualWithinAbs(Δv, exp, 1e-12) {
		t.Fatalf("Δv=%f != %f", Δv, exp)
	}
	if !scalar.EqualWithinAbs(Δv, 5.268, 1e-3) {
		t.Fatalf("Δv=%f instead of 5.268 m/s", Δv)
	}
	// Burning fuel is more efficient than carrying it.
	if Δv <= 50*100/1000. {
		t.Fatal("rocket equation should beat the wet mass constant estimate")
	}
	if ΔvV := p.ComputeDeltaVV(); !vectorsEqual(ΔvV, []float64{exp, 0, 0}) {
		t.Fatalf("Δv vector %v", ΔvV)
	}
}

func TestUTAtDeltaV(t *testing.T) {
	for _, p := range []ThrustParameters{
		{StartUT: 0, StopUT: 100, StartMass: 1000, StopMass: 900, Thrust: []float64{50, 0, 0}},
		{StartUT: 3600, StopUT: 3610, StartMass: 1000, StopMass: 1000, Thrust: []float64{3, 4, 0}},
		{StartUT: -20, StopUT: 5000, StartMass: 20e3, StopMass: 5e3, Thrust: []float64{0, 0, -2e5}},
		{StartUT: 10, StopUT: 11, StartMass: 50, StopMass: 60, Thrust: []float64{1, 1, 1}}, // refuelling
	} {
		Δv := p.ComputeDeltaV()
		if ut := p.UTAtDeltaV(Δv); !scalar.EqualWithinAbsOrRel(ut, p.StopUT, 1e-9, 1e-9) {
			t.Fatalf("%s: UT at Δv=%f is %f", p, Δv, ut)
		}
		if ut := p.UTAtDeltaV(0); !scalar.EqualWithinAbs(ut, p.StartUT, 1e-9) {
			t.Fatalf("%s: UT at no Δv is %f", p, ut)
		}
	}
}

func TestThrustParameters(t *testing.T) {
	p := ThrustParameters{StartUT: 5, StopUT: 15, StartMass: 100, StopMass: 90}
	if p.DeltaT() != 10 || p.DeltaM() != -10 {
		t.Fatal("invalid deltas")
	}
	if p.ThrustMagnitude() != 0 || p.ComputeDeltaV() != 0 {
		t.Fatal("no thrust vector means no thrust")
	}
	p.Thrust = []float64{0, 0, 0}
	if !isZero(p.ComputeDeltaVV()) {
		t.Fatal("zero thrust must yield a zero Δv vector")
	}
	// A zero mass is not checked by the computation itself.
	p = ThrustParameters{StartUT: 0, StopUT: 1, StartMass: 0, StopMass: 0, Thrust: []float64{1, 0, 0}}
	if finite(p.ComputeDeltaV()) {
		t.Fatal("zero mass should not yield a finite Δv")
	}
}
