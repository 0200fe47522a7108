package bgthrust

import (
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestManeuverNode(t *testing.T) {
	o := NewOrbitFromOE(900e3, 0.2, 12, 40, 80, 33, 0, Kerbin)
	ut := 600.0
	node := NewManeuverNode(o, ut, 100, 0, 0)
	if !vectorsEqual(node.BurnVector(o), Scale(100, o.ProgradeAtUT(ut))) {
		t.Fatalf("prograde burn vector %v", node.BurnVector(o))
	}
	if o.Epoch() != 0 {
		t.Fatal("planning a node changed the orbit")
	}
	if node.Patch.Apoapsis() <= o.Apoapsis() {
		t.Fatal("a prograde node should raise the apoapsis")
	}
	node = NewManeuverNode(o, ut, 3, -4, 12)
	exp := Add(Add(Scale(3, o.ProgradeAtUT(ut)), Scale(-4, o.NormalAtUT(ut))), Scale(12, o.RadialOutAtUT(ut)))
	if bv := node.BurnVector(o); !vectorsEqual(bv, exp) || !scalar.EqualWithinAbs(Norm(bv), 13, 1e-6) {
		t.Fatalf("burn vector %v instead of %v", bv, exp)
	}
}

// burnTest puts a probe on a maneuver of burn vector (10, 0, 0) at UT 100.
func burnTest(t *testing.T) (*SimVessel, *VesselThrustState, *events, *ManeuverNode) {
	v, s, evs := newTestState(Packed, nil)
	patch := v.Orbit().Copy()
	patch.Perturb([]float64{10, 0, 0}, 100)
	node := &ManeuverNode{UT: 100, Patch: patch}
	v.AddManeuver(node)
	if !vectorsEqual(node.BurnVector(v.Orbit()), []float64{10, 0, 0}) {
		t.Fatalf("invalid burn vector %v", node.BurnVector(v.Orbit()))
	}
	s.SetThrottle(1, 90)
	s.SetTargetHeading(NewManeuverHeading(), 90)
	return v, s, evs, node
}

func TestManeuverOvershootCompletes(t *testing.T) {
	v, s, evs, node := burnTest(t)
	params := ThrustParameters{StartUT: 99, StopUT: 100, StartMass: 1000, StopMass: 1000, Thrust: []float64{12000, 0, 0}}
	if Δv := params.ComputeDeltaV(); Δv != 12 {
		t.Fatalf("Δv=%f", Δv)
	}
	s.heading.IntegrateThrust(s, params)
	if rem := Norm(node.BurnVector(v.Orbit())); rem > 1e-6 {
		t.Fatalf("only the remaining burn should be applied, %f m/s left", rem)
	}
	if e, ok := evs.last(Integrated); !ok || !scalar.EqualWithinAbs(e.DeltaV, 10, 1e-6) {
		t.Fatalf("integrated %+v", e)
	}
	if evs.count(ManeuverComplete) != 1 {
		t.Fatal("maneuver not completed")
	}
	if s.Throttle() != 0 || s.Heading() != nil || s.Status() != Idle {
		t.Fatalf("thrust not cut: %s", s)
	}
	if e, ok := evs.last(ScreenMessage); !ok || e.Message != msgManeuverComplete {
		t.Fatal("the pilot was not told")
	}
	if e, ok := evs.last(Cutoff); !ok || e.Reason != ReasonManeuver || e.VesselID != "probe" {
		t.Fatalf("invalid cutoff %+v", e)
	}
}

func TestManeuverPartialBurn(t *testing.T) {
	v, s, evs, node := burnTest(t)
	params := ThrustParameters{StartUT: 99, StopUT: 100, StartMass: 1000, StopMass: 1000, Thrust: []float64{4000, 0, 0}}
	s.heading.IntegrateThrust(s, params)
	if bv := node.BurnVector(v.Orbit()); !vectorsEqual(bv, []float64{6, 0, 0}) {
		t.Fatalf("remaining burn %v", bv)
	}
	if evs.count(ManeuverComplete) != 0 || s.Throttle() != 1 || s.Heading() == nil {
		t.Fatal("maneuver completed too early")
	}
}

func TestManeuverWithoutNode(t *testing.T) {
	v, s, evs, _ := burnTest(t)
	v.PopManeuver()
	epoch := v.Orbit().Epoch()
	s.heading.IntegrateThrust(s, ThrustParameters{StartUT: 99, StopUT: 100, StartMass: 1000, StopMass: 1000, Thrust: []float64{1, 0, 0}})
	if evs.count(ManeuverComplete) != 1 || s.Heading() != nil {
		t.Fatal("a maneuver heading without node is complete")
	}
	if v.Orbit().Epoch() != epoch {
		t.Fatal("no node means no thrust")
	}
}
