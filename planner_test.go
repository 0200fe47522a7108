package bgthrust

import (
	"math"
	"testing"
)

func TestHohmann(t *testing.T) {
	// Vallado example 6-1, LEO to GEO.
	rI, rF := 6569.4781, 42159.4855
	vDep, vArr, tof := Hohmann(rI, rF, vallado)
	if dv := vDep - math.Sqrt(vallado.GM()/rI); math.Abs(dv-2.457038) > 1e-3 {
		t.Fatalf("Δv departure = %f km/s", dv)
	}
	if dv := math.Sqrt(vallado.GM()/rF) - vArr; math.Abs(dv-1.478187) > 1e-3 {
		t.Fatalf("Δv arrival = %f km/s", dv)
	}
	if hours := tof / 3600; math.Abs(hours-5.256713) > 1e-3 {
		t.Fatalf("time of flight = %f h", hours)
	}
}

func TestPlanHohmann(t *testing.T) {
	o := lowKerbinOrbit()
	rF := 2e6
	dep, arr := PlanHohmann(o, 0, rF)
	if dep.UT != 0 || arr.UT <= dep.UT {
		t.Fatalf("node times %f, %f", dep.UT, arr.UT)
	}
	if apo := dep.Patch.Apoapsis(); math.Abs(apo-rF) > 1 {
		t.Fatalf("transfer apoapsis = %f m", apo)
	}
	if r := Norm(dep.Patch.PositionAtUT(arr.UT)); math.Abs(r-rF) > 10 {
		t.Fatalf("arrival radius = %f m", r)
	}
	if e := arr.Patch.Eccentricity(); e > 1e-5 {
		t.Fatalf("final orbit eccentricity = %g", e)
	}
	if a := arr.Patch.SemiMajorAxis(); math.Abs(a-rF) > 50 {
		t.Fatalf("final orbit sma = %f m", a)
	}

	// Lowering the orbit burns retrograde.
	high := NewOrbitFromOE(rF, 0, 0, 0, 0, 0, 0, Kerbin)
	dep, _ = PlanHohmann(high, 0, 700e3)
	if Dot(dep.BurnVector(high), high.VelocityAtUT(0)) >= 0 {
		t.Fatal("lowering burn should be retrograde")
	}
}
