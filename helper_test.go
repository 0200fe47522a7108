package bgthrust

import (
	"fmt"
	"math"
	"testing"
)

func assertPanic(t *testing.T, f func()) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("code did not panic")
		}
	}()
	f()
}

// vectorsEqual returns whether a and b are within 0.1% of the norm of b.
func vectorsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	return Norm(Sub(a, b)) <= 1e-3*Norm(b)+1e-9
}

//anglesEqual returns whether two angles in Radians are equal.
func anglesEqual(a, b float64) (bool, error) {
	diff := math.Mod(math.Abs(a-b), 2*math.Pi)
	if diff < angleε || 2*math.Pi-diff < angleε {
		return true, nil
	}
	return false, fmt.Errorf("difference of %3.10f degrees", math.Abs(Rad2deg(diff)))
}

// events records everything a state emits.
type events []Event

func (e *events) handle(ev Event) {
	*e = append(*e, ev)
}

func (e events) count(k EventKind) int {
	n := 0
	for _, ev := range e {
		if ev.Kind == k {
			n++
		}
	}
	return n
}

func (e events) last(k EventKind) (Event, bool) {
	for i := len(e) - 1; i >= 0; i-- {
		if e[i].Kind == k {
			return e[i], true
		}
	}
	return Event{}, false
}

// lowKerbinOrbit is a circular equatorial orbit 100 km above Kerbin.
func lowKerbinOrbit() *Orbit {
	return NewOrbitFromOE(700e3, 0, 0, 0, 0, 0, 0, Kerbin)
}

// newTestState returns a vessel of 1000 kg dry mass and 500 kg of fuel with a 1 kN engine,
// whose state records its events.
func newTestState(rep Representation, info VesselInfoProvider) (*SimVessel, *VesselThrustState, *events) {
	v := NewSimVessel("probe", lowKerbinOrbit(), 1000, 500, NewGenericEngine(1000, 300))
	v.Rep = rep
	v.IsActive = true
	s := NewVesselThrustState(v, info, DefaultSettings(), nil)
	evs := new(events)
	s.handler = evs.handle
	return v, s, evs
}

// specificEnergy returns v²/2 - μ/r at ut.
func specificEnergy(o *Orbit, ut float64) float64 {
	R, V := o.StateAtUT(ut)
	return Dot(V, V)/2 - o.Body.GM()/Norm(R)
}
