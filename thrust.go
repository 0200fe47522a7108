package bgthrust

import (
	"fmt"
	"math"
)

// DefaultMassε is the mass difference (in kg) under which the mass is considered constant.
const DefaultMassε = 1e-6

// ThrustParameters describes one integration step of continuous thrust.
// StopUT must not be before StartUT. The thrust vector is in the inertial frame.
type ThrustParameters struct {
	StartUT, StopUT     float64
	StartMass, StopMass float64
	Thrust              []float64 // Newtons
}

// DeltaT returns the duration of this step.
func (p ThrustParameters) DeltaT() float64 {
	return p.StopUT - p.StartUT
}

// DeltaM returns the mass change over this step (negative when burning fuel).
func (p ThrustParameters) DeltaM() float64 {
	return p.StopMass - p.StartMass
}

// ThrustMagnitude returns the norm of the thrust vector.
func (p ThrustParameters) ThrustMagnitude() float64 {
	if len(p.Thrust) == 0 {
		return 0
	}
	return Norm(p.Thrust)
}

// ComputeDeltaV returns the delta-v magnitude of this step using DefaultMassε.
func (p ThrustParameters) ComputeDeltaV() float64 {
	return p.ComputeDeltaVε(DefaultMassε)
}

// ComputeDeltaVε returns the delta-v magnitude of this step.
// A mass change smaller than ε in magnitude is treated as constant mass.
// The result is not checked: callers must reject NaN or infinite values.
func (p ThrustParameters) ComputeDeltaVε(ε float64) float64 {
	T := p.ThrustMagnitude()
	ΔM := p.DeltaM()
	if math.Abs(ΔM) < ε {
		return T * p.DeltaT() / p.StopMass
	}
	return T / ΔM * math.Log(p.StopMass/p.StartMass) * p.DeltaT()
}

// ComputeDeltaVV returns the delta-v vector using DefaultMassε.
func (p ThrustParameters) ComputeDeltaVV() []float64 {
	return p.ComputeDeltaVVε(DefaultMassε)
}

// ComputeDeltaVVε returns the delta-v vector, i.e. the thrust direction scaled by the delta-v.
func (p ThrustParameters) ComputeDeltaVVε(ε float64) []float64 {
	return Scale(p.ComputeDeltaVε(ε), Unit(p.Thrust))
}

// UTAtDeltaV returns the UT at which this step would have imparted Δv, using DefaultMassε.
func (p ThrustParameters) UTAtDeltaV(Δv float64) float64 {
	return p.UTAtDeltaVε(Δv, DefaultMassε)
}

// UTAtDeltaVε inverts ComputeDeltaVε assuming a constant thrust and mass flow rate.
// The result is anchored at StartUT.
func (p ThrustParameters) UTAtDeltaVε(Δv, ε float64) float64 {
	T := p.ThrustMagnitude()
	ΔM := p.DeltaM()
	if math.Abs(ΔM) < ε {
		return p.StartUT + Δv*p.StartMass/T
	}
	dm := ΔM / p.DeltaT()
	return p.StartUT + p.StartMass/dm*(math.Exp(Δv*dm/T)-1)
}

// String implements the Stringer interface.
func (p ThrustParameters) String() string {
	return fmt.Sprintf("UT=[%.3f, %.3f] m=[%.3f, %.3f] T=%.3f N", p.StartUT, p.StopUT, p.StartMass, p.StopMass, p.ThrustMagnitude())
}
