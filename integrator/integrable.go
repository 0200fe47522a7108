// Package integrator steps ordinary differential equations with a fixed step.
package integrator

// System is a state vector together with its time derivative.
type System interface {
	State() []float64
	// SetState stores the state reached after step i.
	SetState(i uint64, s []float64)
	// Done returns whether the integration ends before step i.
	Done(i uint64) bool
	// Derivatives returns ds/dt at t, as a new slice.
	Derivatives(t float64, s []float64) []float64
}
