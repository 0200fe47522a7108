package bgthrust

import "math"

// Hohmann computes an Hohmann transfer between the radii rI and rF. It returns the
// departure and arrival velocities on the transfer ellipse, and the time of flight (s).
// To get final computations:
// ΔvInit = vDeparture - vI
// ΔvFinal = vF - vArrival
func Hohmann(rI, rF float64, body Body) (vDeparture, vArrival, tof float64) {
	aTransfer := 0.5 * (rI + rF)
	vDeparture = math.Sqrt((2 * body.GM() / rI) - (body.GM() / aTransfer))
	vArrival = math.Sqrt((2 * body.GM() / rF) - (body.GM() / aTransfer))
	tof = math.Pi * math.Sqrt(math.Pow(aTransfer, 3)/body.GM())
	return
}

// PlanHohmann plans the two prograde burns which take a near circular orbit o, at ut,
// to a circular orbit of radius rF. The arrival node is planned on the departure patch.
// A lower rF yields retrograde (negative) burns.
func PlanHohmann(o *Orbit, ut, rF float64) (departure, arrival *ManeuverNode) {
	R, V := o.StateAtUT(ut)
	vDeparture, _, tof := Hohmann(Norm(R), rF, o.Body)
	departure = NewManeuverNode(o, ut, vDeparture-Norm(V), 0, 0)

	// Circularize from the patch velocity, which absorbs any eccentricity of o.
	vF := math.Sqrt(o.Body.GM() / rF)
	arrivalUT := ut + tof
	arrival = NewManeuverNode(departure.Patch, arrivalUT, vF-Norm(departure.Patch.VelocityAtUT(arrivalUT)), 0, 0)
	return
}
