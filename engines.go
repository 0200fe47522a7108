package bgthrust

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/num/quat"
)

// g0 is the standard gravity used to convert Isp to an exhaust velocity.
const g0 = 9.80665

// Engine defines an Engine interface.
type Engine interface {
	// Returns the thrust in Newtons and isp consumed in seconds at the given throttle.
	Thrust(throttle float64) (thrust, isp float64)
}

/* Available Engines */

// Terrier is a vacuum optimized upper stage engine.
type Terrier struct{}

// Thrust implements the Engine interface.
func (e *Terrier) Thrust(throttle float64) (thrust, isp float64) {
	return 60e3 * clampThrottle(throttle), 345
}

// Nerv is a nuclear thermal engine.
type Nerv struct{}

// Thrust implements the Engine interface.
func (e *Nerv) Thrust(throttle float64) (thrust, isp float64) {
	return 60e3 * clampThrottle(throttle), 800
}

// Dawn is an ion engine, hence very low thrust.
type Dawn struct{}

// Thrust implements the Engine interface.
func (e *Dawn) Thrust(throttle float64) (thrust, isp float64) {
	return 2e3 * clampThrottle(throttle), 4200
}

// GenericEngine is a generic engine.
type GenericEngine struct {
	thrust float64
	isp    float64
}

// Thrust implements the Engine interface.
func (e *GenericEngine) Thrust(throttle float64) (thrust, isp float64) {
	return e.thrust * clampThrottle(throttle), e.isp
}

// NewGenericEngine returns a generic engine of the given max thrust (N) and isp (s).
func NewGenericEngine(thrust, isp float64) *GenericEngine {
	return &GenericEngine{thrust, isp}
}

func clampThrottle(throttle float64) float64 {
	if math.IsNaN(throttle) {
		return 0
	}
	return math.Min(math.Max(throttle, 0), 1)
}

// SimVessel is an in memory Vessel, burning fuel through its engines.
type SimVessel struct {
	Name      string
	Rep       Representation
	IsActive  bool
	Dry       float64
	FuelMass  float64
	Engines   []Engine
	Ctrl      ControlState
	Maneuvers []*ManeuverNode // sorted by UT
	orbit     *Orbit
	rotation  quat.Number
	offset    quat.Number
	target    *Targetable
}

// NewSimVessel returns a simulated vessel on the given orbit, pointing prograde.
func NewSimVessel(name string, o *Orbit, dryMass, fuelMass float64, engines ...Engine) *SimVessel {
	return &SimVessel{
		Name:     name,
		Rep:      Simulated,
		Dry:      dryMass,
		FuelMass: fuelMass,
		Engines:  engines,
		orbit:    o,
		rotation: PointAt(Identity, o.ProgradeAtUT(o.Epoch())).Rotation,
		offset:   Identity,
	}
}

// ID implements the Vessel interface.
func (v *SimVessel) ID() string { return v.Name }

// Orbit implements the Vessel interface.
func (v *SimVessel) Orbit() *Orbit { return v.orbit }

// Rotation implements the Vessel interface.
func (v *SimVessel) Rotation() quat.Number { return v.rotation }

// SetRotation implements the Vessel interface.
func (v *SimVessel) SetRotation(q quat.Number) { v.rotation = q }

// ControlOffset implements the Vessel interface.
func (v *SimVessel) ControlOffset() quat.Number { return v.offset }

// SetControlOffset sets the rotation of the control reference frame relative to the vessel.
func (v *SimVessel) SetControlOffset(q quat.Number) { v.offset = Normalize(q) }

// Representation implements the Vessel interface.
func (v *SimVessel) Representation() Representation { return v.Rep }

// Active implements the Vessel interface.
func (v *SimVessel) Active() bool { return v.IsActive }

// Mass implements the Vessel interface.
func (v *SimVessel) Mass() float64 { return v.Dry + v.FuelMass }

// DryMass implements the Vessel interface.
func (v *SimVessel) DryMass() float64 { return v.Dry }

// MaxThrust implements the Vessel interface.
func (v *SimVessel) MaxThrust() float64 {
	if v.FuelMass <= 0 {
		return 0
	}
	total := 0.0
	for _, e := range v.Engines {
		thrust, _ := e.Thrust(1)
		total += thrust
	}
	return total
}

// Target implements the Vessel interface.
func (v *SimVessel) Target() *Targetable { return v.target }

// SetTarget sets or clears (nil) the target.
func (v *SimVessel) SetTarget(t *Targetable) { v.target = t }

// NextManeuver implements the Vessel interface.
func (v *SimVessel) NextManeuver() *ManeuverNode {
	if len(v.Maneuvers) == 0 {
		return nil
	}
	return v.Maneuvers[0]
}

// AddManeuver plans a node.
func (v *SimVessel) AddManeuver(n *ManeuverNode) {
	v.Maneuvers = append(v.Maneuvers, n)
	sort.Slice(v.Maneuvers, func(i, j int) bool { return v.Maneuvers[i].UT < v.Maneuvers[j].UT })
}

// PopManeuver removes the next node.
func (v *SimVessel) PopManeuver() {
	if len(v.Maneuvers) > 0 {
		v.Maneuvers = v.Maneuvers[1:]
	}
}

// Control implements the Vessel interface.
func (v *SimVessel) Control() ControlState { return v.Ctrl }

// MassFlow returns the propellant consumption (kg/s) at the given throttle.
func (v *SimVessel) MassFlow(throttle float64) float64 {
	if v.FuelMass <= 0 {
		return 0
	}
	flow := 0.0
	for _, e := range v.Engines {
		thrust, isp := e.Thrust(throttle)
		if isp > 0 {
			flow += thrust / (isp * g0)
		}
	}
	return flow
}

// Burn consumes the fuel of dt seconds at the given throttle and returns the fuel used.
func (v *SimVessel) Burn(throttle, dt float64) float64 {
	used := math.Min(v.MassFlow(throttle)*dt, v.FuelMass)
	v.FuelMass -= used
	return used
}
