package bgthrust

import (
	"fmt"
	"math"

	kitlog "github.com/go-kit/kit/log"

	"github.com/Phantomical/bgthrust/integrator"
)

// Phase switches every vessel of a flight to a representation from UT onwards.
type Phase struct {
	UT             float64
	Representation Representation
}

// Observer is called after each step for every vessel.
type Observer func(v *SimVessel, s *VesselThrustState, ut float64)

// Flight steps SimVessels through time, acting as the host of a Driver.
type Flight struct {
	Driver                    *Driver
	Vessels                   []*SimVessel
	StartUT, EndUT, CurrentUT float64
	Phases                    []Phase // sorted by UT
	Observer                  Observer
	step                      float64
	logger                    kitlog.Logger
	statusEvery               float64
	nextStatus                float64
}

// NewFlight returns a flight of the given step (s). The driver tracks every vessel.
func NewFlight(d *Driver, start, end, step float64, logger kitlog.Logger, vessels ...*SimVessel) *Flight {
	if step <= 0 {
		panic("flight step must be positive")
	}
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	f := &Flight{Driver: d, Vessels: vessels, StartUT: start, EndUT: end, CurrentUT: start, step: step, logger: logger}
	f.statusEvery = math.Max((end-start)/10, step)
	f.nextStatus = start
	if end < start {
		f.logger.Log("level", "warning", "subsys", "flight", "message", "end before start")
	}
	for _, v := range vessels {
		d.Track(v)
	}
	d.Handle(f.handle)
	return f
}

// handle is the host side of the driver events.
func (f *Flight) handle(e Event) {
	switch e.Kind {
	case ManeuverComplete:
		if v := f.vessel(e.VesselID); v != nil {
			v.PopManeuver()
		}
		f.logger.Log("level", "notice", "subsys", "flight", "vessel", e.VesselID, "ut", e.UT, "event", e.Kind)
	case ScreenMessage:
		f.logger.Log("level", "notice", "subsys", "flight", "vessel", e.VesselID, "ut", e.UT, "message", e.Message)
	case Cutoff:
		f.logger.Log("level", "info", "subsys", "flight", "vessel", e.VesselID, "ut", e.UT, "event", e.Kind, "reason", e.Reason, "fault", e.Fault)
	case HeadingChanged:
		// Keep the autopilot in sync with the selected provider.
		if v := f.vessel(e.VesselID); v != nil && e.To != nil {
			v.Ctrl.Mode = e.To.Kind.AutopilotMode()
		}
	}
}

func (f *Flight) vessel(id string) *SimVessel {
	for _, v := range f.Vessels {
		if v.Name == id {
			return v
		}
	}
	return nil
}

// representation returns the representation in force at ut, or 0 if no phase started yet.
func (f *Flight) representation(ut float64) Representation {
	var rep Representation
	for _, p := range f.Phases {
		if p.UT > ut {
			break
		}
		rep = p.Representation
	}
	return rep
}

// LogStatus logs the status of every vessel.
func (f *Flight) LogStatus() {
	for _, v := range f.Vessels {
		s, _ := f.Driver.State(v.Name)
		f.logger.Log("level", "info", "subsys", "flight", "ut", f.CurrentUT, "vessel", v.Name, "rep", v.Rep, "fuel(kg)", v.FuelMass, "state", s, "orbit", v.orbit)
	}
}

// Run steps the flight until EndUT.
func (f *Flight) Run() {
	initial := make(map[string]float64, len(f.Vessels))
	for _, v := range f.Vessels {
		initial[v.Name] = v.FuelMass
	}
	f.Driver.Tick(f.CurrentUT)
	for f.CurrentUT < f.EndUT {
		f.Step()
	}
	for _, v := range f.Vessels {
		f.logger.Log("level", "notice", "subsys", "flight", "status", "finished", "vessel", v.Name, "duration", f.CurrentUT-f.StartUT, "fuel(kg)", initial[v.Name]-v.FuelMass)
	}
	f.LogStatus()
}

// Step advances every vessel by one step.
func (f *Flight) Step() {
	ut := f.CurrentUT
	next := math.Min(ut+f.step, f.EndUT)
	if rep := f.representation(ut); rep != 0 {
		for _, v := range f.Vessels {
			f.transition(v, rep, ut)
		}
	}
	for _, v := range f.Vessels {
		s, _ := f.Driver.State(v.Name)
		throttle := 0.0
		if s != nil {
			throttle = s.Throttle()
		}
		if v.Rep == Simulated {
			f.simulate(v, throttle, ut, next)
		} else {
			v.Burn(throttle, next-ut)
		}
	}
	f.Driver.Tick(next)
	f.CurrentUT = next
	for _, v := range f.Vessels {
		if f.Observer != nil {
			s, _ := f.Driver.State(v.Name)
			f.Observer(v, s, next)
		}
	}
	if next >= f.nextStatus {
		f.LogStatus()
		f.nextStatus += f.statusEvery
	}
}

// transition moves a vessel to a new representation, notifying the driver like the host would.
func (f *Flight) transition(v *SimVessel, to Representation, ut float64) {
	from := v.Rep
	if from == to {
		return
	}
	v.Rep = to
	f.logger.Log("level", "info", "subsys", "flight", "vessel", v.Name, "ut", ut, "from", from, "to", to)
	switch {
	case from == Simulated:
		f.Driver.OnGoOnRails(v.Name, ut)
	case to == Simulated:
		f.Driver.OnGoOffRails(v.Name, ut)
	}
	if to == Unloaded {
		f.snapshot(v, ut)
	} else if from == Unloaded {
		f.Driver.OnVesselLoaded(v.Name)
	}
}

// snapshot records an unloading vessel in the background info provider, if any.
func (f *Flight) snapshot(v *SimVessel, ut float64) {
	s, ok := f.Driver.State(v.Name)
	if !ok {
		return
	}
	throttle := s.Throttle()
	switch info := f.Driver.info.(type) {
	case *BackgroundInfoProvider:
		thrust := 0.0
		if v.FuelMass > 0 {
			thrust = v.MaxThrust() * throttle
		}
		info.Snapshot(v.Name, ResourceSnapshot{LastUpdate: ut, DryMass: v.Dry, WetMass: v.FuelMass, WetRate: -v.MassFlow(throttle), Thrust: thrust})
	case *ResourceListInfoProvider:
		info.Lists[v.Name] = ResourceList{
			LastUpdate: ut,
			DryMass:    v.Dry,
			Thrust:     v.MaxThrust() * throttle,
			Resources:  []Resource{{Name: "propellant", Amount: v.FuelMass, Capacity: v.FuelMass, Rate: -v.MassFlow(throttle), Density: 1}},
		}
	}
}

// simulate integrates a fully simulated vessel, as the host physics would.
func (f *Flight) simulate(v *SimVessel, throttle, ut, next float64) {
	if next <= ut {
		return
	}
	R, V := v.orbit.StateAtUT(ut)
	p := &poweredFlight{
		μ:      v.orbit.Body.μ,
		dir:    Forward(controlRotation(v)),
		thrust: v.MaxThrust() * throttle,
		flow:   v.MassFlow(throttle),
		dry:    v.Dry,
		state:  append(append(R, V...), v.FuelMass),
	}
	integrator.NewRK4(ut, next-ut, p).Solve()
	v.orbit.UpdateFromStateVectors(p.state[0:3], p.state[3:6], next)
	v.FuelMass = math.Max(p.state[6], 0)
}

// poweredFlight is the state [R, V, fuel] of one RK4 step of a thrusting vessel.
type poweredFlight struct {
	μ, thrust, flow, dry float64
	dir                  []float64
	state                []float64
}

func (p *poweredFlight) State() []float64 {
	return p.state
}

func (p *poweredFlight) SetState(i uint64, s []float64) {
	p.state = s
}

func (p *poweredFlight) Done(i uint64) bool {
	return i >= 1
}

func (p *poweredFlight) Derivatives(t float64, s []float64) []float64 {
	f := make([]float64, 7)
	R := s[0:3]
	r := Norm(R)
	thrust, flow := p.thrust, p.flow
	if s[6] <= 0 {
		thrust, flow = 0, 0
	}
	m := p.dry + math.Max(s[6], 0)
	for i := 0; i < 3; i++ {
		f[i] = s[i+3]
		f[i+3] = -p.μ*R[i]/math.Pow(r, 3) + thrust/m*p.dir[i]
	}
	f[6] = -flow
	return f
}

func (p *poweredFlight) String() string {
	return fmt.Sprintf("powered flight T=%.1f N", p.thrust)
}
