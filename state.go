package bgthrust

import (
	"fmt"
	"math"

	kitlog "github.com/go-kit/kit/log"
)

// ThrustStatus is the coarse state of a VesselThrustState.
type ThrustStatus uint8

const (
	Idle ThrustStatus = iota
	Thrusting
)

func (s ThrustStatus) String() string {
	if s == Thrusting {
		return "thrusting"
	}
	return "idle"
}

// VesselThrustState applies background thrust to one vessel.
// Exactly one Tick per vessel per UT is expected: the fields are not synchronized.
type VesselThrustState struct {
	LastUpdateTime float64
	LastUpdateMass float64
	throttle       float64
	heading        *HeadingProvider
	vessel         Vessel
	info           VesselInfoProvider
	stock          VesselInfoProvider
	resolver       TargetResolver
	handler        EventHandler
	settings       Settings
	logger         kitlog.Logger
	dryMass        float64
	dryCached      bool
	disabled       bool // zero thrust in the background, until loaded or new input
	initialized    bool
}

// NewVesselThrustState returns the thrust state of v. A nil info provider
// means the vessel is only processed while loaded.
func NewVesselThrustState(v Vessel, info VesselInfoProvider, settings Settings, logger kitlog.Logger) *VesselThrustState {
	if info == nil {
		info = StockInfoProvider{}
	}
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	return &VesselThrustState{
		vessel:   v,
		info:     info,
		stock:    StockInfoProvider{},
		settings: settings,
		logger:   kitlog.With(logger, "vessel", v.ID()),
	}
}

// Vessel returns the vessel of this state.
func (s *VesselThrustState) Vessel() Vessel {
	return s.vessel
}

// Throttle returns the throttle in [0, 1].
func (s *VesselThrustState) Throttle() float64 {
	return s.throttle
}

// Heading returns the active heading provider, or nil.
func (s *VesselThrustState) Heading() *HeadingProvider {
	return s.heading
}

// Status returns whether this vessel is currently thrusting.
func (s *VesselThrustState) Status() ThrustStatus {
	if s.throttle > 0 && s.heading != nil && !s.disabled {
		return Thrusting
	}
	return Idle
}

// Disabled returns whether background processing stopped because of zero thrust.
func (s *VesselThrustState) Disabled() bool {
	return s.disabled
}

func (s *VesselThrustState) String() string {
	return fmt.Sprintf("%s %s throttle=%.3f heading=%s", s.vessel.ID(), s.Status(), s.throttle, s.heading)
}

func (s *VesselThrustState) emit(e Event) {
	e.VesselID = s.vessel.ID()
	if s.handler != nil {
		s.handler(e)
	}
}

// SetThrottle sets the throttle, clamped to [0, 1].
func (s *VesselThrustState) SetThrottle(value, ut float64) {
	if math.IsNaN(value) {
		value = 0
	}
	value = math.Min(math.Max(value, 0), 1)
	if value == s.throttle {
		return
	}
	s.throttle = value
	s.disabled = false
	s.emit(Event{Kind: ThrottleChanged, UT: ut, Throttle: value})
}

// SetTargetHeading replaces the heading provider, nil clearing it.
// A provider which fails to install is discarded, which still counts as a change.
func (s *VesselThrustState) SetTargetHeading(p *HeadingProvider, ut float64) {
	if p == s.heading {
		return
	}
	from := s.heading
	if p != nil {
		if err := s.installHeading(p); err != nil {
			s.logger.Log("level", "warning", "subsys", "heading", "ut", ut, "provider", p, "err", err)
			p = nil
		}
	}
	s.heading = p
	s.disabled = false
	s.emit(Event{Kind: HeadingChanged, UT: ut, From: from, To: p})
}

func (s *VesselThrustState) installHeading(p *HeadingProvider) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("installing %s: %v", p, r)
		}
	}()
	return p.install(s.resolver)
}

// Invalidate drops the cached dry mass and re-enables processing, e.g. when the vessel is loaded.
func (s *VesselThrustState) Invalidate() {
	s.dryCached = false
	s.disabled = false
}

// infoProvider returns the provider for the representation: loaded vessels always use the host.
func (s *VesselThrustState) infoProvider(rep Representation) VesselInfoProvider {
	if rep == Unloaded {
		return s.info
	}
	return s.stock
}

func (s *VesselThrustState) mass(rep Representation, ut float64) float64 {
	processing := s.settings.LoadedResourceProcessing
	if rep == Unloaded {
		processing = s.settings.UnloadedResourceProcessing
	}
	if !processing && s.LastUpdateMass > 0 {
		return s.LastUpdateMass
	}
	return s.infoProvider(rep).VesselMass(s, ut)
}

func (s *VesselThrustState) dry(rep Representation) float64 {
	if rep != Unloaded {
		s.dryCached = false
		return s.vessel.DryMass()
	}
	if !s.dryCached {
		s.dryMass = s.vessel.DryMass()
		s.dryCached = true
	}
	return s.dryMass
}

func (s *VesselThrustState) bookkeep(ut, mass float64) {
	s.LastUpdateTime = ut
	s.LastUpdateMass = mass
}

// cut stops thrusting, optionally clearing the heading provider.
func (s *VesselThrustState) cut(ut float64, reason string, fault HeadingFault, clear bool, msg string) {
	s.SetThrottle(0, ut)
	if clear {
		s.SetTargetHeading(nil, ut)
	}
	s.emit(Event{Kind: Cutoff, UT: ut, Reason: reason, Fault: fault})
	if msg != "" && s.vessel.Active() {
		s.emit(Event{Kind: StopWarp, UT: ut})
		s.emit(Event{Kind: ScreenMessage, UT: ut, Message: msg})
	}
}

// complete ends a maneuver burn.
func (s *VesselThrustState) complete(ut float64) {
	s.logger.Log("level", "notice", "subsys", "heading", "ut", ut, "status", "maneuver complete")
	s.emit(Event{Kind: ManeuverComplete, UT: ut})
	s.cut(ut, ReasonManeuver, FaultNone, true, msgManeuverComplete)
}

// Tick advances this vessel to ut.
func (s *VesselThrustState) Tick(ut float64) {
	v := s.vessel
	rep := v.Representation()
	if !s.initialized {
		s.initialized = true
		s.bookkeep(ut, s.mass(rep, ut))
		return
	}
	if ut <= s.LastUpdateTime {
		return
	}
	switch {
	case rep == Simulated:
		// The host physics thrusts for us.
		s.dryCached = false
		s.bookkeep(ut, v.Mass())
		return
	case rep == Unloaded && !s.info.AllowBackground():
		s.bookkeep(ut, s.LastUpdateMass)
		return
	case s.throttle == 0 || s.disabled:
		s.bookkeep(ut, s.mass(rep, ut))
		return
	}

	mass := s.mass(rep, ut)
	thrust := s.infoProvider(rep).VesselThrust(s, ut)
	if !finite(thrust) || thrust <= 0 {
		if rep == Unloaded && s.info.DisableOnZeroThrustInBackground() {
			s.logger.Log("level", "info", "subsys", "thrust", "ut", ut, "status", "disabled", "thrust", thrust)
			s.disabled = true
			s.emit(Event{Kind: Cutoff, UT: ut, Reason: ReasonZeroThrust})
		}
		s.bookkeep(ut, mass)
		return
	}

	dry := s.dry(rep)
	if s.LastUpdateMass <= dry {
		s.logger.Log("level", "warning", "subsys", "thrust", "ut", ut, "mass", s.LastUpdateMass, "dry", dry, "status", "no fuel")
		s.cut(ut, ReasonFuel, FaultNone, false, "")
		s.bookkeep(ut, mass)
		return
	}
	exhausted := mass <= dry
	if exhausted {
		mass = dry
	}

	if s.heading == nil {
		s.SetTargetHeading(NewFixedHeading(controlRotation(v)), ut)
	}
	p := s.heading
	if p == nil {
		s.bookkeep(ut, mass)
		return
	}
	h := p.TargetHeading(v, ut)
	if !h.IsValid() {
		fault := h.Fault()
		s.logger.Log("level", "warning", "subsys", "heading", "ut", ut, "provider", p, "fault", fault, "status", "cutting thrust")
		msg := msgInvalidHeading
		if p.Kind == HeadingManeuver {
			msg = msgManeuverComplete
		}
		s.cut(ut, ReasonInvalidHeading, fault, true, msg)
		s.bookkeep(ut, mass)
		return
	}

	rotate := true
	if rep == Packed && s.settings.RotationThreshold > 0 {
		current := controlRotation(v)
		if θ := angleBetween(Forward(current), h.Forward()); θ > s.settings.RotationThreshold {
			s.logger.Log("level", "notice", "subsys", "heading", "ut", ut, "provider", p, "jump(deg)", θ, "status", "reverting to fixed heading")
			s.SetTargetHeading(NewFixedHeading(current), ut)
			h = TargetHeading{current}
			rotate = false
		}
	}

	params := ThrustParameters{
		StartUT:   s.LastUpdateTime,
		StopUT:    ut,
		StartMass: s.LastUpdateMass,
		StopMass:  mass,
		Thrust:    Scale(thrust, h.Forward()),
	}
	s.heading.IntegrateThrust(s, params)
	if rotate {
		orientTo(v, h)
	}
	s.bookkeep(ut, mass)
	if exhausted {
		s.logger.Log("level", "notice", "subsys", "thrust", "ut", ut, "status", "fuel exhausted")
		s.cut(ut, ReasonFuel, FaultNone, false, "")
	}
}

// angleBetween returns the angle in degrees between two vectors.
func angleBetween(a, b []float64) float64 {
	return math.Acos(clampUnit(Dot(Unit(a), Unit(b)))) / deg2rad
}
