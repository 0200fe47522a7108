package bgthrust

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/num/quat"
)

// HeadingFault classifies an invalid TargetHeading.
type HeadingFault uint8

const (
	FaultNone HeadingFault = iota
	FaultNaN
	FaultInfinite
	FaultZero
)

func (f HeadingFault) String() string {
	switch f {
	case FaultNone:
		return "none"
	case FaultNaN:
		return "NaN"
	case FaultInfinite:
		return "infinite"
	case FaultZero:
		return "zero"
	}
	return "unknown"
}

// TargetHeading is the orientation a vessel's control frame should assume.
// The zero value is invalid.
type TargetHeading struct {
	Rotation quat.Number
}

// Fault returns why this heading cannot be used, or FaultNone.
func (h TargetHeading) Fault() HeadingFault {
	q := h.Rotation
	n2 := q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag
	switch {
	case quat.IsNaN(q) || math.IsNaN(n2):
		return FaultNaN
	case quat.IsInf(q) || math.IsInf(n2, 0):
		return FaultInfinite
	case n2 == 0:
		return FaultZero
	}
	return FaultNone
}

// IsValid returns whether the heading may be applied to a vessel.
func (h TargetHeading) IsValid() bool {
	return h.Fault() == FaultNone
}

// Forward returns the direction of thrust for this heading.
func (h TargetHeading) Forward() []float64 {
	return Forward(h.Rotation)
}

func (h TargetHeading) String() string {
	f := h.Forward()
	return fmt.Sprintf("heading(%.4f, %.4f, %.4f)", f[0], f[1], f[2])
}

// PointAt returns the smallest rotation of current which points the thrust axis along dir.
// A non finite or zero direction yields an invalid heading of the matching fault.
func PointAt(current quat.Number, dir []float64) TargetHeading {
	n := Norm(dir)
	switch {
	case math.IsNaN(n):
		return TargetHeading{quat.Number{Real: math.NaN()}}
	case math.IsInf(n, 0):
		return TargetHeading{quat.Number{Real: math.Inf(1)}}
	case n < zeroε:
		return TargetHeading{}
	}
	if !(TargetHeading{current}).IsValid() {
		current = Identity
	}
	current = Normalize(current)
	return TargetHeading{Normalize(quat.Mul(FromToRotation(Forward(current), dir), current))}
}

// HeadingKind is the strategy of a HeadingProvider.
type HeadingKind uint8

const (
	HeadingFixed HeadingKind = iota
	HeadingOrbitPrograde
	HeadingOrbitRetrograde
	HeadingOrbitNormal
	HeadingOrbitAntiNormal
	HeadingOrbitRadialIn
	HeadingOrbitRadialOut
	HeadingSurfacePrograde
	HeadingSurfaceRetrograde
	HeadingSurfaceNormal
	HeadingSurfaceAntiNormal
	HeadingSurfaceRadialIn
	HeadingSurfaceRadialOut
	HeadingTarget
	HeadingAntiTarget
	HeadingTargetPrograde
	HeadingTargetRetrograde
	HeadingManeuver
	HeadingCurrent
	headingKinds // number of kinds
)

var headingNames = [headingKinds]string{
	"FixedHeading",
	"OrbitPrograde", "OrbitRetrograde", "OrbitNormal", "OrbitAntiNormal", "OrbitRadialIn", "OrbitRadialOut",
	"SurfacePrograde", "SurfaceRetrograde", "SurfaceNormal", "SurfaceAntiNormal", "SurfaceRadialIn", "SurfaceRadialOut",
	"Target", "AntiTarget", "TargetPrograde", "TargetRetrograde",
	"Maneuver",
	"CurrentHeading",
}

func (k HeadingKind) String() string {
	if k < headingKinds {
		return headingNames[k]
	}
	return fmt.Sprintf("HeadingKind(%d)", uint8(k))
}

// HeadingKindFromString returns the kind of the given persisted name (case insensitive).
func HeadingKindFromString(name string) (HeadingKind, error) {
	for k, n := range headingNames {
		if strings.EqualFold(n, name) {
			return HeadingKind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownHeading, name)
}

// AutopilotMode returns the SAS mode matching this kind.
func (k HeadingKind) AutopilotMode() AutopilotMode {
	switch k {
	case HeadingOrbitPrograde, HeadingSurfacePrograde, HeadingTargetPrograde:
		return ProgradeMode
	case HeadingOrbitRetrograde, HeadingSurfaceRetrograde, HeadingTargetRetrograde:
		return RetrogradeMode
	case HeadingOrbitNormal, HeadingSurfaceNormal:
		return NormalMode
	case HeadingOrbitAntiNormal, HeadingSurfaceAntiNormal:
		return AntiNormalMode
	case HeadingOrbitRadialIn, HeadingSurfaceRadialIn:
		return RadialInMode
	case HeadingOrbitRadialOut, HeadingSurfaceRadialOut:
		return RadialOutMode
	case HeadingTarget:
		return TargetMode
	case HeadingAntiTarget:
		return AntiTargetMode
	case HeadingManeuver:
		return ManeuverMode
	}
	return StabilityAssist
}

// needsTarget returns whether the kind points relative to a target.
func (k HeadingKind) needsTarget() bool {
	return k >= HeadingTarget && k <= HeadingTargetRetrograde
}

// HeadingProvider computes the orientation of a vessel at any UT.
// Providers are replaced, never mutated, by the owning VesselThrustState,
// so two providers are the same only if they are the same pointer.
type HeadingProvider struct {
	Kind     HeadingKind
	Rotation quat.Number // FixedHeading orientation, or last CurrentHeading orientation
	TargetID string
	target   *Targetable
}

// NewHeadingProvider returns a provider of a kind which needs no parameter.
func NewHeadingProvider(kind HeadingKind) *HeadingProvider {
	return &HeadingProvider{Kind: kind, Rotation: Identity}
}

// NewFixedHeading returns a provider holding the given orientation.
func NewFixedHeading(rotation quat.Number) *HeadingProvider {
	return &HeadingProvider{Kind: HeadingFixed, Rotation: Normalize(rotation)}
}

// NewFixedHeadingTowards returns a fixed provider pointing the thrust axis along dir.
func NewFixedHeadingTowards(dir []float64) *HeadingProvider {
	return &HeadingProvider{Kind: HeadingFixed, Rotation: PointAt(Identity, dir).Rotation}
}

// NewTargetHeading returns a target relative provider. A nil target is allowed
// and yields invalid headings until one is resolved.
func NewTargetHeading(kind HeadingKind, target *Targetable) *HeadingProvider {
	p := &HeadingProvider{Kind: kind, Rotation: Identity, target: target}
	if target != nil {
		p.TargetID = target.ID
	}
	return p
}

// NewManeuverHeading returns a provider which burns the next maneuver node.
func NewManeuverHeading() *HeadingProvider {
	return NewHeadingProvider(HeadingManeuver)
}

// NewCurrentHeading returns a provider mirroring the vessel orientation while loaded.
func NewCurrentHeading(rotation quat.Number) *HeadingProvider {
	return &HeadingProvider{Kind: HeadingCurrent, Rotation: Normalize(rotation)}
}

// Target returns the resolved target, if any.
func (p *HeadingProvider) Target() *Targetable {
	return p.target
}

func (p *HeadingProvider) String() string {
	if p == nil {
		return "none"
	}
	if p.TargetID != "" {
		return p.Kind.String() + "(" + p.TargetID + ")"
	}
	return p.Kind.String()
}

// install attaches the provider to a vessel, resolving the target by identity if needed.
// A target ID which cannot be resolved fails with ErrUnresolvedTarget.
func (p *HeadingProvider) install(r TargetResolver) error {
	if p.Kind >= headingKinds {
		return fmt.Errorf("%w: %s", ErrUnknownHeading, p.Kind)
	}
	if p.Kind.needsTarget() && p.target == nil && p.TargetID != "" {
		if r == nil {
			return fmt.Errorf("%w: %q", ErrUnresolvedTarget, p.TargetID)
		}
		t, ok := r.ResolveTarget(p.TargetID)
		if !ok || t == nil {
			return fmt.Errorf("%w: %q", ErrUnresolvedTarget, p.TargetID)
		}
		p.target = t
	}
	return nil
}

// directionFunc returns the direction the thrust axis should point to, or false if none.
type directionFunc func(p *HeadingProvider, v Vessel, ut float64) ([]float64, bool)

var directions = [headingKinds]directionFunc{
	HeadingOrbitPrograde:     orbitDirection(func(o *Orbit, ut float64) []float64 { return o.ProgradeAtUT(ut) }),
	HeadingOrbitRetrograde:   orbitDirection(func(o *Orbit, ut float64) []float64 { return Negate(o.ProgradeAtUT(ut)) }),
	HeadingOrbitNormal:       orbitDirection(func(o *Orbit, ut float64) []float64 { return o.NormalAtUT(ut) }),
	HeadingOrbitAntiNormal:   orbitDirection(func(o *Orbit, ut float64) []float64 { return Negate(o.NormalAtUT(ut)) }),
	HeadingOrbitRadialIn:     orbitDirection(func(o *Orbit, ut float64) []float64 { return Negate(o.RadialOutAtUT(ut)) }),
	HeadingOrbitRadialOut:    orbitDirection(func(o *Orbit, ut float64) []float64 { return o.RadialOutAtUT(ut) }),
	HeadingSurfacePrograde:   surfaceDirection(func(R, Vs []float64) []float64 { return Vs }),
	HeadingSurfaceRetrograde: surfaceDirection(func(R, Vs []float64) []float64 { return Negate(Vs) }),
	HeadingSurfaceNormal:     surfaceDirection(func(R, Vs []float64) []float64 { return Cross(R, Vs) }),
	HeadingSurfaceAntiNormal: surfaceDirection(func(R, Vs []float64) []float64 { return Cross(Vs, R) }),
	HeadingSurfaceRadialIn:   surfaceDirection(func(R, Vs []float64) []float64 { return Negate(perpendicular(R, Vs)) }),
	HeadingSurfaceRadialOut:  surfaceDirection(func(R, Vs []float64) []float64 { return perpendicular(R, Vs) }),
	HeadingTarget:            targetDirection(false, 1),
	HeadingAntiTarget:        targetDirection(false, -1),
	HeadingTargetPrograde:    targetDirection(true, 1),
	HeadingTargetRetrograde:  targetDirection(true, -1),
	HeadingManeuver:          maneuverDirection,
}

func orbitDirection(f func(o *Orbit, ut float64) []float64) directionFunc {
	return func(p *HeadingProvider, v Vessel, ut float64) ([]float64, bool) {
		o := v.Orbit()
		if o == nil {
			return nil, false
		}
		return f(o, ut), true
	}
}

// surfaceDirection needs the live surface velocity, so it is only defined for loaded vessels.
func surfaceDirection(f func(R, Vs []float64) []float64) directionFunc {
	return func(p *HeadingProvider, v Vessel, ut float64) ([]float64, bool) {
		o := v.Orbit()
		if o == nil || !v.Representation().Loaded() {
			return nil, false
		}
		R, V := o.StateAtUT(ut)
		return f(R, o.Body.SurfaceVelocity(R, V)), true
	}
}

func targetDirection(relVelocity bool, s float64) directionFunc {
	return func(p *HeadingProvider, v Vessel, ut float64) ([]float64, bool) {
		t := p.target
		o := v.Orbit()
		if t == nil || t.Orbit == nil || o == nil || !t.Orbit.Body.Equals(o.Body) {
			return nil, false
		}
		if relVelocity {
			return Scale(s, Sub(o.VelocityAtUT(ut), t.Orbit.VelocityAtUT(ut))), true
		}
		return Scale(s, Sub(t.Orbit.PositionAtUT(ut), o.PositionAtUT(ut))), true
	}
}

func maneuverDirection(p *HeadingProvider, v Vessel, ut float64) ([]float64, bool) {
	node := v.NextManeuver()
	if node == nil || v.Orbit() == nil {
		return nil, false
	}
	return node.BurnVector(v.Orbit()), true
}

// perpendicular returns the component of a perpendicular to b.
func perpendicular(a, b []float64) []float64 {
	bHat := Unit(b)
	return Sub(a, Scale(Dot(a, bHat), bHat))
}

// TargetHeading returns the heading at ut for the vessel, which may be invalid.
func (p *HeadingProvider) TargetHeading(v Vessel, ut float64) TargetHeading {
	switch p.Kind {
	case HeadingFixed:
		return TargetHeading{p.Rotation}
	case HeadingCurrent:
		if v.Representation().Loaded() {
			p.Rotation = controlRotation(v)
		}
		return TargetHeading{p.Rotation}
	}
	if p.Kind >= headingKinds {
		return TargetHeading{}
	}
	dir, ok := directions[p.Kind](p, v, ut)
	if !ok {
		return TargetHeading{}
	}
	return PointAt(controlRotation(v), dir)
}

// IntegrateThrust applies one step of thrust to the vessel orbit. A vessel
// without an orbit is left untouched.
func (p *HeadingProvider) IntegrateThrust(s *VesselThrustState, params ThrustParameters) {
	o := s.vessel.Orbit()
	if o == nil {
		s.logger.Log("level", "error", "subsys", "orbit", "ut", params.StopUT, "provider", p, "status", "no orbit")
		return
	}
	if p.Kind == HeadingManeuver {
		p.integrateManeuver(s, o, params)
		return
	}
	Δv := params.ComputeDeltaVε(s.settings.MassEpsilon)
	if !finite(Δv) {
		s.logger.Log("level", "error", "subsys", "thrust", "provider", p, "Δv", Δv, "params", params)
		return
	}
	Δvv := Scale(Δv, Unit(params.Thrust))
	o.Perturb(Δvv, params.StopUT)
	s.emit(Event{Kind: Integrated, UT: params.StopUT, DeltaV: Norm(Δvv)})
}

// integrateManeuver burns towards the next node and completes it once the
// remaining burn vector reverses or vanishes.
func (p *HeadingProvider) integrateManeuver(s *VesselThrustState, o *Orbit, params ThrustParameters) {
	node := s.vessel.NextManeuver()
	if node == nil {
		s.complete(params.StopUT)
		return
	}
	Δv := params.ComputeDeltaVε(s.settings.MassEpsilon)
	if !finite(Δv) {
		s.logger.Log("level", "error", "subsys", "thrust", "provider", p, "Δv", Δv, "params", params)
		return
	}
	before := node.BurnVector(o)
	applied := Scale(Δv, Unit(params.Thrust))
	if Δv >= Norm(before) {
		applied = before
	}
	o.Perturb(applied, params.StopUT)
	s.emit(Event{Kind: Integrated, UT: params.StopUT, DeltaV: Norm(applied)})

	after := node.BurnVector(o)
	if Dot(before, after) <= 0 || Norm(after) <= s.settings.CompletionTolerance {
		s.complete(params.StopUT)
	}
}
