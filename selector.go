package bgthrust

// HeadingSelector picks the heading provider matching a vessel's controls.
// Nil means the selector has no opinion.
type HeadingSelector interface {
	SelectHeading(s *VesselThrustState) *HeadingProvider
}

// HeadingSelectorFunc adapts a function to the HeadingSelector interface.
type HeadingSelectorFunc func(s *VesselThrustState) *HeadingProvider

// SelectHeading implements the HeadingSelector interface.
func (f HeadingSelectorFunc) SelectHeading(s *VesselThrustState) *HeadingProvider {
	return f(s)
}

// SASSelector mirrors the stock SAS hold modes.
type SASSelector struct{}

var (
	orbitFamily = map[AutopilotMode]HeadingKind{
		ProgradeMode:   HeadingOrbitPrograde,
		RetrogradeMode: HeadingOrbitRetrograde,
		NormalMode:     HeadingOrbitNormal,
		AntiNormalMode: HeadingOrbitAntiNormal,
		RadialInMode:   HeadingOrbitRadialIn,
		RadialOutMode:  HeadingOrbitRadialOut,
	}
	surfaceFamily = map[AutopilotMode]HeadingKind{
		ProgradeMode:   HeadingSurfacePrograde,
		RetrogradeMode: HeadingSurfaceRetrograde,
		NormalMode:     HeadingSurfaceNormal,
		AntiNormalMode: HeadingSurfaceAntiNormal,
		RadialInMode:   HeadingSurfaceRadialIn,
		RadialOutMode:  HeadingSurfaceRadialOut,
	}
)

// SelectHeading implements the HeadingSelector interface.
func (SASSelector) SelectHeading(s *VesselThrustState) *HeadingProvider {
	v := s.vessel
	ctrl := v.Control()
	if !ctrl.SASEnabled {
		return nil
	}
	switch ctrl.Display {
	case OrbitDisplay:
		return selectFamily(v, ctrl.Mode, orbitFamily)
	case SurfaceDisplay:
		return selectFamily(v, ctrl.Mode, surfaceFamily)
	case TargetDisplay:
		if t := v.Target(); t != nil {
			switch ctrl.Mode {
			case ProgradeMode:
				return NewTargetHeading(HeadingTargetPrograde, t)
			case RetrogradeMode:
				return NewTargetHeading(HeadingTargetRetrograde, t)
			}
		}
		return selectFamily(v, ctrl.Mode, surfaceFamily)
	}
	return selectCommon(v, ctrl.Mode)
}

func selectFamily(v Vessel, mode AutopilotMode, family map[AutopilotMode]HeadingKind) *HeadingProvider {
	if k, ok := family[mode]; ok {
		return NewHeadingProvider(k)
	}
	return selectCommon(v, mode)
}

func selectCommon(v Vessel, mode AutopilotMode) *HeadingProvider {
	switch mode {
	case TargetMode:
		if t := v.Target(); t != nil {
			return NewTargetHeading(HeadingTarget, t)
		}
	case AntiTargetMode:
		if t := v.Target(); t != nil {
			return NewTargetHeading(HeadingAntiTarget, t)
		}
	case ManeuverMode:
		if v.NextManeuver() != nil {
			return NewManeuverHeading()
		}
	}
	return NewFixedHeading(controlRotation(v))
}

// ChainSelector returns the first provider chosen by its selectors.
type ChainSelector []HeadingSelector

// SelectHeading implements the HeadingSelector interface.
func (c ChainSelector) SelectHeading(s *VesselThrustState) *HeadingProvider {
	for _, sel := range c {
		if p := sel.SelectHeading(s); p != nil {
			return p
		}
	}
	return nil
}

// CurrentHeadingSelector always mirrors the vessel's orientation.
var CurrentHeadingSelector = HeadingSelectorFunc(func(s *VesselThrustState) *HeadingProvider {
	return NewCurrentHeading(controlRotation(s.vessel))
})

// FixedHeadingSelector holds the vessel's orientation at selection time.
var FixedHeadingSelector = HeadingSelectorFunc(func(s *VesselThrustState) *HeadingProvider {
	return NewFixedHeading(controlRotation(s.vessel))
})

// DefaultSelector chains SAS with a fixed heading fallback.
func DefaultSelector() HeadingSelector {
	return ChainSelector{SASSelector{}, FixedHeadingSelector}
}
