package bgthrust

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/num/quat"
)

// Representation is how the host currently simulates a vessel.
type Representation uint8

const (
	// Simulated vessels are fully loaded and the host physics applies their thrust.
	Simulated Representation = iota + 1
	// Packed vessels are loaded but on rails (time compressed).
	Packed
	// Unloaded vessels only exist as a saved record.
	Unloaded
)

func (r Representation) String() string {
	switch r {
	case Simulated:
		return "simulated"
	case Packed:
		return "packed"
	case Unloaded:
		return "unloaded"
	}
	return "unknown"
}

// Loaded returns whether the host has the vessel in memory.
func (r Representation) Loaded() bool {
	return r == Simulated || r == Packed
}

// AutopilotMode is the SAS hold mode.
type AutopilotMode uint8

const (
	StabilityAssist AutopilotMode = iota
	ProgradeMode
	RetrogradeMode
	NormalMode
	AntiNormalMode
	RadialInMode
	RadialOutMode
	TargetMode
	AntiTargetMode
	ManeuverMode
)

var autopilotNames = [...]string{"StabilityAssist", "Prograde", "Retrograde", "Normal", "AntiNormal", "RadialIn", "RadialOut", "Target", "AntiTarget", "Maneuver"}

func (m AutopilotMode) String() string {
	if int(m) < len(autopilotNames) {
		return autopilotNames[m]
	}
	return "unknown"
}

// AutopilotModeFromString returns the mode of the given name (case insensitive).
func AutopilotModeFromString(name string) (AutopilotMode, error) {
	for m, n := range autopilotNames {
		if strings.EqualFold(n, name) {
			return AutopilotMode(m), nil
		}
	}
	return 0, fmt.Errorf("%w: autopilot mode %q", ErrMalformedValue, name)
}

// SpeedDisplay is the reference frame selected on the navball.
type SpeedDisplay uint8

const (
	OrbitDisplay SpeedDisplay = iota
	SurfaceDisplay
	TargetDisplay
)

// SpeedDisplayFromString returns the display of the given name (orbit, surface or target).
func SpeedDisplayFromString(name string) (SpeedDisplay, error) {
	switch strings.ToLower(name) {
	case "orbit", "":
		return OrbitDisplay, nil
	case "surface":
		return SurfaceDisplay, nil
	case "target":
		return TargetDisplay, nil
	}
	return 0, fmt.Errorf("%w: speed display %q", ErrMalformedValue, name)
}

// RepresentationFromString returns the representation of the given name.
func RepresentationFromString(name string) (Representation, error) {
	for _, r := range []Representation{Simulated, Packed, Unloaded} {
		if strings.EqualFold(r.String(), name) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: representation %q", ErrMalformedValue, name)
}

// ControlState is the pilot input relevant to heading selection.
type ControlState struct {
	SASEnabled bool
	Mode       AutopilotMode
	Display    SpeedDisplay
}

// Targetable is anything a vessel may target. It is persisted by ID only.
type Targetable struct {
	ID    string
	Orbit *Orbit
}

// TargetResolver finds a target from its persisted identity.
type TargetResolver interface {
	ResolveTarget(id string) (*Targetable, bool)
}

// Vessel is the host side view of a vessel.
// Rotation maps the vessel frame to the inertial frame, and ControlOffset
// maps the control reference frame to the vessel frame.
type Vessel interface {
	ID() string
	Orbit() *Orbit
	Rotation() quat.Number
	SetRotation(q quat.Number)
	ControlOffset() quat.Number
	Representation() Representation
	Active() bool
	Mass() float64    // kg
	DryMass() float64 // kg
	MaxThrust() float64
	Target() *Targetable
	NextManeuver() *ManeuverNode
	Control() ControlState
}

// controlRotation returns the orientation of the vessel's control reference frame.
func controlRotation(v Vessel) quat.Number {
	return Normalize(quat.Mul(v.Rotation(), v.ControlOffset()))
}

// orientTo rotates the vessel so that its control reference frame matches h.
func orientTo(v Vessel, h TargetHeading) {
	v.SetRotation(Normalize(quat.Mul(h.Rotation, quat.Conj(Normalize(v.ControlOffset())))))
}
