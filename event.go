package bgthrust

import "fmt"

// EventKind is the kind of notification emitted to the host.
type EventKind uint8

const (
	HeadingChanged EventKind = iota + 1
	ThrottleChanged
	Integrated
	Cutoff
	ManeuverComplete
	StopWarp
	ScreenMessage
)

func (k EventKind) String() string {
	switch k {
	case HeadingChanged:
		return "heading-changed"
	case ThrottleChanged:
		return "throttle-changed"
	case Integrated:
		return "integrated"
	case Cutoff:
		return "cutoff"
	case ManeuverComplete:
		return "maneuver-complete"
	case StopWarp:
		return "stop-warp"
	case ScreenMessage:
		return "screen-message"
	}
	return "unknown"
}

// Event is a notification for the host. Only the fields relevant to the kind are set.
type Event struct {
	Kind     EventKind
	VesselID string
	UT       float64
	From, To *HeadingProvider // HeadingChanged
	Throttle float64          // ThrottleChanged
	Fault    HeadingFault     // Cutoff
	Reason   string           // Cutoff
	DeltaV   float64          // Integrated
	Message  string           // ScreenMessage
}

func (e Event) String() string {
	return fmt.Sprintf("%s vessel=%s ut=%.3f", e.Kind, e.VesselID, e.UT)
}

// EventHandler receives events synchronously.
type EventHandler func(Event)

// Cutoff reasons.
const (
	ReasonInvalidHeading = "invalid-heading"
	ReasonZeroThrust     = "zero-thrust"
	ReasonFuel           = "fuel-exhausted"
	ReasonManeuver       = "maneuver-complete"
)

const (
	msgManeuverComplete = "Maneuver complete. Cutting thrust."
	msgInvalidHeading   = "Invalid heading. Cutting thrust."
)
