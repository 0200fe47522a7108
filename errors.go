package bgthrust

import "errors"

var (
	// ErrUnknownHeading is returned when a persisted heading name is not registered.
	ErrUnknownHeading = errors.New("unknown heading provider")
	// ErrMissingName is returned when a persisted record has no name.
	ErrMissingName = errors.New("record has no name")
	// ErrUnresolvedTarget is returned when a target identity cannot be found.
	ErrUnresolvedTarget = errors.New("unresolved target")
	// ErrMalformedValue is returned when a persisted value cannot be parsed.
	ErrMalformedValue = errors.New("malformed value")
)
