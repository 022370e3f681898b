package domain

import (
	"fmt"
	"strings"
)

// Location classifies where an event takes place. The zero value means no
// location was set.
type Location int

const (
	LocationNone Location = iota
	LocationPhysical
	LocationOnline
)

func (l Location) String() string {
	switch l {
	case LocationPhysical:
		return "PHYSICAL"
	case LocationOnline:
		return "ONLINE"
	default:
		return ""
	}
}

// ParseLocation maps a token to a Location, case-insensitively. Only
// PHYSICAL and ONLINE are accepted.
func ParseLocation(token string) (Location, error) {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "PHYSICAL":
		return LocationPhysical, nil
	case "ONLINE":
		return LocationOnline, nil
	default:
		return LocationNone, fmt.Errorf("%w: location %q", ErrInvalidEnumValue, token)
	}
}

// Status is the visibility of an event. The zero value means no status was
// set.
type Status int

const (
	StatusUnset Status = iota
	StatusPublic
	StatusPrivate
)

func (s Status) String() string {
	switch s {
	case StatusPublic:
		return "PUBLIC"
	case StatusPrivate:
		return "PRIVATE"
	default:
		return ""
	}
}

// ParseStatus maps a token to a Status, case-insensitively. Only PUBLIC and
// PRIVATE are accepted.
func ParseStatus(token string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "PUBLIC":
		return StatusPublic, nil
	case "PRIVATE":
		return StatusPrivate, nil
	default:
		return StatusUnset, fmt.Errorf("%w: status %q", ErrInvalidEnumValue, token)
	}
}
