package domain

import (
	"fmt"
	"strings"
)

// Property names an editable event field. Edits arrive as (property token,
// string value) pairs from the outer layers and are applied through an
// explicit switch rather than reflection.
type Property int

const (
	PropertySubject Property = iota
	PropertyStart
	PropertyEnd
	PropertyDescription
	PropertyLocation
	PropertyStatus
)

func (p Property) String() string {
	switch p {
	case PropertySubject:
		return "SUBJECT"
	case PropertyStart:
		return "START"
	case PropertyEnd:
		return "END"
	case PropertyDescription:
		return "DESCRIPTION"
	case PropertyLocation:
		return "LOCATION"
	case PropertyStatus:
		return "STATUS"
	default:
		return "UNKNOWN"
	}
}

// IsTiming reports whether the property participates in an event's time
// span. Timing edits have stricter propagation rules than the rest.
func (p Property) IsTiming() bool {
	return p == PropertyStart || p == PropertyEnd
}

// ParseProperty maps a token to a Property, case-insensitively.
func ParseProperty(token string) (Property, error) {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "SUBJECT":
		return PropertySubject, nil
	case "START":
		return PropertyStart, nil
	case "END":
		return PropertyEnd, nil
	case "DESCRIPTION":
		return PropertyDescription, nil
	case "LOCATION":
		return PropertyLocation, nil
	case "STATUS":
		return PropertyStatus, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownProperty, token)
	}
}

// CalendarProperty names a calendar-level setting. These belong to the
// container layer around the engine; the engine only parses the tokens.
type CalendarProperty int

const (
	CalendarPropertyName CalendarProperty = iota
	CalendarPropertyTimezone
)

func (p CalendarProperty) String() string {
	switch p {
	case CalendarPropertyName:
		return "NAME"
	case CalendarPropertyTimezone:
		return "TIMEZONE"
	default:
		return "UNKNOWN"
	}
}

// ParseCalendarProperty maps a token to a CalendarProperty,
// case-insensitively.
func ParseCalendarProperty(token string) (CalendarProperty, error) {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "NAME":
		return CalendarPropertyName, nil
	case "TIMEZONE":
		return CalendarPropertyTimezone, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownProperty, token)
	}
}
