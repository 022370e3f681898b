package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/sevenofnine/virtual-calendar/internal/domain"
)

// applyEventProperty mutates one event through the closed property switch.
// Timing violations surface as ErrInvalidEdit and leave the event
// unchanged; series detachment on timing edits happens inside the setters.
func applyEventProperty(e *domain.Event, p domain.Property, value string) error {
	switch p {
	case domain.PropertySubject:
		e.SetSubject(value)
	case domain.PropertyStart:
		t, err := parseDateTime(value)
		if err != nil {
			return err
		}
		if err := e.SetStart(t); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidEdit, err)
		}
	case domain.PropertyEnd:
		t, err := parseDateTime(value)
		if err != nil {
			return err
		}
		if err := e.SetEnd(t); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidEdit, err)
		}
	case domain.PropertyDescription:
		e.SetDescription(value)
	case domain.PropertyLocation:
		loc, err := domain.ParseLocation(value)
		if err != nil {
			return err
		}
		e.SetLocation(loc, e.LocationDetail())
	case domain.PropertyStatus:
		st, err := domain.ParseStatus(value)
		if err != nil {
			return err
		}
		e.SetStatus(st)
	default:
		return fmt.Errorf("%w: %s", domain.ErrUnknownProperty, p)
	}
	return nil
}

func parseDateTime(value string) (time.Time, error) {
	t, err := time.Parse(domain.DateTimeLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date-time %q", domain.ErrInvalidEdit, value)
	}
	return t, nil
}

// parseClock accepts a bare time of day or a full date-time and returns the
// clock part as an offset from midnight. Series timing edits only care
// about the clock.
func parseClock(value string) (time.Duration, error) {
	v := strings.TrimSpace(value)
	t, err := time.Parse("15:04", v)
	if err != nil {
		t, err = time.Parse(domain.DateTimeLayout, v)
		if err != nil {
			return 0, fmt.Errorf("%w: bad time %q", domain.ErrInvalidEdit, value)
		}
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
