package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DateTimeLayout is the textual date-time form used at the engine boundary.
const DateTimeLayout = "2006-01-02T15:04"

// DateLayout is the textual date form used at the engine boundary.
const DateLayout = "2006-01-02"

// Event is one concrete calendar occurrence. Identity is a UUID assigned at
// construction and stable for the object's lifetime; everything else is
// mutable through the setters, which enforce the time-range invariant and
// the series-detachment policy.
type Event struct {
	id             string
	subject        string
	start          time.Time
	end            *time.Time
	description    string
	location       Location
	locationDetail string
	status         Status
	seriesID       string
}

// NewEvent builds a standalone event. A nil end marks the event as
// open-ended. An end before the start is rejected.
func NewEvent(subject string, start time.Time, end *time.Time) (*Event, error) {
	if end != nil && end.Before(start) {
		return nil, fmt.Errorf("%w: end %s before start %s", ErrInvalidRange,
			end.Format(DateTimeLayout), start.Format(DateTimeLayout))
	}
	e := &Event{
		id:      uuid.NewString(),
		subject: subject,
		start:   start,
	}
	if end != nil {
		t := *end
		e.end = &t
	}
	return e, nil
}

func (e *Event) ID() string             { return e.id }
func (e *Event) Subject() string        { return e.subject }
func (e *Event) Start() time.Time       { return e.start }
func (e *Event) Description() string    { return e.description }
func (e *Event) Location() Location     { return e.location }
func (e *Event) LocationDetail() string { return e.locationDetail }
func (e *Event) Status() Status         { return e.status }
func (e *Event) SeriesID() string       { return e.seriesID }

// End returns the event's end, or nil for open-ended events.
func (e *Event) End() *time.Time {
	if e.end == nil {
		return nil
	}
	t := *e.end
	return &t
}

// EffectiveEnd is the end used for indexing, overlap and busy checks. An
// open-ended event is treated as lasting until midnight after its start.
func (e *Event) EffectiveEnd() time.Time {
	if e.end != nil {
		return *e.end
	}
	y, m, d := e.start.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, e.start.Location()).AddDate(0, 0, 1)
}

// SetSubject replaces the subject. Non-timing edits never detach the event
// from its series.
func (e *Event) SetSubject(subject string) { e.subject = subject }

func (e *Event) SetDescription(description string) { e.description = description }

func (e *Event) SetLocation(loc Location, detail string) {
	e.location = loc
	if loc == LocationNone {
		detail = ""
	}
	e.locationDetail = detail
}

func (e *Event) SetStatus(status Status) { e.status = status }

// SetStart moves the event's start. A start after the current end is
// rejected. On success the event is detached from its series: changing the
// timing of one occurrence individually removes it from group-edit
// semantics.
func (e *Event) SetStart(start time.Time) error {
	if e.end != nil && start.After(*e.end) {
		return fmt.Errorf("%w: start %s after end %s", ErrInvalidRange,
			start.Format(DateTimeLayout), e.end.Format(DateTimeLayout))
	}
	e.start = start
	e.seriesID = ""
	return nil
}

// SetEnd moves the event's end, with the same detachment side effect as
// SetStart.
func (e *Event) SetEnd(end time.Time) error {
	if end.Before(e.start) {
		return fmt.Errorf("%w: end %s before start %s", ErrInvalidRange,
			end.Format(DateTimeLayout), e.start.Format(DateTimeLayout))
	}
	t := end
	e.end = &t
	e.seriesID = ""
	return nil
}

// SameOccurrence reports whether two events collide for duplicate-detection
// purposes: identical subject, start and end. Identity, description,
// location, status and series membership are deliberately excluded.
func (e *Event) SameOccurrence(other *Event) bool {
	if other == nil {
		return false
	}
	if e.subject != other.subject || !e.start.Equal(other.start) {
		return false
	}
	if (e.end == nil) != (other.end == nil) {
		return false
	}
	return e.end == nil || e.end.Equal(*other.end)
}

// Contains reports whether the event's span covers the instant, start
// inclusive and end exclusive.
func (e *Event) Contains(instant time.Time) bool {
	return !instant.Before(e.start) && instant.Before(e.EffectiveEnd())
}

// LocationDisplay renders the location for presentation: empty when unset,
// the location name alone when no detail is present, "NAME: detail"
// otherwise.
func (e *Event) LocationDisplay() string {
	if e.location == LocationNone {
		return ""
	}
	if e.locationDetail == "" {
		return e.location.String()
	}
	return e.location.String() + ": " + e.locationDetail
}

func (e *Event) String() string {
	endText := "null"
	if e.end != nil {
		endText = e.end.Format(DateTimeLayout)
	}
	s := fmt.Sprintf("%s (%s to %s)", e.subject, e.start.Format(DateTimeLayout), endText)
	if display := e.LocationDisplay(); display != "" {
		s += " @ " + display
	}
	return s
}
