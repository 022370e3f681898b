package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
)

// maxWalkDays bounds the generation walk for date-based rules, which stop
// at their end date anyway; count-based rules get a bound derived from the
// count so large counts are never silently truncated.
const maxWalkDays = 3700

// SeriesConfig describes a recurrence rule to be validated into a Series.
// StartClock is the occurrence start as an offset from midnight; exactly
// one of Count and EndDate must be set.
type SeriesConfig struct {
	Subject        string
	StartClock     time.Duration
	Duration       time.Duration
	Days           []time.Weekday
	StartDate      time.Time
	EndDate        *time.Time
	Count          int
	Description    string
	Location       Location
	LocationDetail string
	Status         Status
}

// Series is a validated recurrence rule: a time-of-day start, a duration
// that keeps each occurrence within a single calendar day, a non-empty
// weekday set, and a count or inclusive end-date termination. It generates
// the concrete Event set it implies.
type Series struct {
	id             string
	subject        string
	startClock     time.Duration
	duration       time.Duration
	days           map[time.Weekday]bool
	startDate      time.Time
	endDate        *time.Time
	count          int
	description    string
	location       Location
	locationDetail string
	status         Status
}

// NewSeries validates the rule and returns a Series with a fresh id. All
// violations surface as RecurrenceError wrapping ErrInvalidRecurrence.
func NewSeries(cfg SeriesConfig) (*Series, error) {
	if len(cfg.Days) == 0 {
		return nil, RecurrenceError{Reason: "weekday set is empty"}
	}
	if cfg.Duration <= 0 {
		return nil, RecurrenceError{Reason: "duration must be positive"}
	}
	if cfg.StartClock < 0 || cfg.StartClock >= 24*time.Hour {
		return nil, RecurrenceError{Reason: "start time outside the day"}
	}
	if cfg.StartClock+cfg.Duration > 24*time.Hour {
		return nil, RecurrenceError{Reason: "occurrence crosses a day boundary"}
	}
	if cfg.Count > 0 && cfg.EndDate != nil {
		return nil, RecurrenceError{Reason: "both occurrence count and end date set"}
	}
	if cfg.Count <= 0 && cfg.EndDate == nil {
		return nil, RecurrenceError{Reason: "no termination condition"}
	}
	start := StartOfDay(cfg.StartDate)
	var end *time.Time
	if cfg.EndDate != nil {
		d := StartOfDay(*cfg.EndDate)
		if d.Before(start) {
			return nil, RecurrenceError{Reason: "end date before start date"}
		}
		end = &d
	}
	s := &Series{
		id:             uuid.NewString(),
		subject:        cfg.Subject,
		startClock:     cfg.StartClock,
		duration:       cfg.Duration,
		days:           make(map[time.Weekday]bool, len(cfg.Days)),
		startDate:      start,
		endDate:        end,
		count:          cfg.Count,
		description:    cfg.Description,
		location:       cfg.Location,
		locationDetail: cfg.LocationDetail,
		status:         cfg.Status,
	}
	for _, d := range cfg.Days {
		s.days[d] = true
	}
	return s, nil
}

func (s *Series) ID() string               { return s.id }
func (s *Series) Subject() string          { return s.subject }
func (s *Series) StartClock() time.Duration { return s.startClock }
func (s *Series) Duration() time.Duration  { return s.duration }
func (s *Series) StartDate() time.Time     { return s.startDate }
func (s *Series) Count() int               { return s.count }
func (s *Series) Description() string      { return s.description }
func (s *Series) Location() Location       { return s.location }
func (s *Series) LocationDetail() string   { return s.locationDetail }
func (s *Series) Status() Status           { return s.status }

// EndDate returns the inclusive termination date, or nil for count-based
// rules.
func (s *Series) EndDate() *time.Time {
	if s.endDate == nil {
		return nil
	}
	t := *s.endDate
	return &t
}

// Days returns the recurrence weekdays in Sunday-first order.
func (s *Series) Days() []time.Weekday {
	out := make([]time.Weekday, 0, len(s.days))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.days[d] {
			out = append(out, d)
		}
	}
	return out
}

func (s *Series) SetSubject(subject string)         { s.subject = subject }
func (s *Series) SetDescription(description string) { s.description = description }
func (s *Series) SetStatus(status Status)           { s.status = status }

func (s *Series) SetLocation(loc Location, detail string) {
	s.location = loc
	if loc == LocationNone {
		detail = ""
	}
	s.locationDetail = detail
}

// SetTiming replaces the start clock and duration, re-checking the
// day-boundary invariant. On violation the series is left unchanged.
func (s *Series) SetTiming(startClock, duration time.Duration) error {
	if duration <= 0 {
		return RecurrenceError{Reason: "duration must be positive"}
	}
	if startClock < 0 || startClock >= 24*time.Hour {
		return RecurrenceError{Reason: "start time outside the day"}
	}
	if startClock+duration > 24*time.Hour {
		return RecurrenceError{Reason: "occurrence crosses a day boundary"}
	}
	s.startClock = startClock
	s.duration = duration
	return nil
}

// TerminateBefore converts the rule to an inclusive end-date termination on
// the day before cutoff. Used when a series is split at a date.
func (s *Series) TerminateBefore(cutoff time.Time) error {
	last := StartOfDay(cutoff).AddDate(0, 0, -1)
	if last.Before(s.startDate) {
		return RecurrenceError{Reason: "end date before start date"}
	}
	s.count = 0
	s.endDate = &last
	return nil
}

// Generate enumerates the occurrences implied by the rule. The walk visits
// every date from the start date forward and emits one event per date whose
// weekday is in the recurrence set; the start date itself is not forced to
// match. A date-bounded walk that never matches yields an empty set.
func (s *Series) Generate() []*Event {
	var events []*Event
	day := s.startDate
	limit := s.walkLimit()
	for walked := 0; walked < limit; walked++ {
		if s.endDate != nil && day.After(*s.endDate) {
			break
		}
		if s.days[day.Weekday()] {
			start := day.Add(s.startClock)
			end := start.Add(s.duration)
			events = append(events, &Event{
				id:             uuid.NewString(),
				subject:        s.subject,
				start:          start,
				end:            &end,
				description:    s.description,
				location:       s.location,
				locationDetail: s.locationDetail,
				status:         s.status,
				seriesID:       s.id,
			})
			if s.count > 0 && len(events) == s.count {
				break
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return events
}

// walkLimit returns the number of dates Generate may visit. A non-empty
// weekday set matches at least once per week, so a count-based rule is
// satisfied within 7*count days plus the lead-in week.
func (s *Series) walkLimit() int {
	if s.count > 0 {
		return 7*s.count + 7
	}
	return maxWalkDays
}

// RRule renders the rule as iCalendar RRULE content for export.
func (s *Series) RRule() string {
	byday := make([]rrule.Weekday, 0, len(s.days))
	for _, d := range s.Days() {
		byday = append(byday, rruleWeekday(d))
	}
	opt := rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: byday,
	}
	if s.count > 0 {
		opt.Count = s.count
	} else {
		opt.Until = s.endDate.Add(s.startClock + s.duration)
	}
	return opt.RRuleString()
}

func rruleWeekday(d time.Weekday) rrule.Weekday {
	switch d {
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}

// StartOfDay truncates an instant to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
