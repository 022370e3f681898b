package calendar

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sevenofnine/virtual-calendar/internal/domain"
)

// Store owns every event and series in one calendar. Events are reachable
// through a denormalized date index: an event spanning several days appears
// under every date it touches, which keeps per-day lookup cheap at the cost
// of multi-bucket bookkeeping on edits. All bookkeeping funnels through
// spanKeys/insertIndex/removeIndex so the buckets can never disagree with
// the ownership map.
//
// A single coarse mutex guards the whole store; the engine itself is
// synchronous and the lock only exists so the HTTP layer may call in from
// concurrent requests.
type Store struct {
	mu     sync.Mutex
	events map[string]*domain.Event
	byDate map[dateKey]map[string]*domain.Event
	series map[string]*domain.Series
}

func NewStore() *Store {
	return &Store{
		events: make(map[string]*domain.Event),
		byDate: make(map[dateKey]map[string]*domain.Event),
		series: make(map[string]*domain.Series),
	}
}

type dateKey struct {
	year  int
	month time.Month
	day   int
}

func keyFor(t time.Time) dateKey {
	y, m, d := t.Date()
	return dateKey{year: y, month: m, day: d}
}

// spanKeys lists the date buckets an event belongs under: every date from
// its start date to its effective end date, end-exclusive at exact
// midnight so an event ending at 00:00 does not leak onto the next day.
func spanKeys(e *domain.Event) []dateKey {
	start := e.Start()
	end := e.EffectiveEnd()
	last := end
	if end.After(start) && end.Equal(domain.StartOfDay(end)) {
		last = end.Add(-time.Nanosecond)
	}
	var keys []dateKey
	for day := domain.StartOfDay(start); !day.After(last); day = day.AddDate(0, 0, 1) {
		keys = append(keys, keyFor(day))
	}
	return keys
}

func (s *Store) insertIndex(e *domain.Event) {
	s.events[e.ID()] = e
	for _, k := range spanKeys(e) {
		bucket := s.byDate[k]
		if bucket == nil {
			bucket = make(map[string]*domain.Event)
			s.byDate[k] = bucket
		}
		bucket[e.ID()] = e
	}
}

func (s *Store) removeIndex(e *domain.Event, keys []dateKey) {
	delete(s.events, e.ID())
	for _, k := range keys {
		if bucket := s.byDate[k]; bucket != nil {
			delete(bucket, e.ID())
			if len(bucket) == 0 {
				delete(s.byDate, k)
			}
		}
	}
}

// hasDuplicate reports whether any indexed event collides with the
// candidate by subject+start+end. A duplicate necessarily shares the
// candidate's date buckets, so only those are searched.
func (s *Store) hasDuplicate(candidate *domain.Event) bool {
	for _, k := range spanKeys(candidate) {
		for _, existing := range s.byDate[k] {
			if existing.ID() != candidate.ID() && existing.SameOccurrence(candidate) {
				return true
			}
		}
	}
	return false
}

// CreateEvent builds a standalone event and inserts it under every date it
// spans. A collision by subject+start+end with any existing event fails
// the creation.
func (s *Store) CreateEvent(subject string, start time.Time, end *time.Time) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := domain.NewEvent(subject, start, end)
	if err != nil {
		return nil, err
	}
	if s.hasDuplicate(e) {
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateEvent, e)
	}
	s.insertIndex(e)
	return e, nil
}

// SeriesOptions carries the caller-facing shape of a recurrence rule:
// start and end as time-of-day offsets from midnight, and either a
// positive Count or an inclusive EndDate.
type SeriesOptions struct {
	Subject        string
	StartTime      time.Duration
	EndTime        time.Duration
	Days           []time.Weekday
	StartDate      time.Time
	EndDate        *time.Time
	Count          int
	Description    string
	Location       domain.Location
	LocationDetail string
	Status         domain.Status
}

// CreateSeries validates the rule, generates its occurrences and inserts
// each through the same duplicate check as CreateEvent. If any occurrence
// collides, everything inserted so far is rolled back and the series is
// not registered.
func (s *Store) CreateSeries(opts SeriesOptions) (*domain.Series, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if opts.EndTime <= opts.StartTime {
		return nil, domain.RecurrenceError{Reason: "end time not after start time"}
	}
	series, err := domain.NewSeries(domain.SeriesConfig{
		Subject:        opts.Subject,
		StartClock:     opts.StartTime,
		Duration:       opts.EndTime - opts.StartTime,
		Days:           opts.Days,
		StartDate:      opts.StartDate,
		EndDate:        opts.EndDate,
		Count:          opts.Count,
		Description:    opts.Description,
		Location:       opts.Location,
		LocationDetail: opts.LocationDetail,
		Status:         opts.Status,
	})
	if err != nil {
		return nil, err
	}
	if err := s.insertGeneration(series.Generate()); err != nil {
		return nil, err
	}
	s.series[series.ID()] = series
	return series, nil
}

// insertGeneration adds a batch of occurrences atomically: on the first
// duplicate the already-inserted prefix is removed again.
func (s *Store) insertGeneration(events []*domain.Event) error {
	inserted := make([]*domain.Event, 0, len(events))
	for _, e := range events {
		if s.hasDuplicate(e) {
			for _, done := range inserted {
				s.removeIndex(done, spanKeys(done))
			}
			return fmt.Errorf("%w: %s", domain.ErrDuplicateEvent, e)
		}
		s.insertIndex(e)
		inserted = append(inserted, e)
	}
	return nil
}

// EventsOn returns every event whose span touches the given date.
func (s *Store) EventsOn(date time.Time) []*domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket := s.byDate[keyFor(date)]
	out := make([]*domain.Event, 0, len(bucket))
	for _, e := range bucket {
		out = append(out, e)
	}
	sortEvents(out)
	return out
}

// EventsInRange returns events overlapping [from, to], start-inclusive and
// end-exclusive, each at most once even when it spans several buckets.
func (s *Store) EventsInRange(from, to time.Time) ([]*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if from.After(to) {
		return nil, fmt.Errorf("%w: from %s after to %s", domain.ErrInvalidRange,
			from.Format(domain.DateTimeLayout), to.Format(domain.DateTimeLayout))
	}
	seen := make(map[string]bool)
	var out []*domain.Event
	for day := domain.StartOfDay(from); !day.After(to); day = day.AddDate(0, 0, 1) {
		for _, e := range s.byDate[keyFor(day)] {
			if seen[e.ID()] {
				continue
			}
			seen[e.ID()] = true
			if !e.Start().After(to) && e.EffectiveEnd().After(from) {
				out = append(out, e)
			}
		}
	}
	sortEvents(out)
	return out, nil
}

// EventsBySubjectAndStart matches case-insensitively on subject and exactly
// on start.
func (s *Store) EventsBySubjectAndStart(subject string, start time.Time) []*domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Event
	for _, e := range s.events {
		if strings.EqualFold(e.Subject(), subject) && e.Start().Equal(start) {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out
}

// EventsByDetails matches case-insensitively on subject and exactly on
// start and end; it disambiguates single-event edits.
func (s *Store) EventsByDetails(subject string, start time.Time, end *time.Time) []*domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Event
	for _, e := range s.events {
		if !strings.EqualFold(e.Subject(), subject) || !e.Start().Equal(start) {
			continue
		}
		if (e.End() == nil) != (end == nil) {
			continue
		}
		if end != nil && !e.End().Equal(*end) {
			continue
		}
		out = append(out, e)
	}
	sortEvents(out)
	return out
}

// IsBusyAt reports whether any event's span contains the instant, start
// inclusive and end exclusive.
func (s *Store) IsBusyAt(instant time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.byDate[keyFor(instant)] {
		if e.Contains(instant) {
			return true
		}
	}
	return false
}

// EventByID returns the event with the given id, or nil.
func (s *Store) EventByID(id string) *domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[id]
}

// SeriesByID returns the series with the given id, or nil.
func (s *Store) SeriesByID(id string) *domain.Series {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.series[id]
}

// Events returns a sorted snapshot of every event in the store.
func (s *Store) Events() []*domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
	}
	sortEvents(out)
	return out
}

// SeriesList returns a snapshot of every registered series.
func (s *Store) SeriesList() []*domain.Series {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Series, 0, len(s.series))
	for _, sr := range s.series {
		out = append(out, sr)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate().Equal(out[j].StartDate()) {
			return out[i].StartDate().Before(out[j].StartDate())
		}
		return out[i].ID() < out[j].ID()
	})
	return out
}

// membersOf lists the live events still attached to a series, sorted by
// start. Individually detached occurrences are excluded by construction.
func (s *Store) membersOf(seriesID string) []*domain.Event {
	var out []*domain.Event
	for _, e := range s.events {
		if e.SeriesID() == seriesID {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out
}

func sortEvents(events []*domain.Event) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].Start().Equal(events[j].Start()) {
			return events[i].Start().Before(events[j].Start())
		}
		if events[i].Subject() != events[j].Subject() {
			return events[i].Subject() < events[j].Subject()
		}
		return events[i].ID() < events[j].ID()
	})
}
