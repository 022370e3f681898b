package calendar

import (
	"fmt"
	"time"

	"github.com/sevenofnine/virtual-calendar/internal/domain"
)

// EditEvent applies one property change to a single event. Timing edits are
// re-validated against the event's current span and detach the event from
// its series; the date index is rebuilt for the (possibly changed) span,
// dropping every stale bucket the old span touched.
func (s *Store) EditEvent(id string, prop domain.Property, value string) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	oldKeys := spanKeys(e)
	if err := applyEventProperty(e, prop, value); err != nil {
		return nil, err
	}
	s.removeIndex(e, oldKeys)
	s.insertIndex(e)
	return e, nil
}

// EditSeries applies one property change to a whole series. Non-timing
// properties update the series template and every attached occurrence in
// place. Timing properties re-validate the rule and replace the attached
// occurrences with a freshly generated set under the same series id; a
// duplicate collision rolls the whole edit back.
//
// An unknown series id is a deliberate no-op, unlike the strict NotFound of
// EditEvent.
func (s *Store) EditSeries(seriesID string, prop domain.Property, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sr := s.series[seriesID]
	if sr == nil {
		return nil
	}
	if prop.IsTiming() {
		return s.retimeSeries(sr, prop, value)
	}
	return s.applyToSeries(sr, s.membersOf(seriesID), prop, value, true)
}

// EditSeriesFromDate applies a property change to the occurrences starting
// on or after the given date. Non-timing properties mutate just those
// occurrences, leaving earlier ones and the template alone. Timing
// properties split the series: occurrences before the date stay with the
// original series, which is truncated to end before the date, and the rest
// are regenerated under a new series carrying the new timing.
//
// Unknown series ids no-op, matching EditSeries.
func (s *Store) EditSeriesFromDate(seriesID string, from time.Time, prop domain.Property, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sr := s.series[seriesID]
	if sr == nil {
		return nil
	}
	cut := domain.StartOfDay(from)
	var head, tail []*domain.Event
	for _, e := range s.membersOf(seriesID) {
		if e.Start().Before(cut) {
			head = append(head, e)
		} else {
			tail = append(tail, e)
		}
	}
	if !prop.IsTiming() {
		return s.applyToSeries(sr, tail, prop, value, false)
	}
	if len(tail) == 0 {
		return nil
	}
	if len(head) == 0 {
		return s.retimeSeries(sr, prop, value)
	}

	startClock, duration, err := newTiming(sr, prop, value)
	if err != nil {
		return err
	}
	cfg := domain.SeriesConfig{
		Subject:        sr.Subject(),
		StartClock:     startClock,
		Duration:       duration,
		Days:           sr.Days(),
		StartDate:      cut,
		Description:    sr.Description(),
		Location:       sr.Location(),
		LocationDetail: sr.LocationDetail(),
		Status:         sr.Status(),
	}
	if sr.Count() > 0 {
		cfg.Count = len(tail)
	} else {
		cfg.EndDate = sr.EndDate()
	}
	split, err := domain.NewSeries(cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidEdit, err)
	}
	for _, e := range tail {
		s.removeIndex(e, spanKeys(e))
	}
	if err := s.insertGeneration(split.Generate()); err != nil {
		for _, e := range tail {
			s.insertIndex(e)
		}
		return err
	}
	// head is non-empty, so the truncated rule keeps a reachable end date.
	_ = sr.TerminateBefore(cut)
	s.series[split.ID()] = split
	return nil
}

// applyToSeries pushes a non-timing property onto the given occurrences,
// and onto the template when the edit is series-wide so later
// regenerations keep it.
func (s *Store) applyToSeries(sr *domain.Series, members []*domain.Event, prop domain.Property, value string, updateTemplate bool) error {
	switch prop {
	case domain.PropertySubject:
		if updateTemplate {
			sr.SetSubject(value)
		}
		for _, e := range members {
			e.SetSubject(value)
		}
	case domain.PropertyDescription:
		if updateTemplate {
			sr.SetDescription(value)
		}
		for _, e := range members {
			e.SetDescription(value)
		}
	case domain.PropertyLocation:
		loc, err := domain.ParseLocation(value)
		if err != nil {
			return err
		}
		if updateTemplate {
			sr.SetLocation(loc, sr.LocationDetail())
		}
		for _, e := range members {
			e.SetLocation(loc, e.LocationDetail())
		}
	case domain.PropertyStatus:
		st, err := domain.ParseStatus(value)
		if err != nil {
			return err
		}
		if updateTemplate {
			sr.SetStatus(st)
		}
		for _, e := range members {
			e.SetStatus(st)
		}
	default:
		return fmt.Errorf("%w: %s", domain.ErrUnknownProperty, prop)
	}
	return nil
}

// retimeSeries changes the rule's timing and swaps the attached occurrence
// set for a new generation. On any failure the old occurrences and timing
// are restored.
func (s *Store) retimeSeries(sr *domain.Series, prop domain.Property, value string) error {
	startClock, duration, err := newTiming(sr, prop, value)
	if err != nil {
		return err
	}
	oldClock, oldDuration := sr.StartClock(), sr.Duration()
	if err := sr.SetTiming(startClock, duration); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidEdit, err)
	}
	old := s.membersOf(sr.ID())
	for _, e := range old {
		s.removeIndex(e, spanKeys(e))
	}
	if err := s.insertGeneration(sr.Generate()); err != nil {
		for _, e := range old {
			s.insertIndex(e)
		}
		_ = sr.SetTiming(oldClock, oldDuration)
		return err
	}
	return nil
}

// newTiming resolves the (start clock, duration) pair implied by a timing
// edit: a START edit keeps the occurrence's end clock fixed, an END edit
// keeps its start clock fixed.
func newTiming(sr *domain.Series, prop domain.Property, value string) (time.Duration, time.Duration, error) {
	clock, err := parseClock(value)
	if err != nil {
		return 0, 0, err
	}
	if prop == domain.PropertyStart {
		endClock := sr.StartClock() + sr.Duration()
		return clock, endClock - clock, nil
	}
	return sr.StartClock(), clock - sr.StartClock(), nil
}
