// Package export renders a calendar store as an iCalendar document so
// subscription clients can consume the engine's state.
package export

import (
	"io"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/sevenofnine/virtual-calendar/internal/calendar"
	"github.com/sevenofnine/virtual-calendar/internal/domain"
)

const productID = "-//sevenofnine//virtual-calendar"

// Calendar builds the iCalendar form of the store: one VEVENT with an RRULE
// per series, and one plain VEVENT per standalone event (including
// occurrences detached from their series by individual timing edits).
func Calendar(store *calendar.Store, name, timezone string, now time.Time) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetName(name)
		cal.SetXWRCalName(name)
	}
	if timezone != "" {
		cal.SetXWRTimezone(timezone)
	}

	for _, sr := range store.SeriesList() {
		ev := cal.AddEvent(sr.ID())
		ev.SetDtStampTime(now)
		ev.SetSummary(sr.Subject())
		start := firstOccurrenceStart(sr)
		ev.SetStartAt(start)
		ev.SetEndAt(start.Add(sr.Duration()))
		ev.AddRrule(sr.RRule())
		applyTemplateFields(ev, sr)
	}

	for _, e := range store.Events() {
		if e.SeriesID() != "" {
			continue
		}
		ev := cal.AddEvent(e.ID())
		ev.SetDtStampTime(now)
		ev.SetSummary(e.Subject())
		ev.SetStartAt(e.Start())
		if end := e.End(); end != nil {
			ev.SetEndAt(*end)
		}
		if e.Description() != "" {
			ev.SetDescription(e.Description())
		}
		if display := e.LocationDisplay(); display != "" {
			ev.SetLocation(display)
		}
		setClass(ev, e.Status())
	}
	return cal
}

// Write serializes the store to w in iCalendar form.
func Write(w io.Writer, store *calendar.Store, name, timezone string, now time.Time) error {
	return Calendar(store, name, timezone, now).SerializeTo(w)
}

// firstOccurrenceStart finds the first matching weekday on or after the
// series start date. The walk is bounded by a week: the weekday set is
// non-empty, so a match exists within seven days.
func firstOccurrenceStart(sr *domain.Series) time.Time {
	days := make(map[time.Weekday]bool)
	for _, d := range sr.Days() {
		days[d] = true
	}
	day := sr.StartDate()
	for i := 0; i < 7; i++ {
		if days[day.Weekday()] {
			break
		}
		day = day.AddDate(0, 0, 1)
	}
	return day.Add(sr.StartClock())
}

func applyTemplateFields(ev *ics.VEvent, sr *domain.Series) {
	if sr.Description() != "" {
		ev.SetDescription(sr.Description())
	}
	if sr.Location() != domain.LocationNone {
		display := sr.Location().String()
		if sr.LocationDetail() != "" {
			display += ": " + sr.LocationDetail()
		}
		ev.SetLocation(display)
	}
	setClass(ev, sr.Status())
}

func setClass(ev *ics.VEvent, status domain.Status) {
	switch status {
	case domain.StatusPublic:
		ev.SetClass(ics.ClassificationPublic)
	case domain.StatusPrivate:
		ev.SetClass(ics.ClassificationPrivate)
	}
}
