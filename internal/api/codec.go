package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/sevenofnine/virtual-calendar/internal/calendar"
	"github.com/sevenofnine/virtual-calendar/internal/domain"
)

type eventJSON struct {
	ID             string  `json:"id"`
	Subject        string  `json:"subject"`
	Start          string  `json:"start"`
	End            *string `json:"end,omitempty"`
	Description    string  `json:"description,omitempty"`
	Location       string  `json:"location,omitempty"`
	LocationDetail string  `json:"location_detail,omitempty"`
	Status         string  `json:"status,omitempty"`
	SeriesID       string  `json:"series_id,omitempty"`
}

func eventJSONFrom(e *domain.Event) eventJSON {
	out := eventJSON{
		ID:             e.ID(),
		Subject:        e.Subject(),
		Start:          e.Start().Format(domain.DateTimeLayout),
		Description:    e.Description(),
		Location:       e.Location().String(),
		LocationDetail: e.LocationDetail(),
		Status:         e.Status().String(),
		SeriesID:       e.SeriesID(),
	}
	if end := e.End(); end != nil {
		text := end.Format(domain.DateTimeLayout)
		out.End = &text
	}
	return out
}

func eventListJSON(events []*domain.Event) []eventJSON {
	out := make([]eventJSON, 0, len(events))
	for _, e := range events {
		out = append(out, eventJSONFrom(e))
	}
	return out
}

type seriesJSON struct {
	ID        string   `json:"id"`
	Subject   string   `json:"subject"`
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
	Days      []string `json:"days"`
	StartDate string   `json:"start_date"`
	EndDate   *string  `json:"end_date,omitempty"`
	Count     int      `json:"count,omitempty"`
	RRule     string   `json:"rrule"`
}

func seriesJSONFrom(sr *domain.Series) seriesJSON {
	days := make([]string, 0, len(sr.Days()))
	for _, d := range sr.Days() {
		days = append(days, strings.ToUpper(d.String()[:3]))
	}
	out := seriesJSON{
		ID:        sr.ID(),
		Subject:   sr.Subject(),
		StartTime: clockText(sr.StartClock()),
		EndTime:   clockText(sr.StartClock() + sr.Duration()),
		Days:      days,
		StartDate: sr.StartDate().Format(domain.DateLayout),
		Count:     sr.Count(),
		RRule:     sr.RRule(),
	}
	if end := sr.EndDate(); end != nil {
		text := end.Format(domain.DateLayout)
		out.EndDate = &text
	}
	return out
}

func clockText(offset time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(offset.Hours()), int(offset.Minutes())%60)
}

func seriesOptionsFrom(payload createSeriesRequest) (calendar.SeriesOptions, error) {
	var opts calendar.SeriesOptions
	startTime, err := parseClockText(payload.StartTime)
	if err != nil {
		return opts, fmt.Errorf("invalid start_time: %v", err)
	}
	endTime, err := parseClockText(payload.EndTime)
	if err != nil {
		return opts, fmt.Errorf("invalid end_time: %v", err)
	}
	startDate, err := time.Parse(domain.DateLayout, payload.StartDate)
	if err != nil {
		return opts, fmt.Errorf("invalid start_date: %v", err)
	}
	var endDate *time.Time
	if payload.EndDate != nil {
		d, err := time.Parse(domain.DateLayout, *payload.EndDate)
		if err != nil {
			return opts, fmt.Errorf("invalid end_date: %v", err)
		}
		endDate = &d
	}
	days := make([]time.Weekday, 0, len(payload.Days))
	for _, raw := range payload.Days {
		d, err := parseWeekday(raw)
		if err != nil {
			return opts, err
		}
		days = append(days, d)
	}
	var loc domain.Location
	if payload.Location != "" {
		if loc, err = domain.ParseLocation(payload.Location); err != nil {
			return opts, err
		}
	}
	var status domain.Status
	if payload.Status != "" {
		if status, err = domain.ParseStatus(payload.Status); err != nil {
			return opts, err
		}
	}
	return calendar.SeriesOptions{
		Subject:        payload.Subject,
		StartTime:      startTime,
		EndTime:        endTime,
		Days:           days,
		StartDate:      startDate,
		EndDate:        endDate,
		Count:          payload.Count,
		Description:    payload.Description,
		Location:       loc,
		LocationDetail: payload.LocationDetail,
		Status:         status,
	}, nil
}

func parseClockText(value string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("bad time %q", value)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func parseWeekday(raw string) (time.Weekday, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SUN", "SUNDAY":
		return time.Sunday, nil
	case "MON", "MONDAY":
		return time.Monday, nil
	case "TUE", "TUESDAY":
		return time.Tuesday, nil
	case "WED", "WEDNESDAY":
		return time.Wednesday, nil
	case "THU", "THURSDAY":
		return time.Thursday, nil
	case "FRI", "FRIDAY":
		return time.Friday, nil
	case "SAT", "SATURDAY":
		return time.Saturday, nil
	default:
		return 0, fmt.Errorf("unknown weekday %q", raw)
	}
}
