package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sevenofnine/virtual-calendar/internal/calendar"
	"github.com/sevenofnine/virtual-calendar/internal/security"
)

func newTestServer(t *testing.T, auth security.BearerAuth) (*Server, *httptest.Server) {
	t.Helper()
	s := New(Options{
		Store:        calendar.NewStore(),
		Auth:         auth,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		CalendarName: "Team",
		Timezone:     "UTC",
		Now:          func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getStatus(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestAuthRequired(t *testing.T) {
	_, ts := newTestServer(t, security.BearerAuth{Enabled: true, Token: "s3cret"})

	resp := getStatus(t, ts.URL+"/v1/events?on=2025-06-04")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", resp.StatusCode)
	}

	// healthz stays open for liveness probes.
	resp = getStatus(t, ts.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", resp.StatusCode)
	}

	resp = getStatus(t, ts.URL+"/v1/events?on=2025-06-04&token=s3cret")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("query token status = %d, want 200", resp.StatusCode)
	}
}

func TestCreateAndQueryEvent(t *testing.T) {
	_, ts := newTestServer(t, security.BearerAuth{})

	resp := postJSON(t, ts.URL+"/v1/events", map[string]any{
		"subject": "Dentist",
		"start":   "2025-06-04T09:00",
		"end":     "2025-06-04T10:00",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	created := decode[eventJSON](t, resp)
	if created.ID == "" || created.Subject != "Dentist" {
		t.Fatalf("unexpected create response %+v", created)
	}

	resp = getStatus(t, ts.URL+"/v1/events?on=2025-06-04")
	events := decode[[]eventJSON](t, resp)
	if len(events) != 1 || events[0].ID != created.ID {
		t.Fatalf("day query returned %+v", events)
	}

	resp = getStatus(t, ts.URL+"/v1/events?from=2025-06-04T00:00&to=2025-06-05T00:00")
	events = decode[[]eventJSON](t, resp)
	if len(events) != 1 {
		t.Fatalf("range query returned %+v", events)
	}

	resp = getStatus(t, ts.URL+"/v1/events/search?subject=dentist&start=2025-06-04T09:00")
	events = decode[[]eventJSON](t, resp)
	if len(events) != 1 {
		t.Fatalf("search returned %+v", events)
	}
}

func TestCreateEventConflict(t *testing.T) {
	_, ts := newTestServer(t, security.BearerAuth{})
	payload := map[string]any{
		"subject": "Dentist",
		"start":   "2025-06-04T09:00",
		"end":     "2025-06-04T10:00",
	}
	if resp := postJSON(t, ts.URL+"/v1/events", payload); resp.StatusCode != http.StatusOK {
		t.Fatalf("first create status = %d", resp.StatusCode)
	}
	if resp := postJSON(t, ts.URL+"/v1/events", payload); resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate create status = %d, want 409", resp.StatusCode)
	}
}

func TestCreateEventBadPayload(t *testing.T) {
	_, ts := newTestServer(t, security.BearerAuth{})

	resp := postJSON(t, ts.URL+"/v1/events", map[string]any{
		"subject": "Backwards",
		"start":   "2025-06-04T10:00",
		"end":     "2025-06-04T09:00",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid range status = %d, want 400", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/v1/events", map[string]any{
		"subject": "NoStart",
		"start":   "junk",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad start status = %d, want 400", resp.StatusCode)
	}
}

func TestEditEventEndpoint(t *testing.T) {
	_, ts := newTestServer(t, security.BearerAuth{})
	created := decode[eventJSON](t, postJSON(t, ts.URL+"/v1/events", map[string]any{
		"subject": "Dentist",
		"start":   "2025-06-04T09:00",
	}))

	resp := postJSON(t, ts.URL+"/v1/events/edit", map[string]any{
		"id":       created.ID,
		"property": "SUBJECT",
		"value":    "Checkup",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("edit status = %d", resp.StatusCode)
	}
	if edited := decode[eventJSON](t, resp); edited.Subject != "Checkup" {
		t.Fatalf("edit response %+v", edited)
	}

	resp = postJSON(t, ts.URL+"/v1/events/edit", map[string]any{
		"id":       "missing",
		"property": "SUBJECT",
		"value":    "X",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing event status = %d, want 404", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/v1/events/edit", map[string]any{
		"id":       created.ID,
		"property": "COLOR",
		"value":    "red",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown property status = %d, want 400", resp.StatusCode)
	}
}

func TestSeriesEndpoints(t *testing.T) {
	_, ts := newTestServer(t, security.BearerAuth{})

	resp := postJSON(t, ts.URL+"/v1/series", map[string]any{
		"subject":    "Standup",
		"start_time": "09:00",
		"end_time":   "09:30",
		"days":       []string{"MON", "WED"},
		"start_date": "2025-06-02",
		"count":      5,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create series status = %d", resp.StatusCode)
	}
	created := decode[seriesJSON](t, resp)
	if created.ID == "" || created.RRule == "" {
		t.Fatalf("series response %+v", created)
	}

	resp = getStatus(t, ts.URL+"/v1/series?id="+created.ID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get series status = %d", resp.StatusCode)
	}
	got := decode[seriesJSON](t, resp)
	if got.StartTime != "09:00" || got.EndTime != "09:30" || got.Count != 5 {
		t.Fatalf("series lookup %+v", got)
	}

	resp = getStatus(t, ts.URL+"/v1/series?id=missing")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing series status = %d, want 404", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/v1/series/edit", map[string]any{
		"series_id": created.ID,
		"property":  "SUBJECT",
		"value":     "Sync",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("edit series status = %d", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/v1/series/edit-from-date", map[string]any{
		"series_id": created.ID,
		"from":      "2025-06-09",
		"property":  "START",
		"value":     "08:00",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("edit from date status = %d", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/v1/series/edit-from-date", map[string]any{
		"series_id": created.ID,
		"from":      "not-a-date",
		"property":  "START",
		"value":     "08:00",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad from date status = %d, want 400", resp.StatusCode)
	}
}

func TestCreateSeriesRejectsBadRule(t *testing.T) {
	_, ts := newTestServer(t, security.BearerAuth{})
	resp := postJSON(t, ts.URL+"/v1/series", map[string]any{
		"subject":    "Standup",
		"start_time": "09:00",
		"end_time":   "09:00",
		"days":       []string{"MON"},
		"start_date": "2025-06-02",
		"count":      5,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("zero-length slot status = %d, want 400", resp.StatusCode)
	}
}

func TestBusyEndpoint(t *testing.T) {
	_, ts := newTestServer(t, security.BearerAuth{})
	postJSON(t, ts.URL+"/v1/events", map[string]any{
		"subject": "Dentist",
		"start":   "2025-06-04T09:00",
		"end":     "2025-06-04T10:00",
	})

	resp := getStatus(t, ts.URL+"/v1/busy?at=2025-06-04T09:30")
	if got := decode[map[string]bool](t, resp); !got["busy"] {
		t.Fatal("expected busy at 09:30")
	}
	resp = getStatus(t, ts.URL+"/v1/busy?at=2025-06-04T10:00")
	if got := decode[map[string]bool](t, resp); got["busy"] {
		t.Fatal("end must be exclusive")
	}
	resp = getStatus(t, ts.URL+"/v1/busy?at=junk")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad instant status = %d, want 400", resp.StatusCode)
	}
}

func TestExportEndpoint(t *testing.T) {
	_, ts := newTestServer(t, security.BearerAuth{})
	postJSON(t, ts.URL+"/v1/events", map[string]any{
		"subject": "Dentist",
		"start":   "2025-06-04T09:00",
		"end":     "2025-06-04T10:00",
	})

	resp := getStatus(t, ts.URL+"/v1/export.ics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/calendar; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !bytes.Contains(body, []byte("BEGIN:VCALENDAR")) || !bytes.Contains(body, []byte("SUMMARY:Dentist")) {
		t.Fatalf("unexpected export body:\n%s", body)
	}
}
