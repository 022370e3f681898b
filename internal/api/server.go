package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/sevenofnine/virtual-calendar/internal/calendar"
	"github.com/sevenofnine/virtual-calendar/internal/domain"
	"github.com/sevenofnine/virtual-calendar/internal/export"
	"github.com/sevenofnine/virtual-calendar/internal/security"
)

// Server is the local HTTP surface over one calendar store. Every handler
// is a thin parse/translate layer around a Store operation; nothing here
// touches the engine's invariants.
type Server struct {
	store    *calendar.Store
	auth     security.BearerAuth
	log      *slog.Logger
	name     string
	timezone string
	now      func() time.Time
	httpSrv  *http.Server
}

type Options struct {
	Store        *calendar.Store
	Auth         security.BearerAuth
	Logger       *slog.Logger
	CalendarName string
	Timezone     string
	Now          func() time.Time
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Server{
		store:    opts.Store,
		auth:     opts.Auth,
		log:      logger,
		name:     opts.CalendarName,
		timezone: opts.Timezone,
		now:      now,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/events/search", s.handleSearch)
	mux.HandleFunc("/v1/events/edit", s.handleEditEvent)
	mux.HandleFunc("/v1/series", s.handleSeries)
	mux.HandleFunc("/v1/series/edit", s.handleEditSeries)
	mux.HandleFunc("/v1/series/edit-from-date", s.handleEditSeriesFromDate)
	mux.HandleFunc("/v1/busy", s.handleBusy)
	mux.HandleFunc("/v1/export.ics", s.handleExport)
	s.httpSrv = &http.Server{Handler: s.wrapAuth(mux), ReadHeaderTimeout: 5 * time.Second}
	return s
}

func (s *Server) ServeTCP(ctx context.Context, bind string) error {
	if bind == "" {
		return errors.New("bind required")
	}
	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return err
	}
	go s.shutdownOnContext(ctx)
	return s.httpSrv.Serve(ln)
}

func (s *Server) ServeUnix(ctx context.Context, path string) error {
	if path == "" {
		return errors.New("socket path required")
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return err
	}
	go s.shutdownOnContext(ctx)
	return s.httpSrv.Serve(ln)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

func (s *Server) wrapAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" && !s.auth.Authorize(r) {
			writeErr(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) shutdownOnContext(ctx context.Context) {
	<-ctx.Done()
	timeout, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = s.httpSrv.Shutdown(timeout)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "calendar": s.name})
}

// handleEvents serves GET ?on=YYYY-MM-DD day lookups, GET ?from=&to= range
// queries, and POST event creation.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleEventsQuery(w, r)
	case http.MethodPost:
		s.handleCreateEvent(w, r)
	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleEventsQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if on := q.Get("on"); on != "" {
		date, err := time.Parse(domain.DateLayout, on)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "invalid date")
			return
		}
		writeJSON(w, http.StatusOK, eventListJSON(s.store.EventsOn(date)))
		return
	}
	from, err := time.Parse(domain.DateTimeLayout, q.Get("from"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid from")
		return
	}
	to, err := time.Parse(domain.DateTimeLayout, q.Get("to"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid to")
		return
	}
	events, err := s.store.EventsInRange(from, to)
	if err != nil {
		writeErr(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, eventListJSON(events))
}

type createEventRequest struct {
	Subject string  `json:"subject"`
	Start   string  `json:"start"`
	End     *string `json:"end,omitempty"`
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var payload createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	start, err := time.Parse(domain.DateTimeLayout, payload.Start)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid start")
		return
	}
	var end *time.Time
	if payload.End != nil {
		t, err := time.Parse(domain.DateTimeLayout, *payload.End)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "invalid end")
			return
		}
		end = &t
	}
	e, err := s.store.CreateEvent(payload.Subject, start, end)
	if err != nil {
		writeErr(w, statusFor(err), err.Error())
		return
	}
	s.log.Info("event created", "id", e.ID(), "subject", e.Subject())
	writeJSON(w, http.StatusOK, eventJSONFrom(e))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	q := r.URL.Query()
	start, err := time.Parse(domain.DateTimeLayout, q.Get("start"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid start")
		return
	}
	subject := q.Get("subject")
	if endRaw := q.Get("end"); endRaw != "" {
		end, err := time.Parse(domain.DateTimeLayout, endRaw)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "invalid end")
			return
		}
		writeJSON(w, http.StatusOK, eventListJSON(s.store.EventsByDetails(subject, start, &end)))
		return
	}
	writeJSON(w, http.StatusOK, eventListJSON(s.store.EventsBySubjectAndStart(subject, start)))
}

type editEventRequest struct {
	ID       string `json:"id"`
	Property string `json:"property"`
	Value    string `json:"value"`
}

func (s *Server) handleEditEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var payload editEventRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	prop, err := domain.ParseProperty(payload.Property)
	if err != nil {
		writeErr(w, statusFor(err), err.Error())
		return
	}
	e, err := s.store.EditEvent(payload.ID, prop, payload.Value)
	if err != nil {
		writeErr(w, statusFor(err), err.Error())
		return
	}
	s.log.Info("event edited", "id", e.ID(), "property", prop.String())
	writeJSON(w, http.StatusOK, eventJSONFrom(e))
}

type createSeriesRequest struct {
	Subject        string   `json:"subject"`
	StartTime      string   `json:"start_time"`
	EndTime        string   `json:"end_time"`
	Days           []string `json:"days"`
	StartDate      string   `json:"start_date"`
	EndDate        *string  `json:"end_date,omitempty"`
	Count          int      `json:"count,omitempty"`
	Description    string   `json:"description,omitempty"`
	Location       string   `json:"location,omitempty"`
	LocationDetail string   `json:"location_detail,omitempty"`
	Status         string   `json:"status,omitempty"`
}

// handleSeries serves GET ?id= series lookups and POST series creation.
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sr := s.store.SeriesByID(r.URL.Query().Get("id"))
		if sr == nil {
			writeErr(w, http.StatusNotFound, "series not found")
			return
		}
		writeJSON(w, http.StatusOK, seriesJSONFrom(sr))
	case http.MethodPost:
		s.handleCreateSeries(w, r)
	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleCreateSeries(w http.ResponseWriter, r *http.Request) {
	var payload createSeriesRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	opts, err := seriesOptionsFrom(payload)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	sr, err := s.store.CreateSeries(opts)
	if err != nil {
		writeErr(w, statusFor(err), err.Error())
		return
	}
	s.log.Info("series created", "id", sr.ID(), "subject", sr.Subject())
	writeJSON(w, http.StatusOK, seriesJSONFrom(sr))
}

type editSeriesRequest struct {
	SeriesID string `json:"series_id"`
	From     string `json:"from,omitempty"`
	Property string `json:"property"`
	Value    string `json:"value"`
}

func (s *Server) handleEditSeries(w http.ResponseWriter, r *http.Request) {
	s.handleSeriesMutation(w, r, func(payload editSeriesRequest, prop domain.Property) error {
		return s.store.EditSeries(payload.SeriesID, prop, payload.Value)
	})
}

func (s *Server) handleEditSeriesFromDate(w http.ResponseWriter, r *http.Request) {
	s.handleSeriesMutation(w, r, func(payload editSeriesRequest, prop domain.Property) error {
		from, err := time.Parse(domain.DateLayout, payload.From)
		if err != nil {
			return fmt.Errorf("%w: bad from date %q", domain.ErrInvalidEdit, payload.From)
		}
		return s.store.EditSeriesFromDate(payload.SeriesID, from, prop, payload.Value)
	})
}

func (s *Server) handleSeriesMutation(w http.ResponseWriter, r *http.Request, run func(editSeriesRequest, domain.Property) error) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var payload editSeriesRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	prop, err := domain.ParseProperty(payload.Property)
	if err != nil {
		writeErr(w, statusFor(err), err.Error())
		return
	}
	if err := run(payload, prop); err != nil {
		writeErr(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBusy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	at, err := time.Parse(domain.DateTimeLayout, r.URL.Query().Get("at"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid instant")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"busy": s.store.IsBusyAt(at)})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := export.Write(w, s.store, s.name, s.timezone, s.now()); err != nil {
		s.log.Error("ics export failed", "err", err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateEvent):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
