package web

import (
	"bytes"
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"sectioncal/internal/config"
	"sectioncal/internal/dataset"
	"sectioncal/internal/ics"
	appLog "sectioncal/internal/log"
	"sectioncal/internal/model"
	"sectioncal/internal/schedule"
	"sectioncal/internal/sheet"
)

// Server serves the section schedule API, downloads and the HTML grid view.
type Server struct {
	cfg   *config.Config
	store *dataset.Store
	mux   *http.ServeMux
	now   func() time.Time

	// In-memory cache for /api/upcoming responses, keyed by section and
	// window length. Entries from an older dataset load are ignored.
	upcomingMu    sync.RWMutex
	upcomingCache map[string]*upcomingCache
}

// embeddedStatic contains the single-page section picker.
//
//go:embed all:static
var embeddedStatic embed.FS

// NewServer constructs a new Server over the given dataset store.
func NewServer(cfg *config.Config, store *dataset.Store) *Server {
	s := &Server{
		cfg:           cfg,
		store:         store,
		mux:           http.NewServeMux(),
		now:           time.Now,
		upcomingCache: make(map[string]*upcomingCache),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password disables auth.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="sectioncal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// StartServer serves on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func StartServer(ctx context.Context, cfg *config.Config, store *dataset.Store) error {
	s := NewServer(cfg, store)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/sections", s.handleSections)
	s.mux.HandleFunc("/api/schedule", s.handleSchedule)
	s.mux.HandleFunc("/api/calendar.ics", s.handleCalendar)
	s.mux.HandleFunc("/api/schedule.xlsx", s.handleSpreadsheet)
	s.mux.HandleFunc("/api/upcoming", s.handleUpcoming)
	s.mux.HandleFunc("/view", s.handleView)

	// Everything else falls back to the embedded UI.
	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// staticFileServer returns an http.Handler that serves the embedded files
// from internal/web/static.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static UI not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Unknown /api/* paths are 404, never HTML.
		if path == "/api" || strings.HasPrefix(path, "/api/") {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

func (s *Server) resolver() *schedule.Resolver {
	return schedule.NewResolver(s.store.Current(), s.cfg.SectionPrefix)
}

// sectionsResponse is the JSON response shape for /api/sections.
type sectionsResponse struct {
	Sections []string  `json:"sections"`
	Days     []string  `json:"days"`
	LoadedAt time.Time `json:"loaded_at"`
}

func (s *Server) handleSections(w http.ResponseWriter, _ *http.Request) {
	r := s.resolver()
	writeJSON(w, http.StatusOK, sectionsResponse{
		Sections: r.Sections(),
		Days:     r.Days(),
		LoadedAt: s.store.LoadedAt(),
	})
}

// scheduleResponse is the JSON response shape for /api/schedule.
type scheduleResponse struct {
	Section string    `json:"section"`
	Days    []string  `json:"days"`
	Rows    []slotDTO `json:"rows"`
}

// slotDTO is a JSON-friendly view of one grid row. Empty cells are null.
type slotDTO struct {
	Time  string         `json:"time"`
	Kind  string         `json:"kind"`
	Cells []*occupantDTO `json:"cells"`
}

type occupantDTO struct {
	Kind      string `json:"kind"`
	Subject   string `json:"subject,omitempty"`
	Faculty   string `json:"faculty,omitempty"`
	Room      string `json:"room,omitempty"`
	Section   string `json:"section,omitempty"`
	Meal      string `json:"meal,omitempty"`
	TimeRange string `json:"time_range,omitempty"`
}

// lookupGrid resolves the ?section= parameter. On failure it has already
// written the error response and returns ok=false.
func (s *Server) lookupGrid(w http.ResponseWriter, r *http.Request) (*schedule.Resolver, string, []model.WeeklySlot, bool) {
	id := strings.TrimSpace(r.URL.Query().Get("section"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing section parameter")
		return nil, "", nil, false
	}

	res := s.resolver()
	_, code, err := res.Lookup(id)
	if err != nil {
		if errors.Is(err, schedule.ErrSectionNotFound) {
			writeError(w, http.StatusNotFound, "section not found: "+id)
			return nil, "", nil, false
		}
		appLog.Error("section lookup failed", err, "section", id)
		writeError(w, http.StatusInternalServerError, "failed to look up section")
		return nil, "", nil, false
	}
	slots, err := res.Resolve(code)
	if err != nil {
		appLog.Error("schedule resolve failed", err, "section", code)
		writeError(w, http.StatusInternalServerError, "failed to resolve schedule")
		return nil, "", nil, false
	}
	return res, code, slots, true
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	res, code, slots, ok := s.lookupGrid(w, r)
	if !ok {
		return
	}

	rows := make([]slotDTO, 0, len(slots))
	for _, slot := range slots {
		row := slotDTO{Time: slot.Time, Kind: string(slot.Kind), Cells: make([]*occupantDTO, len(slot.Days))}
		for day, o := range slot.Days {
			if o == nil {
				continue
			}
			row.Cells[day] = &occupantDTO{
				Kind:      string(o.Kind),
				Subject:   o.Subject,
				Faculty:   o.Faculty,
				Room:      o.Room,
				Section:   o.Section,
				Meal:      o.Meal,
				TimeRange: o.TimeRange,
			}
		}
		rows = append(rows, row)
	}
	writeJSON(w, http.StatusOK, scheduleResponse{Section: code, Days: res.Days(), Rows: rows})
}

// handleCalendar returns the recurring-event document as an attachment.
//
// GET /api/calendar.ics?section=S01
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	_, code, slots, ok := s.lookupGrid(w, r)
	if !ok {
		return
	}
	ser, err := ics.FromConfig(s.cfg, s.now)
	if err != nil {
		appLog.Error("calendar serializer setup failed", err)
		writeError(w, http.StatusInternalServerError, "calendar export unavailable")
		return
	}
	doc, err := ser.Serialize(slots)
	if err != nil {
		appLog.Error("calendar export failed", err, "section", code)
		writeError(w, http.StatusInternalServerError, "failed to export calendar")
		return
	}

	appLog.Info("calendar export", "section", code, "bytes", len(doc))
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ics.Filename(code)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

func (s *Server) handleSpreadsheet(w http.ResponseWriter, r *http.Request) {
	res, code, slots, ok := s.lookupGrid(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := sheet.Write(&buf, code, res.Days(), slots); err != nil {
		appLog.Error("spreadsheet export failed", err, "section", code)
		writeError(w, http.StatusInternalServerError, "failed to export spreadsheet")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+sheet.Filename(code)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// upcomingResponse is the JSON response shape for /api/upcoming.
type upcomingResponse struct {
	Section         string          `json:"section"`
	Occurrences     []occurrenceDTO `json:"occurrences"`
	TruncatedUIDs   []string        `json:"truncated_uids,omitempty"`
	RangeStart      time.Time       `json:"range_start"`
	RangeEnd        time.Time       `json:"range_end"`
	DisplayTimeZone string          `json:"display_timezone"`
}

// upcomingCache holds a cached /api/upcoming response, the dataset load
// time it was computed from, and its timestamp.
type upcomingCache struct {
	resp      upcomingResponse
	datasetAt time.Time
	updatedAt time.Time
}

// occurrenceDTO is a JSON-friendly view of occurrences.
type occurrenceDTO struct {
	UID         string    `json:"uid"`
	InstanceKey string    `json:"instance_key"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// handleUpcoming lists concrete occurrences of the section's exported
// calendar, read back and expanded.
//
// GET /api/upcoming?section=S01&days=7
//   - days: window length from now (default 7, max 120)
func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	_, code, slots, ok := s.lookupGrid(w, r)
	if !ok {
		return
	}
	days := parseIntDefault(r.URL.Query().Get("days"), 7)
	if days <= 0 {
		days = 7
	}
	if days > 120 {
		days = 120
	}

	const upcomingCacheTTL = 30 * time.Second
	key := code + "/" + strconv.Itoa(days)
	loadedAt := s.store.LoadedAt()

	s.upcomingMu.RLock()
	uc := s.upcomingCache[key]
	s.upcomingMu.RUnlock()
	if uc != nil && uc.datasetAt.Equal(loadedAt) && s.now().Sub(uc.updatedAt) < upcomingCacheTTL {
		writeJSON(w, http.StatusOK, uc.resp)
		return
	}

	ser, err := ics.FromConfig(s.cfg, s.now)
	if err != nil {
		appLog.Error("calendar serializer setup failed", err)
		writeError(w, http.StatusInternalServerError, "calendar export unavailable")
		return
	}
	doc, err := ser.Serialize(slots)
	if err != nil {
		appLog.Error("upcoming: export failed", err, "section", code)
		writeError(w, http.StatusInternalServerError, "failed to export calendar")
		return
	}

	loc := s.cfg.Location()
	from := s.now().In(loc)
	result, err := ics.Upcoming(doc, loc, from, days)
	if err != nil {
		appLog.Error("upcoming: expand failed", err, "section", code)
		writeError(w, http.StatusInternalServerError, "failed to expand events")
		return
	}

	dtos := make([]occurrenceDTO, 0, len(result.Occurrences))
	for _, occ := range result.Occurrences {
		dtos = append(dtos, occurrenceDTO{
			UID:         occ.UID,
			InstanceKey: occ.InstanceKey,
			Summary:     occ.Summary,
			Description: occ.Description,
			Location:    occ.Location,
			Start:       occ.Start,
			End:         occ.End,
		})
	}
	resp := upcomingResponse{
		Section:         code,
		Occurrences:     dtos,
		TruncatedUIDs:   result.TruncatedEvents,
		RangeStart:      from,
		RangeEnd:        from.AddDate(0, 0, days),
		DisplayTimeZone: loc.String(),
	}

	s.upcomingMu.Lock()
	s.upcomingCache[key] = &upcomingCache{resp: resp, datasetAt: loadedAt, updatedAt: s.now()}
	s.upcomingMu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
