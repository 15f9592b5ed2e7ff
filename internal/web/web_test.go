package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"sectioncal/internal/config"
	"sectioncal/internal/dataset"
	"sectioncal/internal/model"
	"sectioncal/internal/sheet"
)

func testDataset() *dataset.Dataset {
	week := []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	return &dataset.Dataset{
		Class: model.ClassTimetable{
			Days:      week,
			Slots:     []string{"9.00AM-10.20AM"},
			Subjects:  []string{"CSE110"},
			Faculties: []string{"Dr. X"},
			Rooms:     []string{"301"},
			Sections:  []string{"S01", "S02"},
			Patterns: []model.ClassPattern{{
				Days:        []int{1},
				Assignments: []model.ClassAssignment{{Section: 0}},
			}},
		},
		Dining: model.DiningTimetable{
			Days:       week,
			TimeRanges: []string{"1.00PM-2.00PM"},
			Meals:      []string{"Lunch"},
			Patterns:   []model.DiningPattern{{Days: []int{0}, Slots: []int{0}}},
		},
	}
}

func testServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	if mutate != nil {
		mutate(cfg)
	}
	s := NewServer(cfg, dataset.NewStaticStore(testDataset()))
	s.now = func() time.Time { return time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC) }
	return s
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	rec := get(t, testServer(t, nil).Handler(), "/health")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestSections(t *testing.T) {
	rec := get(t, testServer(t, nil).Handler(), "/api/sections")
	var resp sectionsResponse
	decodeJSON(t, rec, &resp)
	if len(resp.Sections) != 2 || resp.Sections[0] != "S01" || len(resp.Days) != 7 {
		t.Errorf("sections = %+v", resp)
	}
}

func TestSchedule(t *testing.T) {
	rec := get(t, testServer(t, nil).Handler(), "/api/schedule?section=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp scheduleResponse
	decodeJSON(t, rec, &resp)
	if resp.Section != "S01" || len(resp.Rows) != 2 {
		t.Fatalf("schedule = %+v", resp)
	}
	class := resp.Rows[0]
	if class.Time != "9.00AM-10.20AM" || len(class.Cells) != 7 {
		t.Fatalf("first row = %+v", class)
	}
	if c := class.Cells[1]; c == nil || c.Subject != "CSE110" || c.Room != "301" {
		t.Errorf("Monday cell = %+v", c)
	}
	if class.Cells[0] != nil {
		t.Errorf("Sunday 9AM = %+v, want null", class.Cells[0])
	}
	if c := resp.Rows[1].Cells[0]; c == nil || c.Kind != "meal" || c.Meal != "Lunch" {
		t.Errorf("Sunday lunch = %+v", c)
	}
}

func TestScheduleErrors(t *testing.T) {
	h := testServer(t, nil).Handler()
	tests := []struct {
		target string
		code   int
	}{
		{"/api/schedule", http.StatusBadRequest},
		{"/api/schedule?section=%20", http.StatusBadRequest},
		{"/api/schedule?section=S99", http.StatusNotFound},
		{"/api/calendar.ics?section=S99", http.StatusNotFound},
		{"/api/schedule.xlsx?section=", http.StatusBadRequest},
		{"/api/upcoming?section=nope", http.StatusNotFound},
		{"/view?section=S99", http.StatusNotFound},
		{"/api/unknown", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := get(t, h, tt.target)
		if rec.Code != tt.code {
			t.Errorf("GET %s = %d, want %d", tt.target, rec.Code, tt.code)
			continue
		}
		var body map[string]string
		decodeJSON(t, rec, &body)
		if body["error"] == "" {
			t.Errorf("GET %s: missing error message", tt.target)
		}
	}
}

func TestCalendarDownload(t *testing.T) {
	rec := get(t, testServer(t, nil).Handler(), "/api/calendar.ics?section=s01")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/calendar; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="S01-schedule.ics"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	body := rec.Body.String()
	if got := strings.Count(body, "BEGIN:VEVENT"); got != 2 {
		t.Errorf("VEVENT count = %d, want 2", got)
	}
	for _, want := range []string{
		"X-WR-TIMEZONE:UTC",
		"SUMMARY:CSE110 - Class",
		"DTSTART:20261012T090000Z",
		"LOCATION:Central Dining Hall",
		"RRULE:FREQ=WEEKLY;UNTIL=20261219T235959Z",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("calendar missing %q", want)
		}
	}
}

func TestSpreadsheetDownload(t *testing.T) {
	rec := get(t, testServer(t, nil).Handler(), "/api/schedule.xlsx?section=S02")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader() error: %v", err)
	}
	defer f.Close()
	// S02 has no classes; only the shared lunch row remains.
	if v, _ := f.GetCellValue(sheet.SheetName, "A2"); v != "1.00PM-2.00PM" {
		t.Errorf("A2 = %q", v)
	}
	if v, _ := f.GetCellValue(sheet.SheetName, "B2"); v != "Lunch" {
		t.Errorf("B2 = %q", v)
	}
}

func TestUpcoming(t *testing.T) {
	s := testServer(t, nil)
	rec := get(t, s.Handler(), "/api/upcoming?section=S01&days=7")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp upcomingResponse
	decodeJSON(t, rec, &resp)
	// Now is Wednesday 08:00; the week's Sunday and Monday events already
	// passed, next ones are Sunday lunch and Monday class.
	if len(resp.Occurrences) != 2 {
		t.Fatalf("occurrences = %+v", resp.Occurrences)
	}
	if resp.Occurrences[0].Summary != "Lunch" || resp.Occurrences[1].Summary != "CSE110 - Class" {
		t.Errorf("order = %s, %s", resp.Occurrences[0].Summary, resp.Occurrences[1].Summary)
	}
	if len(s.upcomingCache) != 1 {
		t.Errorf("cache entries = %d, want 1", len(s.upcomingCache))
	}
}

func TestView(t *testing.T) {
	rec := get(t, testServer(t, nil).Handler(), "/view?section=S01")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`data-ready="true"`, "<th>Monday</th>", "CSE110\nDr. X\nRoom 301", `class="meal"`} {
		if !strings.Contains(body, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestStaticIndex(t *testing.T) {
	rec := get(t, testServer(t, nil).Handler(), "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	b, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(b), "last_section") {
		t.Errorf("index page does not look like the section picker")
	}
}

func TestBasicAuth(t *testing.T) {
	s := testServer(t, func(c *config.Config) {
		c.BasicAuth = &config.BasicAuthConfig{Username: "u", Password: "p"}
	})
	h := s.Handler()

	if rec := get(t, h, "/health"); rec.Code != http.StatusOK {
		t.Errorf("/health with auth = %d, want 200", rec.Code)
	}
	if rec := get(t, h, "/api/sections"); rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/sections", nil)
	req.SetBasicAuth("u", "p")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated = %d, want 200", rec.Code)
	}
}
