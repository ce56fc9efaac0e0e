package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"horas/internal/core"
	"horas/internal/prefs"
	"horas/internal/store/memory"
)

// testNow is a Wednesday, so week-to-date windows are non-trivial.
var testNow = time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()

	store := memory.NewSeeded(core.Profile{ID: "local", Name: "Ana Silva"})

	prefStore, err := prefs.NewStore(filepath.Join(t.TempDir(), "prefs.json"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	s := NewServer(":0", "local", store, store, store, store, prefStore)
	s.now = func() time.Time { return testNow }

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s, store
}

func seedEntry(t *testing.T, store *memory.Store, date string, minutes int, project string, billable bool) string {
	t.Helper()
	id, err := store.Append(context.Background(), core.TimeEntry{
		OwnerID:      "local",
		Date:         date,
		StartTime:    "09:00",
		Minutes:      minutes,
		ProjectName:  project,
		ActivityType: "desenvolvimento",
		Billable:     billable,
	})
	if err != nil {
		t.Fatalf("seed entry: %v", err)
	}
	return id
}

func doForm(s *Server, method, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "10.1.2.3:5555"
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func doGet(s *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "10.1.2.3:5555"
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestCreateEntry(t *testing.T) {
	s, store := newTestServer(t)

	rec := doForm(s, http.MethodPost, "/entries", url.Values{
		"date":          {"2024-03-13"},
		"start_time":    {"09:00"},
		"minutes":       {"125"},
		"project_name":  {"Projeto Alfa"},
		"activity_type": {"desenvolvimento"},
		"description":   {"revisão de código"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get("HX-Trigger"), "entry:created") {
		t.Errorf("HX-Trigger missing entry:created: %q", rec.Header().Get("HX-Trigger"))
	}
	if !strings.Contains(rec.Body.String(), "2h 5m") {
		t.Errorf("body missing formatted duration: %s", rec.Body.String())
	}

	entries, err := store.ListEntries(context.Background(), "local")
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("stored entries = %d, want 1", len(entries))
	}
	if !entries[0].Billable {
		t.Errorf("entry should default to billable")
	}
}

func TestCreateEntryRejectsBadMinutes(t *testing.T) {
	s, _ := newTestServer(t)

	for _, minutes := range []string{"0", "1441", "abc"} {
		rec := doForm(s, http.MethodPost, "/entries", url.Values{
			"date":       {"2024-03-13"},
			"start_time": {"09:00"},
			"minutes":    {minutes},
		})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("minutes=%s: status = %d, want 422", minutes, rec.Code)
		}
	}
}

func TestCreateEntryParsesDuration(t *testing.T) {
	s, store := newTestServer(t)

	rec := doForm(s, http.MethodPost, "/entries", url.Values{
		"date":       {"2024-03-13"},
		"start_time": {"14:30"},
		"duration":   {"1h 30m"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	entries, _ := store.ListEntries(context.Background(), "local")
	if len(entries) != 1 || entries[0].Minutes != 90 {
		t.Fatalf("entries = %+v, want one with 90 minutes", entries)
	}
}

func TestCreateEntryMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doGet(s, "/entries")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestDeleteEntry(t *testing.T) {
	s, store := newTestServer(t)
	id := seedEntry(t, store, "2024-03-13", 60, "Projeto Alfa", true)

	rec := doForm(s, http.MethodPost, "/entries/delete", url.Values{"id": {id}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get("HX-Trigger"), "entry:deleted") {
		t.Errorf("HX-Trigger missing entry:deleted")
	}

	rec = doForm(s, http.MethodPost, "/entries/delete", url.Values{"id": {id}})
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestDeleteEntryMissingID(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doForm(s, http.MethodPost, "/entries/delete", url.Values{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDashboardTotals(t *testing.T) {
	s, store := newTestServer(t)
	seedEntry(t, store, "2024-03-13", 125, "Projeto Alfa", true)   // today
	seedEntry(t, store, "2024-03-11", 60, "Projeto Alfa", true)    // same week (Mon)
	seedEntry(t, store, "2024-03-01", 30, "Projeto Beta", false)   // same month only
	seedEntry(t, store, "2024-02-28", 480, "Projeto Gama", true)   // previous month

	rec := doGet(s, "/ui/dashboard")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "2h 5m") {
		t.Errorf("missing today's total in body")
	}
	// Week: 125 + 60 = 185 -> 3h 5m. Month: 125 + 60 + 30 = 215 -> 3h 35m.
	if !strings.Contains(body, "3h 5m") {
		t.Errorf("missing week total in body")
	}
	if !strings.Contains(body, "3h 35m") {
		t.Errorf("missing month total in body")
	}
}

func TestReportCustomRange(t *testing.T) {
	s, store := newTestServer(t)
	seedEntry(t, store, "2024-03-05", 60, "Projeto Alfa", true)
	seedEntry(t, store, "2024-03-10", 90, "Projeto Beta", false)
	seedEntry(t, store, "2024-03-20", 45, "Projeto Alfa", true)

	rec := doGet(s, "/ui/report?period=custom&from=2024-03-01&to=2024-03-15")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	// 60 + 90 = 150 -> 2h 30m, the 20th is out of range.
	if !strings.Contains(body, "2h 30m") {
		t.Errorf("missing range total")
	}
	if !strings.Contains(body, "Projeto Beta") {
		t.Errorf("missing project breakdown row")
	}
	if strings.Contains(body, "2024-03-20") {
		t.Errorf("entry outside range leaked into report")
	}
}

func TestReportRejectsBadCustomRange(t *testing.T) {
	s, _ := newTestServer(t)

	for _, q := range []string{
		"period=custom",
		"period=custom&from=2024-03-01&to=not-a-date",
		"period=custom&from=2024-03-15&to=2024-03-01",
	} {
		rec := doGet(s, "/ui/report?"+q)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("query %q: status = %d, want 400", q, rec.Code)
		}
	}
}

func TestReportFallbackLabels(t *testing.T) {
	s, store := newTestServer(t)
	seedEntry(t, store, "2024-03-13", 60, "", true)

	rec := doGet(s, "/ui/report?period=all")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), core.NoProject) {
		t.Errorf("missing fallback project label %q", core.NoProject)
	}
}

func TestCalendarGrid(t *testing.T) {
	s, store := newTestServer(t)
	seedEntry(t, store, "2024-03-13", 125, "Projeto Alfa", true)

	rec := doGet(s, "/ui/calendar?year=2024&month=3")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Março 2024") {
		t.Errorf("missing month title")
	}
	if got := strings.Count(body, `data-date="`); got != core.GridSize {
		t.Errorf("grid cells = %d, want %d", got, core.GridSize)
	}
	if !strings.Contains(body, `data-date="2024-03-13"`) {
		t.Errorf("missing today's cell")
	}
	if !strings.Contains(body, "2h 5m") {
		t.Errorf("missing worked hours in cell")
	}
}

func TestCalendarDefaultsToCurrentMonth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doGet(s, "/ui/calendar")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Março 2024") {
		t.Errorf("calendar did not default to the pinned month")
	}
}

func TestExportCSV(t *testing.T) {
	s, store := newTestServer(t)
	seedEntry(t, store, "2024-03-13", 125, "Projeto Alfa", true)

	rec := doGet(s, "/export/csv?period=all")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "relatorio-horas-Ana-Silva-2024-03-13.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "Data,") {
		t.Errorf("CSV missing header row: %s", body)
	}
	if !strings.Contains(body, "2024-03-13,09:00,125,2h 5m") {
		t.Errorf("CSV missing entry row: %s", body)
	}
}

func TestUpdatePrefs(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doForm(s, http.MethodPost, "/prefs", url.Values{"theme": {"dark"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doGet(s, "/")
	if !strings.Contains(rec.Body.String(), `data-theme="dark"`) {
		t.Errorf("index did not pick up the dark theme")
	}

	rec = doForm(s, http.MethodPost, "/prefs", url.Values{"theme": {"neon"}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid theme status = %d, want 422", rec.Code)
	}
}

func TestWriteRateLimit(t *testing.T) {
	s, _ := newTestServer(t)

	var last int
	for i := 0; i < maxRequestsPerMinute+1; i++ {
		rec := doForm(s, http.MethodPost, "/entries/delete", url.Values{"id": {"nope"}})
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("status after burst = %d, want 429", last)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doGet(s, "/ui/dashboard")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Errorf("missing Content-Security-Policy header")
	}
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doGet(s, path)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
	}
}
