package http

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"horas/internal/core"
	"horas/internal/prefs"
	"horas/internal/store"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	ownerName := ""
	if profile, err := s.profiles.GetProfile(r.Context(), s.ownerID); err == nil {
		ownerName = profile.Name
	} else {
		slog.WarnContext(r.Context(), "Profile lookup failed", "owner_id", s.ownerID, "error", err)
	}

	p := prefs.Preferences{Theme: prefs.ThemeLight, DefaultView: prefs.ViewDashboard}
	if s.prefs != nil {
		p = s.prefs.Get()
	}

	now := s.now()
	data := struct {
		OwnerName   string
		Today       string
		Theme       string
		DefaultView string
	}{
		OwnerName:   ownerName,
		Today:       core.DateString(now),
		Theme:       p.Theme,
		DefaultView: p.DefaultView,
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	now := s.now()

	date := strings.TrimSpace(r.Form.Get("date"))
	if date == "" {
		date = core.DateString(now)
	}

	minutes := 0
	if v := strings.TrimSpace(r.Form.Get("minutes")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			UnprocessableEntityError("Minutos inválidos").Write(w)
			return
		}
		minutes = m
	} else if v := strings.TrimSpace(r.Form.Get("duration")); v != "" {
		// Accept "2h 5m" style input as an alternative to raw minutes.
		m, err := core.ParseMinutes(v)
		if err != nil {
			UnprocessableEntityError("Duração inválida").Write(w)
			return
		}
		minutes = m
	}

	// Entries are billable unless the form says otherwise.
	billable := true
	if v := strings.TrimSpace(r.Form.Get("billable")); v != "" {
		billable = formBool(v)
	}

	entry := core.TimeEntry{
		OwnerID:      s.ownerID,
		Date:         date,
		StartTime:    strings.TrimSpace(r.Form.Get("start_time")),
		Minutes:      minutes,
		TicketID:     sanitizeInput(r.Form.Get("ticket_id")),
		Description:  sanitizeInput(r.Form.Get("description")),
		ProjectName:  sanitizeInput(r.Form.Get("project_name")),
		ActivityType: sanitizeInput(r.Form.Get("activity_type")),
		Billable:     billable,
	}

	if err := entry.Validate(); err != nil {
		UnprocessableEntityError("Dados inválidos: " + err.Error()).Write(w)
		return
	}

	id, err := s.writer.Append(r.Context(), entry)
	if err != nil {
		slog.ErrorContext(r.Context(), "Entry append error", "error", err, "date", entry.Date, "minutes", entry.Minutes)
		InternalServerError("Erro ao salvar o lançamento").Write(w)
		return
	}

	s.invalidateEntries()
	s.httpLog.LogEntryCreated(r.Context(), id, entry.Date, entry.Minutes, entry.ProjectName, entry.ActivityType)

	NewHTMXResponse().
		TriggerEntryCreated(id, entry.Date).
		TriggerFormReset().
		TriggerSuccessNotification("Horas registradas").
		BodyHTML(`<div class="success">Horas registradas: ` +
			template.HTMLEscapeString(core.FormatMinutes(entry.Minutes)) +
			` em ` + template.HTMLEscapeString(entry.Date) + `</div>`).
		Write(w)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	id := strings.TrimSpace(r.Form.Get("id"))
	if id == "" {
		id = strings.TrimSpace(r.URL.Query().Get("id"))
	}
	if id == "" {
		BadRequestError("Identificador do lançamento ausente").Write(w)
		return
	}

	if err := s.deleter.DeleteEntry(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError("Lançamento não encontrado").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Entry delete error", "error", err, "id", id)
		InternalServerError("Erro ao excluir o lançamento").Write(w)
		return
	}

	s.invalidateEntries()

	NewHTMXResponse().
		TriggerEntryDeleted(id).
		TriggerSuccessNotification("Lançamento excluído").
		BodyHTML(`<div class="success">Lançamento excluído</div>`).
		Write(w)
}

func (s *Server) handleUpdatePrefs(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if s.prefs == nil {
		InternalServerError("Preferências indisponíveis").Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	if theme := strings.TrimSpace(r.Form.Get("theme")); theme != "" {
		if err := s.prefs.SetTheme(theme); err != nil {
			UnprocessableEntityError("Tema inválido").Write(w)
			return
		}
	}
	if view := strings.TrimSpace(r.Form.Get("default_view")); view != "" {
		if err := s.prefs.SetDefaultView(view); err != nil {
			UnprocessableEntityError("Visualização inválida").Write(w)
			return
		}
	}

	NewHTMXResponse().
		Trigger("prefs:updated", s.prefs.Get()).
		BodyHTML(`<div class="success">Preferências salvas</div>`).
		Write(w)
}

// handleDashboard renders today / week-to-date / month-to-date totals and
// the latest entries.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	entries, err := s.getEntries(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard entries error", "error", err)
		_, _ = w.Write([]byte(`<section id="dashboard" class="dashboard"><div class="placeholder">Erro carregando painel</div></section>`))
		return
	}

	now := s.now()
	today := core.Summarize(core.FilterDate(entries, core.DateString(now)))
	week := core.Summarize(core.FilterWeekToDate(entries, now))
	month := core.Summarize(core.FilterMonthToDate(entries, now))

	type recentRow struct {
		ID       string
		Date     string
		Hours    string
		Project  string
		Activity string
		Desc     string
	}
	data := struct {
		Today      string
		TodayHours string
		WeekHours  string
		WeekDays   int
		WeekAvg    string
		MonthHours string
		MonthDays  int
		MonthAvg   string
		Recent     []recentRow
	}{
		Today:      core.DateString(now),
		TodayHours: core.FormatMinutes(today.TotalMinutes),
		WeekHours:  core.FormatMinutes(week.TotalMinutes),
		WeekDays:   week.DistinctDays,
		WeekAvg:    core.FormatMinutes(int(week.AveragePerDay)),
		MonthHours: core.FormatMinutes(month.TotalMinutes),
		MonthDays:  month.DistinctDays,
		MonthAvg:   core.FormatMinutes(int(month.AveragePerDay)),
	}

	const maxRecent = 10
	for i, e := range entries {
		if i >= maxRecent {
			break
		}
		data.Recent = append(data.Recent, recentRow{
			ID:       e.ID,
			Date:     e.Date,
			Hours:    core.FormatMinutes(e.Minutes),
			Project:  core.ProjectKey(e),
			Activity: core.ActivityKey(e),
			Desc:     e.Description,
		})
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="dashboard" class="dashboard"><div class="placeholder">Hoje: ` + template.HTMLEscapeString(data.TodayHours) + `</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "dashboard.html")
		_, _ = w.Write([]byte(`<section id="dashboard" class="dashboard"><div class="placeholder">Erro renderizando painel</div></section>`))
	}
}

// handleReport renders the period report partial: summary, day groups and
// project/activity breakdowns.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	entries, err := s.getEntries(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Report entries error", "error", err)
		_, _ = w.Write([]byte(`<section id="report" class="report"><div class="placeholder">Erro carregando relatório</div></section>`))
		return
	}

	period := strings.TrimSpace(r.URL.Query().Get("period"))
	from := strings.TrimSpace(r.URL.Query().Get("from"))
	to := strings.TrimSpace(r.URL.Query().Get("to"))

	filtered, err := filterPeriod(entries, period, from, to, s.now())
	if err != nil {
		BadRequestError("Período inválido: " + err.Error()).Write(w)
		return
	}

	report := core.BuildReport(filtered)

	type entryRow struct {
		ID       string
		Start    string
		Hours    string
		Ticket   string
		Project  string
		Activity string
		Desc     string
		Billable bool
	}
	type dayGroup struct {
		Date    string
		Hours   string
		Entries []entryRow
	}
	type catRow struct {
		Name  string
		Count int
		Hours string
	}
	data := struct {
		Period      string
		From        string
		To          string
		TotalHours  string
		Billable    string
		EntryCount  int
		Days        int
		AveragePday string
		DayGroups   []dayGroup
		Projects    []catRow
		Activities  []catRow
	}{
		Period:      period,
		From:        from,
		To:          to,
		TotalHours:  core.FormatMinutes(report.Summary.TotalMinutes),
		Billable:    core.FormatMinutes(report.Summary.BillableMinutes),
		EntryCount:  report.Summary.EntryCount,
		Days:        report.Summary.DistinctDays,
		AveragePday: core.FormatMinutes(int(report.Summary.AveragePerDay)),
	}

	for _, day := range report.Days {
		g := dayGroup{Date: day.Date, Hours: core.FormatMinutes(day.TotalMinutes)}
		for _, e := range day.Entries {
			g.Entries = append(g.Entries, entryRow{
				ID:       e.ID,
				Start:    e.StartTime,
				Hours:    core.FormatMinutes(e.Minutes),
				Ticket:   e.TicketID,
				Project:  core.ProjectKey(e),
				Activity: core.ActivityKey(e),
				Desc:     e.Description,
				Billable: e.Billable,
			})
		}
		data.DayGroups = append(data.DayGroups, g)
	}
	for _, p := range report.Projects {
		data.Projects = append(data.Projects, catRow{Name: p.Name, Count: p.EntryCount, Hours: core.FormatMinutes(p.TotalMinutes)})
	}
	for _, a := range report.Activities {
		data.Activities = append(data.Activities, catRow{Name: a.Name, Count: a.EntryCount, Hours: core.FormatMinutes(a.TotalMinutes)})
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="report" class="report"><div class="placeholder">Total: ` + template.HTMLEscapeString(data.TotalHours) + `</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "report.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "report.html")
		_, _ = w.Write([]byte(`<section id="report" class="report"><div class="placeholder">Erro renderizando relatório</div></section>`))
	}
}

// handleCalendar renders the 42-cell month grid partial.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	entries, err := s.getEntries(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Calendar entries error", "error", err)
		_, _ = w.Write([]byte(`<section id="calendar" class="calendar"><div class="placeholder">Erro carregando calendário</div></section>`))
		return
	}

	now := s.now()
	year, month := parseYearMonth(r, now)

	grid := core.MonthGrid(year, month, core.SumByDate(entries), now)
	prevYear, prevMonth := core.PrevMonth(year, month)
	nextYear, nextMonth := core.NextMonth(year, month)

	type cell struct {
		Day     int
		ISODate string
		Hours   string
		InMonth bool
		Today   bool
		HasWork bool
	}
	data := struct {
		Year      int
		Month     int
		MonthName string
		PrevYear  int
		PrevMonth int
		NextYear  int
		NextMonth int
		Cells     []cell
	}{
		Year:      year,
		Month:     int(month),
		MonthName: monthNamesPT[month],
		PrevYear:  prevYear,
		PrevMonth: int(prevMonth),
		NextYear:  nextYear,
		NextMonth: int(nextMonth),
	}
	for _, d := range grid {
		hours := ""
		if d.TotalMinutes > 0 {
			hours = core.FormatMinutes(d.TotalMinutes)
		}
		data.Cells = append(data.Cells, cell{
			Day:     d.Date.Day(),
			ISODate: d.ISODate,
			Hours:   hours,
			InMonth: d.InMonth,
			Today:   d.Today,
			HasWork: d.TotalMinutes > 0,
		})
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="calendar" class="calendar"><div class="placeholder">` + template.HTMLEscapeString(data.MonthName) + ` ` + strconv.Itoa(year) + `</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "calendar.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "calendar.html")
		_, _ = w.Write([]byte(`<section id="calendar" class="calendar"><div class="placeholder">Erro renderizando calendário</div></section>`))
	}
}

// handleExportCSV streams the filtered entries as a CSV download.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	entries, err := s.getEntries(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Export entries error", "error", err)
		http.Error(w, "erro carregando lançamentos", http.StatusInternalServerError)
		return
	}

	period := strings.TrimSpace(r.URL.Query().Get("period"))
	from := strings.TrimSpace(r.URL.Query().Get("from"))
	to := strings.TrimSpace(r.URL.Query().Get("to"))

	now := s.now()
	filtered, err := filterPeriod(entries, period, from, to, now)
	if err != nil {
		http.Error(w, "período inválido", http.StatusBadRequest)
		return
	}

	ownerName := ""
	if profile, err := s.profiles.GetProfile(r.Context(), s.ownerID); err == nil {
		ownerName = profile.Name
	}

	filename := core.ExportFilename(ownerName, now)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write([]byte(core.ExportCSV(filtered)))

	slog.InfoContext(r.Context(), "CSV export generated",
		"entries", len(filtered),
		"period", period,
		"filename", filename)
}

func formBool(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "sim":
		return true
	default:
		return false
	}
}

var monthNamesPT = map[time.Month]string{
	time.January:   "Janeiro",
	time.February:  "Fevereiro",
	time.March:     "Março",
	time.April:     "Abril",
	time.May:       "Maio",
	time.June:      "Junho",
	time.July:      "Julho",
	time.August:    "Agosto",
	time.September: "Setembro",
	time.October:   "Outubro",
	time.November:  "Novembro",
	time.December:  "Dezembro",
}
