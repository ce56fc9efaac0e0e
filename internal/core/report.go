package core

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type (
	// DayRow groups one date's entries, keeping their input order.
	DayRow struct {
		Date         string
		TotalMinutes int
		Entries      []TimeEntry
	}

	// CategoryRow is one project or activity breakdown line.
	CategoryRow struct {
		Name         string
		EntryCount   int
		TotalMinutes int
	}

	// Report is the composed, display-ready view over a filtered entry
	// collection. It is rebuilt from scratch on every call and never
	// persisted.
	Report struct {
		Summary    Summary
		Days       []DayRow
		Projects   []CategoryRow
		Activities []CategoryRow
	}
)

// BuildReport assembles summary totals, date-grouped rows (most recent
// first) and category breakdowns (largest first, stable ties) from an
// already-filtered collection. Empty input produces an all-zero report.
func BuildReport(entries []TimeEntry) Report {
	r := Report{Summary: Summarize(entries)}

	byDate := make(map[string]*DayRow, len(entries))
	for _, e := range entries {
		row, ok := byDate[e.Date]
		if !ok {
			row = &DayRow{Date: e.Date}
			byDate[e.Date] = row
		}
		row.Entries = append(row.Entries, e)
		row.TotalMinutes += e.Minutes
	}
	r.Days = make([]DayRow, 0, len(byDate))
	for _, row := range byDate {
		r.Days = append(r.Days, *row)
	}
	sort.Slice(r.Days, func(i, j int) bool { return r.Days[i].Date > r.Days[j].Date })

	r.Projects = categoryRows(entries, ProjectKey)
	r.Activities = categoryRows(entries, ActivityKey)
	return r
}

// categoryRows builds breakdown rows in first-encountered order, then
// sorts by total minutes descending. The stable sort keeps encounter
// order for ties.
func categoryRows(entries []TimeEntry, key func(TimeEntry) string) []CategoryRow {
	index := make(map[string]int, len(entries))
	rows := make([]CategoryRow, 0, len(entries))
	for _, e := range entries {
		k := key(e)
		i, ok := index[k]
		if !ok {
			i = len(rows)
			index[k] = i
			rows = append(rows, CategoryRow{Name: k})
		}
		rows[i].EntryCount++
		rows[i].TotalMinutes += e.Minutes
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalMinutes > rows[j].TotalMinutes
	})
	return rows
}

// FormatMinutes renders a minute count as "{h}h {m}m" without padding,
// e.g. 125 -> "2h 5m", 0 -> "0h 0m".
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// ParseMinutes is the inverse of FormatMinutes.
func ParseMinutes(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%dh %dm", &h, &m); err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}
	if h < 0 || m < 0 || m > 59 {
		return 0, fmt.Errorf("parse %q: out of range", s)
	}
	return h*60 + m, nil
}

// CSVHeader is the fixed export header row.
var CSVHeader = []string{
	"Data",
	"Horário de Início",
	"Minutos",
	"Horas Formatadas",
	"Ticket ID",
	"Projeto",
	"Tipo de Atividade",
	"Descrição",
	"Faturável",
	"Aprovado",
}

// ExportCSV renders one row per entry, in input order, with the fixed
// column layout of the header. Free-text fields are quoted per RFC 4180
// and booleans come out as the localized "Sim"/"Não".
func ExportCSV(entries []TimeEntry) string {
	var b strings.Builder
	writeCSVRow(&b, CSVHeader)
	for _, e := range entries {
		writeCSVRow(&b, []string{
			e.Date,
			e.StartTime,
			fmt.Sprintf("%d", e.Minutes),
			FormatMinutes(e.Minutes),
			e.TicketID,
			e.ProjectName,
			e.ActivityType,
			e.Description,
			simNao(e.Billable),
			simNao(e.Approved),
		})
	}
	return b.String()
}

func simNao(v bool) string {
	if v {
		return "Sim"
	}
	return "Não"
}

func writeCSVRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(EscapeCSV(f))
	}
	b.WriteByte('\n')
}

// EscapeCSV wraps a field in quotes when it contains a comma, quote or
// newline, doubling internal quotes.
func EscapeCSV(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ExportFilename suggests the download name for a CSV export, with
// whitespace runs in the owner name collapsed to dashes.
func ExportFilename(ownerName string, now time.Time) string {
	name := strings.Join(strings.Fields(ownerName), "-")
	if name == "" {
		name = "usuario"
	}
	return fmt.Sprintf("relatorio-horas-%s-%s.csv", name, DateString(now))
}
