package core

import (
	"strings"
	"testing"
	"time"
)

func TestBuildReportDayRowsDescending(t *testing.T) {
	entries := []TimeEntry{
		entry("2024-03-01", 60, func(e *TimeEntry) { e.Description = "primeiro" }),
		entry("2024-03-03", 90),
		entry("2024-03-01", 30, func(e *TimeEntry) { e.Description = "segundo" }),
		entry("2024-03-02", 45),
	}
	r := BuildReport(entries)
	want := []string{"2024-03-03", "2024-03-02", "2024-03-01"}
	if len(r.Days) != len(want) {
		t.Fatalf("rows=%d, want %d", len(r.Days), len(want))
	}
	for i, d := range want {
		if r.Days[i].Date != d {
			t.Fatalf("row %d date=%s, want %s", i, r.Days[i].Date, d)
		}
	}
	// Same-day entries keep their original relative order.
	march1 := r.Days[2]
	if march1.TotalMinutes != 90 {
		t.Fatalf("day total=%d, want 90", march1.TotalMinutes)
	}
	if march1.Entries[0].Description != "primeiro" || march1.Entries[1].Description != "segundo" {
		t.Fatalf("entry order not preserved: %+v", march1.Entries)
	}
}

func TestBuildReportCategorySortStable(t *testing.T) {
	entries := []TimeEntry{
		entry("2024-03-01", 30, func(e *TimeEntry) { e.ProjectName = "Beta" }),
		entry("2024-03-01", 30, func(e *TimeEntry) { e.ProjectName = "Alpha" }),
		entry("2024-03-01", 90, func(e *TimeEntry) { e.ProjectName = "Gamma" }),
	}
	r := BuildReport(entries)
	got := make([]string, len(r.Projects))
	for i, p := range r.Projects {
		got[i] = p.Name
	}
	// Gamma first on minutes; Beta before Alpha by first-encountered order.
	want := []string{"Gamma", "Beta", "Alpha"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("projects=%v, want %v", got, want)
		}
	}
}

func TestBuildReportEmpty(t *testing.T) {
	r := BuildReport(nil)
	if r.Summary.TotalMinutes != 0 || len(r.Days) != 0 || len(r.Projects) != 0 || len(r.Activities) != 0 {
		t.Fatalf("expected empty report, got %+v", r)
	}
}

func TestFormatMinutes(t *testing.T) {
	cases := []struct {
		minutes int
		want    string
	}{
		{125, "2h 5m"},
		{0, "0h 0m"},
		{1440, "24h 0m"},
		{59, "0h 59m"},
		{60, "1h 0m"},
	}
	for _, tc := range cases {
		if got := FormatMinutes(tc.minutes); got != tc.want {
			t.Fatalf("FormatMinutes(%d)=%q, want %q", tc.minutes, got, tc.want)
		}
		back, err := ParseMinutes(tc.want)
		if err != nil {
			t.Fatalf("ParseMinutes(%q): %v", tc.want, err)
		}
		if back != tc.minutes {
			t.Fatalf("round trip %d -> %q -> %d", tc.minutes, tc.want, back)
		}
	}
}

func TestParseMinutesRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "2h", "abc", "2h 75m"} {
		if _, err := ParseMinutes(s); err == nil {
			t.Fatalf("ParseMinutes(%q) should fail", s)
		}
	}
}

func TestExportCSVQuoting(t *testing.T) {
	e := entry("2024-03-15", 125, func(e *TimeEntry) {
		e.Description = `He said "hi", ok`
		e.TicketID = "TT-42"
		e.ProjectName = "Interno"
		e.ActivityType = "Desenvolvimento"
	})
	out := ExportCSV([]TimeEntry{e})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines=%d, want 2", len(lines))
	}
	if lines[0] != "Data,Horário de Início,Minutos,Horas Formatadas,Ticket ID,Projeto,Tipo de Atividade,Descrição,Faturável,Aprovado" {
		t.Fatalf("header=%q", lines[0])
	}
	if !strings.Contains(lines[1], `"He said ""hi"", ok"`) {
		t.Fatalf("description not quoted: %q", lines[1])
	}
	if !strings.Contains(lines[1], "2h 5m") {
		t.Fatalf("formatted hours missing: %q", lines[1])
	}
	if !strings.HasSuffix(lines[1], "Sim,Não") {
		t.Fatalf("booleans not localized: %q", lines[1])
	}
}

func TestExportCSVEmptySet(t *testing.T) {
	out := ExportCSV(nil)
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("empty export should be header only: %q", out)
	}
}

func TestEscapeCSV(t *testing.T) {
	cases := []struct{ in, want string }{
		{"plain", "plain"},
		{"a,b", `"a,b"`},
		{`say "hi"`, `"say ""hi"""`},
		{"line\nbreak", "\"line\nbreak\""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := EscapeCSV(tc.in); got != tc.want {
			t.Fatalf("EscapeCSV(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	if got := ExportFilename("Maria  da Silva", now); got != "relatorio-horas-Maria-da-Silva-2024-03-15.csv" {
		t.Fatalf("filename=%q", got)
	}
	if got := ExportFilename("", now); got != "relatorio-horas-usuario-2024-03-15.csv" {
		t.Fatalf("filename=%q", got)
	}
}
