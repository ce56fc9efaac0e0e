package core

import (
	"testing"
	"time"
)

func entry(date string, minutes int, mutate ...func(*TimeEntry)) TimeEntry {
	e := TimeEntry{
		OwnerID:   "u1",
		Date:      date,
		StartTime: "09:00",
		Minutes:   minutes,
		Billable:  true,
	}
	for _, m := range mutate {
		m(&e)
	}
	return e
}

func TestSumByDate(t *testing.T) {
	entries := []TimeEntry{
		entry("2024-03-01", 60),
		entry("2024-03-01", 30),
		entry("2024-03-02", 90),
	}
	got := SumByDate(entries)
	if len(got) != 2 {
		t.Fatalf("buckets=%d, want 2", len(got))
	}
	if got["2024-03-01"].TotalMinutes != 90 || got["2024-03-01"].EntryCount != 2 {
		t.Fatalf("2024-03-01 bucket=%+v", got["2024-03-01"])
	}
	if got["2024-03-02"].TotalMinutes != 90 || got["2024-03-02"].EntryCount != 1 {
		t.Fatalf("2024-03-02 bucket=%+v", got["2024-03-02"])
	}
}

// Conservation: bucket totals always add up to the plain sum of minutes.
func TestSumByDateConservesTotal(t *testing.T) {
	entries := []TimeEntry{
		entry("2024-01-05", 15),
		entry("2024-01-05", 45),
		entry("2024-02-11", 480),
		entry("2024-02-12", 1),
		entry("2024-03-01", 1440),
	}
	sum := 0
	for _, b := range SumByDate(entries) {
		sum += b.TotalMinutes
	}
	if want := TotalMinutes(entries); sum != want {
		t.Fatalf("bucket sum=%d, total=%d", sum, want)
	}
}

func TestSumByEmptyInput(t *testing.T) {
	if got := SumByDate(nil); len(got) != 0 {
		t.Fatalf("expected no buckets, got %v", got)
	}
	s := Summarize(nil)
	if s.TotalMinutes != 0 || s.DistinctDays != 0 || s.AveragePerDay != 0 || s.EntryCount != 0 {
		t.Fatalf("expected zero summary, got %+v", s)
	}
}

func TestProjectFallbackCountsOnce(t *testing.T) {
	entries := []TimeEntry{
		entry("2024-03-01", 60, func(e *TimeEntry) { e.ProjectName = "Interno" }),
		entry("2024-03-01", 30),
		entry("2024-03-02", 90),
	}
	got := SumByProject(entries)
	if got[NoProject].EntryCount != 2 || got[NoProject].TotalMinutes != 120 {
		t.Fatalf("fallback bucket=%+v", got[NoProject])
	}
	count := 0
	for _, b := range got {
		count += b.EntryCount
	}
	if count != len(entries) {
		t.Fatalf("entries counted %d times across buckets, want %d", count, len(entries))
	}
}

func TestActivityFallback(t *testing.T) {
	got := SumByActivity([]TimeEntry{entry("2024-03-01", 10)})
	if got[NoActivity].EntryCount != 1 {
		t.Fatalf("expected fallback activity bucket, got %v", got)
	}
}

func TestGroupingIsStringExact(t *testing.T) {
	entries := []TimeEntry{
		entry("2024-03-01", 10, func(e *TimeEntry) { e.ProjectName = "Alpha" }),
		entry("2024-03-01", 10, func(e *TimeEntry) { e.ProjectName = "alpha" }),
	}
	if got := SumByProject(entries); len(got) != 2 {
		t.Fatalf("case-different names must not merge, got %v", got)
	}
}

func TestFilterRangeInclusive(t *testing.T) {
	entries := []TimeEntry{
		entry("2024-03-01", 60),
		entry("2024-03-01", 30),
		entry("2024-03-02", 90),
	}
	got := FilterRange(entries, "2024-03-01", "2024-03-01")
	if len(got) != 2 {
		t.Fatalf("entries=%d, want 2", len(got))
	}
	if TotalMinutes(got) != 90 {
		t.Fatalf("total=%d, want 90", TotalMinutes(got))
	}
}

func TestWeekBoundsStartsSunday(t *testing.T) {
	cases := []struct {
		now        time.Time
		start, end string
	}{
		// 2024-03-13 is a Wednesday
		{time.Date(2024, 3, 13, 15, 30, 0, 0, time.UTC), "2024-03-10", "2024-03-16"},
		// A Sunday is its own week start, even just after midnight
		{time.Date(2024, 3, 10, 0, 0, 1, 0, time.UTC), "2024-03-10", "2024-03-16"},
		// Saturday belongs to the week that started six days earlier
		{time.Date(2024, 3, 16, 23, 59, 0, 0, time.UTC), "2024-03-10", "2024-03-16"},
	}
	for _, tc := range cases {
		start, end := WeekBounds(tc.now)
		if start != tc.start || end != tc.end {
			t.Fatalf("WeekBounds(%v) = %s..%s, want %s..%s", tc.now, start, end, tc.start, tc.end)
		}
	}
}

func TestFilterWeekToDate(t *testing.T) {
	now := time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)
	entries := []TimeEntry{
		entry("2024-03-09", 10), // Saturday of previous week
		entry("2024-03-10", 20), // Sunday, in window
		entry("2024-03-16", 30), // Saturday, in window
		entry("2024-03-17", 40), // next Sunday
	}
	got := FilterWeekToDate(entries, now)
	if len(got) != 2 || TotalMinutes(got) != 50 {
		t.Fatalf("got %d entries, total %d", len(got), TotalMinutes(got))
	}
}

func TestFilterMonthToDate(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	entries := []TimeEntry{
		entry("2024-02-29", 10),
		entry("2024-03-01", 20),
		entry("2024-03-31", 30),
		entry("2023-03-15", 40), // same month, wrong year
	}
	got := FilterMonthToDate(entries, now)
	if len(got) != 2 || TotalMinutes(got) != 50 {
		t.Fatalf("got %d entries, total %d", len(got), TotalMinutes(got))
	}
}

func TestSummarize(t *testing.T) {
	entries := []TimeEntry{
		entry("2024-03-01", 60),
		entry("2024-03-01", 30, func(e *TimeEntry) { e.Billable = false }),
		entry("2024-03-02", 90),
	}
	s := Summarize(entries)
	if s.TotalMinutes != 180 {
		t.Fatalf("total=%d, want 180", s.TotalMinutes)
	}
	if s.BillableMinutes != 150 {
		t.Fatalf("billable=%d, want 150", s.BillableMinutes)
	}
	if s.DistinctDays != 2 {
		t.Fatalf("days=%d, want 2", s.DistinctDays)
	}
	if s.AveragePerDay != 90 {
		t.Fatalf("average=%v, want 90", s.AveragePerDay)
	}
}
