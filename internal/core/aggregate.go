package core

import "time"

// Bucket is one aggregation result: total minutes and entry count for a key.
type Bucket struct {
	TotalMinutes int
	EntryCount   int
}

// Summary holds the totals for a filtered entry collection.
type Summary struct {
	TotalMinutes    int
	BillableMinutes int
	EntryCount      int
	DistinctDays    int
	// AveragePerDay is total minutes divided by distinct days worked,
	// not by the span of the range. Zero when no days are present.
	AveragePerDay float64
}

// SumBy groups entries under key(entry) and sums minutes per key.
// Pure: input order is irrelevant and entries are never mutated.
func SumBy(entries []TimeEntry, key func(TimeEntry) string) map[string]Bucket {
	buckets := make(map[string]Bucket, len(entries))
	for _, e := range entries {
		k := key(e)
		b := buckets[k]
		b.TotalMinutes += e.Minutes
		b.EntryCount++
		buckets[k] = b
	}
	return buckets
}

// ProjectKey resolves the project grouping key, applying the fallback
// label for entries without a project. Centralized here so every grouping
// operation treats absent fields the same way.
func ProjectKey(e TimeEntry) string {
	if e.ProjectName == "" {
		return NoProject
	}
	return e.ProjectName
}

// ActivityKey resolves the activity-type grouping key with its fallback.
func ActivityKey(e TimeEntry) string {
	if e.ActivityType == "" {
		return NoActivity
	}
	return e.ActivityType
}

// SumByDate buckets entries by their exact date string.
func SumByDate(entries []TimeEntry) map[string]Bucket {
	return SumBy(entries, func(e TimeEntry) string { return e.Date })
}

// SumByProject buckets entries by project name, fallback included.
func SumByProject(entries []TimeEntry) map[string]Bucket {
	return SumBy(entries, ProjectKey)
}

// SumByActivity buckets entries by activity type, fallback included.
func SumByActivity(entries []TimeEntry) map[string]Bucket {
	return SumBy(entries, ActivityKey)
}

// FilterRange keeps entries whose date falls in [start, end], inclusive on
// both ends. ISO dates compare correctly as strings, so no time parsing
// happens here.
func FilterRange(entries []TimeEntry, start, end string) []TimeEntry {
	out := make([]TimeEntry, 0, len(entries))
	for _, e := range entries {
		if e.Date >= start && e.Date <= end {
			out = append(out, e)
		}
	}
	return out
}

// FilterDate keeps entries registered on exactly the given date.
func FilterDate(entries []TimeEntry, date string) []TimeEntry {
	return FilterRange(entries, date, date)
}

// WeekBounds returns the ISO dates of the Sunday at or before now and the
// Saturday six days later. The week starts at Sunday 00:00 local time;
// truncating to calendar dates makes the boundary unambiguous around
// midnight.
func WeekBounds(now time.Time) (start, end string) {
	sunday := now.AddDate(0, 0, -int(now.Weekday()))
	return DateString(sunday), DateString(sunday.AddDate(0, 0, 6))
}

// FilterWeekToDate keeps entries in the current Sunday-based week.
// Entries outside the window are excluded, not zero-filled.
func FilterWeekToDate(entries []TimeEntry, now time.Time) []TimeEntry {
	start, end := WeekBounds(now)
	return FilterRange(entries, start, end)
}

// FilterMonthToDate keeps entries whose year and month match now's.
func FilterMonthToDate(entries []TimeEntry, now time.Time) []TimeEntry {
	prefix := now.Format("2006-01")
	out := make([]TimeEntry, 0, len(entries))
	for _, e := range entries {
		if len(e.Date) >= len(prefix) && e.Date[:len(prefix)] == prefix {
			out = append(out, e)
		}
	}
	return out
}

// TotalMinutes sums minutes across all entries.
func TotalMinutes(entries []TimeEntry) int {
	total := 0
	for _, e := range entries {
		total += e.Minutes
	}
	return total
}

// DistinctDays counts the unique dates present in entries.
func DistinctDays(entries []TimeEntry) int {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		seen[e.Date] = struct{}{}
	}
	return len(seen)
}

// Summarize computes the summary totals for a filtered collection.
// An empty collection yields a zero-valued summary, never an error.
func Summarize(entries []TimeEntry) Summary {
	s := Summary{EntryCount: len(entries)}
	for _, e := range entries {
		s.TotalMinutes += e.Minutes
		if e.Billable {
			s.BillableMinutes += e.Minutes
		}
	}
	s.DistinctDays = DistinctDays(entries)
	if s.DistinctDays > 0 {
		s.AveragePerDay = float64(s.TotalMinutes) / float64(s.DistinctDays)
	}
	return s
}
