package core

import "time"

// GridSize is the fixed cell count of a month view: 6 rows of 7 days.
const GridSize = 42

// CalendarDay is one annotated cell of the month grid.
type CalendarDay struct {
	Date         time.Time
	ISODate      string
	TotalMinutes int
	InMonth      bool
	Today        bool
}

// MonthGrid produces the 42-day grid for a month, starting on the Sunday
// at or before the 1st and running 6 full weeks, so trailing days of the
// previous month and leading days of the next fill the edges. Per-day
// totals come from a by-exact-date aggregation; today is compared by
// calendar date only.
func MonthGrid(year int, month time.Month, totals map[string]Bucket, today time.Time) []CalendarDay {
	first := time.Date(year, month, 1, 0, 0, 0, 0, today.Location())
	start := first.AddDate(0, 0, -int(first.Weekday()))
	todayISO := DateString(today)

	grid := make([]CalendarDay, GridSize)
	for i := range grid {
		d := start.AddDate(0, 0, i)
		iso := DateString(d)
		grid[i] = CalendarDay{
			Date:         d,
			ISODate:      iso,
			TotalMinutes: totals[iso].TotalMinutes,
			InMonth:      d.Month() == month && d.Year() == year,
			Today:        iso == todayISO,
		}
	}
	return grid
}

// NextMonth shifts the target month forward by one, wrapping December
// into January of the next year.
func NextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}

// PrevMonth shifts the target month back by one, wrapping January into
// December of the previous year.
func PrevMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}
