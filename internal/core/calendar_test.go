package core

import (
	"testing"
	"time"
)

func TestMonthGridShape(t *testing.T) {
	today := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	grid := MonthGrid(2024, time.March, nil, today)

	if len(grid) != GridSize {
		t.Fatalf("cells=%d, want %d", len(grid), GridSize)
	}
	if grid[0].Date.Weekday() != time.Sunday {
		t.Fatalf("first cell weekday=%v, want Sunday", grid[0].Date.Weekday())
	}
	// March 2024 starts on a Friday; the grid must reach back to Feb 25.
	if grid[0].ISODate != "2024-02-25" {
		t.Fatalf("first cell=%s, want 2024-02-25", grid[0].ISODate)
	}
	for i := 1; i < len(grid); i++ {
		if !grid[i].Date.Equal(grid[i-1].Date.AddDate(0, 0, 1)) {
			t.Fatalf("grid not contiguous at cell %d", i)
		}
	}
}

func TestMonthGridAnnotations(t *testing.T) {
	today := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	totals := SumByDate([]TimeEntry{
		entry("2024-03-15", 120),
		entry("2024-02-25", 30), // previous-month padding day
	})
	grid := MonthGrid(2024, time.March, totals, today)

	inMonth := 0
	for _, d := range grid {
		if d.InMonth {
			inMonth++
		}
		switch d.ISODate {
		case "2024-03-15":
			if d.TotalMinutes != 120 || !d.Today || !d.InMonth {
				t.Fatalf("today cell=%+v", d)
			}
		case "2024-02-25":
			if d.TotalMinutes != 30 || d.InMonth {
				t.Fatalf("padding cell=%+v", d)
			}
		default:
			if d.Today {
				t.Fatalf("unexpected today flag on %s", d.ISODate)
			}
		}
	}
	if inMonth != 31 {
		t.Fatalf("in-month cells=%d, want 31", inMonth)
	}
}

func TestMonthGridAlwaysSundayFirst(t *testing.T) {
	today := time.Now()
	for month := time.January; month <= time.December; month++ {
		grid := MonthGrid(2025, month, nil, today)
		if len(grid) != GridSize {
			t.Fatalf("%v: cells=%d", month, len(grid))
		}
		if grid[0].Date.Weekday() != time.Sunday {
			t.Fatalf("%v: first weekday=%v", month, grid[0].Date.Weekday())
		}
	}
}

func TestMonthNavigationWraps(t *testing.T) {
	if y, m := NextMonth(2024, time.December); y != 2025 || m != time.January {
		t.Fatalf("next of Dec 2024 = %d-%v", y, m)
	}
	if y, m := PrevMonth(2024, time.January); y != 2023 || m != time.December {
		t.Fatalf("prev of Jan 2024 = %d-%v", y, m)
	}
	if y, m := NextMonth(2024, time.March); y != 2024 || m != time.April {
		t.Fatalf("next of Mar 2024 = %d-%v", y, m)
	}
	if y, m := PrevMonth(2024, time.March); y != 2024 || m != time.February {
		t.Fatalf("prev of Mar 2024 = %d-%v", y, m)
	}
}
