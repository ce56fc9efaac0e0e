package memory

import (
	"context"
	"testing"

	"horas/internal/core"
)

func testEntry(date string, minutes int) core.TimeEntry {
	return core.TimeEntry{
		OwnerID:   "u1",
		Date:      date,
		StartTime: "09:00",
		Minutes:   minutes,
		Billable:  true,
	}
}

func TestAppendAndList(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, err := s.Append(ctx, testEntry("2024-03-01", 60))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated id")
	}
	if _, err := s.Append(ctx, testEntry("2024-03-05", 30)); err != nil {
		t.Fatalf("append: %v", err)
	}

	other := testEntry("2024-03-02", 10)
	other.OwnerID = "u2"
	if _, err := s.Append(ctx, other); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := s.ListEntries(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries=%d, want 2", len(got))
	}
	if got[0].Date != "2024-03-05" {
		t.Fatalf("expected newest first, got %s", got[0].Date)
	}
	if got[0].CreatedAt.IsZero() || got[0].UpdatedAt.IsZero() {
		t.Fatal("bookkeeping timestamps not set")
	}
}

func TestAppendRejectsInvalid(t *testing.T) {
	s := New()
	bad := testEntry("2024-03-01", 0)
	if _, err := s.Append(context.Background(), bad); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	id, _ := s.Append(ctx, testEntry("2024-03-01", 60))

	list, _ := s.ListEntries(ctx, "u1")
	e := list[0]
	e.Minutes = 90
	if err := s.UpdateEntry(ctx, e); err != nil {
		t.Fatalf("update: %v", err)
	}
	list, _ = s.ListEntries(ctx, "u1")
	if list[0].Minutes != 90 {
		t.Fatalf("minutes=%d after update", list[0].Minutes)
	}

	if err := s.DeleteEntry(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ = s.ListEntries(ctx, "u1")
	if len(list) != 0 {
		t.Fatalf("entries=%d after delete", len(list))
	}
	if err := s.DeleteEntry(ctx, id); err == nil {
		t.Fatal("expected error deleting missing entry")
	}
}

func TestGetProfile(t *testing.T) {
	s := NewSeeded(core.Profile{ID: "u1", Name: "Maria da Silva"})
	p, err := s.GetProfile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if p.Name != "Maria da Silva" {
		t.Fatalf("name=%q", p.Name)
	}
	if _, err := s.GetProfile(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for unknown profile")
	}
}
