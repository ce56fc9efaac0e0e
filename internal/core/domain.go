package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used everywhere in the system.
// Entry dates are plain ISO dates, never timestamps.
const DateLayout = "2006-01-02"

// TimeLayout is the zero-padded 24-hour start-time format.
const TimeLayout = "15:04"

// Fallback labels applied when an optional grouping field is absent.
// Grouping is string-exact otherwise; no normalization.
const (
	NoProject  = "Sem Projeto"
	NoActivity = "Não Especificado"
)

// MaxMinutes caps a single entry at one calendar day.
const MaxMinutes = 1440

type (
	// TimeEntry is a single record of minutes worked on a date.
	TimeEntry struct {
		ID      string
		OwnerID string

		Date      string // ISO calendar date, e.g. "2024-03-15"
		StartTime string // "HH:MM", 24-hour, zero-padded
		Minutes   int    // 1..1440

		TicketID     string
		Description  string
		ProjectName  string
		ActivityType string
		Billable     bool

		Approved   bool
		ApprovedBy string
		ApprovedAt time.Time

		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// Profile is the owner of entries. The aggregation core only ever
	// consults the ID; the rest is display metadata.
	Profile struct {
		ID         string
		Name       string
		Email      string
		Department string
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}
)

var (
	ErrMissingOwner     = errors.New("missing owner id")
	ErrInvalidDate      = errors.New("invalid date, want YYYY-MM-DD")
	ErrInvalidStartTime = errors.New("invalid start time, want HH:MM")
	ErrInvalidMinutes   = errors.New("minutes must be between 1 and 1440")
)

// Validate checks the fields the aggregation core depends on. It runs at
// the store boundary: the core itself assumes well-formed entries.
func (e TimeEntry) Validate() error {
	if strings.TrimSpace(e.OwnerID) == "" {
		return ErrMissingOwner
	}
	if err := ValidateDate(e.Date); err != nil {
		return err
	}
	if len(e.StartTime) != 5 {
		return ErrInvalidStartTime
	}
	if _, err := time.Parse(TimeLayout, e.StartTime); err != nil {
		return ErrInvalidStartTime
	}
	if e.Minutes < 1 || e.Minutes > MaxMinutes {
		return ErrInvalidMinutes
	}
	return nil
}

// ValidateDate reports whether s is a well-formed ISO calendar date.
func ValidateDate(s string) error {
	if len(s) != len(DateLayout) {
		return ErrInvalidDate
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// DateString formats t as an ISO calendar date in t's location.
func DateString(t time.Time) string {
	return t.Format(DateLayout)
}
