package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"horas/internal/core"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// Report periods accepted by /ui/report and /export/csv.
const (
	PeriodWeek   = "week"
	PeriodMonth  = "month"
	PeriodAll    = "all"
	PeriodCustom = "custom"
)

// parseYearMonth extracts year and month from query parameters, using the
// given time as the default.
func parseYearMonth(r *http.Request, now time.Time) (year int, month time.Month) {
	year = now.Year()
	month = now.Month()

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			month = time.Month(m)
		}
	}

	return year, month
}

// filterPeriod applies the report period selection to an entry snapshot.
// Unknown periods fall back to everything. A custom range with missing or
// malformed bounds returns an error so the caller can reject the request.
func filterPeriod(entries []core.TimeEntry, period, from, to string, now time.Time) ([]core.TimeEntry, error) {
	switch period {
	case PeriodWeek:
		return core.FilterWeekToDate(entries, now), nil
	case PeriodMonth:
		return core.FilterMonthToDate(entries, now), nil
	case PeriodCustom:
		if err := core.ValidateDate(from); err != nil {
			return nil, fmt.Errorf("invalid start date %q", from)
		}
		if err := core.ValidateDate(to); err != nil {
			return nil, fmt.Errorf("invalid end date %q", to)
		}
		if from > to {
			return nil, fmt.Errorf("start date %s after end date %s", from, to)
		}
		return core.FilterRange(entries, from, to), nil
	case PeriodAll, "":
		return entries, nil
	default:
		return entries, nil
	}
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
