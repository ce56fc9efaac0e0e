// Package google mirrors time entries into a Google Sheets spreadsheet.
//
// The spreadsheet is the hosted, shareable copy of the local SQLite data:
// the sync worker appends rows as entries are registered and clears them
// on delete. It is write-mostly; the application never reads it back for
// aggregation.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"horas/internal/core"
	"horas/internal/store"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var (
	_ store.EntryWriter  = (*Client)(nil)
	_ store.EntryDeleter = (*Client)(nil)
)

// NewFromEnv creates a Sheets mirror client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID. Credentials come from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS. The target sheet is
// "<GOOGLE_SHEET_NAME> <year>", defaulting to "Horas <year>".
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	base := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if base == "" {
		base = "Horas"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     fmt.Sprintf("%s %d", base, time.Now().Year()),
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	credsJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	credsFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if credsJSON == "" && credsFile == "" {
		credsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var creds []byte
	switch {
	case credsJSON != "":
		creds = []byte(credsJSON)
	case credsFile != "":
		data, err := os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		creds = data
	default:
		return nil, errors.New("no Google credentials configured")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// entryRow flattens an entry into the mirror's column layout. The first
// column carries the entry ID so deletes can locate the row later.
func entryRow(e core.TimeEntry) []interface{} {
	billable := "Não"
	if e.Billable {
		billable = "Sim"
	}
	approved := "Não"
	if e.Approved {
		approved = "Sim"
	}
	return []interface{}{
		e.ID,
		e.Date,
		e.StartTime,
		e.Minutes,
		core.FormatMinutes(e.Minutes),
		e.TicketID,
		e.ProjectName,
		e.ActivityType,
		e.Description,
		billable,
		approved,
	}
}

// Append implements store.EntryWriter by appending one row to the mirror
// sheet.
func (c *Client) Append(ctx context.Context, e core.TimeEntry) (string, error) {
	vr := &gsheet.ValueRange{Values: [][]interface{}{entryRow(e)}}
	resp, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, c.sheetName+"!A:K", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	ref := ""
	if resp.Updates != nil {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Entry mirrored to Google Sheets",
		"entry_id", e.ID,
		"sheet", c.sheetName,
		"range", ref)
	return ref, nil
}

// DeleteEntry implements store.EntryDeleter by locating the row carrying
// the entry ID and clearing it. Rows are cleared rather than removed so
// references from earlier appends stay stable.
func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	resp, err := c.svc.Spreadsheets.Values.
		Get(c.spreadsheetID, c.sheetName+"!A:A").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read id column: %w", err)
	}

	row := -1
	for i, vals := range resp.Values {
		if len(vals) > 0 && fmt.Sprint(vals[0]) == id {
			row = i + 1 // sheet rows are 1-based
			break
		}
	}
	if row < 0 {
		slog.WarnContext(ctx, "Entry not found in mirror, nothing to clear",
			"entry_id", id, "sheet", c.sheetName)
		return nil
	}

	rng := fmt.Sprintf("%s!A%d:K%d", c.sheetName, row, row)
	if _, err := c.svc.Spreadsheets.Values.
		Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear row %d: %w", row, err)
	}

	slog.InfoContext(ctx, "Entry cleared from Google Sheets mirror",
		"entry_id", id, "row", row, "sheet", c.sheetName)
	return nil
}
