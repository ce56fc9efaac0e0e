package adapters

import (
	"context"

	"horas/internal/core"
	"horas/internal/services"
	"horas/internal/store"
)

// SQLiteAdapter binds EntryService to the store ports. The HTTP handlers
// only see the port interfaces, so the SQLite+AMQP backend and the
// in-memory backend are interchangeable behind them.
type SQLiteAdapter struct {
	service *services.EntryService
}

var (
	_ store.EntryWriter   = (*SQLiteAdapter)(nil)
	_ store.EntryLister   = (*SQLiteAdapter)(nil)
	_ store.EntryUpdater  = (*SQLiteAdapter)(nil)
	_ store.EntryDeleter  = (*SQLiteAdapter)(nil)
	_ store.ProfileReader = (*SQLiteAdapter)(nil)
)

func NewSQLiteAdapter(service *services.EntryService) *SQLiteAdapter {
	return &SQLiteAdapter{service: service}
}

// Append implements store.EntryWriter.
func (a *SQLiteAdapter) Append(ctx context.Context, e core.TimeEntry) (string, error) {
	return a.service.CreateEntry(ctx, e)
}

// ListEntries implements store.EntryLister.
func (a *SQLiteAdapter) ListEntries(ctx context.Context, ownerID string) ([]core.TimeEntry, error) {
	return a.service.ListEntries(ctx, ownerID)
}

// UpdateEntry implements store.EntryUpdater.
func (a *SQLiteAdapter) UpdateEntry(ctx context.Context, e core.TimeEntry) error {
	return a.service.UpdateEntry(ctx, e)
}

// DeleteEntry implements store.EntryDeleter.
func (a *SQLiteAdapter) DeleteEntry(ctx context.Context, id string) error {
	return a.service.DeleteEntry(ctx, id)
}

// GetProfile implements store.ProfileReader.
func (a *SQLiteAdapter) GetProfile(ctx context.Context, id string) (core.Profile, error) {
	return a.service.GetProfile(ctx, id)
}
