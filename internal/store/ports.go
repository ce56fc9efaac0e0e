package store

import (
	"context"
	"errors"

	"horas/internal/core"
)

// ErrNotFound is returned by any port when the referenced entry or
// profile does not exist.
var ErrNotFound = errors.New("not found")

// Ports for outbound adapters. The aggregation core never touches these;
// it is always handed a complete, already-fetched snapshot.
type (
	EntryWriter interface {
		Append(ctx context.Context, e core.TimeEntry) (id string, err error)
	}

	// EntryLister returns all entries owned by a user, newest date first.
	// The result is treated as a complete snapshot; no pagination is
	// assumed.
	EntryLister interface {
		ListEntries(ctx context.Context, ownerID string) ([]core.TimeEntry, error)
	}

	EntryUpdater interface {
		UpdateEntry(ctx context.Context, e core.TimeEntry) error
	}

	EntryDeleter interface {
		DeleteEntry(ctx context.Context, id string) error
	}

	// ProfileReader resolves owner metadata, used for export filenames
	// and greetings; the core only ever consumes the ID.
	ProfileReader interface {
		GetProfile(ctx context.Context, id string) (core.Profile, error)
	}
)
