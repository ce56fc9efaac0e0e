package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"horas/internal/amqp"
	"horas/internal/storage"
	"horas/internal/store"
)

// SyncWorker mirrors time entries from SQLite to the hosted Google Sheets
// copy. It is driven by AMQP messages, with a periodic pending pass as a
// backup for lost messages.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	mirror    store.EntryWriter
	deleter   store.EntryDeleter
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, mirror store.EntryWriter, deleter store.EntryDeleter, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		mirror:    mirror,
		deleter:   deleter,
		batchSize: batchSize,
	}
}

// HandleMessage processes a single entry sync message from AMQP.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.EntrySyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"op", msg.Op,
		"version", msg.Version)

	switch msg.Op {
	case amqp.OpSync:
		return w.syncEntry(ctx, msg.ID)
	case amqp.OpDelete:
		return w.deleteEntry(ctx, msg.ID)
	default:
		// Unknown operations are dropped rather than requeued forever.
		slog.WarnContext(ctx, "Unknown message operation, dropping",
			"id", msg.ID, "op", msg.Op)
		return nil
	}
}

func (w *SyncWorker) syncEntry(ctx context.Context, id string) error {
	entry, err := w.storage.GetEntry(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		// The entry was deleted between publish and consume; the delete
		// message will handle the mirror.
		slog.WarnContext(ctx, "Entry gone before sync, skipping", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get entry from storage: %w", err)
	}

	// Clear any previously mirrored row first so updates do not pile up
	// duplicates. A missing row is not an error.
	if w.deleter != nil {
		if err := w.deleter.DeleteEntry(ctx, id); err != nil {
			return fmt.Errorf("clear mirrored row: %w", err)
		}
	}

	ref, err := w.mirror.Append(ctx, entry)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to mirror: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, id); err != nil {
		// The mirror write worked; only the bookkeeping failed.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Entry synced to mirror",
		"id", id,
		"mirror_ref", ref,
		"date", entry.Date,
		"minutes", entry.Minutes)

	return nil
}

func (w *SyncWorker) deleteEntry(ctx context.Context, id string) error {
	if w.deleter == nil {
		slog.WarnContext(ctx, "No mirror deleter configured, skipping deletion", "id", id)
		return nil
	}

	if err := w.deleter.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("delete entry from mirror: %w", err)
	}

	slog.InfoContext(ctx, "Entry removed from mirror", "id", id)
	return nil
}

// ProcessPending syncs entries that are still marked pending. This is the
// backup path for lost AMQP messages.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.GetPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending entries: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending entries", "count", len(pending))

	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.syncEntry(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync pending entry",
				"id", p.ID, "error", err)
		}
	}

	return nil
}

// StartupSyncCheck drains a larger pending batch once at worker startup,
// recovering from missed messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending entries for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending entries found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending entries on startup, processing",
		"count", len(pending))

	synced := 0
	failed := 0
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.syncEntry(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync entry during startup",
				"id", p.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)

	return nil
}
