package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"horas/internal/amqp"
	"horas/internal/core"
	"horas/internal/storage"
)

type fakeMirror struct {
	rows      map[string]core.TimeEntry
	appendErr error
	appends   int
	deletes   int
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{rows: make(map[string]core.TimeEntry)}
}

func (f *fakeMirror) Append(ctx context.Context, e core.TimeEntry) (string, error) {
	if f.appendErr != nil {
		return "", f.appendErr
	}
	f.appends++
	f.rows[e.ID] = e
	return "A" + e.ID, nil
}

func (f *fakeMirror) DeleteEntry(ctx context.Context, id string) error {
	f.deletes++
	delete(f.rows, id)
	return nil
}

func testSetup(t *testing.T) (*SyncWorker, *storage.SQLiteRepository, *fakeMirror) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "horas.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	mirror := newFakeMirror()
	return NewSyncWorker(repo, mirror, mirror, 10), repo, mirror
}

func appendEntry(t *testing.T, repo *storage.SQLiteRepository, date string, minutes int) string {
	t.Helper()
	id, err := repo.Append(context.Background(), core.TimeEntry{
		OwnerID:   "user-1",
		Date:      date,
		StartTime: "09:00",
		Minutes:   minutes,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	return id
}

func TestHandleSyncMessage(t *testing.T) {
	w, repo, mirror := testSetup(t)
	ctx := context.Background()

	id := appendEntry(t, repo, "2024-03-10", 60)

	if err := w.HandleMessage(ctx, amqp.NewEntrySyncMessage(id, 1)); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if _, ok := mirror.rows[id]; !ok {
		t.Error("expected entry in mirror")
	}

	pending, err := repo.GetPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected entry marked synced, %d still pending", len(pending))
	}
}

func TestHandleSyncMessageReplacesMirrorRow(t *testing.T) {
	w, repo, mirror := testSetup(t)
	ctx := context.Background()

	id := appendEntry(t, repo, "2024-03-10", 60)
	if err := w.HandleMessage(ctx, amqp.NewEntrySyncMessage(id, 1)); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	updated := core.TimeEntry{ID: id, OwnerID: "user-1", Date: "2024-03-10", StartTime: "09:00", Minutes: 120}
	if err := repo.UpdateEntry(ctx, updated); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := w.HandleMessage(ctx, amqp.NewEntrySyncMessage(id, 2)); err != nil {
		t.Fatalf("second sync: %v", err)
	}

	if len(mirror.rows) != 1 {
		t.Fatalf("expected a single mirrored row, got %d", len(mirror.rows))
	}
	if mirror.rows[id].Minutes != 120 {
		t.Errorf("expected mirrored minutes 120, got %d", mirror.rows[id].Minutes)
	}
}

func TestHandleSyncMessageEntryGone(t *testing.T) {
	w, _, mirror := testSetup(t)

	// Entry deleted before the message arrived; not an error.
	if err := w.HandleMessage(context.Background(), amqp.NewEntrySyncMessage("ghost", 1)); err != nil {
		t.Fatalf("expected nil for missing entry, got %v", err)
	}
	if mirror.appends != 0 {
		t.Error("missing entry should not be mirrored")
	}
}

func TestHandleDeleteMessage(t *testing.T) {
	w, repo, mirror := testSetup(t)
	ctx := context.Background()

	id := appendEntry(t, repo, "2024-03-10", 60)
	if err := w.HandleMessage(ctx, amqp.NewEntrySyncMessage(id, 1)); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if err := repo.SoftDeleteEntry(ctx, id); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	if err := w.HandleMessage(ctx, amqp.NewEntryDeleteMessage(id)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := mirror.rows[id]; ok {
		t.Error("expected mirrored row removed")
	}
}

func TestSyncFailureMarksError(t *testing.T) {
	w, repo, mirror := testSetup(t)
	ctx := context.Background()

	id := appendEntry(t, repo, "2024-03-10", 60)
	mirror.appendErr = errors.New("quota exceeded")

	if err := w.HandleMessage(ctx, amqp.NewEntrySyncMessage(id, 1)); err == nil {
		t.Fatal("expected mirror failure to propagate")
	}

	pending, err := repo.GetPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("errored entry should be off the pending queue, got %d", len(pending))
	}
}

func TestStartupSyncCheck(t *testing.T) {
	w, repo, mirror := testSetup(t)
	ctx := context.Background()

	appendEntry(t, repo, "2024-03-10", 60)
	appendEntry(t, repo, "2024-03-11", 30)

	if err := w.StartupSyncCheck(ctx); err != nil {
		t.Fatalf("startup check: %v", err)
	}
	if mirror.appends != 2 {
		t.Errorf("expected 2 mirrored entries, got %d", mirror.appends)
	}

	// A second pass finds nothing pending.
	mirror.appends = 0
	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("process pending: %v", err)
	}
	if mirror.appends != 0 {
		t.Errorf("expected no work on second pass, got %d appends", mirror.appends)
	}
}
