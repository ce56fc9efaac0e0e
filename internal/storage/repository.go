package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"horas/internal/core"
	"horas/internal/store"
)

// ErrNotFound is returned when an entry or profile id does not exist
// (or the entry has been soft-deleted).
var ErrNotFound = store.ErrNotFound

// SQLiteRepository is the durable entry store. Deletes are soft so the
// sync worker can still mirror them out before the row disappears.
type SQLiteRepository struct {
	db *sql.DB
}

// PendingEntry is the minimal row shape the sync queue works with.
type PendingEntry struct {
	ID        string
	Version   int64
	CreatedAt time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const entryColumns = `id, owner_id, date, start_time, minutes, ticket_id,
	description, project_name, activity_type, is_billable, is_approved,
	approved_by, approved_at, created_at, updated_at`

// Append implements store.EntryWriter. The entry is validated here, at
// the boundary; the aggregation core never sees malformed rows.
func (r *SQLiteRepository) Append(ctx context.Context, e core.TimeEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO time_entries (
			id, owner_id, date, start_time, minutes, ticket_id, description,
			project_name, activity_type, is_billable, is_approved,
			approved_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, '', ?, ?)`,
		id, e.OwnerID, e.Date, e.StartTime, e.Minutes, e.TicketID,
		e.Description, e.ProjectName, e.ActivityType, boolToInt(e.Billable),
		now, now)
	if err != nil {
		return "", fmt.Errorf("insert entry: %w", err)
	}

	slog.InfoContext(ctx, "Entry saved",
		"id", id,
		"owner_id", e.OwnerID,
		"date", e.Date,
		"minutes", e.Minutes)
	return id, nil
}

// ListEntries implements store.EntryLister: the complete live snapshot
// for one owner, newest date first, same-day rows in insertion order.
func (r *SQLiteRepository) ListEntries(ctx context.Context, ownerID string) ([]core.TimeEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM time_entries
		WHERE owner_id = ? AND deleted_at IS NULL
		ORDER BY date DESC, created_at ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []core.TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

// GetEntry returns a single live entry by id.
func (r *SQLiteRepository) GetEntry(ctx context.Context, id string) (core.TimeEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM time_entries
		WHERE id = ? AND deleted_at IS NULL`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.TimeEntry{}, fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.TimeEntry{}, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

// UpdateEntry implements store.EntryUpdater, bumping version and
// re-queueing the row for mirror sync.
func (r *SQLiteRepository) UpdateEntry(ctx context.Context, e core.TimeEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE time_entries SET
			date = ?, start_time = ?, minutes = ?, ticket_id = ?,
			description = ?, project_name = ?, activity_type = ?,
			is_billable = ?, version = version + 1,
			sync_status = 'pending', updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		e.Date, e.StartTime, e.Minutes, e.TicketID, e.Description,
		e.ProjectName, e.ActivityType, boolToInt(e.Billable),
		time.Now().UTC(), e.ID)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return requireRow(res, e.ID)
}

// ApproveEntry records the approval flag, approver and timestamp.
func (r *SQLiteRepository) ApproveEntry(ctx context.Context, id, approvedBy string) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE time_entries SET
			is_approved = 1, approved_by = ?, approved_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		approvedBy, now, now, id)
	if err != nil {
		return fmt.Errorf("approve entry: %w", err)
	}
	return requireRow(res, id)
}

// GetEntryVersion reports the current version of a live entry.
func (r *SQLiteRepository) GetEntryVersion(ctx context.Context, id string) (int64, error) {
	var version int64
	err := r.db.QueryRowContext(ctx, `
		SELECT version FROM time_entries
		WHERE id = ? AND deleted_at IS NULL`, id).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("get entry version: %w", err)
	}
	return version, nil
}

// SoftDeleteEntry hides the entry from listings while keeping the row
// for the delete-mirror message.
func (r *SQLiteRepository) SoftDeleteEntry(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE time_entries SET deleted_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`, now, now, id)
	if err != nil {
		return fmt.Errorf("soft delete entry: %w", err)
	}
	return requireRow(res, id)
}

// GetPendingSync returns live entries still waiting for the mirror, used
// by the worker's catch-up pass.
func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]PendingEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, version, created_at
		FROM time_entries
		WHERE sync_status = 'pending' AND deleted_at IS NULL
		ORDER BY created_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync entries: %w", err)
	}
	defer rows.Close()

	var out []PendingEntry
	for rows.Next() {
		var p PendingEntry
		if err := rows.Scan(&p.ID, &p.Version, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending entry: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkSynced records a successful mirror write.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE time_entries SET sync_status = 'synced' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

// MarkSyncError flags an entry whose mirror write failed; the periodic
// pass will not retry it until it is re-queued.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE time_entries SET sync_status = 'error' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark sync error: %w", err)
	}
	slog.WarnContext(ctx, "Entry marked with sync error", "id", id)
	return nil
}

// GetProfile implements store.ProfileReader.
func (r *SQLiteRepository) GetProfile(ctx context.Context, id string) (core.Profile, error) {
	var p core.Profile
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, department, created_at, updated_at
		FROM profiles WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Email, &p.Department, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Profile{}, fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// UpsertProfile creates or refreshes the owner record.
func (r *SQLiteRepository) UpsertProfile(ctx context.Context, p core.Profile) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (id, name, email, department, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			department = excluded.department,
			updated_at = excluded.updated_at`,
		p.ID, p.Name, p.Email, p.Department, now, now)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (core.TimeEntry, error) {
	var (
		e          core.TimeEntry
		billable   int
		approved   int
		approvedAt sql.NullTime
	)
	err := row.Scan(&e.ID, &e.OwnerID, &e.Date, &e.StartTime, &e.Minutes,
		&e.TicketID, &e.Description, &e.ProjectName, &e.ActivityType,
		&billable, &approved, &e.ApprovedBy, &approvedAt,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return core.TimeEntry{}, err
	}
	e.Billable = billable != 0
	e.Approved = approved != 0
	if approvedAt.Valid {
		e.ApprovedAt = approvedAt.Time
	}
	return e, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	return nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
