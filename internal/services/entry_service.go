package services

import (
	"context"
	"fmt"
	"log/slog"

	"horas/internal/amqp"
	"horas/internal/core"
	"horas/internal/storage"
)

// EntryService orchestrates time entry operations across SQLite and AMQP.
// The local write always wins; mirror notifications are best effort and
// never fail the request.
type EntryService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewEntryService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *EntryService {
	return &EntryService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// CreateEntry saves an entry locally and publishes a sync message.
func (s *EntryService) CreateEntry(ctx context.Context, e core.TimeEntry) (string, error) {
	id, err := s.storage.Append(ctx, e)
	if err != nil {
		return "", fmt.Errorf("save entry: %w", err)
	}

	// New entries start at version 1.
	if err := s.publishSync(ctx, id, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", id, "error", err)
	}

	return id, nil
}

// UpdateEntry applies the change locally and re-queues the mirror sync.
func (s *EntryService) UpdateEntry(ctx context.Context, e core.TimeEntry) error {
	if err := s.storage.UpdateEntry(ctx, e); err != nil {
		return fmt.Errorf("update entry: %w", err)
	}

	version, err := s.storage.GetEntryVersion(ctx, e.ID)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read entry version after update",
			"id", e.ID, "error", err)
		version = 0
	}

	if err := s.publishSync(ctx, e.ID, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", e.ID, "error", err)
	}

	return nil
}

// DeleteEntry soft deletes locally and publishes a delete message.
func (s *EntryService) DeleteEntry(ctx context.Context, id string) error {
	if err := s.storage.SoftDeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("soft delete entry: %w", err)
	}

	if err := s.publishDelete(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message",
			"id", id, "error", err)
	}

	return nil
}

// ApproveEntry records approval locally and refreshes the mirror.
func (s *EntryService) ApproveEntry(ctx context.Context, id, approvedBy string) error {
	if err := s.storage.ApproveEntry(ctx, id, approvedBy); err != nil {
		return fmt.Errorf("approve entry: %w", err)
	}

	version, err := s.storage.GetEntryVersion(ctx, id)
	if err != nil {
		version = 0
	}
	if err := s.publishSync(ctx, id, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", id, "error", err)
	}

	return nil
}

// ListEntries returns the owner's live entries, newest date first.
func (s *EntryService) ListEntries(ctx context.Context, ownerID string) ([]core.TimeEntry, error) {
	return s.storage.ListEntries(ctx, ownerID)
}

// GetProfile returns the owner record.
func (s *EntryService) GetProfile(ctx context.Context, id string) (core.Profile, error) {
	return s.storage.GetProfile(ctx, id)
}

func (s *EntryService) publishSync(ctx context.Context, id string, version int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	return s.amqpClient.PublishEntrySync(ctx, id, version)
}

func (s *EntryService) publishDelete(ctx context.Context, id string) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping delete message")
		return nil
	}
	return s.amqpClient.PublishEntryDelete(ctx, id)
}

// Close closes both storage and AMQP connections.
func (s *EntryService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close entry service: %v", errs)
	}

	return nil
}
