package backend

import (
	"context"
	"fmt"
	"log/slog"

	"horas/internal/adapters"
	"horas/internal/amqp"
	"horas/internal/core"
	"horas/internal/services"
	"horas/internal/storage"
	"horas/internal/store/memory"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory.
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	if err := sqliteRepo.UpsertProfile(ctx, ownerProfile(config)); err != nil {
		f.logger.Warn("Failed to seed owner profile", "error", err)
	}

	// AMQP is optional; without it entries stay local until the worker's
	// pending pass picks them up.
	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without sync", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	entryService := services.NewEntryService(sqliteRepo, amqpClient)
	adapter := adapters.NewSQLiteAdapter(entryService)

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", amqpClient != nil)

	return &BackendResult{
		Backend: adapter,
		Cleanup: entryService.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store := memory.NewSeeded(ownerProfile(config))

	f.logger.Info("Initialized memory backend", "owner_id", config.OwnerID)

	return &BackendResult{
		Backend: store,
		Cleanup: nil,
	}, nil
}

func ownerProfile(config Config) core.Profile {
	name := config.OwnerName
	if name == "" {
		name = "Usuário Local"
	}
	return core.Profile{
		ID:   config.OwnerID,
		Name: name,
	}
}
