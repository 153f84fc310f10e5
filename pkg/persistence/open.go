package persistence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gradpath/gradpath-engine/pkg/config"
	"github.com/gradpath/gradpath-engine/pkg/database"
	"github.com/gradpath/gradpath-engine/pkg/logging"
	"github.com/gradpath/gradpath-engine/pkg/retry"
)

// Open builds the KVStore selected by cfg.Storage.Backend.
// Network backends are retried briefly so the engine can start alongside its database.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (KVStore, error) {
	switch cfg.Storage.Backend {
	case config.StorageMemory:
		logger.Info("Using in-memory workspace storage; state is lost on exit")
		return NewMemoryStore(), nil

	case config.StorageSQLite:
		store, err := NewSQLiteStore(cfg.Storage.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		logger.Info("Using SQLite workspace storage", zap.String("path", cfg.Storage.SQLitePath))
		return store, nil

	case config.StoragePostgres:
		connStr := cfg.Database.ConnectionString()
		db, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*database.DB, error) {
			return database.NewConnection(ctx, &database.Config{
				URL:            connStr,
				MaxConnections: cfg.Database.MaxConnections,
			})
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres (%s): %w",
				logging.SanitizeConnectionString(connStr), err)
		}
		store, err := NewPostgresStore(db, logger)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to prepare postgres store: %w", err)
		}
		logger.Info("Using PostgreSQL workspace storage",
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.Database))
		return store, nil

	case config.StorageRedis:
		client, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*redis.Client, error) {
			return database.NewRedisClient(ctx, &cfg.Redis)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Info("Using Redis workspace storage",
			zap.String("host", cfg.Redis.Host),
			zap.Int("db", cfg.Redis.DB))
		return NewRedisStore(client), nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
