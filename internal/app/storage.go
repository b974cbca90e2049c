package app

import (
	"context"
	"database/sql"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fuelsoyo/internal/config"
	"fuelsoyo/internal/store"
	"fuelsoyo/libs/db"
	"fuelsoyo/libs/redis"
)

// Storage holds the record backend and the connections it was built on.
type Storage struct {
	Backend store.Backend
	// Redis is set whenever a redis address is configured, regardless of
	// the storage driver, so the notification relay can share it.
	Redis  *goredis.Client
	sqlDB  *sql.DB
	logger *zap.Logger
}

// OpenStorage connects the configured storage driver.
func OpenStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Storage, error) {
	s := &Storage{logger: logger}

	if cfg.Redis.Addr != "" {
		client, err := redis.NewRedisClient(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		s.Redis = client
	}

	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		sqlDB, err := db.NewPostgresDB(ctx, cfg.Database.DSN, db.PoolOptions{
			MaxOpenConns: cfg.Database.MaxOpenConns,
			ConnLifetime: cfg.Database.ConnLifetime,
		})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s.sqlDB = sqlDB
		backend := store.NewPostgresBackend(sqlDB)
		if err := backend.Migrate(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		s.Backend = backend
	case config.StorageRedis:
		if s.Redis == nil {
			return nil, fmt.Errorf("redis storage driver needs a redis address")
		}
		s.Backend = store.NewRedisBackend(s.Redis, cfg.Redis.KeyPrefix)
	default:
		s.Backend = store.NewMemoryBackend()
	}

	logger.Info("storage ready", zap.String("driver", cfg.Storage.Driver))
	return s, nil
}

// Close releases every connection.
func (s *Storage) Close() {
	if s.Backend != nil {
		if err := s.Backend.Close(); err != nil {
			s.logger.Warn("failed to close store", zap.Error(err))
		}
	}
	if s.sqlDB != nil {
		if err := s.sqlDB.Close(); err != nil {
			s.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
