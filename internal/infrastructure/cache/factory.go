package cache

import (
	"github.com/edufin/backend/internal/domain/shared"
	"github.com/edufin/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewIdempotencyStore picks the idempotency backend from configuration:
// Redis when enabled, the in-process map otherwise. A Redis connection
// failure falls back to the in-memory store so payment intake keeps working
// on a single instance.
func NewIdempotencyStore(cfg config.RedisConfig, logger *zap.Logger) shared.IdempotencyStore {
	if !cfg.Enabled {
		logger.Info("Using in-memory idempotency store")
		return NewInMemoryIdempotencyStore()
	}

	store, err := NewRedisIdempotencyStore(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, falling back to in-memory idempotency store",
			zap.Error(err))
		return NewInMemoryIdempotencyStore()
	}

	logger.Info("Using Redis idempotency store",
		zap.String("host", cfg.Host), zap.Int("port", cfg.Port))
	return store
}
