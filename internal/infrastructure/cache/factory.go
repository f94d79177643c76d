package cache

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Factory builds the Redis-backed stores, falling back to in-process
// implementations when no Redis client is available.
type Factory struct {
	client redis.UniversalClient
	logger *zap.Logger
}

// NewFactory creates a factory. client may be nil.
func NewFactory(client redis.UniversalClient, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{client: client, logger: logger}
}

// IdempotencyStore returns the request deduplication store
func (f *Factory) IdempotencyStore() IdempotencyStore {
	if f.client != nil {
		return NewRedisIdempotencyStore(f.client, "")
	}
	f.logger.Warn("Redis unavailable, using in-memory idempotency store; duplicates are only detected per instance")
	return NewInMemoryIdempotencyStore()
}

// Locker returns the lock service used by scheduled jobs
func (f *Factory) Locker() Locker {
	if f.client != nil {
		return NewRedisLocker(f.client)
	}
	f.logger.Warn("Redis unavailable, using in-memory locks; concurrent instances may both run scheduled jobs")
	return NewInMemoryLocker()
}
