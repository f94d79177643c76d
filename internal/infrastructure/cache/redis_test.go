package cache_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cablenet/billing/internal/infrastructure/cache"
	"github.com/cablenet/billing/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMiniredisClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	cfg := config.RedisConfig{Host: mr.Host(), Port: port}

	client, err := cache.NewRedisClient(cfg)
	require.NoError(t, err)
	defer client.Close()

	mr.Close()
	_, err = cache.NewRedisClient(cfg)
	assert.Error(t, err)
}

func TestRedisIdempotencyStore(t *testing.T) {
	client, mr := newMiniredisClient(t)
	store := cache.NewRedisIdempotencyStore(client, "")
	ctx := context.Background()

	isNew, err := store.MarkProcessed(ctx, "payment-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.True(t, mr.Exists("billing:idempotency:payment-1"))

	isNew, err = store.MarkProcessed(ctx, "payment-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, isNew)

	mr.FastForward(2 * time.Minute)
	isNew, err = store.MarkProcessed(ctx, "payment-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, isNew)

	require.NoError(t, store.Forget(ctx, "payment-1"))
	assert.False(t, mr.Exists("billing:idempotency:payment-1"))
}

func TestRedisIdempotencyStore_ServerDown(t *testing.T) {
	client, mr := newMiniredisClient(t)
	store := cache.NewRedisIdempotencyStore(client, "test:")
	mr.Close()

	_, err := store.MarkProcessed(context.Background(), "k", time.Minute)
	assert.Error(t, err)
}

func TestRedisLocker(t *testing.T) {
	client, mr := newMiniredisClient(t)
	locker := cache.NewRedisLocker(client)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "generate:t1:2024-03", time.Minute)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "generate:t1:2024-03", time.Minute)
	assert.True(t, errors.Is(err, cache.ErrLockHeld))

	other, err := locker.Acquire(ctx, "generate:t2:2024-03", time.Minute)
	require.NoError(t, err)
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists("billing:lock:generate:t1:2024-03"))

	again, err := locker.Acquire(ctx, "generate:t1:2024-03", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestRedisLocker_ReleaseAfterExpiryKeepsNewHolder(t *testing.T) {
	client, mr := newMiniredisClient(t)
	locker := cache.NewRedisLocker(client)
	ctx := context.Background()

	stale, err := locker.Acquire(ctx, "job", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	_, err = locker.Acquire(ctx, "job", time.Minute)
	require.NoError(t, err)

	require.NoError(t, stale(ctx))
	assert.True(t, mr.Exists("billing:lock:job"), "stale release must not drop the new holder's lock")
}

func TestInMemoryLocker(t *testing.T) {
	locker := cache.NewInMemoryLocker()
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "job", time.Hour)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "job", time.Hour)
	assert.ErrorIs(t, err, cache.ErrLockHeld)

	require.NoError(t, release(ctx))
	_, err = locker.Acquire(ctx, "job", time.Hour)
	assert.NoError(t, err)
}

func TestFactory_FallsBackWithoutClient(t *testing.T) {
	f := cache.NewFactory(nil, zap.NewNop())
	assert.IsType(t, &cache.InMemoryIdempotencyStore{}, f.IdempotencyStore())
	assert.IsType(t, &cache.InMemoryLocker{}, f.Locker())

	client, _ := newMiniredisClient(t)
	f = cache.NewFactory(client, zap.NewNop())
	assert.IsType(t, &cache.RedisIdempotencyStore{}, f.IdempotencyStore())
	assert.IsType(t, &cache.RedisLocker{}, f.Locker())
}
