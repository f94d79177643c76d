package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another holder owns the lock
var ErrLockHeld = errors.New("lock is held by another process")

// Locker hands out named, expiring locks
type Locker interface {
	// Acquire takes the lock or fails with ErrLockHeld. The returned
	// function releases it; releasing an expired or stolen lock is a no-op.
	Acquire(ctx context.Context, name string, ttl time.Duration) (release func(context.Context) error, err error)
}

// releaseScript deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX and a token-checked release
type RedisLocker struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisLocker creates a locker on an existing client
func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{
		client:    client,
		keyPrefix: "billing:lock:",
	}
}

// Acquire takes the lock named name for ttl
func (l *RedisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, error) {
	key := l.keyPrefix + name
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release lock %s: %w", name, err)
		}
		return nil
	}
	return release, nil
}

var _ Locker = (*RedisLocker)(nil)

// InMemoryLocker implements Locker inside one process
type InMemoryLocker struct {
	mu    sync.Mutex
	locks map[string]inMemoryLock
}

type inMemoryLock struct {
	token     string
	expiresAt time.Time
}

// NewInMemoryLocker creates an empty locker
func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{locks: make(map[string]inMemoryLock)}
}

// Acquire takes the lock named name for ttl
func (l *InMemoryLocker) Acquire(_ context.Context, name string, ttl time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if held, ok := l.locks[name]; ok && now.Before(held.expiresAt) {
		return nil, ErrLockHeld
	}

	token := uuid.NewString()
	l.locks[name] = inMemoryLock{token: token, expiresAt: now.Add(ttl)}

	release := func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if held, ok := l.locks[name]; ok && held.token == token {
			delete(l.locks, name)
		}
		return nil
	}
	return release, nil
}

var _ Locker = (*InMemoryLocker)(nil)
