package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cablenet/billing/internal/infrastructure/auth"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisBlacklist(t *testing.T) (*auth.RedisTokenBlacklist, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return auth.NewRedisTokenBlacklist(client), mr
}

func TestInMemoryTokenBlacklist_RevokeToken(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()

	require.NoError(t, blacklist.RevokeToken(ctx, "jti-1", time.Hour))

	isBlacklisted, err := blacklist.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, isBlacklisted)

	isBlacklisted, err = blacklist.IsTokenRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, isBlacklisted)
}

func TestInMemoryTokenBlacklist_ExpirationCleanup(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()

	require.NoError(t, blacklist.RevokeToken(ctx, "jti-expire", time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	isBlacklisted, err := blacklist.IsTokenRevoked(ctx, "jti-expire")
	require.NoError(t, err)
	assert.False(t, isBlacklisted)
}

func TestInMemoryTokenBlacklist_UserTokenInvalidation(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()
	issuedBefore := time.Now().Add(-time.Hour)

	invalidated, err := blacklist.IsRevokedForUser(ctx, "user-1", issuedBefore)
	require.NoError(t, err)
	assert.False(t, invalidated)

	require.NoError(t, blacklist.RevokeUserTokens(ctx, "user-1", time.Hour))

	invalidated, err = blacklist.IsRevokedForUser(ctx, "user-1", issuedBefore)
	require.NoError(t, err)
	assert.True(t, invalidated)

	invalidated, err = blacklist.IsRevokedForUser(ctx, "user-1", time.Now().Add(time.Second))
	require.NoError(t, err)
	assert.False(t, invalidated)

	invalidated, err = blacklist.IsRevokedForUser(ctx, "user-2", issuedBefore)
	require.NoError(t, err)
	assert.False(t, invalidated)
}

func TestRedisTokenBlacklist_JTI(t *testing.T) {
	blacklist, mr := newRedisBlacklist(t)
	ctx := context.Background()

	require.NoError(t, blacklist.RevokeToken(ctx, "jti-1", time.Minute))

	isBlacklisted, err := blacklist.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, isBlacklisted)
	assert.True(t, mr.Exists("billing:token:jti:jti-1"))

	mr.FastForward(2 * time.Minute)

	isBlacklisted, err = blacklist.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, isBlacklisted)
}

func TestRedisTokenBlacklist_NonPositiveTTLIsIgnored(t *testing.T) {
	blacklist, mr := newRedisBlacklist(t)

	require.NoError(t, blacklist.RevokeToken(context.Background(), "jti-expired", 0))
	assert.False(t, mr.Exists("billing:token:jti:jti-expired"))
}

func TestRedisTokenBlacklist_UserTokenInvalidation(t *testing.T) {
	blacklist, _ := newRedisBlacklist(t)
	ctx := context.Background()
	issuedBefore := time.Now().Add(-time.Hour)

	invalidated, err := blacklist.IsRevokedForUser(ctx, "user-1", issuedBefore)
	require.NoError(t, err)
	assert.False(t, invalidated)

	require.NoError(t, blacklist.RevokeUserTokens(ctx, "user-1", time.Hour))

	invalidated, err = blacklist.IsRevokedForUser(ctx, "user-1", issuedBefore)
	require.NoError(t, err)
	assert.True(t, invalidated)

	invalidated, err = blacklist.IsRevokedForUser(ctx, "user-1", time.Now().Add(5*time.Second))
	require.NoError(t, err)
	assert.False(t, invalidated)
}

func TestRedisTokenBlacklist_CorruptTimestamp(t *testing.T) {
	blacklist, mr := newRedisBlacklist(t)
	require.NoError(t, mr.Set("billing:token:user:user-9", "not-a-number"))

	_, err := blacklist.IsRevokedForUser(context.Background(), "user-9", time.Now())
	assert.Error(t, err)
}

func TestRedisTokenBlacklist_ServerDown(t *testing.T) {
	blacklist, mr := newRedisBlacklist(t)
	mr.Close()

	_, err := blacklist.IsTokenRevoked(context.Background(), "jti-1")
	assert.Error(t, err)
}
