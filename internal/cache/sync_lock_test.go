package cache

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/book_api/internal/config"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisClient) {
	t.Helper()

	mr := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)

	rc, err := NewRedisClient(&config.RedisConfig{Host: host, Port: port})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	return mr, rc
}

func TestSyncLock_SingleHolder(t *testing.T) {
	_, rc := newTestRedis(t)
	lock := NewSyncLock(rc, time.Minute)
	ctx := context.Background()

	token, ok, err := lock.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, token)

	_, ok, err = lock.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must be rejected")

	require.NoError(t, lock.Unlock(ctx, token))

	_, ok, err = lock.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "lock is free after release")
}

func TestSyncLock_UnlockWithStaleToken(t *testing.T) {
	mr, rc := newTestRedis(t)
	lock := NewSyncLock(rc, time.Minute)
	ctx := context.Background()

	stale, ok, err := lock.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	fresh, ok, err := lock.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	assert.ErrorIs(t, lock.Unlock(ctx, stale), ErrLockNotHeld)

	val, err := mr.Get(syncLockKey)
	require.NoError(t, err)
	assert.Equal(t, fresh, val, "fresh holder keeps the lock")
}

func TestSyncLock_RedisDown(t *testing.T) {
	mr, rc := newTestRedis(t)
	lock := NewSyncLock(rc, time.Minute)

	mr.SetError("LOADING redis is loading")

	_, ok, err := lock.TryLock(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
}
