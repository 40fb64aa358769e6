package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const syncLockKey = "books:sync:lock"

// releaseScript deletes the lock only while it still holds the caller's token,
// so an expired lock re-acquired by another run is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ErrLockNotHeld is returned by Unlock when the token no longer owns the lock.
var ErrLockNotHeld = errors.New("sync lock not held")

// SyncLock is a single-holder lease guarding catalog reconciliation runs.
type SyncLock struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewSyncLock creates a SyncLock whose lease expires after ttl.
func NewSyncLock(redis *RedisClient, ttl time.Duration) *SyncLock {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SyncLock{redis: redis, ttl: ttl}
}

// TryLock attempts to take the lease. ok is false when another run holds it.
func (l *SyncLock) TryLock(ctx context.Context) (token string, ok bool, err error) {
	token = uuid.New().String()
	ok, err = l.redis.SetNX(ctx, syncLockKey, token, l.ttl)
	if err != nil {
		return "", false, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Unlock releases the lease taken with token.
func (l *SyncLock) Unlock(ctx context.Context, token string) error {
	res, err := l.redis.RunScript(ctx, releaseScript, []string{syncLockKey}, token)
	if err != nil {
		return fmt.Errorf("release sync lock: %w", err)
	}
	if n, _ := res.(int64); n == 0 {
		return ErrLockNotHeld
	}
	return nil
}
