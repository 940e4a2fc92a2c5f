package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISTRIBUTED LOCK
// ══════════════════════════════════════════════════════════════════════════════

// ErrLockHeld is returned when another owner holds the lock.
var ErrLockHeld = errors.New("lock: held by another owner")

// releaseScript deletes the key only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker acquires short-lived locks so that only one process runs a job.
type Locker struct {
	client *redis.Client
}

// NewLocker creates a Locker on top of the cache connection.
func NewLocker(cache *Cache) *Locker {
	return &Locker{client: cache.Client()}
}

// Lock is a held lock. Release it when the work is done.
type Lock struct {
	client *redis.Client
	key    string
	token  string
}

// Acquire takes the lock for resource or returns ErrLockHeld.
func (l *Locker) Acquire(ctx context.Context, resource string, ttl time.Duration) (*Lock, error) {
	if resource == "" {
		return nil, ErrCacheKeyEmpty
	}
	if ttl <= 0 {
		ttl = TTLDistributedLock
	}

	key := LockKey(resource)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", resource, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return &Lock{client: l.client, key: key, token: token}, nil
}

// Release frees the lock if it is still ours.
func (lk *Lock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, lk.client, []string{lk.key}, lk.token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// TryLock is Acquire in the shape the scheduler jobs expect. held is false
// when another owner has the lock.
func (l *Locker) TryLock(ctx context.Context, resource string, ttl time.Duration) (release func(context.Context) error, held bool, err error) {
	lk, err := l.Acquire(ctx, resource, ttl)
	if errors.Is(err, ErrLockHeld) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return lk.Release, true, nil
}
