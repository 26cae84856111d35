package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/lodge/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// ErrLockAcquire wraps transport failures while taking a session lock.
var ErrLockAcquire = errors.New("redis: acquire session lock")

// releaseIfOwner deletes the lock only while it still carries our token.
var releaseIfOwner = backend.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

const (
	minLockBackoff = 10 * time.Millisecond
	maxLockBackoff = 200 * time.Millisecond
)

// Locker implements ports.SessionLocker with SET NX PX. Lock keys live at
// prefix + "lock:" + sessionID.
type Locker struct {
	client *backend.Client
	prefix string
}

func NewLocker(client *backend.Client, prefix string) *Locker {
	return &Locker{client: client, prefix: prefix}
}

// Lock polls with doubling backoff until the key is free or ctx is done.
// Each acquisition gets a fresh token, so a holder whose lock already
// expired cannot release its successor's.
func (l *Locker) Lock(ctx context.Context, sessionID string, ttl time.Duration) (ports.UnlockFunc, error) {
	key := l.prefix + "lock:" + sessionID
	token := uuid.NewString()
	backoff := minLockBackoff

	for {
		acquired, err := l.client.SetNX(ctx, key, token, ttl).Result()
		switch {
		case acquired:
			return func(ctx context.Context) error {
				return releaseIfOwner.Run(ctx, l.client, []string{key}, token).Err()
			}, nil
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			return nil, fmt.Errorf("%w %s: %v", ErrLockAcquire, sessionID, err)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff = min(backoff*2, maxLockBackoff)
	}
}
