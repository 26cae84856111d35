package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock taken by a SessionLocker.
type UnlockFunc func(ctx context.Context) error

// SessionLocker serializes turns of one conversation across replicas. Two
// replicas applying inputs to the same session would each load the same
// state and the later save would drop the earlier answer.
//
// Lock blocks until the key is free or ctx is done. The lock lapses after
// ttl even if never released. The returned UnlockFunc must be called.
type SessionLocker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}

// LockerFunc adapts a plain function to SessionLocker.
type LockerFunc func(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)

// Lock calls f.
func (f LockerFunc) Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error) {
	return f(ctx, key, ttl)
}
