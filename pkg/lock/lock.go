// Package lock provides non-blocking keyed locks used to serialize work on a single entity.
package lock

import (
	"context"
	"errors"
	"time"
)

var ErrNotAcquired = errors.New("lock: already held")

// Unlock releases a held lock. It is safe to call after the lock's TTL elapsed.
type Unlock func(ctx context.Context) error

type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (Unlock, error)
}
