package lock_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"qrpay/pkg/lock"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func lockers(t *testing.T) map[string]lock.Locker {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]lock.Locker{
		"Memory": lock.NewMemory(),
		"Redis":  lock.NewRedis(client),
	}
}

func TestLocker_Exclusive(t *testing.T) {
	ctx := context.Background()

	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			unlock, err := l.TryLock(ctx, "payment:1", time.Minute)
			require.NoError(t, err)

			_, err = l.TryLock(ctx, "payment:1", time.Minute)
			require.ErrorIs(t, err, lock.ErrNotAcquired)

			other, err := l.TryLock(ctx, "payment:2", time.Minute)
			require.NoError(t, err)
			require.NoError(t, other(ctx))

			require.NoError(t, unlock(ctx))

			again, err := l.TryLock(ctx, "payment:1", time.Minute)
			require.NoError(t, err)
			require.NoError(t, again(ctx))
		})
	}
}

func TestLocker_StaleUnlockKeepsNewHolder(t *testing.T) {
	ctx := context.Background()
	l := lock.NewMemory()

	stale, err := l.TryLock(ctx, "k", time.Nanosecond)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	current, err := l.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)

	require.NoError(t, stale(ctx))

	_, err = l.TryLock(ctx, "k", time.Minute)
	require.ErrorIs(t, err, lock.ErrNotAcquired)
	require.NoError(t, current(ctx))
}

func TestMemory_ConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	l := lock.NewMemory()

	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.TryLock(ctx, "hot", time.Minute); err == nil {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), winners.Load())
}
