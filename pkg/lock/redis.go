package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const _keyPrefix = "lock:"

var _ Locker = (*Redis)(nil)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Redis struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

func (r *Redis) TryLock(ctx context.Context, key string, ttl time.Duration) (Unlock, error) {
	const op = "lock.Redis.TryLock"

	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, _keyPrefix+key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: setnx: %w", op, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, r.client, []string{_keyPrefix + key}, token).Err(); err != nil {
			return fmt.Errorf("lock.Redis.Unlock: %w", err)
		}
		return nil
	}, nil
}
