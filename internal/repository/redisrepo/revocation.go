package redisrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const _revokedKeyPrefix = "revoked:"

type RevocationStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

func NewRevocationStore(client redis.UniversalClient) *RevocationStore {
	return &RevocationStore{client: client, now: time.Now}
}

// Revoke keeps tokenID until the token's own expiry; a token already past it is not stored.
func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, _revokedKeyPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redisrepo.RevocationStore.Revoke: %w", err)
	}
	return nil
}

func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, _revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("redisrepo.RevocationStore.IsRevoked: %w", err)
	}
	return n == 1, nil
}
