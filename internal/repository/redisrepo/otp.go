package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"qrpay/internal/entity"

	"github.com/redis/go-redis/v9"
)

const _otpKeyPrefix = "otp:"

// otpRecord carries the code, which the entity keeps out of JSON.
type otpRecord struct {
	Phone     string    `json:"phone"`
	Code      string    `json:"code"`
	Purpose   string    `json:"purpose"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// OTPStore keeps one code per phone. Redis drops the key after the retention passed to Put.
type OTPStore struct {
	client redis.UniversalClient
}

func NewOTPStore(client redis.UniversalClient) *OTPStore {
	return &OTPStore{client: client}
}

func (s *OTPStore) Put(ctx context.Context, record *entity.OTPRecord, retention time.Duration) error {
	const op = "redisrepo.OTPStore.Put"

	payload, err := json.Marshal(otpRecord{
		Phone:     record.Phone,
		Code:      record.Code,
		Purpose:   record.Purpose,
		CreatedAt: record.CreatedAt,
		ExpiresAt: record.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("%s: marshal: %w", op, err)
	}

	if err = s.client.Set(ctx, _otpKeyPrefix+record.Phone, payload, retention).Err(); err != nil {
		return fmt.Errorf("%s: set: %w", op, err)
	}
	return nil
}

func (s *OTPStore) Get(ctx context.Context, phone string) (*entity.OTPRecord, error) {
	const op = "redisrepo.OTPStore.Get"

	payload, err := s.client.Get(ctx, _otpKeyPrefix+phone).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrDataNotFound)
		}
		return nil, fmt.Errorf("%s: get: %w", op, err)
	}

	var rec otpRecord
	if err = json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("%s: unmarshal: %w", op, err)
	}
	return &entity.OTPRecord{
		Phone:     rec.Phone,
		Code:      rec.Code,
		Purpose:   rec.Purpose,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

func (s *OTPStore) Delete(ctx context.Context, phone string) error {
	if err := s.client.Del(ctx, _otpKeyPrefix+phone).Err(); err != nil {
		return fmt.Errorf("redisrepo.OTPStore.Delete: %w", err)
	}
	return nil
}
