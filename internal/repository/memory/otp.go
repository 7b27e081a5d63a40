package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"qrpay/internal/entity"
)

// OTPStore keeps one record per phone. Retention is ignored; expired records are purged by
// the caller on verify.
type OTPStore struct {
	mu      sync.Mutex
	records map[string]entity.OTPRecord
}

func NewOTPStore() *OTPStore {
	return &OTPStore{records: make(map[string]entity.OTPRecord)}
}

func (s *OTPStore) Put(_ context.Context, record *entity.OTPRecord, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Phone] = *record
	return nil
}

func (s *OTPStore) Get(_ context.Context, phone string) (*entity.OTPRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[phone]
	if !ok {
		return nil, fmt.Errorf("memory.OTPStore.Get: %w", entity.ErrDataNotFound)
	}
	return &rec, nil
}

func (s *OTPStore) Delete(_ context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, phone)
	return nil
}
