package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ Locker = (*Memory)(nil)

type held struct {
	token   string
	expires time.Time
}

// Memory is an in-process Locker. Expired entries are taken over by the next caller.
type Memory struct {
	mu    sync.Mutex
	locks map[string]held
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		locks: make(map[string]held),
		now:   time.Now,
	}
}

func (m *Memory) TryLock(_ context.Context, key string, ttl time.Duration) (Unlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if h, ok := m.locks[key]; ok && now.Before(h.expires) {
		return nil, ErrNotAcquired
	}

	token := uuid.NewString()
	m.locks[key] = held{token: token, expires: now.Add(ttl)}

	return func(context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()

		if h, ok := m.locks[key]; ok && h.token == token {
			delete(m.locks, key)
		}
		return nil
	}, nil
}
