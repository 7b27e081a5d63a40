package memory

import (
	"context"
	"fmt"
	"sync"

	"qrpay/internal/entity"

	"github.com/google/uuid"
)

// LedgerRepository is append-only. Reads return entries in insertion order; ordering by
// timestamp is the caller's concern.
type LedgerRepository struct {
	mu      sync.RWMutex
	entries []*entity.Transaction
	ids     map[uuid.UUID]struct{}
}

func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{ids: make(map[uuid.UUID]struct{})}
}

func (r *LedgerRepository) Append(_ context.Context, txn *entity.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.appendLocked(txn)
}

func (r *LedgerRepository) appendLocked(txn *entity.Transaction) error {
	if _, exists := r.ids[txn.ID]; exists {
		return fmt.Errorf("memory.LedgerRepository.Append: %w", entity.ErrConflictingData)
	}
	cp := *txn
	r.entries = append(r.entries, &cp)
	r.ids[txn.ID] = struct{}{}
	return nil
}

func (r *LedgerRepository) ListFor(_ context.Context, identityID uuid.UUID) ([]*entity.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.Transaction, 0)
	for _, t := range r.entries {
		if t.Involves(identityID) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *LedgerRepository) ListAll(_ context.Context) ([]*entity.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.Transaction, 0, len(r.entries))
	for _, t := range r.entries {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}
