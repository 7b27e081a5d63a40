package memory

import (
	"context"
	"fmt"
	"sync"

	"qrpay/internal/entity"

	"github.com/google/uuid"
)

type TransferRepository struct {
	mu        sync.RWMutex
	transfers map[uuid.UUID]*entity.Transfer
	ledger    *LedgerRepository
}

func NewTransferRepository(ledger *LedgerRepository) *TransferRepository {
	return &TransferRepository{
		transfers: make(map[uuid.UUID]*entity.Transfer),
		ledger:    ledger,
	}
}

func (r *TransferRepository) Create(
	_ context.Context,
	transfer *entity.Transfer,
	txn *entity.Transaction,
) error {
	const op = "memory.TransferRepository.Create"

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.transfers[transfer.ID]; exists {
		return fmt.Errorf("%s: %w", op, entity.ErrConflictingData)
	}

	r.ledger.mu.Lock()
	err := r.ledger.appendLocked(txn)
	r.ledger.mu.Unlock()
	if err != nil {
		return fmt.Errorf("%s: append ledger: %w", op, err)
	}

	cp := *transfer
	cp.OTP = nil
	r.transfers[transfer.ID] = &cp
	return nil
}

func (r *TransferRepository) GetByID(_ context.Context, id uuid.UUID) (*entity.Transfer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.transfers[id]
	if !ok {
		return nil, fmt.Errorf("memory.TransferRepository.GetByID: %w", entity.ErrDataNotFound)
	}
	cp := *t
	return &cp, nil
}
