package memory

import (
	"context"
	"fmt"
	"sync"

	"qrpay/internal/entity"

	"github.com/google/uuid"
)

// PaymentRepository shares the ledger's lock for Complete so the status change and the ledger
// append are observed together.
type PaymentRepository struct {
	mu       sync.RWMutex
	payments map[uuid.UUID]*entity.Payment
	ledger   *LedgerRepository
}

func NewPaymentRepository(ledger *LedgerRepository) *PaymentRepository {
	return &PaymentRepository{
		payments: make(map[uuid.UUID]*entity.Payment),
		ledger:   ledger,
	}
}

func (r *PaymentRepository) Create(_ context.Context, payment *entity.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.payments[payment.ID]; exists {
		return fmt.Errorf("memory.PaymentRepository.Create: %w", entity.ErrConflictingData)
	}
	r.payments[payment.ID] = clonePayment(payment)
	return nil
}

func (r *PaymentRepository) GetByID(_ context.Context, id uuid.UUID) (*entity.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.payments[id]
	if !ok {
		return nil, fmt.Errorf("memory.PaymentRepository.GetByID: %w", entity.ErrDataNotFound)
	}
	return clonePayment(p), nil
}

func (r *PaymentRepository) Expire(_ context.Context, id uuid.UUID) error {
	const op = "memory.PaymentRepository.Expire"

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, entity.ErrDataNotFound)
	}
	if p.Status != entity.PaymentPending {
		return fmt.Errorf("%s: %w", op, entity.ErrAlreadyFinalized)
	}
	p.Status = entity.PaymentExpired
	return nil
}

func (r *PaymentRepository) Complete(
	_ context.Context,
	payment *entity.Payment,
	txn *entity.Transaction,
) error {
	const op = "memory.PaymentRepository.Complete"

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.payments[payment.ID]
	if !ok {
		return fmt.Errorf("%s: %w", op, entity.ErrDataNotFound)
	}
	if stored.Status != entity.PaymentPending {
		return fmt.Errorf("%s: %w", op, entity.ErrAlreadyFinalized)
	}

	r.ledger.mu.Lock()
	err := r.ledger.appendLocked(txn)
	r.ledger.mu.Unlock()
	if err != nil {
		return fmt.Errorf("%s: append ledger: %w", op, err)
	}

	r.payments[payment.ID] = clonePayment(payment)
	return nil
}

func clonePayment(p *entity.Payment) *entity.Payment {
	cp := *p
	if p.VendorID != nil {
		id := *p.VendorID
		cp.VendorID = &id
	}
	if p.CompletedAt != nil {
		at := *p.CompletedAt
		cp.CompletedAt = &at
	}
	return &cp
}
