package memory

import (
	"context"
	"fmt"
	"sync"

	"qrpay/internal/entity"

	"github.com/google/uuid"
)

// CustomerRepository keeps customers in creation order so contact lookups resolve to the
// earliest match.
type CustomerRepository struct {
	mu        sync.RWMutex
	customers []*entity.Customer
	index     map[uuid.UUID]int
}

func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{index: make(map[uuid.UUID]int)}
}

func (r *CustomerRepository) Create(_ context.Context, customer *entity.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[customer.ID]; exists {
		return fmt.Errorf("memory.CustomerRepository.Create: %w", entity.ErrConflictingData)
	}
	r.index[customer.ID] = len(r.customers)
	r.customers = append(r.customers, customer.Clone())
	return nil
}

func (r *CustomerRepository) GetByID(_ context.Context, id uuid.UUID) (*entity.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[id]
	if !ok {
		return nil, fmt.Errorf("memory.CustomerRepository.GetByID: %w", entity.ErrDataNotFound)
	}
	return r.customers[i].Clone(), nil
}

func (r *CustomerRepository) FindByContact(_ context.Context, phone, email string) (*entity.Customer, error) {
	lookup := entity.CustomerLookup{Phone: phone, Email: email}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.customers {
		if c.Matches(lookup) {
			return c.Clone(), nil
		}
	}
	return nil, fmt.Errorf("memory.CustomerRepository.FindByContact: %w", entity.ErrDataNotFound)
}

// UpdateInstruments applies mutate to a copy under the write lock and stores the result
// only when mutate succeeds.
func (r *CustomerRepository) UpdateInstruments(
	_ context.Context,
	customerID uuid.UUID,
	mutate func(customer *entity.Customer) error,
) (*entity.Customer, error) {
	const op = "memory.CustomerRepository.UpdateInstruments"

	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[customerID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrDataNotFound)
	}

	working := r.customers[i].Clone()
	if err := mutate(working); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	r.customers[i] = working
	return working.Clone(), nil
}
