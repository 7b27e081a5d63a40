// Package memory holds process-local repositories. They keep copies of what they are given so
// callers can never mutate stored state through a returned pointer.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"qrpay/internal/entity"

	"github.com/google/uuid"
)

type VendorRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*entity.Vendor
	byEmail map[string]uuid.UUID
}

func NewVendorRepository() *VendorRepository {
	return &VendorRepository{
		byID:    make(map[uuid.UUID]*entity.Vendor),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (r *VendorRepository) Create(_ context.Context, vendor *entity.Vendor) error {
	const op = "memory.VendorRepository.Create"

	key := strings.ToLower(vendor.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[key]; exists {
		return fmt.Errorf("%s: %w", op, entity.ErrConflictingData)
	}

	cp := *vendor
	r.byID[vendor.ID] = &cp
	r.byEmail[key] = vendor.ID

	return nil
}

func (r *VendorRepository) GetByID(_ context.Context, id uuid.UUID) (*entity.Vendor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("memory.VendorRepository.GetByID: %w", entity.ErrDataNotFound)
	}
	cp := *v
	return &cp, nil
}

func (r *VendorRepository) GetByEmail(_ context.Context, email string) (*entity.Vendor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("memory.VendorRepository.GetByEmail: %w", entity.ErrDataNotFound)
	}
	cp := *r.byID[id]
	return &cp, nil
}
