package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"qrpay/internal/entity"
	"qrpay/pkg/cache"
	"qrpay/pkg/logger"

	"github.com/google/uuid"
)

type IdentityConfig struct {
	BcryptCost int
	CacheTTL   time.Duration
}

// IdentityService registers and resolves vendors, users and customers.
type IdentityService struct {
	vendors     VendorRepository
	users       UserRepository
	customers   CustomerRepository
	billing     BillingProfiles
	locator     *Locator
	vendorCache cache.Cache[uuid.UUID, *entity.Vendor]
	userCache   cache.Cache[uuid.UUID, *entity.User]
	cfg         IdentityConfig
	log         logger.Logger
	opts        options
}

func NewIdentityService(
	vendors VendorRepository,
	users UserRepository,
	customers CustomerRepository,
	billing BillingProfiles,
	locator *Locator,
	vendorCache cache.Cache[uuid.UUID, *entity.Vendor],
	userCache cache.Cache[uuid.UUID, *entity.User],
	cfg IdentityConfig,
	log logger.Logger,
	opts ...Option,
) *IdentityService {
	return &IdentityService{
		vendors:     vendors,
		users:       users,
		customers:   customers,
		billing:     billing,
		locator:     locator,
		vendorCache: vendorCache,
		userCache:   userCache,
		cfg:         cfg,
		log:         log,
		opts:        newOptions(opts),
	}
}

func (s *IdentityService) RegisterVendor(
	ctx context.Context,
	reg entity.VendorRegistration,
) (*entity.Vendor, error) {
	const op = "service.RegisterVendor"
	log := s.log.Ctx(ctx)
	start := time.Now()
	defer warnIfSlow(ctx, log, op, start)

	reg.Email = strings.TrimSpace(reg.Email)
	if err := validateStruct(reg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err := s.vendors.GetByEmail(ctx, reg.Email)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%s: %w", op, entity.ErrDuplicateEmail)
	case !errors.Is(err, entity.ErrDataNotFound):
		return nil, fmt.Errorf("%s: lookup email: %w", op, err)
	}

	hash, err := HashCredential(reg.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id := uuid.New()
	url, qr, err := s.locator.Render(ctx, s.locator.VendorURL(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	vendor := &entity.Vendor{
		ID:           id,
		Name:         reg.Name,
		Email:        reg.Email,
		BusinessName: reg.BusinessName,
		PasswordHash: hash,
		PaymentURL:   url,
		QRCode:       qr,
		CreatedAt:    s.opts.now().UTC(),
	}

	if err = s.vendors.Create(ctx, vendor); err != nil {
		// a concurrent registration may have won the email between lookup and insert
		if errors.Is(err, entity.ErrConflictingData) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrDuplicateEmail)
		}
		return nil, fmt.Errorf("%s: create vendor: %w", op, err)
	}

	s.vendorCache.Put(vendor.ID, vendor, s.cfg.CacheTTL)

	log.LogAttrs(ctx, logger.InfoLevel, "vendor registered",
		logger.String("op", op),
		logger.String("vendor_id", vendor.ID.String()),
	)

	return vendor, nil
}

// ResolveVendorByEmail returns entity.ErrVendorNotFound when no vendor owns email.
func (s *IdentityService) ResolveVendorByEmail(ctx context.Context, email string) (*entity.Vendor, error) {
	const op = "service.ResolveVendorByEmail"

	vendor, err := s.vendors.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, entity.ErrDataNotFound) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrVendorNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return vendor, nil
}

func (s *IdentityService) GetVendor(ctx context.Context, id uuid.UUID) (*entity.Vendor, error) {
	const op = "service.GetVendor"

	if cached, ok := s.vendorCache.Get(id); ok {
		cp := *cached
		return &cp, nil
	}

	ctx, cancel := context.WithTimeout(ctx, _defaultContextTimeout)
	defer cancel()

	vendor, err := s.vendors.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, entity.ErrDataNotFound) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrVendorNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.vendorCache.Put(id, vendor, s.cfg.CacheTTL)
	cp := *vendor
	return &cp, nil
}

// RegisterUser does not enforce phone uniqueness: one person may hold several payee codes.
func (s *IdentityService) RegisterUser(ctx context.Context, name, phone string) (*entity.User, error) {
	const op = "service.RegisterUser"
	log := s.log.Ctx(ctx)

	id := uuid.New()
	user := &entity.User{
		ID:    id,
		Name:  strings.TrimSpace(name),
		Phone: strings.TrimSpace(phone),
	}
	if err := validateStruct(user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	url, qr, err := s.locator.Render(ctx, s.locator.UserURL(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user.PaymentURL = url
	user.QRCode = qr
	user.CreatedAt = s.opts.now().UTC()

	if err = s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: create user: %w", op, err)
	}

	s.userCache.Put(user.ID, user, s.cfg.CacheTTL)

	log.LogAttrs(ctx, logger.InfoLevel, "user registered",
		logger.String("op", op),
		logger.String("user_id", user.ID.String()),
		logger.String("phone", entity.MaskPhone(user.Phone)),
	)

	return user, nil
}

func (s *IdentityService) ResolveUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	const op = "service.ResolveUser"

	if cached, ok := s.userCache.Get(id); ok {
		cp := *cached
		return &cp, nil
	}

	ctx, cancel := context.WithTimeout(ctx, _defaultContextTimeout)
	defer cancel()

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, entity.ErrDataNotFound) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.userCache.Put(id, user, s.cfg.CacheTTL)
	cp := *user
	return &cp, nil
}

// ResolveOrCreateCustomer returns the earliest customer sharing a phone or email with lookup,
// creating one with a fresh billing profile when nobody matches.
func (s *IdentityService) ResolveOrCreateCustomer(
	ctx context.Context,
	lookup entity.CustomerLookup,
) (*entity.Customer, error) {
	const op = "service.ResolveOrCreateCustomer"
	log := s.log.Ctx(ctx)
	start := time.Now()
	defer warnIfSlow(ctx, log, op, start)

	lookup.Phone = strings.TrimSpace(lookup.Phone)
	lookup.Email = strings.TrimSpace(lookup.Email)
	if lookup.Empty() {
		return nil, fmt.Errorf("%s: phone or email is required: %w", op, entity.ErrInvalidData)
	}
	if err := validateStruct(lookup); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	existing, err := s.customers.FindByContact(ctx, lookup.Phone, lookup.Email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, entity.ErrDataNotFound) {
		return nil, fmt.Errorf("%s: find customer: %w", op, err)
	}

	profileID, err := s.billing.CreateProfile(ctx, lookup)
	if err != nil {
		log.LogAttrs(ctx, logger.ErrorLevel, "billing profile creation failed",
			logger.String("op", op),
			logger.Err(err),
		)
		return nil, fmt.Errorf("%s: create billing profile: %w", op, err)
	}

	customer := &entity.Customer{
		ID:               uuid.New(),
		Phone:            lookup.Phone,
		Email:            lookup.Email,
		Name:             lookup.Name,
		BillingProfileID: profileID,
		Instruments:      []*entity.Instrument{},
		CreatedAt:        s.opts.now().UTC(),
	}

	if err = s.customers.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("%s: create customer: %w", op, err)
	}

	log.LogAttrs(ctx, logger.InfoLevel, "customer created",
		logger.String("op", op),
		logger.String("customer_id", customer.ID.String()),
	)

	return customer, nil
}

func (s *IdentityService) GetCustomer(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	const op = "service.GetCustomer"

	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, entity.ErrDataNotFound) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrCustomerNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return customer, nil
}

// AddInstrument attaches methodRef to the customer's billing profile and records it locally.
// Making it the default clears the flag on every other saved instrument.
func (s *IdentityService) AddInstrument(
	ctx context.Context,
	customerID uuid.UUID,
	methodRef string,
	setDefault bool,
) (*entity.Instrument, error) {
	const op = "service.AddInstrument"
	log := s.log.Ctx(ctx)

	methodRef = strings.TrimSpace(methodRef)
	if methodRef == "" {
		return nil, fmt.Errorf("%s: payment method is required: %w", op, entity.ErrInvalidData)
	}

	customer, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	instrument, err := s.billing.AttachMethod(ctx, customer.BillingProfileID, methodRef)
	if err != nil {
		log.LogAttrs(ctx, logger.ErrorLevel, "attach payment method failed",
			logger.String("op", op),
			logger.String("customer_id", customerID.String()),
			logger.Err(err),
		)
		return nil, fmt.Errorf("%s: attach method: %w", op, err)
	}

	if setDefault {
		if err = s.billing.SetDefault(ctx, customer.BillingProfileID, instrument.ID); err != nil {
			return nil, fmt.Errorf("%s: set default: %w", op, err)
		}
	}

	instrument.IsDefault = setDefault
	instrument.AddedAt = s.opts.now().UTC()

	_, err = s.customers.UpdateInstruments(ctx, customerID, func(c *entity.Customer) error {
		saved := *instrument
		c.AddInstrument(&saved)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: save instruments: %w", op, err)
	}

	log.LogAttrs(ctx, logger.InfoLevel, "payment method saved",
		logger.String("op", op),
		logger.String("customer_id", customerID.String()),
		logger.Bool("default", setDefault),
	)

	return instrument, nil
}

// RemoveInstrument detaches one of the customer's own saved instruments.
// Unknown ids, including ids saved by another customer, never reach the processor.
func (s *IdentityService) RemoveInstrument(ctx context.Context, customerID uuid.UUID, instrumentID string) error {
	const op = "service.RemoveInstrument"

	customer, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, ok := customer.Instrument(instrumentID); !ok {
		return fmt.Errorf("%s: %w", op, entity.ErrInstrumentNotFound)
	}

	if err = s.billing.DetachMethod(ctx, instrumentID); err != nil {
		return fmt.Errorf("%s: detach method: %w", op, err)
	}

	_, err = s.customers.UpdateInstruments(ctx, customerID, func(c *entity.Customer) error {
		c.RemoveInstrument(instrumentID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: save instruments: %w", op, err)
	}
	return nil
}

// SyncInstruments replaces the local instrument list with the methods attached at the processor.
// Known instruments keep their default flag and AddedAt.
func (s *IdentityService) SyncInstruments(ctx context.Context, customerID uuid.UUID) ([]*entity.Instrument, error) {
	const op = "service.SyncInstruments"

	customer, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	remote, err := s.billing.ListMethods(ctx, customer.BillingProfileID)
	if err != nil {
		return nil, fmt.Errorf("%s: list methods: %w", op, err)
	}

	now := s.opts.now().UTC()
	updated, err := s.customers.UpdateInstruments(ctx, customerID, func(c *entity.Customer) error {
		synced := make([]*entity.Instrument, 0, len(remote))
		for _, r := range remote {
			in := *r
			in.IsDefault = false
			if local, ok := c.Instrument(in.ID); ok {
				in.IsDefault = local.IsDefault
				in.AddedAt = local.AddedAt
			}
			if in.AddedAt.IsZero() {
				in.AddedAt = now
			}
			synced = append(synced, &in)
		}
		c.Instruments = synced
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: save instruments: %w", op, err)
	}

	s.log.Ctx(ctx).LogAttrs(ctx, logger.InfoLevel, "payment methods synced",
		logger.String("op", op),
		logger.String("customer_id", customerID.String()),
		logger.Int("count", len(updated.Instruments)),
	)
	return updated.Instruments, nil
}

func (s *IdentityService) ListInstruments(ctx context.Context, customerID uuid.UUID) ([]*entity.Instrument, error) {
	customer, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("service.ListInstruments: %w", err)
	}
	return customer.Instruments, nil
}
