package service

import (
	"context"
	"time"

	"qrpay/internal/entity"

	"github.com/google/uuid"
)

//go:generate mockgen -source=interfaces.go -destination=mock/interfaces.go -package=mock_service

type (
	VendorRepository interface {
		Create(ctx context.Context, vendor *entity.Vendor) error
		GetByID(ctx context.Context, id uuid.UUID) (*entity.Vendor, error)
		GetByEmail(ctx context.Context, email string) (*entity.Vendor, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *entity.User) error
		GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	}

	CustomerRepository interface {
		Create(ctx context.Context, customer *entity.Customer) error
		GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error)
		// FindByContact returns the earliest created customer whose phone or email matches.
		FindByContact(ctx context.Context, phone, email string) (*entity.Customer, error)
		UpdateInstruments(
			ctx context.Context,
			customerID uuid.UUID,
			mutate func(customer *entity.Customer) error,
		) (*entity.Customer, error)
	}

	PaymentRepository interface {
		Create(ctx context.Context, payment *entity.Payment) error
		GetByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
		// Expire moves a pending payment to expired. It returns ErrAlreadyFinalized when the
		// payment left pending first.
		Expire(ctx context.Context, id uuid.UUID) error
		// Complete moves a pending payment to completed and appends txn to the ledger atomically.
		Complete(ctx context.Context, payment *entity.Payment, txn *entity.Transaction) error
	}

	TransferRepository interface {
		// Create stores the transfer and its ledger entry atomically.
		Create(ctx context.Context, transfer *entity.Transfer, txn *entity.Transaction) error
		GetByID(ctx context.Context, id uuid.UUID) (*entity.Transfer, error)
	}

	LedgerRepository interface {
		Append(ctx context.Context, txn *entity.Transaction) error
		ListFor(ctx context.Context, identityID uuid.UUID) ([]*entity.Transaction, error)
		ListAll(ctx context.Context) ([]*entity.Transaction, error)
	}

	OTPStore interface {
		// Put replaces any record for the same phone. retention bounds how long the record
		// may be kept around after it expires.
		Put(ctx context.Context, record *entity.OTPRecord, retention time.Duration) error
		Get(ctx context.Context, phone string) (*entity.OTPRecord, error)
		Delete(ctx context.Context, phone string) error
	}

	RevocationStore interface {
		Revoke(ctx context.Context, tokenID string, until time.Time) error
		IsRevoked(ctx context.Context, tokenID string) (bool, error)
	}
)

type (
	CardProcessor interface {
		Charge(ctx context.Context, req entity.ChargeRequest) (*entity.ChargeResult, error)
	}

	BillingProfiles interface {
		CreateProfile(ctx context.Context, lookup entity.CustomerLookup) (string, error)
		AttachMethod(ctx context.Context, profileID, methodRef string) (*entity.Instrument, error)
		SetDefault(ctx context.Context, profileID, methodRef string) error
		ListMethods(ctx context.Context, profileID string) ([]*entity.Instrument, error)
		DetachMethod(ctx context.Context, methodRef string) error
	}

	SMSSender interface {
		Send(ctx context.Context, phone, body string) error
	}

	QRRenderer interface {
		Render(ctx context.Context, content string) (string, error)
	}

	EventPublisher interface {
		PublishTransaction(ctx context.Context, txn *entity.Transaction) error
	}
)
