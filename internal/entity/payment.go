package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentExpired   PaymentStatus = "expired"
)

func (s PaymentStatus) Final() bool {
	return s == PaymentCompleted || s == PaymentExpired
}

// Payment is an ephemeral QR payment request. VendorID is nil for platform-issued payments.
type Payment struct {
	ID          uuid.UUID       `json:"id"`
	VendorID    *uuid.UUID      `json:"vendorId,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description,omitempty"`
	Status      PaymentStatus   `json:"status"`
	Channel     Channel         `json:"channel,omitempty"`
	ChargeRef   string          `json:"chargeRef,omitempty"`
	PaymentURL  string          `json:"paymentUrl"`
	QRCode      string          `json:"qrCode"`
	CreatedAt   time.Time       `json:"createdAt"`
	ExpiresAt   time.Time       `json:"expiresAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

func (p *Payment) ExpiredAt(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

type PaymentRequest struct {
	VendorID    *uuid.UUID      `json:"-"`
	Amount      decimal.Decimal `json:"amount"      validate:"required"`
	Currency    string          `json:"currency"    validate:"omitempty,len=3,alpha"`
	Description string          `json:"description" validate:"max=500"`
}

// CardCharge is a request to charge a card for a vendor outside the Payment lifecycle.
type CardCharge struct {
	VendorID      uuid.UUID       `json:"-"`
	Amount        decimal.Decimal `json:"amount"          validate:"required"`
	Currency      string          `json:"currency"        validate:"omitempty,len=3,alpha"`
	Description   string          `json:"description"     validate:"max=500"`
	PaymentMethod string          `json:"paymentMethodId" validate:"required,max=255"`
}

type SavedCardCharge struct {
	VendorID      uuid.UUID       `json:"-"`
	CustomerID    uuid.UUID       `json:"customerId"      validate:"required"`
	PaymentMethod string          `json:"paymentMethodId" validate:"required,max=255"`
	Amount        decimal.Decimal `json:"amount"          validate:"required"`
	Currency      string          `json:"currency"        validate:"omitempty,len=3,alpha"`
	Description   string          `json:"description"     validate:"max=500"`
}

// WalletPayment targets either a vendor or a user by PayeeID.
type WalletPayment struct {
	PayeeID     uuid.UUID       `json:"-"`
	Amount      decimal.Decimal `json:"amount"      validate:"required"`
	Currency    string          `json:"currency"    validate:"omitempty,len=3,alpha"`
	Description string          `json:"description" validate:"max=500"`
	PayerName   string          `json:"payerName"   validate:"max=100"`
	PayerPhone  string          `json:"payerPhone"  validate:"omitempty,min=4,max=20"`
	Option      Channel         `json:"paymentOption" validate:"required"`
}

// WalletReceipt is the outcome of a wallet payment: the ledger entry plus the cash-out code dispatch.
type WalletReceipt struct {
	Transaction *Transaction `json:"transaction"`
	OTP         *OTPDispatch `json:"otp,omitempty"`
}
