package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "completed"
)

type TransactionKind string

const (
	KindPayment   TransactionKind = "payment"
	KindDirect    TransactionKind = "direct"
	KindSavedCard TransactionKind = "saved_card"
	KindWallet    TransactionKind = "wallet"
	KindTransfer  TransactionKind = "transfer"
)

// Transaction is an immutable ledger entry. VendorAmount and PlatformFee are null for
// peer transfers and for entries written before fees existed.
type Transaction struct {
	ID           uuid.UUID           `json:"id"`
	Kind         TransactionKind     `json:"kind"`
	PaymentID    *uuid.UUID          `json:"paymentId,omitempty"`
	TransferID   *uuid.UUID          `json:"transferId,omitempty"`
	VendorID     *uuid.UUID          `json:"vendorId,omitempty"`
	UserID       *uuid.UUID          `json:"userId,omitempty"`
	CustomerID   *uuid.UUID          `json:"customerId,omitempty"`
	Amount       decimal.Decimal     `json:"amount"`
	VendorAmount decimal.NullDecimal `json:"vendorAmount"`
	PlatformFee  decimal.NullDecimal `json:"platformFee"`
	Currency     string              `json:"currency"`
	Status       TransactionStatus   `json:"status"`
	Channel      Channel             `json:"channel"`
	Description  string              `json:"description,omitempty"`
	PayerName    string              `json:"payerName,omitempty"`
	PayerPhone   string              `json:"payerPhone,omitempty"`
	ChargeRef    string              `json:"chargeRef,omitempty"`
	CreatedAt    time.Time           `json:"timestamp"`
}

// Involves reports whether id is the vendor, user or customer on this entry.
func (t *Transaction) Involves(id uuid.UUID) bool {
	for _, ref := range []*uuid.UUID{t.VendorID, t.UserID, t.CustomerID} {
		if ref != nil && *ref == id {
			return true
		}
	}
	return false
}

type RevenueSummary struct {
	Count            int             `json:"count"`
	GrossTotal       decimal.Decimal `json:"grossTotal"`
	VendorNetTotal   decimal.Decimal `json:"vendorNetTotal"`
	PlatformFeeTotal decimal.Decimal `json:"platformFeeTotal"`
}
