package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransferStatus string

const (
	TransferCompleted TransferStatus = "completed"
)

type Transfer struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"userId"`
	UserName    string          `json:"userName"`
	UserPhone   string          `json:"userPhone"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Note        string          `json:"note,omitempty"`
	SenderName  string          `json:"senderName,omitempty"`
	SenderPhone string          `json:"senderPhone,omitempty"`
	Status      TransferStatus  `json:"status"`
	Option      Channel         `json:"paymentOption"`
	OTP         *OTPDispatch    `json:"otp,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type TransferRequest struct {
	UserID      uuid.UUID       `json:"-"`
	Amount      decimal.Decimal `json:"amount"        validate:"required"`
	Currency    string          `json:"currency"      validate:"omitempty,len=3,alpha"`
	Note        string          `json:"note"          validate:"max=500"`
	SenderName  string          `json:"senderName"    validate:"max=100"`
	SenderPhone string          `json:"senderPhone"   validate:"omitempty,min=4,max=20"`
	Option      Channel         `json:"paymentOption" validate:"required"`
}
