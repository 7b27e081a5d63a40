// nolint: revive,staticcheck
// swagger:meta
package httpt

import (
	"time"

	"qrpay/internal/entity"
)

// swagger:model ErrorResponse
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// swagger:model HealthResponse
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type LoginRequest struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

// swagger:model SessionResponse
type SessionResponse struct {
	Success   bool           `json:"success"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt,omitempty"`
	Vendor    *entity.Vendor `json:"vendor"`
}

// swagger:model VendorResponse
type VendorResponse struct {
	Success bool           `json:"success"`
	Vendor  *entity.Vendor `json:"vendor"`
}

// swagger:model PublicVendorResponse
type PublicVendorResponse struct {
	Success bool                 `json:"success"`
	Vendor  *entity.PublicVendor `json:"vendor"`
}

type UserRegistration struct {
	Name  string `json:"name"  binding:"required"`
	Phone string `json:"phone" binding:"required"`
}

// swagger:model UserResponse
type UserResponse struct {
	Success bool         `json:"success"`
	User    *entity.User `json:"user"`
}

// swagger:model PaymentResponse
type PaymentResponse struct {
	Success bool            `json:"success"`
	Payment *entity.Payment `json:"payment"`
}

type ProcessPaymentRequest struct {
	PaymentMethodID string `json:"paymentMethodId" binding:"required"`
}

// swagger:model PaymentOptionsResponse
type PaymentOptionsResponse struct {
	Success bool                   `json:"success"`
	Options []entity.PaymentOption `json:"options"`
}

// swagger:model TransactionResponse
type TransactionResponse struct {
	Success     bool                `json:"success"`
	Transaction *entity.Transaction `json:"transaction"`
	OTP         *entity.OTPDispatch `json:"otp,omitempty"`
}

// swagger:model TransactionsResponse
type TransactionsResponse struct {
	Success      bool                  `json:"success"`
	Transactions []*entity.Transaction `json:"transactions"`
}

// swagger:model RevenueResponse
type RevenueResponse struct {
	Success bool                   `json:"success"`
	Revenue *entity.RevenueSummary `json:"revenue"`
}

// swagger:model TransferResponse
type TransferResponse struct {
	Success  bool             `json:"success"`
	Transfer *entity.Transfer `json:"transfer"`
}

type OTPSendRequest struct {
	Phone   string `json:"phone"   binding:"required"`
	Purpose string `json:"purpose"`
}

type OTPVerifyRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code"  binding:"required"`
}

// swagger:model OTPResponse
type OTPResponse struct {
	Success bool                `json:"success"`
	OTP     *entity.OTPDispatch `json:"otp"`
}

// swagger:model VerifiedResponse
type VerifiedResponse struct {
	Success  bool `json:"success"`
	Verified bool `json:"verified"`
}

// swagger:model CustomerResponse
type CustomerResponse struct {
	Success  bool             `json:"success"`
	Customer *entity.Customer `json:"customer"`
}

type AddInstrumentRequest struct {
	PaymentMethodID string `json:"paymentMethodId" binding:"required"`
	SetDefault      bool   `json:"setDefault"`
}

// swagger:model InstrumentResponse
type InstrumentResponse struct {
	Success    bool               `json:"success"`
	Instrument *entity.Instrument `json:"paymentMethod"`
}

// swagger:model InstrumentsResponse
type InstrumentsResponse struct {
	Success     bool                 `json:"success"`
	Instruments []*entity.Instrument `json:"paymentMethods"`
}

// swagger:model SuccessResponse
type SuccessResponse struct {
	Success bool `json:"success"`
}
