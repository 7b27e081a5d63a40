package entity

import (
	"errors"
	"fmt"
)

var (
	ErrDataNotFound     = errors.New("data not found")
	ErrConflictingData  = errors.New("data conflicts with existing data in unique column")
	ErrInvalidData      = errors.New("invalid data")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrExternalService  = errors.New("external service failure")
	ErrConfigPathNotSet = errors.New("CONFIG_PATH not set and -config flag not provided")
)

var (
	ErrInvalidAmount  = fmt.Errorf("amount must be positive with at most two decimal places: %w", ErrInvalidData)
	ErrInvalidChannel = fmt.Errorf("unsupported payment option: %w", ErrInvalidData)

	ErrVendorNotFound     = fmt.Errorf("vendor not found: %w", ErrDataNotFound)
	ErrUserNotFound       = fmt.Errorf("user not found: %w", ErrDataNotFound)
	ErrCustomerNotFound   = fmt.Errorf("customer not found: %w", ErrDataNotFound)
	ErrPaymentNotFound    = fmt.Errorf("payment not found: %w", ErrDataNotFound)
	ErrInstrumentNotFound = fmt.Errorf("payment method not found: %w", ErrDataNotFound)

	ErrDuplicateEmail   = fmt.Errorf("email already registered: %w", ErrConflictingData)
	ErrAlreadyFinalized = fmt.Errorf("payment already finalized: %w", ErrConflictingData)
	ErrPaymentLocked    = fmt.Errorf("payment is being processed: %w", ErrConflictingData)
	ErrPaymentExpired   = errors.New("payment expired")

	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	ErrSessionRevoked     = fmt.Errorf("session revoked: %w", ErrUnauthorized)

	ErrChargeDeclined     = fmt.Errorf("charge declined: %w", ErrExternalService)
	ErrDeliveryFailed     = fmt.Errorf("sms delivery failed: %w", ErrExternalService)
	ErrProcessorDisabled  = fmt.Errorf("card processor not configured: %w", ErrExternalService)
	ErrBillingUnavailable = fmt.Errorf("billing profile call failed: %w", ErrExternalService)

	ErrOTPNoSuchRequest = errors.New("no verification code requested for this phone")
	ErrOTPExpired       = errors.New("verification code expired")
	ErrOTPMismatch      = errors.New("verification code does not match")
)

// ExternalError carries a message from an upstream capability that is safe to show to the caller.
type ExternalError struct {
	Kind    error
	Message string
}

func NewExternalError(kind error, message string) *ExternalError {
	return &ExternalError{Kind: kind, Message: message}
}

func (e *ExternalError) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Message)
}

func (e *ExternalError) Unwrap() error {
	return e.Kind
}
