package httpt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"qrpay/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		desc     string
		input    error
		expected int
		message  string
	}{
		{
			desc:     "ValidationDetail",
			input:    fmt.Errorf("service.RegisterVendor: %w: Email failed on 'email'", entity.ErrInvalidData),
			expected: http.StatusBadRequest,
			message:  "Invalid request data: Email failed on 'email'",
		},
		{"InvalidAmount", fmt.Errorf("op: %w", entity.ErrInvalidAmount), http.StatusBadRequest, "Invalid amount"},
		{"OTPMismatch", entity.ErrOTPMismatch, http.StatusBadRequest, "Verification code does not match"},
		{"Credentials", fmt.Errorf("op: %w", entity.ErrInvalidCredentials), http.StatusUnauthorized, "Invalid credentials"},
		{
			desc:     "DeclinedWithProcessorMessage",
			input:    fmt.Errorf("op: %w", entity.NewExternalError(entity.ErrChargeDeclined, "insufficient funds")),
			expected: http.StatusPaymentRequired,
			message:  "Payment declined: insufficient funds",
		},
		{"VendorMissing", fmt.Errorf("op: %w", entity.ErrVendorNotFound), http.StatusNotFound, "Vendor not found"},
		{"GenericMissing", entity.ErrDataNotFound, http.StatusNotFound, "Not found"},
		{"Duplicate", fmt.Errorf("op: %w", entity.ErrDuplicateEmail), http.StatusConflict, "Email already registered"},
		{"Locked", entity.ErrPaymentLocked, http.StatusConflict, "Payment is being processed"},
		{"Expired", fmt.Errorf("op: %w", entity.ErrPaymentExpired), http.StatusGone, "Payment expired"},
		{"OTPExpired", entity.ErrOTPExpired, http.StatusGone, "Verification code expired"},
		{"ProcessorDisabled", entity.ErrProcessorDisabled, http.StatusBadGateway, "Payment provider unavailable"},
		{"Timeout", fmt.Errorf("op: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "Request timed out"},
		{"Unknown", errors.New("boom"), http.StatusInternalServerError, "Internal service error"},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			status, message := classify(tc.input)
			assert.Equal(t, tc.expected, status)
			assert.Equal(t, tc.message, message)
		})
	}
}
