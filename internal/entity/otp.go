package entity

import (
	"strings"
	"time"
)

const (
	PurposeCashout      = "cashout"
	PurposeVerification = "verification"

	_visiblePhoneDigits = 4
	_maskChar           = "*"
)

type OTPRecord struct {
	Phone     string    `json:"phone"`
	Code      string    `json:"-"`
	Purpose   string    `json:"purpose"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// OTPDispatch reports the outcome of issuing a code. TestCode is only set outside production
// when no SMS transport is configured.
type OTPDispatch struct {
	Sent        bool   `json:"otpSent"`
	PhoneMasked string `json:"otpPhoneMasked"`
	TestCode    string `json:"otpTestCode,omitempty"`
}

// MaskPhone keeps the last four characters of phone; shorter numbers are fully masked.
func MaskPhone(phone string) string {
	if len(phone) <= _visiblePhoneDigits {
		return strings.Repeat(_maskChar, len(phone))
	}
	hidden := len(phone) - _visiblePhoneDigits
	return strings.Repeat(_maskChar, hidden) + phone[hidden:]
}
