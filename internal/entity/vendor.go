package entity

import (
	"time"

	"github.com/google/uuid"
)

type Vendor struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"         validate:"required,max=100"`
	Email        string    `json:"email"        validate:"required,email,max=254"`
	BusinessName string    `json:"businessName" validate:"required,max=200"`
	PasswordHash string    `json:"-"`
	PaymentURL   string    `json:"paymentUrl"`
	QRCode       string    `json:"qrCode"`
	CreatedAt    time.Time `json:"createdAt"`
}

type VendorRegistration struct {
	Name         string `json:"name"         validate:"required,max=100"`
	Email        string `json:"email"        validate:"required,email,max=254"`
	Password     string `json:"password"     validate:"required,min=2,max=72"`
	BusinessName string `json:"businessName" validate:"required,max=200"`
}

// PublicVendor is the view of a vendor shown to payers.
type PublicVendor struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	BusinessName string    `json:"businessName"`
	PaymentURL   string    `json:"paymentUrl"`
	QRCode       string    `json:"qrCode"`
}

func (v *Vendor) Public() *PublicVendor {
	return &PublicVendor{
		ID:           v.ID,
		Name:         v.Name,
		BusinessName: v.BusinessName,
		PaymentURL:   v.PaymentURL,
		QRCode:       v.QRCode,
	}
}
