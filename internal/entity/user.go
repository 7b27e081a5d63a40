package entity

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"       validate:"required,max=100"`
	Phone      string    `json:"phone"      validate:"required,min=4,max=20"`
	PaymentURL string    `json:"paymentUrl"`
	QRCode     string    `json:"qrCode"`
	CreatedAt  time.Time `json:"createdAt"`
}
