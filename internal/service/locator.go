package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	_vendorPath  = "/pay-vendor/"
	_userPath    = "/pay-user/"
	_paymentPath = "/pay/"
)

// Locator mints the public URLs payers open and renders them as QR images.
type Locator struct {
	baseURL  string
	renderer QRRenderer
}

func NewLocator(frontendURL string, renderer QRRenderer) *Locator {
	return &Locator{
		baseURL:  strings.TrimRight(frontendURL, "/"),
		renderer: renderer,
	}
}

func (l *Locator) VendorURL(id uuid.UUID) string {
	return l.baseURL + _vendorPath + id.String()
}

func (l *Locator) UserURL(id uuid.UUID) string {
	return l.baseURL + _userPath + id.String()
}

func (l *Locator) PaymentURL(id uuid.UUID) string {
	return l.baseURL + _paymentPath + id.String()
}

// Render returns url unchanged together with its QR image.
func (l *Locator) Render(ctx context.Context, url string) (string, string, error) {
	qr, err := l.renderer.Render(ctx, url)
	if err != nil {
		return "", "", fmt.Errorf("service.Locator.Render: %w", err)
	}
	return url, qr, nil
}
