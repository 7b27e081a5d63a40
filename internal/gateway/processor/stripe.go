package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qrpay/internal/entity"
	"qrpay/pkg/logger"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

const (
	_allowRedirectsNever = "never"
	_cardMethodType      = "card"
)

// Stripe implements card charging and billing profiles on the Stripe API.
type Stripe struct {
	api *client.API
	log logger.Logger
}

func NewStripe(secretKey string, log logger.Logger, opts ...Option) *Stripe {
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}
	return &Stripe{
		api: client.New(secretKey, s.backends),
		log: log,
	}
}

func (s *Stripe) Charge(ctx context.Context, req entity.ChargeRequest) (*entity.ChargeResult, error) {
	const op = "gateway.processor.Charge"

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.AmountMinor),
		Currency:      stripe.String(req.Currency),
		PaymentMethod: stripe.String(req.MethodRef),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String(_allowRedirectsNever),
		},
	}
	params.Context = ctx
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if req.CustomerRef != "" {
		params.Customer = stripe.String(req.CustomerRef)
	}
	if req.OffSession {
		params.OffSession = stripe.Bool(true)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	start := time.Now()
	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		s.log.LogAttrs(ctx, logger.ErrorLevel, "card charge failed",
			logger.String("op", op),
			logger.Int64("amount_minor", req.AmountMinor),
			logger.String("currency", req.Currency),
			logger.Duration("duration", time.Since(start)),
			logger.Err(err),
		)
		return nil, fmt.Errorf("%s: %w", op, mapError(err, entity.ErrExternalService))
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, fmt.Errorf("%s: %w", op,
			entity.NewExternalError(entity.ErrChargeDeclined, "payment status "+string(pi.Status)))
	}

	return &entity.ChargeResult{ExternalID: pi.ID, Status: string(pi.Status)}, nil
}

func (s *Stripe) CreateProfile(ctx context.Context, lookup entity.CustomerLookup) (string, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	if lookup.Email != "" {
		params.Email = stripe.String(lookup.Email)
	}
	if lookup.Phone != "" {
		params.Phone = stripe.String(lookup.Phone)
	}
	if lookup.Name != "" {
		params.Name = stripe.String(lookup.Name)
	}

	c, err := s.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("gateway.processor.CreateProfile: %w", mapError(err, entity.ErrBillingUnavailable))
	}
	return c.ID, nil
}

func (s *Stripe) AttachMethod(ctx context.Context, profileID, methodRef string) (*entity.Instrument, error) {
	params := &stripe.PaymentMethodAttachParams{Customer: stripe.String(profileID)}
	params.Context = ctx

	pm, err := s.api.PaymentMethods.Attach(methodRef, params)
	if err != nil {
		return nil, fmt.Errorf("gateway.processor.AttachMethod: %w", mapError(err, entity.ErrBillingUnavailable))
	}
	return toInstrument(pm), nil
}

func (s *Stripe) SetDefault(ctx context.Context, profileID, methodRef string) error {
	params := &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(methodRef),
		},
	}
	params.Context = ctx

	if _, err := s.api.Customers.Update(profileID, params); err != nil {
		return fmt.Errorf("gateway.processor.SetDefault: %w", mapError(err, entity.ErrBillingUnavailable))
	}
	return nil
}

func (s *Stripe) ListMethods(ctx context.Context, profileID string) ([]*entity.Instrument, error) {
	params := &stripe.PaymentMethodListParams{
		Customer: stripe.String(profileID),
		Type:     stripe.String(_cardMethodType),
	}
	params.Context = ctx

	var out []*entity.Instrument
	it := s.api.PaymentMethods.List(params)
	for it.Next() {
		out = append(out, toInstrument(it.PaymentMethod()))
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("gateway.processor.ListMethods: %w", mapError(err, entity.ErrBillingUnavailable))
	}
	return out, nil
}

func (s *Stripe) DetachMethod(ctx context.Context, methodRef string) error {
	params := &stripe.PaymentMethodDetachParams{}
	params.Context = ctx

	if _, err := s.api.PaymentMethods.Detach(methodRef, params); err != nil {
		return fmt.Errorf("gateway.processor.DetachMethod: %w", mapError(err, entity.ErrBillingUnavailable))
	}
	return nil
}

func toInstrument(pm *stripe.PaymentMethod) *entity.Instrument {
	in := &entity.Instrument{ID: pm.ID, AddedAt: time.Unix(pm.Created, 0).UTC()}
	if pm.Card != nil {
		in.Brand = string(pm.Card.Brand)
		in.Last4 = pm.Card.Last4
		in.ExpMonth = int(pm.Card.ExpMonth)
		in.ExpYear = int(pm.Card.ExpYear)
	}
	return in
}

// mapError turns a Stripe API error into a domain error. Card errors carry the processor's
// message since it is written for the card holder.
func mapError(err error, kind error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return entity.NewExternalError(kind, "")
	}

	switch stripeErr.Type {
	case stripe.ErrorTypeCard:
		return entity.NewExternalError(entity.ErrChargeDeclined, stripeErr.Msg)
	case stripe.ErrorTypeInvalidRequest:
		if stripeErr.HTTPStatusCode == 404 {
			return entity.NewExternalError(entity.ErrInstrumentNotFound, stripeErr.Msg)
		}
		return entity.NewExternalError(kind, stripeErr.Msg)
	default:
		return entity.NewExternalError(kind, "")
	}
}
