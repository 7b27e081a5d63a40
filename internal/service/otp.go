package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"qrpay/internal/entity"
	"qrpay/pkg/logger"
	"qrpay/pkg/metric"
)

const (
	_defaultOTPRetention = 24 * time.Hour

	_otpResultVerified = "verified"
	_otpResultMissing  = "missing"
	_otpResultExpired  = "expired"
	_otpResultMismatch = "mismatch"
)

type OTPConfig struct {
	TTL    time.Duration
	Digits int
	// Retention is how long an issued code stays readable, so a late attempt reports
	// expiry instead of an unknown request. Zero means 24h.
	Retention  time.Duration
	Production bool
}

func (c OTPConfig) retention() time.Duration {
	if c.Retention <= 0 {
		return max(_defaultOTPRetention, c.TTL)
	}
	return max(c.Retention, c.TTL)
}

// OTPService issues single-use numeric codes keyed by phone. A nil sender means no SMS
// transport is configured.
type OTPService struct {
	store   OTPStore
	sender  SMSSender
	metrics metric.Payments
	cfg     OTPConfig
	log     logger.Logger
	opts    options
}

func NewOTPService(
	store OTPStore,
	sender SMSSender,
	metrics metric.Payments,
	cfg OTPConfig,
	log logger.Logger,
	opts ...Option,
) *OTPService {
	return &OTPService{
		store:   store,
		sender:  sender,
		metrics: metrics,
		cfg:     cfg,
		log:     log,
		opts:    newOptions(opts),
	}
}

// Issue stores a fresh code for phone, replacing any earlier one, and tries to deliver it.
// A delivery failure is reported through the dispatch, never as an error.
func (s *OTPService) Issue(ctx context.Context, phone, purpose string) (*entity.OTPDispatch, error) {
	const op = "service.IssueOTP"
	log := s.log.Ctx(ctx)

	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, fmt.Errorf("%s: phone is required: %w", op, entity.ErrInvalidData)
	}

	code, err := s.generateCode()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.opts.now()
	record := &entity.OTPRecord{
		Phone:     phone,
		Code:      code,
		Purpose:   purpose,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.TTL),
	}
	if err = s.store.Put(ctx, record, s.cfg.retention()); err != nil {
		return nil, fmt.Errorf("%s: store code: %w", op, err)
	}

	dispatch := &entity.OTPDispatch{PhoneMasked: entity.MaskPhone(phone)}

	switch {
	case s.sender == nil:
		if !s.cfg.Production {
			dispatch.TestCode = code
		}
	default:
		body := fmt.Sprintf("Your QRPay verification code is %s. It expires in %d minutes.",
			code, int(s.cfg.TTL.Minutes()))
		if sendErr := s.sender.Send(ctx, phone, body); sendErr != nil {
			log.LogAttrs(ctx, logger.ErrorLevel, "verification code delivery failed",
				logger.String("op", op),
				logger.String("phone", dispatch.PhoneMasked),
				logger.Err(sendErr),
			)
		} else {
			dispatch.Sent = true
		}
	}

	s.metrics.OTPIssued(purpose, dispatch.Sent)

	log.LogAttrs(ctx, logger.InfoLevel, "verification code issued",
		logger.String("op", op),
		logger.String("phone", dispatch.PhoneMasked),
		logger.String("purpose", purpose),
		logger.Bool("sent", dispatch.Sent),
	)

	return dispatch, nil
}

// Verify consumes the code on success. An expired record is purged before reporting.
func (s *OTPService) Verify(ctx context.Context, phone, code string) error {
	const op = "service.VerifyOTP"

	phone = strings.TrimSpace(phone)

	record, err := s.store.Get(ctx, phone)
	if err != nil {
		if errors.Is(err, entity.ErrDataNotFound) {
			s.metrics.OTPVerified(_otpResultMissing)
			return fmt.Errorf("%s: %w", op, entity.ErrOTPNoSuchRequest)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if s.opts.now().After(record.ExpiresAt) {
		if err = s.store.Delete(ctx, phone); err != nil {
			return fmt.Errorf("%s: purge expired: %w", op, err)
		}
		s.metrics.OTPVerified(_otpResultExpired)
		return fmt.Errorf("%s: %w", op, entity.ErrOTPExpired)
	}

	if subtle.ConstantTimeCompare([]byte(record.Code), []byte(strings.TrimSpace(code))) != 1 {
		s.metrics.OTPVerified(_otpResultMismatch)
		return fmt.Errorf("%s: %w", op, entity.ErrOTPMismatch)
	}

	if err = s.store.Delete(ctx, phone); err != nil {
		return fmt.Errorf("%s: consume code: %w", op, err)
	}
	s.metrics.OTPVerified(_otpResultVerified)
	return nil
}

func (s *OTPService) generateCode() (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(s.cfg.Digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", s.cfg.Digits, n.Int64()), nil
}
