package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"qrpay/internal/entity"
	"qrpay/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type SessionConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

type VendorDirectory interface {
	GetVendor(ctx context.Context, id uuid.UUID) (*entity.Vendor, error)
	ResolveVendorByEmail(ctx context.Context, email string) (*entity.Vendor, error)
}

// SessionService issues signed, expiring vendor tokens. Logout adds the token id to a
// revocation set that lives until the token would have expired.
type SessionService struct {
	vendors     VendorDirectory
	revocations RevocationStore
	cfg         SessionConfig
	log         logger.Logger
	opts        options
}

type LoginResult struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	Vendor    *entity.Vendor `json:"vendor"`
}

func NewSessionService(
	vendors VendorDirectory,
	revocations RevocationStore,
	cfg SessionConfig,
	log logger.Logger,
	opts ...Option,
) *SessionService {
	return &SessionService{
		vendors:     vendors,
		revocations: revocations,
		cfg:         cfg,
		log:         log,
		opts:        newOptions(opts),
	}
}

// Login fails with the same error for an unknown email and a wrong credential.
func (s *SessionService) Login(ctx context.Context, email, credential string) (*LoginResult, error) {
	const op = "service.Login"
	log := s.log.Ctx(ctx)

	vendor, err := s.vendors.ResolveVendorByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, entity.ErrDataNotFound) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !VerifyCredential(credential, vendor.PasswordHash) {
		log.LogAttrs(ctx, logger.InfoLevel, "login rejected",
			logger.String("op", op),
			logger.String("vendor_id", vendor.ID.String()),
		)
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidCredentials)
	}

	token, expiresAt, err := s.issue(vendor.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt, Vendor: vendor}, nil
}

func (s *SessionService) IssueSession(_ context.Context, vendorID uuid.UUID) (string, error) {
	token, _, err := s.issue(vendorID)
	if err != nil {
		return "", fmt.Errorf("service.IssueSession: %w", err)
	}
	return token, nil
}

func (s *SessionService) issue(vendorID uuid.UUID) (string, time.Time, error) {
	now := s.opts.now()
	expiresAt := now.Add(s.cfg.TTL)

	claims := jwt.RegisteredClaims{
		Issuer:    s.cfg.Issuer,
		Subject:   vendorID.String(),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Authenticate resolves token to its vendor. Every failure is reported as ErrUnauthorized.
func (s *SessionService) Authenticate(ctx context.Context, token string) (*entity.Vendor, error) {
	const op = "service.Authenticate"

	claims, err := s.parse(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	vendorID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%s: bad subject: %w", op, entity.ErrUnauthorized)
	}

	vendor, err := s.vendors.GetVendor(ctx, vendorID)
	if err != nil {
		if errors.Is(err, entity.ErrDataNotFound) {
			return nil, fmt.Errorf("%s: vendor gone: %w", op, entity.ErrUnauthorized)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return vendor, nil
}

func (s *SessionService) Logout(ctx context.Context, token string) error {
	const op = "service.Logout"

	claims, err := s.parse(ctx, token)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("%s: revoke: %w", op, err)
	}

	s.log.Ctx(ctx).LogAttrs(ctx, logger.InfoLevel, "session revoked",
		logger.String("op", op),
		logger.String("vendor_id", claims.Subject),
	)
	return nil
}

func (s *SessionService) parse(ctx context.Context, token string) (*jwt.RegisteredClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("missing token: %w", entity.ErrUnauthorized)
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.cfg.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.opts.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %v: %w", err, entity.ErrUnauthorized)
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, entity.ErrSessionRevoked
	}
	return claims, nil
}
