package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"qrpay/internal/entity"
	"qrpay/internal/repository/memory"
	"qrpay/internal/service"
	mock_service "qrpay/internal/service/mock"
	"qrpay/pkg/cache"
	"qrpay/pkg/lock"
	"qrpay/pkg/logger"
	"qrpay/pkg/metric"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	_testFrontendURL = "https://pay.example.com"
	_testQR          = "data:image/png;base64,iVBORw0KGgo="
)

type testClock struct {
	mu  sync.RWMutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	clock     *testClock
	processor *mock_service.MockCardProcessor
	billing   *mock_service.MockBillingProfiles
	ledgerDB  *memory.LedgerRepository
	otpStore  *memory.OTPStore
	metrics   metric.Factory

	identity *service.IdentityService
	sessions *service.SessionService
	otp      *service.OTPService
	ledger   *service.LedgerService
	payments *service.PaymentService
}

type fixtureOptions struct {
	sms          service.SMSSender
	publisher    service.EventPublisher
	production   bool
	otpStore     service.OTPStore
	otpRetention time.Duration
}

func newFixture(t *testing.T, ctrl *gomock.Controller, configure ...func(*fixtureOptions)) *fixture {
	t.Helper()

	var fo fixtureOptions
	for _, c := range configure {
		c(&fo)
	}

	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	opts := []service.Option{service.WithClock(clock.Now)}
	log := logger.NewNop()
	metrics := metric.NewFactory()

	qr := mock_service.NewMockQRRenderer(ctrl)
	qr.EXPECT().Render(gomock.Any(), gomock.Any()).Return(_testQR, nil).AnyTimes()

	vendorCache, err := cache.NewLRUCache[uuid.UUID, *entity.Vendor]("vendors", 16, log, metrics.Cache())
	require.NoError(t, err)
	userCache, err := cache.NewLRUCache[uuid.UUID, *entity.User]("users", 16, log, metrics.Cache())
	require.NoError(t, err)

	ledgerDB := memory.NewLedgerRepository()
	otpStore := memory.NewOTPStore()
	processor := mock_service.NewMockCardProcessor(ctrl)
	billing := mock_service.NewMockBillingProfiles(ctrl)
	locator := service.NewLocator(_testFrontendURL+"/", qr)

	identity := service.NewIdentityService(
		memory.NewVendorRepository(),
		memory.NewUserRepository(),
		memory.NewCustomerRepository(),
		billing,
		locator,
		vendorCache,
		userCache,
		service.IdentityConfig{BcryptCost: bcrypt.MinCost, CacheTTL: time.Minute},
		log,
		opts...,
	)

	sessions := service.NewSessionService(
		identity,
		memory.NewRevocationStore(),
		service.SessionConfig{
			Secret: []byte("0123456789abcdef0123456789abcdef"),
			Issuer: "qrpay-test",
			TTL:    7 * 24 * time.Hour,
		},
		log,
		opts...,
	)

	var codes service.OTPStore = otpStore
	if fo.otpStore != nil {
		codes = fo.otpStore
	}

	otp := service.NewOTPService(
		codes,
		fo.sms,
		metrics.Payments(),
		service.OTPConfig{
			TTL:        10 * time.Minute,
			Digits:     4,
			Retention:  fo.otpRetention,
			Production: fo.production,
		},
		log,
		opts...,
	)

	ledger := service.NewLedgerService(ledgerDB, fo.publisher, metrics.Payments(), log)

	payments := service.NewPaymentService(
		memory.NewPaymentRepository(ledgerDB),
		memory.NewTransferRepository(ledgerDB),
		identity,
		ledger,
		otp,
		processor,
		lock.NewMemory(),
		locator,
		metrics.Payments(),
		service.PaymentConfig{
			FeeRate:    decimal.RequireFromString("0.01"),
			PaymentTTL: 15 * time.Minute,
			LockTTL:    30 * time.Second,
			Currency:   entity.CurrencyUSD,
		},
		log,
		opts...,
	)

	return &fixture{
		clock:     clock,
		processor: processor,
		billing:   billing,
		ledgerDB:  ledgerDB,
		otpStore:  otpStore,
		metrics:   metrics,
		identity:  identity,
		sessions:  sessions,
		otp:       otp,
		ledger:    ledger,
		payments:  payments,
	}
}

func (f *fixture) registerVendor(t *testing.T) *entity.Vendor {
	t.Helper()

	vendor, err := f.identity.RegisterVendor(context.Background(), entity.VendorRegistration{
		Name:         gofakeit.Name(),
		Email:        gofakeit.Email(),
		Password:     gofakeit.Password(true, true, true, false, false, 12),
		BusinessName: gofakeit.Company(),
	})
	require.NoError(t, err)
	return vendor
}

func (f *fixture) registerUser(t *testing.T) *entity.User {
	t.Helper()

	user, err := f.identity.RegisterUser(context.Background(), gofakeit.Name(), "+1555"+gofakeit.DigitN(7))
	require.NoError(t, err)
	return user
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
