package httpt_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"qrpay/internal/entity"
	"qrpay/internal/repository/memory"
	"qrpay/internal/service"
	mock_service "qrpay/internal/service/mock"
	httpt "qrpay/internal/transport/http"
	"qrpay/pkg/cache"
	"qrpay/pkg/lock"
	"qrpay/pkg/logger"
	"qrpay/pkg/metric"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const _testQR = "data:image/png;base64,iVBORw0KGgo="

type harness struct {
	t         *testing.T
	router    *gin.Engine
	processor *mock_service.MockCardProcessor
	billing   *mock_service.MockBillingProfiles
}

func newHarness(t *testing.T, ctrl *gomock.Controller, opts ...httpt.HandlerOption) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewNop()
	metrics := metric.NewFactory()

	qr := mock_service.NewMockQRRenderer(ctrl)
	qr.EXPECT().Render(gomock.Any(), gomock.Any()).Return(_testQR, nil).AnyTimes()
	processor := mock_service.NewMockCardProcessor(ctrl)
	billing := mock_service.NewMockBillingProfiles(ctrl)

	vendorCache, err := cache.NewLRUCache[uuid.UUID, *entity.Vendor]("vendors", 16, log, metrics.Cache())
	require.NoError(t, err)
	userCache, err := cache.NewLRUCache[uuid.UUID, *entity.User]("users", 16, log, metrics.Cache())
	require.NoError(t, err)

	ledgerDB := memory.NewLedgerRepository()
	locator := service.NewLocator("https://pay.example.com", qr)

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
	)
	sessions := service.NewSessionService(
		identity,
		memory.NewRevocationStore(),
		service.SessionConfig{
			Secret: []byte("0123456789abcdef0123456789abcdef"),
			Issuer: "qrpay-test",
			TTL:    time.Hour,
		},
		log,
	)
	otp := service.NewOTPService(
		memory.NewOTPStore(),
		nil,
		metrics.Payments(),
		service.OTPConfig{TTL: 10 * time.Minute, Digits: 4},
		log,
	)
	ledger := service.NewLedgerService(ledgerDB, nil, metrics.Payments(), log)
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
	)

	handler := httpt.NewHandler(httpt.Services{
		Identity: identity,
		Sessions: sessions,
		OTP:      otp,
		Payments: payments,
		Ledger:   ledger,
	}, log, metrics.HTTP(), opts...)

	return &harness{t: t, router: handler.Engine(), processor: processor, billing: billing}
}

func (h *harness) do(method, path, token string, body any, headers map[string]string) *httptest.ResponseRecorder {
	h.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (h *harness) registerVendor() httpt.SessionResponse {
	h.t.Helper()

	rec := h.do(http.MethodPost, "/api/vendor/register", "", entity.VendorRegistration{
		Name:         gofakeit.Name(),
		Email:        gofakeit.Email(),
		Password:     "s3cret-pass",
		BusinessName: gofakeit.Company(),
	}, nil)
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[httpt.SessionResponse](h.t, rec)
}

func (h *harness) registerUser() *entity.User {
	h.t.Helper()

	rec := h.do(http.MethodPost, "/api/user/register", "", httpt.UserRegistration{
		Name:  gofakeit.Name(),
		Phone: "+1555" + gofakeit.DigitN(7),
	}, nil)
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[httpt.UserResponse](h.t, rec).User
}
