package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"qrpay/internal/entity"
	httpt "qrpay/internal/transport/http"
	kafkat "qrpay/internal/transport/kafka"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type E2ETestSuite struct {
	suite.Suite

	kafkaReader *kafka.Reader
	httpClient  *http.Client
	baseURL     string
}

func (s *E2ETestSuite) SetupSuite() {
	s.baseURL = "http://" + net.JoinHostPort(
		getEnvOrDefault("APP_HOST", "localhost"),
		getEnvOrDefault("APP_PORT", "8080"),
	)
	s.httpClient = &http.Client{
		Timeout: 10 * time.Second,
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		s.kafkaReader = kafka.NewReader(kafka.ReaderConfig{
			Brokers:     strings.Split(brokers, ","),
			Topic:       getEnvOrDefault("KAFKA_TOPIC", "ledger.transactions"),
			GroupID:     "e2e-" + uuid.NewString(),
			StartOffset: kafka.FirstOffset,
		})
	}

	s.waitForApp()
}

func (s *E2ETestSuite) waitForApp() {
	const maxRetries = 30
	const retryDelay = 2 * time.Second
	healthURL := s.baseURL + "/health"

	for i := range maxRetries {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, healthURL, nil)
		if err != nil {
			s.T().Logf("Failed to create health check request: %v", err)
			time.Sleep(retryDelay)
			continue
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			s.T().Logf("Health check failed (attempt %d/%d): %v", i+1, maxRetries, err)
			time.Sleep(retryDelay)
			continue
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			s.T().Log("App is healthy")
			return
		}
		s.T().Logf("App health check status %d (attempt %d/%d)", resp.StatusCode, i+1, maxRetries)
		time.Sleep(retryDelay)
	}
	s.T().Fatalf("App did not become healthy after %d attempts", maxRetries)
}

func (s *E2ETestSuite) TearDownSuite() {
	if s.kafkaReader != nil {
		s.kafkaReader.Close()
	}
}

func (s *E2ETestSuite) call(method, path, token string, body any, out any) int {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.T(), json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequestWithContext(context.Background(), method, s.baseURL+path, &buf)
	require.NoError(s.T(), err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)
	s.T().Logf("%s %s -> %d %s", method, path, resp.StatusCode, raw)

	if out != nil {
		require.NoError(s.T(), json.Unmarshal(raw, out), "Failed to unmarshal response body: %s", raw)
	}
	return resp.StatusCode
}

func (s *E2ETestSuite) TestVendorWalletFlow() {
	reg := entity.VendorRegistration{
		Name:         gofakeit.Name(),
		Email:        gofakeit.Email(),
		Password:     gofakeit.Password(true, true, true, false, false, 12),
		BusinessName: gofakeit.Company(),
	}

	var registered httpt.SessionResponse
	require.Equal(s.T(), http.StatusOK, s.call(http.MethodPost, "/api/vendor/register", "", reg, &registered))
	vendorID := registered.Vendor.ID

	var session httpt.SessionResponse
	require.Equal(s.T(), http.StatusOK, s.call(http.MethodPost, "/api/vendor/login", "",
		httpt.LoginRequest{Email: reg.Email, Password: reg.Password}, &session))
	require.NotEmpty(s.T(), session.Token)

	var created httpt.PaymentResponse
	require.Equal(s.T(), http.StatusOK, s.call(http.MethodPost, "/api/payment/generate", session.Token,
		entity.PaymentRequest{Amount: decimal.RequireFromString("25.00"), Description: "e2e"}, &created))
	require.Equal(s.T(), entity.PaymentPending, created.Payment.Status)
	require.Equal(s.T(), vendorID, *created.Payment.VendorID)

	var fetched httpt.PaymentResponse
	require.Equal(s.T(), http.StatusOK, s.call(http.MethodGet, "/api/payment/"+created.Payment.ID.String(), "", nil, &fetched))
	require.Equal(s.T(), created.Payment.ID, fetched.Payment.ID)

	var paid httpt.TransactionResponse
	require.Equal(s.T(), http.StatusOK, s.call(http.MethodPost, "/api/wallet/"+vendorID.String()+"/payment", "",
		entity.WalletPayment{
			Amount:     decimal.RequireFromString("100"),
			PayerName:  gofakeit.Name(),
			PayerPhone: "+1555" + gofakeit.DigitN(7),
			Option:     entity.ChannelWalletBalance,
		}, &paid))
	require.Equal(s.T(), "1.00", paid.Transaction.PlatformFee.Decimal.StringFixed(2))
	require.NotNil(s.T(), paid.OTP)

	var history httpt.TransactionsResponse
	require.Equal(s.T(), http.StatusOK, s.call(http.MethodGet, "/api/transactions", session.Token, nil, &history))
	require.Len(s.T(), history.Transactions, 1)
	require.Equal(s.T(), paid.Transaction.ID, history.Transactions[0].ID)

	if s.kafkaReader != nil {
		s.requireLedgerEvent(paid.Transaction.ID)
	}

	require.Equal(s.T(), http.StatusOK, s.call(http.MethodPost, "/api/vendor/logout", session.Token, nil, nil))
	require.Equal(s.T(), http.StatusUnauthorized, s.call(http.MethodGet, "/api/vendor/profile", session.Token, nil, nil))
}

func (s *E2ETestSuite) requireLedgerEvent(txnID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for {
		msg, err := s.kafkaReader.ReadMessage(ctx)
		if errors.Is(err, context.DeadlineExceeded) {
			s.T().Fatalf("ledger event for %s was not published", txnID)
		}
		require.NoError(s.T(), err)

		var event kafkat.LedgerEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil || event.Transaction == nil {
			continue
		}
		if event.Transaction.ID == txnID {
			require.Equal(s.T(), kafkat.EventTransactionCompleted, event.Type)
			require.Equal(s.T(), *event.Transaction.VendorID, uuid.MustParse(string(msg.Key)))
			return
		}
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func TestE2E(t *testing.T) {
	if os.Getenv("E2E_TEST") == "" {
		t.Skip("Skipping E2E test; set E2E_TEST to run.")
	}
	suite.Run(t, new(E2ETestSuite))
}
