package service_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"qrpay/internal/entity"
	"qrpay/internal/service"
	mock_service "qrpay/internal/service/mock"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentService_CreatePayment(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		desc     string
		amount   string
		vendor   bool
		expected error
	}{
		{desc: "Vendor payment", amount: "10.00", vendor: true},
		{desc: "Platform payment", amount: "0.01"},
		{desc: "Zero amount", amount: "0", expected: entity.ErrInvalidAmount},
		{desc: "Negative amount", amount: "-5", expected: entity.ErrInvalidAmount},
		{desc: "Sub-cent amount", amount: "1.005", expected: entity.ErrInvalidAmount},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			f := newFixture(t, ctrl)

			req := entity.PaymentRequest{Amount: amount(tc.amount), Currency: "USD"}
			if tc.vendor {
				v := f.registerVendor(t)
				req.VendorID = &v.ID
			}

			payment, err := f.payments.CreatePayment(ctx, req)
			if tc.expected != nil {
				require.ErrorIs(t, err, tc.expected)
				require.ErrorIs(t, err, entity.ErrInvalidData)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, entity.PaymentPending, payment.Status)
			assert.Equal(t, "usd", payment.Currency)
			assert.Equal(t, payment.CreatedAt.Add(15*time.Minute), payment.ExpiresAt)
			assert.Equal(t, _testFrontendURL+"/pay/"+payment.ID.String(), payment.PaymentURL)
			assert.Equal(t, _testQR, payment.QRCode)
		})
	}
}

func TestPaymentService_CreatePayment_UnknownVendor(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl)

	id := uuid.New()
	_, err := f.payments.CreatePayment(context.Background(), entity.PaymentRequest{
		VendorID: &id,
		Amount:   amount("5"),
	})
	require.ErrorIs(t, err, entity.ErrVendorNotFound)
}

func TestPaymentService_ChargeCard_DeclinedThenSucceeds(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl)

	vendor := f.registerVendor(t)
	payment, err := f.payments.CreatePayment(ctx, entity.PaymentRequest{
		VendorID: &vendor.ID,
		Amount:   amount("10.00"),
		Currency: "usd",
	})
	require.NoError(t, err)

	f.processor.EXPECT().
		Charge(gomock.Any(), gomock.Any()).
		Return(nil, entity.NewExternalError(entity.ErrChargeDeclined, "insufficient funds"))

	_, err = f.payments.ChargeCard(ctx, payment.ID, "pm_declined")
	require.ErrorIs(t, err, entity.ErrChargeDeclined)

	pending, err := f.payments.GetPayment(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPending, pending.Status)

	f.processor.EXPECT().
		Charge(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req entity.ChargeRequest) (*entity.ChargeResult, error) {
			assert.Equal(t, int64(1000), req.AmountMinor)
			assert.Equal(t, "pm_ok", req.MethodRef)
			assert.Equal(t, payment.ID.String(), req.Metadata["payment_id"])
			return &entity.ChargeResult{ExternalID: "pi_123", Status: "succeeded"}, nil
		})

	completed, err := f.payments.ChargeCard(ctx, payment.ID, "pm_ok")
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentCompleted, completed.Status)
	assert.Equal(t, "pi_123", completed.ChargeRef)
	require.NotNil(t, completed.CompletedAt)

	txns, err := f.ledger.ListFor(ctx, vendor.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.True(t, txns[0].PlatformFee.Decimal.Equal(amount("0.10")))
	assert.True(t, txns[0].VendorAmount.Decimal.Equal(amount("9.90")))
	assert.Equal(t, payment.ID, *txns[0].PaymentID)

	_, err = f.payments.ChargeCard(ctx, payment.ID, "pm_ok")
	require.ErrorIs(t, err, entity.ErrAlreadyFinalized)
}

func TestPaymentService_ChargeCard_IdempotencyKey(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl)

	first, err := f.payments.CreatePayment(ctx, entity.PaymentRequest{Amount: amount("5")})
	require.NoError(t, err)
	second, err := f.payments.CreatePayment(ctx, entity.PaymentRequest{Amount: amount("5")})
	require.NoError(t, err)

	var keys []string
	f.processor.EXPECT().
		Charge(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req entity.ChargeRequest) (*entity.ChargeResult, error) {
			keys = append(keys, req.IdempotencyKey)
			return nil, entity.NewExternalError(entity.ErrBillingUnavailable, "timeout")
		}).
		Times(4)

	testCases := []struct {
		desc      string
		paymentID uuid.UUID
		methodRef string
	}{
		{desc: "First attempt", paymentID: first.ID, methodRef: "pm_1"},
		{desc: "Retry with same card", paymentID: first.ID, methodRef: "pm_1"},
		{desc: "Other card", paymentID: first.ID, methodRef: "pm_2"},
		{desc: "Other payment", paymentID: second.ID, methodRef: "pm_1"},
	}
	for _, tc := range testCases {
		_, err = f.payments.ChargeCard(ctx, tc.paymentID, tc.methodRef)
		require.ErrorIs(t, err, entity.ErrExternalService, tc.desc)
	}

	require.Len(t, keys, 4)
	for _, key := range keys {
		assert.NotEmpty(t, key)
	}
	assert.Equal(t, keys[0], keys[1])
	assert.NotEqual(t, keys[0], keys[2])
	assert.NotEqual(t, keys[0], keys[3])
	assert.Contains(t, keys[0], first.ID.String())
}

func TestPaymentService_ChargeCard_AfterExpiry(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		desc  string
		polls int
	}{
		{desc: "Never polled", polls: 0},
		{desc: "Polled before expiry", polls: 3},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			f := newFixture(t, ctrl)

			payment, err := f.payments.CreatePayment(ctx, entity.PaymentRequest{Amount: amount("3.50")})
			require.NoError(t, err)

			for range tc.polls {
				got, getErr := f.payments.GetPayment(ctx, payment.ID)
				require.NoError(t, getErr)
				require.Equal(t, entity.PaymentPending, got.Status)
			}

			f.clock.Advance(15*time.Minute + time.Second)

			_, err = f.payments.ChargeCard(ctx, payment.ID, "pm_ok")
			require.ErrorIs(t, err, entity.ErrPaymentExpired)

			got, err := f.payments.GetPayment(ctx, payment.ID)
			require.NoError(t, err)
			assert.Equal(t, entity.PaymentExpired, got.Status)

			_, err = f.payments.ChargeCard(ctx, payment.ID, "pm_ok")
			require.ErrorIs(t, err, entity.ErrPaymentExpired)
		})
	}
}

func TestPaymentService_GetPayment_ExpiresLazily(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl)

	payment, err := f.payments.CreatePayment(ctx, entity.PaymentRequest{Amount: amount("1")})
	require.NoError(t, err)

	f.clock.Advance(16 * time.Minute)

	got, err := f.payments.GetPayment(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentExpired, got.Status)

	_, err = f.payments.GetPayment(ctx, uuid.New())
	require.ErrorIs(t, err, entity.ErrPaymentNotFound)
}

func TestPaymentService_ChargeCard_ConcurrentAttemptsChargeOnce(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl)

	payment, err := f.payments.CreatePayment(ctx, entity.PaymentRequest{Amount: amount("20")})
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	f.processor.EXPECT().
		Charge(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, entity.ChargeRequest) (*entity.ChargeResult, error) {
			close(entered)
			<-release
			return &entity.ChargeResult{ExternalID: "pi_once", Status: "succeeded"}, nil
		}).
		Times(1)

	firstErr := make(chan error, 1)
	go func() {
		_, chargeErr := f.payments.ChargeCard(ctx, payment.ID, "pm_ok")
		firstErr <- chargeErr
	}()
	<-entered

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, chargeErr := f.payments.ChargeCard(ctx, payment.ID, "pm_ok")
			errs <- chargeErr
		}()
	}
	wg.Wait()
	close(errs)

	for chargeErr := range errs {
		require.ErrorIs(t, chargeErr, entity.ErrPaymentLocked)
	}

	close(release)
	require.NoError(t, <-firstErr)

	_, err = f.payments.ChargeCard(ctx, payment.ID, "pm_ok")
	require.ErrorIs(t, err, entity.ErrAlreadyFinalized)

	txns, err := f.ledger.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestPaymentService_ChargeCard_Validation(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl)

	_, err := f.payments.ChargeCard(ctx, uuid.New(), "")
	require.ErrorIs(t, err, entity.ErrInvalidData)

	_, err = f.payments.ChargeCard(ctx, uuid.New(), "pm_ok")
	require.ErrorIs(t, err, entity.ErrPaymentNotFound)
}

func TestPaymentService_CreateDirectVendorPayment(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		desc     string
		amount   string
		vendor   func(t *testing.T, f *fixture) uuid.UUID
		mocks    func(p *mock_service.MockCardProcessor)
		fee      string
		net      string
		expected error
	}{
		{
			desc:   "Success",
			amount: "12.50",
			vendor: func(t *testing.T, f *fixture) uuid.UUID { return f.registerVendor(t).ID },
			mocks: func(p *mock_service.MockCardProcessor) {
				p.EXPECT().
					Charge(gomock.Any(), gomock.Any()).
					Return(&entity.ChargeResult{ExternalID: "pi_1", Status: "succeeded"}, nil)
			},
			fee: "0.13",
			net: "12.37",
		},
		{
			desc:     "Unknown vendor",
			amount:   "1",
			vendor:   func(*testing.T, *fixture) uuid.UUID { return uuid.New() },
			mocks:    func(*mock_service.MockCardProcessor) {},
			expected: entity.ErrVendorNotFound,
		},
		{
			desc:     "Invalid amount",
			amount:   "0",
			vendor:   func(t *testing.T, f *fixture) uuid.UUID { return f.registerVendor(t).ID },
			mocks:    func(*mock_service.MockCardProcessor) {},
			expected: entity.ErrInvalidAmount,
		},
		{
			desc:   "Declined",
			amount: "1",
			vendor: func(t *testing.T, f *fixture) uuid.UUID { return f.registerVendor(t).ID },
			mocks: func(p *mock_service.MockCardProcessor) {
				p.EXPECT().Charge(gomock.Any(), gomock.Any()).Return(nil, entity.ErrChargeDeclined)
			},
			expected: entity.ErrChargeDeclined,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			f := newFixture(t, ctrl)
			tc.mocks(f.processor)

			txn, err := f.payments.CreateDirectVendorPayment(ctx, entity.CardCharge{
				VendorID:      tc.vendor(t, f),
				Amount:        amount(tc.amount),
				PaymentMethod: "pm_card_visa",
			})
			if tc.expected != nil {
				require.ErrorIs(t, err, tc.expected)
				all, listErr := f.ledger.ListAll(ctx)
				require.NoError(t, listErr)
				assert.Empty(t, all)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, entity.KindDirect, txn.Kind)
			assert.Equal(t, entity.ChannelCard, txn.Channel)
			assert.True(t, txn.PlatformFee.Decimal.Equal(amount(tc.fee)), txn.PlatformFee.Decimal.String())
			assert.True(t, txn.VendorAmount.Decimal.Equal(amount(tc.net)))
		})
	}
}

func TestPaymentService_ChargeWithSavedInstrument(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl)

	vendor := f.registerVendor(t)

	f.billing.EXPECT().CreateProfile(gomock.Any(), gomock.Any()).Return("cus_1", nil)
	customer, err := f.identity.ResolveOrCreateCustomer(ctx, entity.CustomerLookup{Phone: "+15550001", Name: "Bob"})
	require.NoError(t, err)

	f.billing.EXPECT().AttachMethod(gomock.Any(), "cus_1", "pm_1").Return(&entity.Instrument{ID: "pm_1"}, nil)
	_, err = f.identity.AddInstrument(ctx, customer.ID, "pm_1", false)
	require.NoError(t, err)

	f.processor.EXPECT().
		Charge(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req entity.ChargeRequest) (*entity.ChargeResult, error) {
			assert.True(t, req.OffSession)
			assert.Equal(t, "cus_1", req.CustomerRef)
			return &entity.ChargeResult{ExternalID: "pi_saved"}, nil
		})

	txn, err := f.payments.ChargeWithSavedInstrument(ctx, entity.SavedCardCharge{
		VendorID:      vendor.ID,
		CustomerID:    customer.ID,
		PaymentMethod: "pm_1",
		Amount:        amount("7.77"),
	})
	require.NoError(t, err)
	assert.Equal(t, customer.ID, *txn.CustomerID)
	assert.Equal(t, vendor.ID, *txn.VendorID)
	assert.True(t, txn.PlatformFee.Decimal.Add(txn.VendorAmount.Decimal).Equal(txn.Amount))

	byCustomer, err := f.ledger.ListFor(ctx, customer.ID)
	require.NoError(t, err)
	assert.Len(t, byCustomer, 1)

	rec := httptest.NewRecorder()
	f.metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `qrpay_payments_completed_total{channel="card"} 1`)

	_, err = f.payments.ChargeWithSavedInstrument(ctx, entity.SavedCardCharge{
		VendorID:      vendor.ID,
		CustomerID:    customer.ID,
		PaymentMethod: "pm_unknown",
		Amount:        amount("1"),
	})
	require.ErrorIs(t, err, entity.ErrInstrumentNotFound)

	_, err = f.payments.ChargeWithSavedInstrument(ctx, entity.SavedCardCharge{
		VendorID:      vendor.ID,
		CustomerID:    uuid.New(),
		PaymentMethod: "pm_1",
		Amount:        amount("1"),
	})
	require.ErrorIs(t, err, entity.ErrCustomerNotFound)
}

func TestPaymentService_CreateWalletPayment(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		desc      string
		payee     func(t *testing.T, f *fixture) uuid.UUID
		option    entity.Channel
		phone     string
		withFee   bool
		expectOTP bool
		expected  error
	}{
		{
			desc:      "Vendor payee pays fee and gets code",
			payee:     func(t *testing.T, f *fixture) uuid.UUID { return f.registerVendor(t).ID },
			option:    entity.ChannelApplePay,
			phone:     "+15557654321",
			withFee:   true,
			expectOTP: true,
		},
		{
			desc:   "User payee pays no fee",
			payee:  func(t *testing.T, f *fixture) uuid.UUID { return f.registerUser(t).ID },
			option: entity.ChannelWalletBalance,
		},
		{
			desc:     "Unknown payee",
			payee:    func(*testing.T, *fixture) uuid.UUID { return uuid.New() },
			option:   entity.ChannelWalletBalance,
			expected: entity.ErrDataNotFound,
		},
		{
			desc:     "Card is not a wallet option",
			payee:    func(t *testing.T, f *fixture) uuid.UUID { return f.registerVendor(t).ID },
			option:   entity.ChannelCard,
			expected: entity.ErrInvalidChannel,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			f := newFixture(t, ctrl)

			receipt, err := f.payments.CreateWalletPayment(ctx, entity.WalletPayment{
				PayeeID:    tc.payee(t, f),
				Amount:     amount("25.00"),
				PayerName:  "Payer",
				PayerPhone: tc.phone,
				Option:     tc.option,
			})
			if tc.expected != nil {
				require.ErrorIs(t, err, tc.expected)
				return
			}

			require.NoError(t, err)
			txn := receipt.Transaction
			assert.Equal(t, entity.TransactionCompleted, txn.Status)
			assert.Equal(t, tc.option, txn.Channel)

			if tc.withFee {
				assert.True(t, txn.PlatformFee.Decimal.Equal(amount("0.25")))
				assert.True(t, txn.VendorAmount.Decimal.Equal(amount("24.75")))
			} else {
				assert.False(t, txn.PlatformFee.Valid)
				assert.False(t, txn.VendorAmount.Valid)
			}

			if tc.expectOTP {
				require.NotNil(t, receipt.OTP)
				assert.Equal(t, "********4321", receipt.OTP.PhoneMasked)
				require.NoError(t, f.otp.Verify(ctx, tc.phone, receipt.OTP.TestCode))
			} else {
				assert.Nil(t, receipt.OTP)
			}
		})
	}
}

func TestPaymentService_TransferToUser(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl)

	user := f.registerUser(t)

	transfer, err := f.payments.TransferToUser(ctx, entity.TransferRequest{
		UserID:      user.ID,
		Amount:      amount("40"),
		Note:        "rent",
		SenderName:  "Sam",
		SenderPhone: "+15550009999",
		Option:      entity.ChannelBankTransfer,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferCompleted, transfer.Status)
	assert.Equal(t, user.Name, transfer.UserName)
	require.NotNil(t, transfer.OTP)
	assert.Equal(t, "********9999", transfer.OTP.PhoneMasked)

	txns, err := f.ledger.ListFor(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, entity.KindTransfer, txns[0].Kind)
	assert.False(t, txns[0].PlatformFee.Valid)
	assert.False(t, txns[0].VendorAmount.Valid)

	_, err = f.payments.TransferToUser(ctx, entity.TransferRequest{
		UserID: uuid.New(),
		Amount: amount("1"),
		Option: entity.ChannelBankTransfer,
	})
	require.ErrorIs(t, err, entity.ErrUserNotFound)

	_, err = f.payments.TransferToUser(ctx, entity.TransferRequest{
		UserID: user.ID,
		Amount: amount("-1"),
		Option: entity.ChannelBankTransfer,
	})
	require.ErrorIs(t, err, entity.ErrInvalidAmount)
}

func TestSplitFee(t *testing.T) {
	rate := decimal.RequireFromString("0.01")

	testCases := []struct {
		desc   string
		amount string
		fee    string
		net    string
	}{
		{desc: "Ten dollars", amount: "10.00", fee: "0.10", net: "9.90"},
		{desc: "Rounds half up", amount: "0.50", fee: "0.01", net: "0.49"},
		{desc: "Rounds down", amount: "0.49", fee: "0.00", net: "0.49"},
		{desc: "One cent", amount: "0.01", fee: "0.00", net: "0.01"},
		{desc: "Large", amount: "123456.78", fee: "1234.57", net: "122222.21"},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			fee, net := service.SplitFee(amount(tc.amount), rate)
			assert.True(t, fee.Equal(amount(tc.fee)), "fee %s", fee)
			assert.True(t, net.Equal(amount(tc.net)), "net %s", net)
			assert.True(t, fee.Add(net).Equal(amount(tc.amount)))
		})
	}
}

func TestPaymentService_PaymentOptions(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl)

	opts := f.payments.PaymentOptions()
	ids := make([]entity.Channel, 0, len(opts))
	for _, o := range opts {
		ids = append(ids, o.ID)
	}
	assert.ElementsMatch(t, []entity.Channel{
		entity.ChannelWalletBalance,
		entity.ChannelBankTransfer,
		entity.ChannelApplePay,
		entity.ChannelGooglePay,
	}, ids)
}
