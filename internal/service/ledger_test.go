package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"qrpay/internal/entity"
	mock_service "qrpay/internal/service/mock"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ledgerEntry(vendorID *uuid.UUID, gross string, fee *string, at time.Time) *entity.Transaction {
	txn := &entity.Transaction{
		ID:        uuid.New(),
		Kind:      entity.KindPayment,
		VendorID:  vendorID,
		Amount:    amount(gross),
		Currency:  entity.CurrencyUSD,
		Status:    entity.TransactionCompleted,
		CreatedAt: at,
	}
	if fee != nil {
		f := amount(*fee)
		txn.PlatformFee = decimal.NewNullDecimal(f)
		txn.VendorAmount = decimal.NewNullDecimal(txn.Amount.Sub(f))
	}
	return txn
}

func TestLedgerService_ListOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl)

	vendor := uuid.New()
	other := uuid.New()
	base := f.clock.Now()

	oldest := ledgerEntry(&vendor, "1", nil, base)
	newest := ledgerEntry(&vendor, "3", nil, base.Add(2*time.Minute))
	middle := ledgerEntry(&vendor, "2", nil, base.Add(time.Minute))
	foreign := ledgerEntry(&other, "9", nil, base.Add(3*time.Minute))

	for _, txn := range []*entity.Transaction{oldest, newest, middle, foreign} {
		require.NoError(t, f.ledger.Append(ctx, txn))
	}

	got, err := f.ledger.ListFor(ctx, vendor)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []uuid.UUID{newest.ID, middle.ID, oldest.ID}, []uuid.UUID{got[0].ID, got[1].ID, got[2].ID})

	all, err := f.ledger.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, foreign.ID, all[0].ID)
}

func TestLedgerService_AggregateRevenue(t *testing.T) {
	ctx := context.Background()

	fee := func(s string) *string { return &s }

	testCases := []struct {
		desc     string
		entries  []*entity.Transaction
		expected entity.RevenueSummary
	}{
		{
			desc: "Empty ledger",
			expected: entity.RevenueSummary{
				GrossTotal:       decimal.Zero,
				VendorNetTotal:   decimal.Zero,
				PlatformFeeTotal: decimal.Zero,
			},
		},
		{
			desc: "Legacy entries count as zero fee",
			entries: []*entity.Transaction{
				ledgerEntry(nil, "10.00", fee("0.10"), time.Now()),
				ledgerEntry(nil, "5.00", nil, time.Now()),
				ledgerEntry(nil, "0.50", fee("0.01"), time.Now()),
			},
			expected: entity.RevenueSummary{
				Count:            3,
				GrossTotal:       amount("15.50"),
				VendorNetTotal:   amount("10.39"),
				PlatformFeeTotal: amount("0.11"),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			f := newFixture(t, ctrl)

			for _, txn := range tc.entries {
				require.NoError(t, f.ledger.Append(ctx, txn))
			}

			got, err := f.ledger.AggregateRevenue(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.expected.Count, got.Count)
			assert.True(t, tc.expected.GrossTotal.Equal(got.GrossTotal), got.GrossTotal.String())
			assert.True(t, tc.expected.VendorNetTotal.Equal(got.VendorNetTotal), got.VendorNetTotal.String())
			assert.True(t, tc.expected.PlatformFeeTotal.Equal(got.PlatformFeeTotal), got.PlatformFeeTotal.String())
		})
	}
}

func TestLedgerService_PublishFailureKeepsEntry(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	publisher := mock_service.NewMockEventPublisher(ctrl)
	f := newFixture(t, ctrl, func(o *fixtureOptions) { o.publisher = publisher })

	txn := ledgerEntry(nil, "4.20", nil, time.Now())
	publisher.EXPECT().PublishTransaction(gomock.Any(), txn).Return(errors.New("broker down"))

	require.NoError(t, f.ledger.Append(ctx, txn))

	all, err := f.ledger.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, txn.ID, all[0].ID)
}

func TestLedgerService_CompletedChargeIsPublished(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	publisher := mock_service.NewMockEventPublisher(ctrl)
	f := newFixture(t, ctrl, func(o *fixtureOptions) { o.publisher = publisher })

	payment, err := f.payments.CreatePayment(ctx, entity.PaymentRequest{Amount: amount("8")})
	require.NoError(t, err)

	f.processor.EXPECT().Charge(gomock.Any(), gomock.Any()).Return(&entity.ChargeResult{ExternalID: "pi_1"}, nil)
	publisher.EXPECT().
		PublishTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, txn *entity.Transaction) error {
			assert.Equal(t, payment.ID, *txn.PaymentID)
			return nil
		})

	_, err = f.payments.ChargeCard(ctx, payment.ID, "pm_ok")
	require.NoError(t, err)
}
