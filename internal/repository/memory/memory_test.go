package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"qrpay/internal/entity"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVendorRepository_EmailIsUniqueCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	repo := NewVendorRepository()

	email := gofakeit.Email()
	first := &entity.Vendor{ID: uuid.New(), Name: gofakeit.Name(), Email: email}
	require.NoError(t, repo.Create(ctx, first))

	dup := &entity.Vendor{ID: uuid.New(), Name: gofakeit.Name(), Email: strings.ToUpper(email)}
	err := repo.Create(ctx, dup)
	require.ErrorIs(t, err, entity.ErrConflictingData)

	got, err := repo.GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = repo.GetByID(ctx, dup.ID)
	require.ErrorIs(t, err, entity.ErrDataNotFound)
}

func TestVendorRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewVendorRepository()

	v := &entity.Vendor{ID: uuid.New(), Name: "A", Email: gofakeit.Email()}
	require.NoError(t, repo.Create(ctx, v))

	got, err := repo.GetByID(ctx, v.ID)
	require.NoError(t, err)
	got.Name = "changed"

	again, err := repo.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", again.Name)
}

func TestCustomerRepository_FindByContact(t *testing.T) {
	ctx := context.Background()
	repo := NewCustomerRepository()

	byPhone := &entity.Customer{ID: uuid.New(), Phone: "+15550001", CreatedAt: time.Now()}
	byEmail := &entity.Customer{ID: uuid.New(), Email: "pay@x.com", CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, byPhone))
	require.NoError(t, repo.Create(ctx, byEmail))

	tests := []struct {
		desc     string
		phone    string
		email    string
		expected uuid.UUID
		err      error
	}{
		{desc: "phone match", phone: "+15550001", expected: byPhone.ID},
		{desc: "email match", email: "pay@x.com", expected: byEmail.ID},
		{desc: "first match wins", phone: "+15550001", email: "pay@x.com", expected: byPhone.ID},
		{desc: "no match", phone: "+19999999", err: entity.ErrDataNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := repo.FindByContact(ctx, tc.phone, tc.email)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got.ID)
		})
	}
}

func TestCustomerRepository_UpdateInstruments(t *testing.T) {
	ctx := context.Background()
	repo := NewCustomerRepository()

	c := &entity.Customer{ID: uuid.New(), Phone: "+15550001"}
	require.NoError(t, repo.Create(ctx, c))

	updated, err := repo.UpdateInstruments(ctx, c.ID, func(customer *entity.Customer) error {
		customer.AddInstrument(&entity.Instrument{ID: "pm_1", IsDefault: true})
		return nil
	})
	require.NoError(t, err)
	updated.Instruments[0].IsDefault = false

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Instruments, 1)
	assert.True(t, got.Instruments[0].IsDefault)

	_, err = repo.UpdateInstruments(ctx, c.ID, func(customer *entity.Customer) error {
		customer.RemoveInstrument("pm_1")
		return entity.ErrInstrumentNotFound
	})
	require.ErrorIs(t, err, entity.ErrInstrumentNotFound)

	got, err = repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Instruments, 1, "failed mutation must not be stored")

	_, err = repo.UpdateInstruments(ctx, uuid.New(), func(*entity.Customer) error { return nil })
	require.ErrorIs(t, err, entity.ErrDataNotFound)
}

func TestCustomerRepository_UpdateInstrumentsConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewCustomerRepository()

	c := &entity.Customer{ID: uuid.New(), Email: "c@x.com"}
	require.NoError(t, repo.Create(ctx, c))

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.UpdateInstruments(ctx, c.ID, func(customer *entity.Customer) error {
				customer.AddInstrument(&entity.Instrument{ID: fmt.Sprintf("pm_%d", i), IsDefault: true})
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Instruments, 8)

	defaults := 0
	for _, in := range got.Instruments {
		if in.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestPaymentRepository_CompleteIsCompareAndSet(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedgerRepository()
	repo := NewPaymentRepository(ledger)

	p := &entity.Payment{
		ID:     uuid.New(),
		Amount: decimal.RequireFromString("10.00"),
		Status: entity.PaymentPending,
	}
	require.NoError(t, repo.Create(ctx, p))

	done := *p
	done.Status = entity.PaymentCompleted
	txn := &entity.Transaction{ID: uuid.New(), PaymentID: &p.ID, Amount: p.Amount}
	require.NoError(t, repo.Complete(ctx, &done, txn))

	second := &entity.Transaction{ID: uuid.New(), PaymentID: &p.ID, Amount: p.Amount}
	err := repo.Complete(ctx, &done, second)
	require.ErrorIs(t, err, entity.ErrAlreadyFinalized)

	all, err := ledger.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	err = repo.Expire(ctx, p.ID)
	require.ErrorIs(t, err, entity.ErrAlreadyFinalized)
}

func TestPaymentRepository_Expire(t *testing.T) {
	ctx := context.Background()
	repo := NewPaymentRepository(NewLedgerRepository())

	p := &entity.Payment{ID: uuid.New(), Status: entity.PaymentPending}
	require.NoError(t, repo.Create(ctx, p))
	require.NoError(t, repo.Expire(ctx, p.ID))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentExpired, got.Status)

	err = repo.Expire(ctx, uuid.New())
	require.ErrorIs(t, err, entity.ErrDataNotFound)
}

func TestTransferRepository_CreateAppendsLedger(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedgerRepository()
	repo := NewTransferRepository(ledger)

	userID := uuid.New()
	tr := &entity.Transfer{ID: uuid.New(), UserID: userID, Status: entity.TransferCompleted}
	txn := &entity.Transaction{ID: uuid.New(), TransferID: &tr.ID, UserID: &userID}
	require.NoError(t, repo.Create(ctx, tr, txn))

	got, err := ledger.ListFor(ctx, userID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, tr.ID, *got[0].TransferID)

	err = repo.Create(ctx, tr, &entity.Transaction{ID: uuid.New()})
	require.ErrorIs(t, err, entity.ErrConflictingData)
}

func TestLedgerRepository_AppendRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedgerRepository()

	txn := &entity.Transaction{ID: uuid.New()}
	require.NoError(t, ledger.Append(ctx, txn))
	require.ErrorIs(t, ledger.Append(ctx, txn), entity.ErrConflictingData)
}

func TestOTPStore_Overwrites(t *testing.T) {
	ctx := context.Background()
	store := NewOTPStore()

	require.NoError(t, store.Put(ctx, &entity.OTPRecord{Phone: "+1555", Code: "1111"}, time.Minute))
	require.NoError(t, store.Put(ctx, &entity.OTPRecord{Phone: "+1555", Code: "2222"}, time.Minute))

	rec, err := store.Get(ctx, "+1555")
	require.NoError(t, err)
	assert.Equal(t, "2222", rec.Code)

	require.NoError(t, store.Delete(ctx, "+1555"))
	_, err = store.Get(ctx, "+1555")
	require.ErrorIs(t, err, entity.ErrDataNotFound)
}

func TestRevocationStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewRevocationStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Revoke(ctx, "jti-1", now.Add(time.Hour)))

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = store.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	now = now.Add(2 * time.Hour)
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}
