package transaction_test

import (
	"errors"
	"testing"

	"qrpay/internal/entity"
	"qrpay/pkg/storage/postgres/transaction"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestHandleError(t *testing.T) {
	plain := errors.New("boom")

	testCases := []struct {
		desc     string
		input    error
		expected error
	}{
		{"NoRows", pgx.ErrNoRows, entity.ErrDataNotFound},
		{"UniqueViolation", &pgconn.PgError{Code: "23505"}, entity.ErrConflictingData},
		{"CheckViolation", &pgconn.PgError{Code: "23514"}, entity.ErrInvalidData},
		{"DomainErrorPassesThrough", entity.ErrAlreadyFinalized, entity.ErrAlreadyFinalized},
		{"OtherErrorWrapped", plain, plain},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			err := transaction.HandleError("CompletePayment", "update payment", tc.input)
			assert.ErrorIs(t, err, tc.expected)
			assert.Contains(t, err.Error(), "CompletePayment: update payment")
		})
	}

	assert.NoError(t, transaction.HandleError("op", "step", nil))
}
