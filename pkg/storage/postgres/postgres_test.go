package postgres_test

import (
	"testing"

	"qrpay/internal/config"
	"qrpay/pkg/storage/postgres"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	testCases := []struct {
		desc     string
		input    config.Postgres
		expected string
	}{
		{
			desc: "Plain",
			input: config.Postgres{
				Host: "db", Port: "5432", Name: "qrpay", User: "app", Password: "secret", SSLMode: "disable",
			},
			expected: "postgres://app:secret@db:5432/qrpay?sslmode=disable",
		},
		{
			desc: "EscapesPassword",
			input: config.Postgres{
				Host: "db", Port: "5432", Name: "qrpay", User: "app", Password: "p@ss/word", SSLMode: "require",
			},
			expected: "postgres://app:p%40ss%2Fword@db:5432/qrpay?sslmode=require",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, postgres.DSN(&tc.input))
		})
	}
}
