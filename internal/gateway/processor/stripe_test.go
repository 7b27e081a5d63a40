package processor_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"qrpay/internal/entity"
	"qrpay/internal/gateway/processor"
	"qrpay/pkg/logger"

	"github.com/stretchr/testify/require"
)

func newStripe(t *testing.T, handler http.HandlerFunc) *processor.Stripe {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return processor.NewStripe("sk_test_123", logger.NewNop(), processor.WithBaseURL(srv.URL))
}

func TestStripe_Charge(t *testing.T) {
	testCases := []struct {
		desc      string
		status    int
		body      string
		wantRef   string
		wantErrIs error
		wantMsg   string
	}{
		{
			desc:    "Succeeded",
			status:  http.StatusOK,
			body:    `{"id":"pi_123","object":"payment_intent","status":"succeeded"}`,
			wantRef: "pi_123",
		},
		{
			desc:      "CardDeclined",
			status:    http.StatusPaymentRequired,
			body:      `{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`,
			wantErrIs: entity.ErrChargeDeclined,
			wantMsg:   "Your card was declined.",
		},
		{
			desc:      "RequiresAction",
			status:    http.StatusOK,
			body:      `{"id":"pi_456","object":"payment_intent","status":"requires_action"}`,
			wantErrIs: entity.ErrChargeDeclined,
			wantMsg:   "requires_action",
		},
		{
			desc:      "ProcessorOutage",
			status:    http.StatusInternalServerError,
			body:      `{"error":{"type":"api_error","message":"internal"}}`,
			wantErrIs: entity.ErrExternalService,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			var (
				form    map[string][]string
				idemKey string
			)
			s := newStripe(t, func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/v1/payment_intents", r.URL.Path)
				require.NoError(t, r.ParseForm())
				form = r.PostForm
				idemKey = r.Header.Get("Idempotency-Key")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			res, err := s.Charge(context.Background(), entity.ChargeRequest{
				AmountMinor: 1050,
				Currency:    "usd",
				MethodRef:   "pm_card_visa",
				Description: "coffee",
				Metadata:    map[string]string{"vendorId": "v1"},

				IdempotencyKey: "payment:2f1c",
			})

			require.Equal(t, "1050", form["amount"][0])
			require.Equal(t, "true", form["confirm"][0])
			require.Equal(t, "never", form["automatic_payment_methods[allow_redirects]"][0])
			require.Equal(t, "v1", form["metadata[vendorId]"][0])
			require.Equal(t, "payment:2f1c", idemKey)

			if tc.wantErrIs != nil {
				require.ErrorIs(t, err, tc.wantErrIs)
				require.Contains(t, err.Error(), tc.wantMsg)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantRef, res.ExternalID)
		})
	}
}

func TestStripe_AttachMethod(t *testing.T) {
	s := newStripe(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payment_methods/pm_1/attach", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "cus_1", r.PostForm.Get("customer"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pm_1","object":"payment_method","created":1700000000,
			"card":{"brand":"visa","last4":"4242","exp_month":12,"exp_year":2030}}`))
	})

	in, err := s.AttachMethod(context.Background(), "cus_1", "pm_1")
	require.NoError(t, err)
	require.Equal(t, "pm_1", in.ID)
	require.Equal(t, "visa", in.Brand)
	require.Equal(t, "4242", in.Last4)
	require.Equal(t, 12, in.ExpMonth)
	require.Equal(t, 2030, in.ExpYear)
}

func TestStripe_ListMethods(t *testing.T) {
	s := newStripe(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payment_methods", r.URL.Path)
		require.Equal(t, "cus_1", r.URL.Query().Get("customer"))
		require.Equal(t, "card", r.URL.Query().Get("type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","url":"/v1/payment_methods","has_more":false,"data":[
			{"id":"pm_1","object":"payment_method","created":1700000000,"card":{"brand":"visa","last4":"4242","exp_month":1,"exp_year":2031}},
			{"id":"pm_2","object":"payment_method","created":1700000100,"card":{"brand":"mastercard","last4":"4444","exp_month":2,"exp_year":2032}}]}`))
	})

	methods, err := s.ListMethods(context.Background(), "cus_1")
	require.NoError(t, err)
	require.Len(t, methods, 2)
	require.Equal(t, "pm_1", methods[0].ID)
	require.Equal(t, "mastercard", methods[1].Brand)
	require.Equal(t, 2032, methods[1].ExpYear)
}

func TestDisabled(t *testing.T) {
	_, err := processor.Disabled{}.Charge(context.Background(), entity.ChargeRequest{})
	require.ErrorIs(t, err, entity.ErrProcessorDisabled)
	require.ErrorIs(t, err, entity.ErrExternalService)

	_, err = processor.Disabled{}.ListMethods(context.Background(), "cus_1")
	require.ErrorIs(t, err, entity.ErrProcessorDisabled)
}
