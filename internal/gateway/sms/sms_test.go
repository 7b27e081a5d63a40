package sms_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"qrpay/internal/entity"
	"qrpay/internal/gateway/sms"
	"qrpay/pkg/logger"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	reply   []byte
	err     error
	subject string
	sent    map[string]any
}

func (f *fakeConn) RequestWithContext(_ context.Context, subj string, data []byte) (*nats.Msg, error) {
	f.subject = subj
	_ = json.Unmarshal(data, &f.sent)
	if f.err != nil {
		return nil, f.err
	}
	return &nats.Msg{Data: f.reply}, nil
}

func TestNATSRelay_Send(t *testing.T) {
	testCases := []struct {
		desc    string
		conn    *fakeConn
		wantErr bool
	}{
		{"Acknowledged", &fakeConn{reply: []byte(`{"status":"sent"}`)}, false},
		{"NoResponders", &fakeConn{err: nats.ErrNoResponders}, true},
		{"Rejected", &fakeConn{reply: []byte(`{"status":"failed","error":"invalid number"}`)}, true},
		{"Garbage", &fakeConn{reply: []byte(`not json`)}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			relay := sms.NewNATSRelay(tc.conn, "sms.outbound", time.Second, logger.NewNop())
			err := relay.Send(context.Background(), "+15551234567", "Your code is 0420")

			require.Equal(t, "sms.outbound", tc.conn.subject)
			require.Equal(t, "+15551234567", tc.conn.sent["to"])
			if tc.wantErr {
				require.ErrorIs(t, err, entity.ErrDeliveryFailed)
				return
			}
			require.NoError(t, err)
		})
	}
}
