package kafka_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"qrpay/pkg/kafka"
	"qrpay/pkg/logger"
	mock_metric "qrpay/pkg/metric/mock"

	"github.com/golang/mock/gomock"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type flakyWriter struct {
	failures int
	calls    int
	written  []kafkago.Message
}

func (w *flakyWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.calls++
	if w.calls <= w.failures {
		return errors.New("leader not available")
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *flakyWriter) Close() error { return nil }

func TestProducer_Send(t *testing.T) {
	testCases := []struct {
		desc     string
		failures int
		wantErr  bool
		mocks    func(m *mock_metric.MockPublisher)
	}{
		{
			desc:     "FirstAttempt",
			failures: 0,
			mocks: func(m *mock_metric.MockPublisher) {
				m.EXPECT().Published("ledger").Times(1)
				m.EXPECT().Retried("ledger", 1).Times(1)
			},
		},
		{
			desc:     "RecoversAfterRetries",
			failures: 2,
			mocks: func(m *mock_metric.MockPublisher) {
				m.EXPECT().Published("ledger").Times(1)
				m.EXPECT().Retried("ledger", 3).Times(1)
			},
		},
		{
			desc:     "GivesUp",
			failures: 10,
			wantErr:  true,
			mocks: func(m *mock_metric.MockPublisher) {
				m.EXPECT().PublishFailed("ledger", "write_failed").Times(1)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			metrics := mock_metric.NewMockPublisher(ctrl)
			tc.mocks(metrics)

			w := &flakyWriter{failures: tc.failures}
			p, err := kafka.NewProducer(w, "ledger", logger.NewNop(), metrics,
				kafka.MaxAttempts(3),
				kafka.BaseRetryDelay(time.Millisecond),
				kafka.MaxRetryDelay(2*time.Millisecond),
			)
			require.NoError(t, err)

			err = p.Send(context.Background(), []byte("k"), []byte(`{"id":"1"}`))
			if tc.wantErr {
				require.Error(t, err)
				require.Empty(t, w.written)
				return
			}
			require.NoError(t, err)
			require.Len(t, w.written, 1)
			require.Equal(t, []byte("k"), w.written[0].Key)
		})
	}
}

func TestNewProducer_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)

	_, err := kafka.NewProducer(nil, "t", logger.NewNop(), mock_metric.NewMockPublisher(ctrl))
	require.Error(t, err)

	_, err = kafka.NewProducer(&flakyWriter{}, "t", logger.NewNop(), mock_metric.NewMockPublisher(ctrl),
		kafka.BaseRetryDelay(time.Second), kafka.MaxRetryDelay(time.Millisecond))
	require.Error(t, err)
}
