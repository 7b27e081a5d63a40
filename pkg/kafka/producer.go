package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qrpay/pkg/logger"
	"qrpay/pkg/metric"
	"qrpay/pkg/retry"

	"github.com/segmentio/kafka-go"
)

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes keyed messages to a single topic. Messages sharing a key land
// on the same partition, which keeps per-account event order.
type Producer struct {
	writer  MessageWriter
	topic   string
	log     logger.Logger
	metrics metric.Publisher
	backoff retry.Backoff
}

func NewProducer(
	writer MessageWriter,
	topic string,
	log logger.Logger,
	metrics metric.Publisher,
	opts ...Option,
) (*Producer, error) {
	const op = "kafka.NewProducer"

	p := &Producer{
		writer:  writer,
		topic:   topic,
		log:     log.With("topic", topic),
		metrics: metrics,
		backoff: retry.Backoff{
			Attempts: 5,
			Base:     100 * time.Millisecond,
			Max:      5 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.writer == nil {
		return nil, fmt.Errorf("%s: nil writer", op)
	}
	if err := p.backoff.Validate(); err != nil {
		return nil, fmt.Errorf("%s: retry backoff: %w", op, err)
	}

	return p, nil
}

func (p *Producer) Send(ctx context.Context, key, value []byte, headers ...kafka.Header) error {
	const op = "kafka.Producer.Send"

	msg := kafka.Message{Key: key, Value: value, Headers: headers, Time: time.Now().UTC()}

	attempts, err := retry.Do(ctx, p.backoff,
		func(ctx context.Context) error { return p.writer.WriteMessages(ctx, msg) },
		retry.OnRetry(func(attempt int, wait time.Duration, err error) {
			p.log.LogAttrs(ctx, logger.WarnLevel, "event publish failed, retrying",
				logger.String("key", string(key)),
				logger.Int("attempt", attempt),
				logger.String("retry_after", wait.String()),
				logger.Err(err),
			)
		}),
	)
	if err != nil {
		reason := "write_failed"
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			reason = "context_done"
		}
		p.metrics.PublishFailed(p.topic, reason)
		return fmt.Errorf("%s: topic %s: %w", op, p.topic, err)
	}

	p.metrics.Published(p.topic)
	p.metrics.Retried(p.topic, attempts)
	return nil
}

func (p *Producer) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("kafka.Producer.Close: %w", err)
	}
	return nil
}
