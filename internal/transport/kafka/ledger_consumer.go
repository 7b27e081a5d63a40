package kafkat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"qrpay/pkg/logger"

	"github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type EventHandler func(ctx context.Context, event *LedgerEvent) error

// LedgerConsumer feeds ledger events to a handler until the context ends. Undecodable
// messages are logged and skipped.
type LedgerConsumer struct {
	reader  MessageReader
	handler EventHandler
	log     logger.Logger
}

func NewLedgerConsumer(reader MessageReader, handler EventHandler, log logger.Logger) *LedgerConsumer {
	return &LedgerConsumer{
		reader:  reader,
		handler: handler,
		log:     log,
	}
}

func (c *LedgerConsumer) Start(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return c.run(ctx)
	})

	eg.Go(func() error {
		<-ctx.Done()
		c.log.Infow("shutting down ledger consumer")
		return c.reader.Close()
	})

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("transport.kafka.ledger_consumer.Start: %w", err)
	}
	return nil
}

func (c *LedgerConsumer) run(ctx context.Context) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("transport.kafka.ledger_consumer.run: reader closed: %w", err)
			}
			c.log.Errorw("kafka read failed", "error", err)
			continue
		}

		var event LedgerEvent
		if err = json.Unmarshal(msg.Value, &event); err != nil || event.Transaction == nil {
			c.log.LogAttrs(ctx, logger.WarnLevel, "skipping malformed ledger event",
				logger.String("topic", msg.Topic),
				logger.Int("partition", msg.Partition),
				logger.Int64("offset", msg.Offset),
				logger.Err(err),
			)
			continue
		}

		if err = c.handler(ctx, &event); err != nil {
			return fmt.Errorf("transport.kafka.ledger_consumer.run: handle offset %d: %w", msg.Offset, err)
		}
	}
}
