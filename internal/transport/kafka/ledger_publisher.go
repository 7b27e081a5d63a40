package kafkat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"qrpay/internal/entity"
	"qrpay/pkg/logger"

	"github.com/segmentio/kafka-go"
)

type Sender interface {
	Send(ctx context.Context, key, value []byte, headers ...kafka.Header) error
}

// LedgerPublisher implements service.EventPublisher on top of a Kafka producer.
type LedgerPublisher struct {
	sender Sender
	log    logger.Logger
	now    func() time.Time
}

func NewLedgerPublisher(sender Sender, log logger.Logger) *LedgerPublisher {
	return &LedgerPublisher{sender: sender, log: log, now: time.Now}
}

func (p *LedgerPublisher) PublishTransaction(ctx context.Context, txn *entity.Transaction) error {
	const op = "transport.kafka.ledger_publisher.PublishTransaction"

	requestID := p.log.GetRequestID(ctx)
	event := LedgerEvent{
		Type:        EventTransactionCompleted,
		RequestID:   requestID,
		Transaction: txn,
		PublishedAt: p.now().UTC(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s: marshal event: %w", op, err)
	}

	headers := []kafka.Header{
		{Key: "event-type", Value: []byte(EventTransactionCompleted)},
		{Key: "transaction-kind", Value: []byte(txn.Kind)},
	}
	if requestID != "" {
		headers = append(headers, kafka.Header{Key: "request-id", Value: []byte(requestID)})
	}

	if err = p.sender.Send(ctx, partitionKey(txn), value, headers...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	p.log.LogAttrs(ctx, logger.DebugLevel, "ledger event published",
		logger.String("transaction_id", txn.ID.String()),
		logger.String("kind", string(txn.Kind)),
	)
	return nil
}
