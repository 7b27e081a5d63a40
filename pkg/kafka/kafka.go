package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qrpay/internal/config"
	"qrpay/pkg/logger"

	"github.com/segmentio/kafka-go"
)

const _dialTimeout = 5 * time.Second

// NewKafkaWriter returns a writer for the ledger topic. Events are hashed by key
// and acknowledged by all in-sync replicas.
func NewKafkaWriter(ctx context.Context, cfg config.Kafka, log logger.Logger) (*kafka.Writer, error) {
	if err := checkBrokers(ctx, cfg.Brokers); err != nil {
		return nil, fmt.Errorf("kafka.NewKafkaWriter: %w", err)
	}

	info, failure := clientLoggers(log, "topic", cfg.Topic)
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: true,
		Logger:                 info,
		ErrorLogger:            failure,
	}, nil
}

// NewKafkaReader consumes the ledger topic as member of cfg.GroupID.
func NewKafkaReader(ctx context.Context, cfg config.Kafka, log logger.Logger) (*kafka.Reader, error) {
	if err := checkBrokers(ctx, cfg.Brokers); err != nil {
		return nil, fmt.Errorf("kafka.NewKafkaReader: %w", err)
	}

	info, failure := clientLoggers(log, "topic", cfg.Topic, "group_id", cfg.GroupID)
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		Logger:      info,
		ErrorLogger: failure,
	}), nil
}

// checkBrokers fails fast when no broker is reachable. A partially reachable
// cluster is accepted; kafka-go fails over on its own.
func checkBrokers(ctx context.Context, brokers []string) error {
	if len(brokers) == 0 {
		return errors.New("no brokers configured")
	}

	ctx, cancel := context.WithTimeout(ctx, _dialTimeout)
	defer cancel()

	dialer := &kafka.Dialer{Timeout: _dialTimeout}
	var errs []error
	for _, broker := range brokers {
		conn, err := dialer.DialContext(ctx, "tcp", broker)
		if err != nil {
			errs = append(errs, fmt.Errorf("dial %s: %w", broker, err))
			continue
		}
		_ = conn.Close()
		return nil
	}
	return errors.Join(errs...)
}

// clientLoggers routes kafka-go chatter to debug and its errors to error level.
func clientLoggers(log logger.Logger, keysAndValues ...any) (kafka.Logger, kafka.Logger) {
	l := log.With(keysAndValues...)
	info := kafka.LoggerFunc(func(msg string, args ...any) {
		l.Debugw(fmt.Sprintf(msg, args...))
	})
	failure := kafka.LoggerFunc(func(msg string, args ...any) {
		l.Errorw("kafka client error", "detail", fmt.Sprintf(msg, args...))
	})
	return info, failure
}
