package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"qrpay/internal/entity"
	"qrpay/pkg/logger"

	"github.com/nats-io/nats.go"
)

// Requester is the part of *nats.Conn the relay needs.
type Requester interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
}

type outbound struct {
	To     string    `json:"to"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sentAt"`
}

type ack struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// NATSRelay hands SMS messages to a delivery worker over NATS request/reply and
// waits for its acknowledgement.
type NATSRelay struct {
	conn    Requester
	subject string
	timeout time.Duration
	log     logger.Logger
}

func NewNATSRelay(conn Requester, subject string, timeout time.Duration, log logger.Logger) *NATSRelay {
	return &NATSRelay{
		conn:    conn,
		subject: subject,
		timeout: timeout,
		log:     log,
	}
}

func (r *NATSRelay) Send(ctx context.Context, phone, body string) error {
	const op = "gateway.sms.Send"

	data, err := json.Marshal(outbound{To: phone, Body: body, SentAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("%s: marshal: %w", op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	msg, err := r.conn.RequestWithContext(ctx, r.subject, data)
	if err != nil {
		reason := "request failed"
		if errors.Is(err, nats.ErrNoResponders) {
			reason = "no delivery worker"
		}
		r.log.LogAttrs(ctx, logger.WarnLevel, "sms relay request failed",
			logger.String("op", op),
			logger.String("phone", entity.MaskPhone(phone)),
			logger.Err(err),
		)
		return fmt.Errorf("%s: %w", op, entity.NewExternalError(entity.ErrDeliveryFailed, reason))
	}

	var reply ack
	if err = json.Unmarshal(msg.Data, &reply); err != nil {
		return fmt.Errorf("%s: %w", op, entity.NewExternalError(entity.ErrDeliveryFailed, "malformed acknowledgement"))
	}
	if reply.Status != "sent" {
		return fmt.Errorf("%s: %w", op, entity.NewExternalError(entity.ErrDeliveryFailed, reply.Error))
	}

	return nil
}
