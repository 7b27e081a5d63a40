package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"qrpay/internal/entity"
	"qrpay/pkg/logger"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	_defaultContextTimeout  = 500 * time.Millisecond
	_slowOperationThreshold = 200 * time.Millisecond
)

var validate = validator.New()

type Option func(*options)

type options struct {
	now    func() time.Time
	tracer trace.Tracer
}

// WithClock replaces time.Now, mainly so expiry can be driven from tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		tracer: noop.NewTracerProvider().Tracer("qrpay/service"),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", entity.ErrInvalidData, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", entity.ErrInvalidData, strings.Join(msgs, "; "))
}

func normalizeCurrency(currency, fallback string) string {
	if currency == "" {
		return fallback
	}
	return strings.ToLower(currency)
}

func warnIfSlow(ctx context.Context, log logger.Logger, op string, start time.Time, attrs ...logger.Attr) {
	duration := time.Since(start)
	if duration <= _slowOperationThreshold {
		return
	}
	attrs = append(attrs, logger.String("op", op), logger.Duration("duration", duration))
	log.LogAttrs(ctx, logger.WarnLevel, "slow service operation", attrs...)
}
