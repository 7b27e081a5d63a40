package processor

import (
	"context"
	"fmt"

	"qrpay/internal/entity"
)

// Disabled stands in when no processor key is configured. Every call fails.
type Disabled struct{}

func (Disabled) Charge(context.Context, entity.ChargeRequest) (*entity.ChargeResult, error) {
	return nil, fmt.Errorf("gateway.processor.Charge: %w", entity.ErrProcessorDisabled)
}

func (Disabled) CreateProfile(context.Context, entity.CustomerLookup) (string, error) {
	return "", fmt.Errorf("gateway.processor.CreateProfile: %w", entity.ErrProcessorDisabled)
}

func (Disabled) AttachMethod(context.Context, string, string) (*entity.Instrument, error) {
	return nil, fmt.Errorf("gateway.processor.AttachMethod: %w", entity.ErrProcessorDisabled)
}

func (Disabled) SetDefault(context.Context, string, string) error {
	return fmt.Errorf("gateway.processor.SetDefault: %w", entity.ErrProcessorDisabled)
}

func (Disabled) ListMethods(context.Context, string) ([]*entity.Instrument, error) {
	return nil, fmt.Errorf("gateway.processor.ListMethods: %w", entity.ErrProcessorDisabled)
}

func (Disabled) DetachMethod(context.Context, string) error {
	return fmt.Errorf("gateway.processor.DetachMethod: %w", entity.ErrProcessorDisabled)
}
