package tracing_test

import (
	"context"
	"testing"

	"qrpay/internal/config"
	"qrpay/pkg/tracing"

	"github.com/stretchr/testify/require"
)

func TestNewProvider_Disabled(t *testing.T) {
	p, err := tracing.NewProvider(context.Background(), &config.Config{})
	require.NoError(t, err)

	_, span := p.Tracer().Start(context.Background(), "noop")
	require.False(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, p.Shutdown(context.Background()))
}
