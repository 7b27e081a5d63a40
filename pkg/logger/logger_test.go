package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc  string
		input string
		want  Level
	}{
		{desc: "debug", input: "debug", want: DebugLevel},
		{desc: "warn", input: "warn", want: WarnLevel},
		{desc: "error", input: "error", want: ErrorLevel},
		{desc: "info", input: "info", want: InfoLevel},
		{desc: "empty", input: "", want: InfoLevel},
		{desc: "unknown", input: "verbose", want: InfoLevel},
		{desc: "fatal is clamped", input: "fatal", want: InfoLevel},
	}

	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, ParseLevel(tc.input))
		})
	}
}

// newBufferAdapter logs JSON lines into buf at debug level.
func newBufferAdapter(buf *bytes.Buffer) *Adapter {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(buf),
		zapcore.DebugLevel,
	)
	return newAdapter(zap.New(core))
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var lines []map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(raw), &line))
		lines = append(lines, line)
	}
	return lines
}

func TestAdapter_ContextFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := newBufferAdapter(&buf)

	ctx := log.WithRequestID(context.Background(), "req-1")
	ctx = log.WithFields(ctx, String("vendor_id", "v-42"))

	log.LogAttrs(ctx, InfoLevel, "payment created", String("payment_id", "p-1"))
	log.Ctx(ctx).LogAttrs(ctx, WarnLevel, "charge declined", Err(nil))
	log.Ctx(ctx).With("channel", "card").Infow("retry scheduled")
	log.LogAttrs(context.Background(), DebugLevel, "no context")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 4)

	for _, line := range lines[:3] {
		assert.Equal(t, "req-1", line["request_id"])
		assert.Equal(t, "v-42", line["vendor_id"])
	}
	assert.Equal(t, "p-1", lines[0]["payment_id"])
	assert.Nil(t, lines[1]["error"])
	assert.Equal(t, "card", lines[2]["channel"])
	assert.NotContains(t, lines[3], "request_id")

	assert.Equal(t, 1, strings.Count(strings.Split(buf.String(), "\n")[1], `"request_id"`),
		"context fields must not repeat on a derived logger")
}

func TestAdapter_WithFieldsDoesNotLeak(t *testing.T) {
	t.Parallel()

	log := NewNop()
	parent := log.WithFields(context.Background(), String("vendor_id", "a"))
	first := log.WithFields(parent, String("payment_id", "1"))
	second := log.WithFields(parent, String("payment_id", "2"))

	assert.Len(t, fieldsFrom(parent).attrs, 1)
	assert.Equal(t, "1", fieldsFrom(first).attrs[1].Value)
	assert.Equal(t, "2", fieldsFrom(second).attrs[1].Value)
}

func TestNop_RequestID(t *testing.T) {
	t.Parallel()

	log := NewNop()
	id := log.GenerateRequestID()
	ctx := log.WithRequestID(context.Background(), id)

	assert.Equal(t, id, log.GetRequestID(ctx))
	assert.Empty(t, log.GetRequestID(context.Background()))
	assert.Same(t, log, log.Ctx(context.Background()))
}
