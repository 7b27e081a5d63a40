package logger

import (
	"context"
	"time"

	"go.uber.org/zap/zapcore"
)

type Level int8

const (
	DebugLevel = Level(zapcore.DebugLevel)
	InfoLevel  = Level(zapcore.InfoLevel)
	WarnLevel  = Level(zapcore.WarnLevel)
	ErrorLevel = Level(zapcore.ErrorLevel)
)

func (l Level) String() string {
	return zapcore.Level(l).CapitalString()
}

// ParseLevel accepts the config values debug, info, warn and error. Anything
// else is info.
func ParseLevel(s string) Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil || lvl > zapcore.ErrorLevel {
		return InfoLevel
	}
	return Level(lvl)
}

type Attr struct {
	Key   string
	Value any
}

type Logger interface {
	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)

	// LogAttrs logs with the fields carried by ctx.
	LogAttrs(ctx context.Context, level Level, msg string, attrs ...Attr)

	// Ctx returns a Logger that always carries the fields stored in ctx.
	Ctx(ctx context.Context) Logger
	With(keysAndValues ...any) Logger

	WithRequestID(ctx context.Context, requestID string) context.Context
	WithFields(ctx context.Context, attrs ...Attr) context.Context
	GetRequestID(ctx context.Context) string
	GenerateRequestID() string
}

func String(key, value string) Attr { return Attr{Key: key, Value: value} }
func Int(key string, value int) Attr { return Attr{Key: key, Value: value} }
func Int64(key string, value int64) Attr { return Attr{Key: key, Value: value} }
func Bool(key string, value bool) Attr { return Attr{Key: key, Value: value} }
func Time(key string, value time.Time) Attr { return Attr{Key: key, Value: value} }
func Any(key string, value any) Attr { return Attr{Key: key, Value: value} }
func Duration(key string, d time.Duration) Attr { return Attr{Key: key, Value: d.String()} }

// Err logs err under "error"; a nil error is logged as null.
func Err(err error) Attr {
	if err == nil {
		return Attr{Key: "error"}
	}
	return Attr{Key: "error", Value: err.Error()}
}
