package logger

import (
	"context"
	"fmt"
	"os"

	"qrpay/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var _ Logger = (*Adapter)(nil)

// Adapter is the zap-backed Logger. Every line is JSON and carries the service
// name, version and environment.
type Adapter struct {
	zap   *zap.Logger
	sugar *zap.SugaredLogger
}

func NewAdapter(cfg *config.Config, opts ...Option) (*Adapter, error) {
	const op = "logger.NewAdapter"

	s := defaultSettings()
	if cfg.Logger.MaxSize > 0 {
		s.maxSize = cfg.Logger.MaxSize
	}
	if cfg.Logger.MaxBackups > 0 {
		s.maxBackups = cfg.Logger.MaxBackups
	}
	if cfg.Logger.MaxAge > 0 {
		s.maxAge = cfg.Logger.MaxAge
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.maxSize <= 0 || s.maxBackups <= 0 || s.maxAge <= 0 {
		return nil, fmt.Errorf("%s: rotation limits must be positive: size=%d backups=%d age=%d",
			op, s.maxSize, s.maxBackups, s.maxAge)
	}
	if s.console == nil {
		s.console = os.Stdout
	}

	sinks := []zapcore.WriteSyncer{zapcore.AddSync(s.console)}
	if s.file && cfg.Logger.Filename != "" {
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    s.maxSize,
			MaxBackups: s.maxBackups,
			MaxAge:     s.maxAge,
			Compress:   true,
		}))
	}

	encoder := zap.NewProductionEncoderConfig()
	encoder.TimeKey = "ts"
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder.FunctionKey = zapcore.OmitKey

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoder),
		zapcore.NewMultiWriteSyncer(sinks...),
		zap.NewAtomicLevelAt(zapcore.Level(ParseLevel(cfg.Logger.Level))),
	)

	return newAdapter(zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(
			zap.String("service", cfg.App.Name),
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.Env),
		),
	)), nil
}

// NewNop returns a Logger that discards everything. Context helpers still work.
func NewNop() *Adapter {
	return newAdapter(zap.NewNop())
}

func newAdapter(l *zap.Logger) *Adapter {
	return &Adapter{zap: l, sugar: l.Sugar()}
}

func (a *Adapter) Debugw(msg string, keysAndValues ...any) { a.sugar.Debugw(msg, keysAndValues...) }
func (a *Adapter) Infow(msg string, keysAndValues ...any) { a.sugar.Infow(msg, keysAndValues...) }
func (a *Adapter) Warnw(msg string, keysAndValues ...any) { a.sugar.Warnw(msg, keysAndValues...) }
func (a *Adapter) Errorw(msg string, keysAndValues ...any) { a.sugar.Errorw(msg, keysAndValues...) }

func (a *Adapter) LogAttrs(ctx context.Context, level Level, msg string, attrs ...Attr) {
	ce := a.zap.Check(zapcore.Level(level), msg)
	if ce == nil {
		return
	}
	fields := fieldsFrom(ctx).zapFields()
	ce.Write(append(fields, attrFields(attrs)...)...)
}

func (a *Adapter) Ctx(ctx context.Context) Logger {
	fields := fieldsFrom(ctx).zapFields()
	if len(fields) == 0 {
		return a
	}
	return &ctxAdapter{Adapter: newAdapter(a.zap.With(fields...))}
}

func (a *Adapter) With(keysAndValues ...any) Logger {
	return newAdapter(a.sugar.With(keysAndValues...).Desugar())
}

func (a *Adapter) Sync() error {
	return a.zap.Sync()
}

// ctxAdapter already carries the context fields, so LogAttrs must not repeat them.
type ctxAdapter struct {
	*Adapter
}

func (c *ctxAdapter) LogAttrs(_ context.Context, level Level, msg string, attrs ...Attr) {
	if ce := c.zap.Check(zapcore.Level(level), msg); ce != nil {
		ce.Write(attrFields(attrs)...)
	}
}

func (c *ctxAdapter) Ctx(context.Context) Logger { return c }

func (c *ctxAdapter) With(keysAndValues ...any) Logger {
	return &ctxAdapter{Adapter: newAdapter(c.sugar.With(keysAndValues...).Desugar())}
}

func attrFields(attrs []Attr) []zap.Field {
	fields := make([]zap.Field, 0, len(attrs))
	for _, attr := range attrs {
		fields = append(fields, zap.Any(attr.Key, attr.Value))
	}
	return fields
}
