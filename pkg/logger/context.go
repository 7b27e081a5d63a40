package logger

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ctxKey struct{}

// ctxFields is immutable once stored; WithFields copies before appending.
type ctxFields struct {
	requestID string
	attrs     []Attr
}

func fieldsFrom(ctx context.Context) ctxFields {
	if ctx == nil {
		return ctxFields{}
	}
	f, _ := ctx.Value(ctxKey{}).(ctxFields)
	return f
}

func (a *Adapter) WithRequestID(ctx context.Context, requestID string) context.Context {
	f := fieldsFrom(ctx)
	f.requestID = requestID
	return context.WithValue(ctx, ctxKey{}, f)
}

// WithFields attaches attrs to every line logged through Ctx or LogAttrs with
// the returned context. Used to tag requests with the authenticated vendor.
func (a *Adapter) WithFields(ctx context.Context, attrs ...Attr) context.Context {
	f := fieldsFrom(ctx)
	merged := make([]Attr, 0, len(f.attrs)+len(attrs))
	merged = append(merged, f.attrs...)
	f.attrs = append(merged, attrs...)
	return context.WithValue(ctx, ctxKey{}, f)
}

func (a *Adapter) GetRequestID(ctx context.Context) string {
	return fieldsFrom(ctx).requestID
}

func (a *Adapter) GenerateRequestID() string {
	return uuid.NewString()
}

func (f ctxFields) zapFields() []zap.Field {
	if f.requestID == "" && len(f.attrs) == 0 {
		return nil
	}
	fields := make([]zap.Field, 0, len(f.attrs)+1)
	if f.requestID != "" {
		fields = append(fields, zap.String("request_id", f.requestID))
	}
	return append(fields, attrFields(f.attrs)...)
}
