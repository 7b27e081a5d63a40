package httpt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"qrpay/internal/entity"
	"qrpay/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	_vendorKey = "vendor"
	_tokenKey  = "token"

	_idempotencyHeader   = "Idempotency-Key"
	_idempotencyPrefix   = "idempotency:"
	_idempotencyInFlight = "in-flight"
	_inFlightTTL         = time.Minute
)

func (h *Handler) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = h.log.GenerateRequestID()
		}
		ctx := h.log.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

func (h *Handler) tracingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		ctx, span := h.tracer.Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Request.Method),
				attribute.String("http.route", route),
				attribute.String("request_id", h.log.GetRequestID(ctx)),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

func (h *Handler) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		h.log.LogAttrs(c.Request.Context(), logger.InfoLevel, "HTTP request",
			logger.String("method", method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", statusCode),
			logger.String("duration", latency.String()),
			logger.String("client_ip", c.ClientIP()),
			logger.String("user_agent", c.Request.UserAgent()),
		)

		h.metrics.Request(method, path, statusCode, latency)

		if latency > _slowRequestThreshold {
			h.metrics.SlowRequest(method, path, statusCode, latency)
		}
	}
}

// authMiddleware resolves the Bearer session to a vendor. The response never says which
// part of the token was wrong.
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abortWithError(c, http.StatusUnauthorized, "No token provided")
			return
		}

		vendor, err := h.svc.Sessions.Authenticate(c.Request.Context(), token)
		if err != nil {
			h.log.Ctx(c.Request.Context()).LogAttrs(c.Request.Context(), logger.WarnLevel, "authentication failed",
				logger.String("path", c.Request.URL.Path),
				logger.String("client_ip", c.ClientIP()),
				logger.Err(err),
			)
			abortWithError(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := h.log.WithFields(c.Request.Context(), logger.String("vendor_id", vendor.ID.String()))
		c.Request = c.Request.WithContext(ctx)

		c.Set(_vendorKey, vendor)
		c.Set(_tokenKey, token)
		c.Next()
	}
}

func currentVendor(c *gin.Context) *entity.Vendor {
	v, _ := c.Get(_vendorKey)
	vendor, _ := v.(*entity.Vendor)
	return vendor
}

type cachedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// idempotencyMiddleware stores successful responses under the Idempotency-Key header and
// replays them on retry. Redis failures degrade to plain processing.
func (h *Handler) idempotencyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(_idempotencyHeader))
		if h.idempotency == nil || key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		log := h.log.Ctx(ctx)
		redisKey := _idempotencyPrefix + c.Request.Method + ":" + c.Request.URL.Path + ":" + key

		acquired, err := h.idempotency.SetNX(ctx, redisKey, _idempotencyInFlight, _inFlightTTL).Result()
		if err != nil {
			log.LogAttrs(ctx, logger.WarnLevel, "idempotency store unavailable",
				logger.String("path", c.Request.URL.Path),
				logger.Err(err),
			)
			c.Next()
			return
		}

		if !acquired {
			h.replay(c, redisKey)
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder
		c.Next()

		// the request context may already be cancelled once the handler returns
		storeCtx := context.WithoutCancel(ctx)
		status := recorder.Status()
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			if err = h.idempotency.Del(storeCtx, redisKey).Err(); err != nil {
				log.LogAttrs(ctx, logger.WarnLevel, "failed to release idempotency key", logger.Err(err))
			}
			return
		}

		payload, err := json.Marshal(cachedResponse{Status: status, Body: recorder.body.Bytes()})
		if err == nil {
			err = h.idempotency.Set(storeCtx, redisKey, payload, h.idempotencyTTL).Err()
		}
		if err != nil {
			log.LogAttrs(ctx, logger.WarnLevel, "failed to store idempotent response", logger.Err(err))
		}
	}
}

func (h *Handler) replay(c *gin.Context, redisKey string) {
	ctx := c.Request.Context()

	raw, err := h.idempotency.Get(ctx, redisKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		h.handleServiceError(c, fmt.Errorf("idempotency lookup: %w", err), "transport.idempotency")
		c.Abort()
		return
	}
	if errors.Is(err, redis.Nil) || raw == _idempotencyInFlight {
		abortWithError(c, http.StatusConflict, "A request with this Idempotency-Key is already in progress")
		return
	}

	var cached cachedResponse
	if err = json.Unmarshal([]byte(raw), &cached); err != nil {
		h.handleServiceError(c, fmt.Errorf("idempotency decode: %w", err), "transport.idempotency")
		c.Abort()
		return
	}

	c.Header("Idempotent-Replayed", "true")
	c.Data(cached.Status, "application/json; charset=utf-8", cached.Body)
	c.Abort()
}
