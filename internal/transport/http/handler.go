package httpt

import (
	"time"

	"qrpay/internal/service"
	"qrpay/pkg/logger"
	"qrpay/pkg/metric"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	_defaultContextTimeout = 500 * time.Millisecond
	_slowRequestThreshold  = 200 * time.Millisecond

	_defaultIdempotencyTTL = 24 * time.Hour
)

// Services groups the use cases the API exposes.
type Services struct {
	Identity *service.IdentityService
	Sessions *service.SessionService
	OTP      *service.OTPService
	Payments *service.PaymentService
	Ledger   *service.LedgerService
}

type Handler struct {
	svc     Services
	log     logger.Logger
	metrics metric.HTTP
	router  *gin.Engine

	tracer         trace.Tracer
	idempotency    redis.UniversalClient
	idempotencyTTL time.Duration
}

type HandlerOption func(*Handler)

// WithIdempotency replays successful charge responses for a repeated Idempotency-Key.
// A nil client leaves the feature off.
func WithIdempotency(client redis.UniversalClient, ttl time.Duration) HandlerOption {
	return func(h *Handler) {
		h.idempotency = client
		if ttl > 0 {
			h.idempotencyTTL = ttl
		}
	}
}

func WithTracer(tracer trace.Tracer) HandlerOption {
	return func(h *Handler) {
		if tracer != nil {
			h.tracer = tracer
		}
	}
}

func NewHandler(
	svc Services,
	log logger.Logger,
	metrics metric.HTTP,
	opts ...HandlerOption,
) *Handler {
	h := &Handler{
		svc:            svc,
		log:            log,
		metrics:        metrics,
		tracer:         noop.NewTracerProvider().Tracer("qrpay/http"),
		idempotencyTTL: _defaultIdempotencyTTL,
	}
	for _, opt := range opts {
		opt(h)
	}

	router := gin.New()

	router.Use(h.requestIDMiddleware())
	router.Use(h.tracingMiddleware())
	router.Use(h.loggingMiddleware())
	router.Use(gin.Recovery())

	h.router = router

	h.setupRoutes()

	return h
}

func (h *Handler) Engine() *gin.Engine {
	return h.router
}
