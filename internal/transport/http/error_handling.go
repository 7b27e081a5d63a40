package httpt

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"qrpay/internal/entity"
	"qrpay/pkg/logger"

	"github.com/gin-gonic/gin"
)

type errorClass struct {
	target  error
	status  int
	message string
}

// errorClasses is ordered most specific first.
var errorClasses = []errorClass{
	{entity.ErrInvalidAmount, http.StatusBadRequest, "Invalid amount"},
	{entity.ErrInvalidChannel, http.StatusBadRequest, "Unsupported payment option"},
	{entity.ErrOTPMismatch, http.StatusBadRequest, "Verification code does not match"},
	{entity.ErrInvalidData, http.StatusBadRequest, "Invalid request data"},

	{entity.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{entity.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},

	{entity.ErrChargeDeclined, http.StatusPaymentRequired, "Payment declined"},

	{entity.ErrVendorNotFound, http.StatusNotFound, "Vendor not found"},
	{entity.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{entity.ErrCustomerNotFound, http.StatusNotFound, "Customer not found"},
	{entity.ErrPaymentNotFound, http.StatusNotFound, "Payment not found"},
	{entity.ErrInstrumentNotFound, http.StatusNotFound, "Payment method not found"},
	{entity.ErrOTPNoSuchRequest, http.StatusNotFound, "No verification code requested for this phone"},
	{entity.ErrDataNotFound, http.StatusNotFound, "Not found"},

	{entity.ErrDuplicateEmail, http.StatusConflict, "Email already registered"},
	{entity.ErrAlreadyFinalized, http.StatusConflict, "Payment already processed or expired"},
	{entity.ErrPaymentLocked, http.StatusConflict, "Payment is being processed"},
	{entity.ErrConflictingData, http.StatusConflict, "Conflicting data"},

	{entity.ErrPaymentExpired, http.StatusGone, "Payment expired"},
	{entity.ErrOTPExpired, http.StatusGone, "Verification code expired"},

	{entity.ErrExternalService, http.StatusBadGateway, "Payment provider unavailable"},

	{context.DeadlineExceeded, http.StatusGatewayTimeout, "Request timed out"},
}

// classify maps err to a status and a message safe to show the caller.
func classify(err error) (int, string) {
	for _, class := range errorClasses {
		if !errors.Is(err, class.target) {
			continue
		}

		message := class.message
		switch {
		case class.status == http.StatusBadRequest && errors.Is(err, entity.ErrInvalidData):
			message = validationMessage(err, message)
		case class.status == http.StatusPaymentRequired || class.status == http.StatusBadGateway:
			var ext *entity.ExternalError
			if errors.As(err, &ext) && ext.Message != "" {
				message += ": " + ext.Message
			}
		}
		return class.status, message
	}
	return http.StatusInternalServerError, "Internal service error"
}

// validationMessage surfaces the field report that validation appends after the sentinel.
func validationMessage(err error, fallback string) string {
	_, detail, found := strings.Cut(err.Error(), entity.ErrInvalidData.Error()+": ")
	if !found || detail == "" {
		return fallback
	}
	return fallback + ": " + detail
}

func (h *Handler) handleServiceError(c *gin.Context, err error, op string) {
	ctx := c.Request.Context()
	log := h.log.Ctx(ctx)

	status, message := classify(err)

	level := logger.WarnLevel
	if status >= http.StatusInternalServerError {
		level = logger.ErrorLevel
	}
	log.LogAttrs(ctx, level, op+" failed",
		logger.Int("status", status),
		logger.Err(err),
		logger.String("path", c.Request.URL.Path),
		logger.String("client_ip", c.ClientIP()),
	)

	c.JSON(status, ErrorResponse{Success: false, Error: message})
}

func (h *Handler) handleInvalidUUID(c *gin.Context, op, param, value string) {
	ctx := c.Request.Context()

	h.log.Ctx(ctx).LogAttrs(ctx, logger.WarnLevel, "invalid UUID format",
		logger.String("op", op),
		logger.String("param", param),
		logger.String("value", value),
		logger.String("remote_addr", c.ClientIP()),
	)

	c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Invalid " + param + " format"})
}

func (h *Handler) handleInvalidBody(c *gin.Context, op string, err error) {
	ctx := c.Request.Context()

	h.log.Ctx(ctx).LogAttrs(ctx, logger.WarnLevel, "invalid request body",
		logger.String("op", op),
		logger.Err(err),
		logger.String("remote_addr", c.ClientIP()),
	)

	c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Invalid request body"})
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Success: false, Error: message})
}
