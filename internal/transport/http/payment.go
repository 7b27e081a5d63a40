package httpt

import (
	"context"
	"net/http"

	"qrpay/internal/entity"
	"qrpay/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @Summary      Generate a payment request
// @Description  Opens a payment request for the signed-in vendor that expires after the configured TTL.
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      entity.PaymentRequest  true  "Amount, currency and description"
// @Success      200   {object}  httpt.PaymentResponse
// @Failure      400   {object}  httpt.ErrorResponse
// @Failure      401   {object}  httpt.ErrorResponse
// @Router       /payment/generate [post]
func (h *Handler) generatePaymentHandler(c *gin.Context) {
	const op = "transport.generatePaymentHandler"

	var req entity.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleInvalidBody(c, op, err)
		return
	}
	vendorID := currentVendor(c).ID
	req.VendorID = &vendorID

	payment, err := h.svc.Payments.CreatePayment(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	c.JSON(http.StatusOK, PaymentResponse{Success: true, Payment: payment})
}

// @Summary      Get a payment request
// @Description  An overdue pending payment is reported as expired.
// @Tags         Payments
// @Produce      json
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  httpt.PaymentResponse
// @Failure      400  {object}  httpt.ErrorResponse
// @Failure      404  {object}  httpt.ErrorResponse
// @Router       /payment/{id} [get]
func (h *Handler) getPaymentHandler(c *gin.Context) {
	const op = "transport.getPaymentHandler"

	id, ok := h.uuidParam(c, op, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), _defaultContextTimeout)
	defer cancel()

	payment, err := h.svc.Payments.GetPayment(ctx, id)
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	c.JSON(http.StatusOK, PaymentResponse{Success: true, Payment: payment})
}

// @Summary      Pay a payment request by card
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Param        id               path      string                       true   "Payment ID"
// @Param        Idempotency-Key  header    string                       false  "Replays the first successful response"
// @Param        body             body      httpt.ProcessPaymentRequest  true   "Payment method"
// @Success      200              {object}  httpt.PaymentResponse
// @Failure      400              {object}  httpt.ErrorResponse
// @Failure      402              {object}  httpt.ErrorResponse  "Card declined"
// @Failure      404              {object}  httpt.ErrorResponse
// @Failure      409              {object}  httpt.ErrorResponse  "Already processed or in progress"
// @Failure      410              {object}  httpt.ErrorResponse  "Expired"
// @Router       /payment/{id}/process [post]
func (h *Handler) processPaymentHandler(c *gin.Context) {
	const op = "transport.processPaymentHandler"

	id, ok := h.uuidParam(c, op, "id")
	if !ok {
		return
	}

	var req ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleInvalidBody(c, op, err)
		return
	}

	ctx := c.Request.Context()
	payment, err := h.svc.Payments.ChargeCard(ctx, id, req.PaymentMethodID)
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	h.log.Ctx(ctx).LogAttrs(ctx, logger.InfoLevel, "payment processed",
		logger.String("payment_id", payment.ID.String()),
	)
	c.JSON(http.StatusOK, PaymentResponse{Success: true, Payment: payment})
}

// @Summary      Wallet payment options
// @Tags         Payments
// @Produce      json
// @Success      200  {object}  httpt.PaymentOptionsResponse
// @Router       /payment/options [get]
func (h *Handler) paymentOptionsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, PaymentOptionsResponse{Success: true, Options: h.svc.Payments.PaymentOptions()})
}

// @Summary      Pay by wallet
// @Description  Records a simulated wallet payment to a vendor or a user. A cash-out code is sent when a payer phone is given.
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Param        payeeId          path      string                true   "Vendor or user ID"
// @Param        Idempotency-Key  header    string                false  "Replays the first successful response"
// @Param        body             body      entity.WalletPayment  true   "Wallet payment"
// @Success      200              {object}  httpt.TransactionResponse
// @Failure      400              {object}  httpt.ErrorResponse
// @Failure      404              {object}  httpt.ErrorResponse
// @Router       /wallet/{payeeId}/payment [post]
func (h *Handler) walletPaymentHandler(c *gin.Context) {
	const op = "transport.walletPaymentHandler"

	payeeID, ok := h.uuidParam(c, op, "payeeId")
	if !ok {
		return
	}

	var req entity.WalletPayment
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleInvalidBody(c, op, err)
		return
	}
	req.PayeeID = payeeID

	receipt, err := h.svc.Payments.CreateWalletPayment(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	c.JSON(http.StatusOK, TransactionResponse{Success: true, Transaction: receipt.Transaction, OTP: receipt.OTP})
}
