package httpt

import (
	"context"
	"net/http"

	"qrpay/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// @Summary      Register a vendor
// @Description  Creates a vendor with a permanent payment QR code and opens a session.
// @Tags         Vendors
// @Accept       json
// @Produce      json
// @Param        body  body      entity.VendorRegistration  true  "Vendor details"
// @Success      200   {object}  httpt.SessionResponse
// @Failure      400   {object}  httpt.ErrorResponse
// @Failure      409   {object}  httpt.ErrorResponse  "Email already registered"
// @Router       /vendor/register [post]
func (h *Handler) registerVendorHandler(c *gin.Context) {
	const op = "transport.registerVendorHandler"

	var req entity.VendorRegistration
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleInvalidBody(c, op, err)
		return
	}

	ctx := c.Request.Context()
	vendor, err := h.svc.Identity.RegisterVendor(ctx, req)
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	token, err := h.svc.Sessions.IssueSession(ctx, vendor.ID)
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	c.JSON(http.StatusOK, SessionResponse{Success: true, Token: token, Vendor: vendor})
}

// @Summary      Log in as a vendor
// @Tags         Vendors
// @Accept       json
// @Produce      json
// @Param        body  body      httpt.LoginRequest  true  "Credentials"
// @Success      200   {object}  httpt.SessionResponse
// @Failure      400   {object}  httpt.ErrorResponse
// @Failure      401   {object}  httpt.ErrorResponse  "Invalid credentials"
// @Router       /vendor/login [post]
func (h *Handler) loginHandler(c *gin.Context) {
	const op = "transport.loginHandler"

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleInvalidBody(c, op, err)
		return
	}

	res, err := h.svc.Sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		Success:   true,
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		Vendor:    res.Vendor,
	})
}

// @Summary      Log out
// @Description  Revokes the presented session token.
// @Tags         Vendors
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  httpt.SuccessResponse
// @Failure      401  {object}  httpt.ErrorResponse
// @Router       /vendor/logout [post]
func (h *Handler) logoutHandler(c *gin.Context) {
	const op = "transport.logoutHandler"

	if err := h.svc.Sessions.Logout(c.Request.Context(), c.GetString(_tokenKey)); err != nil {
		h.handleServiceError(c, err, op)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// @Summary      Current vendor profile
// @Tags         Vendors
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  httpt.VendorResponse
// @Failure      401  {object}  httpt.ErrorResponse
// @Router       /vendor/profile [get]
func (h *Handler) profileHandler(c *gin.Context) {
	c.JSON(http.StatusOK, VendorResponse{Success: true, Vendor: currentVendor(c)})
}

// @Summary      Public vendor info
// @Description  Returns what a payer needs to pay the vendor. The credential hash and email are never included.
// @Tags         Vendors
// @Produce      json
// @Param        vendorId  path      string  true  "Vendor ID"
// @Success      200       {object}  httpt.PublicVendorResponse
// @Failure      400       {object}  httpt.ErrorResponse
// @Failure      404       {object}  httpt.ErrorResponse
// @Router       /vendor/{vendorId}/info [get]
func (h *Handler) vendorInfoHandler(c *gin.Context) {
	const op = "transport.vendorInfoHandler"

	vendorID, ok := h.uuidParam(c, op, "vendorId")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), _defaultContextTimeout)
	defer cancel()

	vendor, err := h.svc.Identity.GetVendor(ctx, vendorID)
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	c.JSON(http.StatusOK, PublicVendorResponse{Success: true, Vendor: vendor.Public()})
}

// @Summary      Pay a vendor by card
// @Description  Charges a card against the vendor's permanent QR code without a payment request.
// @Tags         Vendors
// @Accept       json
// @Produce      json
// @Param        vendorId         path      string             true   "Vendor ID"
// @Param        Idempotency-Key  header    string             false  "Replays the first successful response"
// @Param        body             body      entity.CardCharge  true   "Charge"
// @Success      200              {object}  httpt.TransactionResponse
// @Failure      400              {object}  httpt.ErrorResponse
// @Failure      402              {object}  httpt.ErrorResponse
// @Failure      404              {object}  httpt.ErrorResponse
// @Failure      502              {object}  httpt.ErrorResponse
// @Router       /vendor/{vendorId}/payment [post]
func (h *Handler) directPaymentHandler(c *gin.Context) {
	const op = "transport.directPaymentHandler"

	vendorID, ok := h.uuidParam(c, op, "vendorId")
	if !ok {
		return
	}

	var req entity.CardCharge
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleInvalidBody(c, op, err)
		return
	}
	req.VendorID = vendorID

	txn, err := h.svc.Payments.CreateDirectVendorPayment(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	c.JSON(http.StatusOK, TransactionResponse{Success: true, Transaction: txn})
}

// @Summary      Charge a saved card
// @Description  Charges a customer's saved payment method off-session for the vendor.
// @Tags         Vendors
// @Accept       json
// @Produce      json
// @Param        vendorId         path      string                  true   "Vendor ID"
// @Param        Idempotency-Key  header    string                  false  "Replays the first successful response"
// @Param        body             body      entity.SavedCardCharge  true   "Charge"
// @Success      200              {object}  httpt.TransactionResponse
// @Failure      400              {object}  httpt.ErrorResponse
// @Failure      402              {object}  httpt.ErrorResponse
// @Failure      404              {object}  httpt.ErrorResponse
// @Router       /vendor/{vendorId}/charge-saved [post]
func (h *Handler) chargeSavedHandler(c *gin.Context) {
	const op = "transport.chargeSavedHandler"

	vendorID, ok := h.uuidParam(c, op, "vendorId")
	if !ok {
		return
	}

	var req entity.SavedCardCharge
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleInvalidBody(c, op, err)
		return
	}
	req.VendorID = vendorID

	txn, err := h.svc.Payments.ChargeWithSavedInstrument(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	c.JSON(http.StatusOK, TransactionResponse{Success: true, Transaction: txn})
}

// uuidParam writes the 400 response itself when the path parameter is malformed.
func (h *Handler) uuidParam(c *gin.Context, op, name string) (uuid.UUID, bool) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		h.handleInvalidUUID(c, op, name, raw)
		return uuid.Nil, false
	}
	return id, true
}
