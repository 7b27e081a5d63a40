package httpt

import (
	"context"
	"net/http"

	"qrpay/internal/entity"

	"github.com/gin-gonic/gin"
)

// @Summary      Resolve or create a customer
// @Description  Returns the earliest customer sharing the phone or the email, creating one when nobody matches.
// @Tags         Customers
// @Accept       json
// @Produce      json
// @Param        body  body      entity.CustomerLookup  true  "Phone and/or email"
// @Success      200   {object}  httpt.CustomerResponse
// @Failure      400   {object}  httpt.ErrorResponse
// @Failure      502   {object}  httpt.ErrorResponse
// @Router       /customers/resolve [post]
func (h *Handler) resolveCustomerHandler(c *gin.Context) {
	const op = "transport.resolveCustomerHandler"

	var req entity.CustomerLookup
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleInvalidBody(c, op, err)
		return
	}

	customer, err := h.svc.Identity.ResolveOrCreateCustomer(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	c.JSON(http.StatusOK, CustomerResponse{Success: true, Customer: customer})
}

// @Summary      List saved payment methods
// @Tags         Customers
// @Produce      json
// @Param        customerId  path      string  true  "Customer ID"
// @Success      200         {object}  httpt.InstrumentsResponse
// @Failure      404         {object}  httpt.ErrorResponse
// @Router       /customers/{customerId}/instruments [get]
func (h *Handler) listInstrumentsHandler(c *gin.Context) {
	const op = "transport.listInstrumentsHandler"

	customerID, ok := h.uuidParam(c, op, "customerId")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), _defaultContextTimeout)
	defer cancel()

	instruments, err := h.svc.Identity.ListInstruments(ctx, customerID)
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	c.JSON(http.StatusOK, InstrumentsResponse{Success: true, Instruments: instruments})
}

// @Summary      Save a payment method
// @Description  Attaches the method to the customer's billing profile. Making it default clears the previous default.
// @Tags         Customers
// @Accept       json
// @Produce      json
// @Param        customerId  path      string                      true  "Customer ID"
// @Param        body        body      httpt.AddInstrumentRequest  true  "Payment method"
// @Success      200         {object}  httpt.InstrumentResponse
// @Failure      400         {object}  httpt.ErrorResponse
// @Failure      404         {object}  httpt.ErrorResponse
// @Failure      502         {object}  httpt.ErrorResponse
// @Router       /customers/{customerId}/instruments [post]
func (h *Handler) addInstrumentHandler(c *gin.Context) {
	const op = "transport.addInstrumentHandler"

	customerID, ok := h.uuidParam(c, op, "customerId")
	if !ok {
		return
	}

	var req AddInstrumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleInvalidBody(c, op, err)
		return
	}

	instrument, err := h.svc.Identity.AddInstrument(c.Request.Context(), customerID, req.PaymentMethodID, req.SetDefault)
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	c.JSON(http.StatusOK, InstrumentResponse{Success: true, Instrument: instrument})
}

// @Summary      Remove a payment method
// @Tags         Customers
// @Produce      json
// @Param        customerId    path      string  true  "Customer ID"
// @Param        instrumentId  path      string  true  "Payment method ID"
// @Success      200           {object}  httpt.SuccessResponse
// @Failure      404           {object}  httpt.ErrorResponse
// @Failure      502           {object}  httpt.ErrorResponse
// @Router       /customers/{customerId}/instruments/{instrumentId} [delete]
func (h *Handler) removeInstrumentHandler(c *gin.Context) {
	const op = "transport.removeInstrumentHandler"

	customerID, ok := h.uuidParam(c, op, "customerId")
	if !ok {
		return
	}

	if err := h.svc.Identity.RemoveInstrument(c.Request.Context(), customerID, c.Param("instrumentId")); err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// @Summary      Sync saved payment methods
// @Description  Reloads the customer's methods from the processor. Methods detached elsewhere disappear and new ones are added.
// @Tags         Customers
// @Produce      json
// @Param        customerId  path      string  true  "Customer ID"
// @Success      200         {object}  httpt.InstrumentsResponse
// @Failure      404         {object}  httpt.ErrorResponse
// @Failure      502         {object}  httpt.ErrorResponse
// @Router       /customers/{customerId}/instruments/sync [post]
func (h *Handler) syncInstrumentsHandler(c *gin.Context) {
	const op = "transport.syncInstrumentsHandler"

	customerID, ok := h.uuidParam(c, op, "customerId")
	if !ok {
		return
	}

	instruments, err := h.svc.Identity.SyncInstruments(c.Request.Context(), customerID)
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	c.JSON(http.StatusOK, InstrumentsResponse{Success: true, Instruments: instruments})
}
