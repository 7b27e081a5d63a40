package httpt

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      Vendor transactions
// @Description  Ledger entries of the signed-in vendor, newest first.
// @Tags         Transactions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  httpt.TransactionsResponse
// @Failure      401  {object}  httpt.ErrorResponse
// @Router       /transactions [get]
func (h *Handler) vendorTransactionsHandler(c *gin.Context) {
	const op = "transport.vendorTransactionsHandler"

	ctx, cancel := context.WithTimeout(c.Request.Context(), _defaultContextTimeout)
	defer cancel()

	txns, err := h.svc.Ledger.ListFor(ctx, currentVendor(c).ID)
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	c.JSON(http.StatusOK, TransactionsResponse{Success: true, Transactions: txns})
}

// @Summary      All transactions
// @Description  Platform-wide ledger, newest first.
// @Tags         Transactions
// @Produce      json
// @Success      200  {object}  httpt.TransactionsResponse
// @Router       /transactions/all [get]
func (h *Handler) allTransactionsHandler(c *gin.Context) {
	const op = "transport.allTransactionsHandler"

	ctx, cancel := context.WithTimeout(c.Request.Context(), _defaultContextTimeout)
	defer cancel()

	txns, err := h.svc.Ledger.ListAll(ctx)
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	c.JSON(http.StatusOK, TransactionsResponse{Success: true, Transactions: txns})
}

// @Summary      Platform revenue
// @Description  Totals over the whole ledger. Entries without a fee split count as zero fee.
// @Tags         Transactions
// @Produce      json
// @Success      200  {object}  httpt.RevenueResponse
// @Router       /transactions/revenue [get]
func (h *Handler) revenueHandler(c *gin.Context) {
	const op = "transport.revenueHandler"

	ctx, cancel := context.WithTimeout(c.Request.Context(), _defaultContextTimeout)
	defer cancel()

	summary, err := h.svc.Ledger.AggregateRevenue(ctx)
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	c.JSON(http.StatusOK, RevenueResponse{Success: true, Revenue: summary})
}
