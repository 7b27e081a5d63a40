package httpt

import (
	"context"
	"net/http"

	"qrpay/internal/entity"

	"github.com/gin-gonic/gin"
)

// @Summary      Register a user
// @Description  Creates a personal payee with a permanent transfer QR code. Phone numbers are not unique.
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        body  body      httpt.UserRegistration  true  "User details"
// @Success      200   {object}  httpt.UserResponse
// @Failure      400   {object}  httpt.ErrorResponse
// @Router       /user/register [post]
func (h *Handler) registerUserHandler(c *gin.Context) {
	const op = "transport.registerUserHandler"

	var req UserRegistration
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleInvalidBody(c, op, err)
		return
	}

	user, err := h.svc.Identity.RegisterUser(c.Request.Context(), req.Name, req.Phone)
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	c.JSON(http.StatusOK, UserResponse{Success: true, User: user})
}

// @Summary      User info
// @Tags         Users
// @Produce      json
// @Param        userId  path      string  true  "User ID"
// @Success      200     {object}  httpt.UserResponse
// @Failure      400     {object}  httpt.ErrorResponse
// @Failure      404     {object}  httpt.ErrorResponse
// @Router       /user/{userId}/info [get]
func (h *Handler) userInfoHandler(c *gin.Context) {
	const op = "transport.userInfoHandler"

	userID, ok := h.uuidParam(c, op, "userId")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), _defaultContextTimeout)
	defer cancel()

	user, err := h.svc.Identity.ResolveUser(ctx, userID)
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	c.JSON(http.StatusOK, UserResponse{Success: true, User: user})
}

// @Summary      Transfer to a user
// @Description  Records a peer transfer. No platform fee applies. A cash-out code goes to the user's phone.
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        userId           path      string                  true   "User ID"
// @Param        Idempotency-Key  header    string                  false  "Replays the first successful response"
// @Param        body             body      entity.TransferRequest  true   "Transfer"
// @Success      200              {object}  httpt.TransferResponse
// @Failure      400              {object}  httpt.ErrorResponse
// @Failure      404              {object}  httpt.ErrorResponse
// @Router       /user/{userId}/transfer [post]
func (h *Handler) transferHandler(c *gin.Context) {
	const op = "transport.transferHandler"

	userID, ok := h.uuidParam(c, op, "userId")
	if !ok {
		return
	}

	var req entity.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleInvalidBody(c, op, err)
		return
	}
	req.UserID = userID

	transfer, err := h.svc.Payments.TransferToUser(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	c.JSON(http.StatusOK, TransferResponse{Success: true, Transfer: transfer})
}
