package httpt

import (
	"net/http"

	"qrpay/internal/entity"

	"github.com/gin-gonic/gin"
)

// @Summary      Send a verification code
// @Description  Replaces any earlier code for the phone. Outside production, without an SMS transport, the code is returned as otpTestCode.
// @Tags         OTP
// @Accept       json
// @Produce      json
// @Param        body  body      httpt.OTPSendRequest  true  "Phone and purpose"
// @Success      200   {object}  httpt.OTPResponse
// @Failure      400   {object}  httpt.ErrorResponse
// @Router       /otp/send [post]
func (h *Handler) sendOTPHandler(c *gin.Context) {
	const op = "transport.sendOTPHandler"

	var req OTPSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleInvalidBody(c, op, err)
		return
	}
	if req.Purpose == "" {
		req.Purpose = entity.PurposeVerification
	}

	dispatch, err := h.svc.OTP.Issue(c.Request.Context(), req.Phone, req.Purpose)
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	c.JSON(http.StatusOK, OTPResponse{Success: true, OTP: dispatch})
}

// @Summary      Verify a code
// @Description  A verified code cannot be used again.
// @Tags         OTP
// @Accept       json
// @Produce      json
// @Param        body  body      httpt.OTPVerifyRequest  true  "Phone and code"
// @Success      200   {object}  httpt.VerifiedResponse
// @Failure      400   {object}  httpt.ErrorResponse  "Code does not match"
// @Failure      404   {object}  httpt.ErrorResponse  "No code requested"
// @Failure      410   {object}  httpt.ErrorResponse  "Code expired"
// @Router       /otp/verify [post]
func (h *Handler) verifyOTPHandler(c *gin.Context) {
	const op = "transport.verifyOTPHandler"

	var req OTPVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleInvalidBody(c, op, err)
		return
	}

	if err := h.svc.OTP.Verify(c.Request.Context(), req.Phone, req.Code); err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	c.JSON(http.StatusOK, VerifiedResponse{Success: true, Verified: true})
}
