package httpt

import (
	"net/http"
	"time"

	_ "qrpay/docs" // for swagger

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           QRPay API
// @version         1.0
// @description     QR code payments for vendors and peer transfers for users.
// @termsOfService  http://swagger.io/terms/
// @contact.name    API Support
// @contact.email   support@example.com
// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html
// @host            localhost:8080
// @BasePath        /api
// @schemes         http https
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func (h *Handler) setupRoutes() {
	h.router.GET("/health", h.healthHandler)

	api := h.router.Group("/api")
	auth := h.authMiddleware()
	idempotent := h.idempotencyMiddleware()

	vendor := api.Group("/vendor")
	{
		vendor.POST("/register", h.registerVendorHandler)
		vendor.POST("/login", h.loginHandler)
		vendor.POST("/logout", auth, h.logoutHandler)
		vendor.GET("/profile", auth, h.profileHandler)
		vendor.GET("/:vendorId/info", h.vendorInfoHandler)
		vendor.POST("/:vendorId/payment", idempotent, h.directPaymentHandler)
		vendor.POST("/:vendorId/charge-saved", idempotent, h.chargeSavedHandler)
	}

	payment := api.Group("/payment")
	{
		payment.GET("/options", h.paymentOptionsHandler)
		payment.POST("/generate", auth, h.generatePaymentHandler)
		payment.GET("/:id", h.getPaymentHandler)
		payment.POST("/:id/process", idempotent, h.processPaymentHandler)
	}

	api.POST("/wallet/:payeeId/payment", idempotent, h.walletPaymentHandler)

	user := api.Group("/user")
	{
		user.POST("/register", h.registerUserHandler)
		user.GET("/:userId/info", h.userInfoHandler)
		user.POST("/:userId/transfer", idempotent, h.transferHandler)
	}

	otp := api.Group("/otp")
	{
		otp.POST("/send", h.sendOTPHandler)
		otp.POST("/verify", h.verifyOTPHandler)
	}

	customers := api.Group("/customers")
	{
		customers.POST("/resolve", h.resolveCustomerHandler)
		customers.GET("/:customerId/instruments", h.listInstrumentsHandler)
		customers.POST("/:customerId/instruments", h.addInstrumentHandler)
		customers.POST("/:customerId/instruments/sync", h.syncInstrumentsHandler)
		customers.DELETE("/:customerId/instruments/:instrumentId", h.removeInstrumentHandler)
	}

	transactions := api.Group("/transactions")
	{
		transactions.GET("", auth, h.vendorTransactionsHandler)
		transactions.GET("/all", h.allTransactionsHandler)
		transactions.GET("/revenue", h.revenueHandler)
	}

	h.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// @Summary  Health check
// @Tags     Health
// @Produce  json
// @Success  200  {object}  httpt.HealthResponse
// @Router   /health [get]
func (h *Handler) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "OK", Timestamp: time.Now().UTC()})
}
