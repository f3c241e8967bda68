package payments

import (
	"github.com/gin-gonic/gin"
)

// SetupPaymentRoutes registers checkout and provider callback routes.
// Callbacks are authenticated by signature, not JWT.
func SetupPaymentRoutes(rg *gin.RouterGroup, controller *Controller, requireAuth gin.HandlerFunc) {
	payments := rg.Group("/payments")
	{
		payments.POST("/:provider/create", requireAuth, controller.CreatePayment) // POST /api/v1/payments/momo/create
		payments.POST("/:provider/callback", controller.Callback)                 // POST /api/v1/payments/zalopay/callback
	}
}
