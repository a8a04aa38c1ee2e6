package payments

import (
	"github.com/gin-gonic/gin"
)

// SetupPaymentRoutes wires the gateway-facing endpoints. All of them
// are public: the webhook and the landing pages are called by the
// provider, not by authenticated users.
func SetupPaymentRoutes(rg *gin.RouterGroup, controller *Controller) {
	rg.POST("/webhook/payment", controller.Webhook) // POST /api/webhook/payment

	payments := rg.Group("/payments")
	{
		payments.GET("/success", controller.Success)                             // GET /api/payments/success
		payments.GET("/fail", controller.Fail)                                   // GET /api/payments/fail
		payments.GET("/circuit-breaker-status", controller.CircuitBreakerStatus) // GET /api/payments/circuit-breaker-status
	}
}
