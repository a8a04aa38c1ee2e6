package payments

import (
	"net/http"

	"github.com/hackload-kz/rorobotics/internal/shared/config"
	"github.com/hackload-kz/rorobotics/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	lifecycle *Lifecycle
	gateway   Gateway
	config    *config.Config
}

func NewController(lifecycle *Lifecycle, gateway Gateway, cfg *config.Config) *Controller {
	return &Controller{
		lifecycle: lifecycle,
		gateway:   gateway,
		config:    cfg,
	}
}

// Webhook handles POST /api/webhook/payment
//
// Always answers 200 so the provider stops retrying; failures are
// logged and the reaper settles anything that slipped through.
func (c *Controller) Webhook(ctx *gin.Context) {
	var payload WebhookPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		logger.GetDefault().Warn("malformed payment webhook", "error", err)
		ctx.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	logger.GetDefault().Info("payment webhook received",
		"payment_id", payload.PaymentID, "status", payload.Status)

	if err := c.lifecycle.HandleWebhook(ctx.Request.Context(), payload.PaymentID, payload.Status); err != nil {
		logger.GetDefault().Error("failed to process payment webhook",
			"payment_id", payload.PaymentID, "error", err)
	}

	ctx.JSON(http.StatusOK, gin.H{"received": true})
}

// Success handles GET /api/payments/success
//
// Landing page the provider redirects to after payment. The status is
// re-checked so an AUTHORIZED payment gets captured even if the
// webhook is late.
func (c *Controller) Success(ctx *gin.Context) {
	paymentID := ctx.Query("paymentId")
	orderID := ctx.Query("orderId")

	logger.GetDefault().Info("payment success callback",
		"payment_id", paymentID, "order_id", orderID)

	if paymentID != "" {
		if err := c.lifecycle.HandleWebhook(ctx.Request.Context(), paymentID, GatewayStatusAuthorized); err != nil {
			logger.GetDefault().Warn("failed to settle payment in success callback",
				"payment_id", paymentID, "error", err)
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":    true,
		"status":     "completed",
		"message":    "Payment completed successfully",
		"payment_id": paymentID,
		"order_id":   orderID,
	})
}

// Fail handles GET /api/payments/fail
func (c *Controller) Fail(ctx *gin.Context) {
	paymentID := ctx.Query("paymentId")
	orderID := ctx.Query("orderId")

	logger.GetDefault().Info("payment fail callback",
		"payment_id", paymentID, "order_id", orderID)

	ctx.JSON(http.StatusOK, gin.H{
		"success":    false,
		"status":     "failed",
		"message":    "Payment failed or was cancelled",
		"payment_id": paymentID,
		"order_id":   orderID,
	})
}

// CircuitBreakerStatus handles GET /api/payments/circuit-breaker-status
func (c *Controller) CircuitBreakerStatus(ctx *gin.Context) {
	breaker := c.gateway.Breaker()

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"circuit_breaker": gin.H{
			"state":           breaker.State().String(),
			"failure_count":   breaker.FailureCount(),
			"threshold":       c.config.Payment.FailureThreshold,
			"timeout_seconds": int(c.config.Payment.OpenTimeout.Seconds()),
		},
	})
}
