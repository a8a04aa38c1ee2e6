package bookings

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// SetupBookingRoutes wires the booking lifecycle endpoints. Every
// route requires authentication.
func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller, auth gin.HandlerFunc) {
	bookings := rg.Group("/bookings", auth)
	{
		bookings.POST("", controller.Create)                          // POST /api/bookings
		bookings.GET("", controller.List)                             // GET /api/bookings
		bookings.PATCH("/cancel", controller.Cancel)                  // PATCH /api/bookings/cancel
		bookings.PATCH("/initiatePayment", controller.InitiatePayment) // PATCH /api/bookings/initiatePayment
		bookings.GET("/:id/payment-status", controller.PaymentStatus) // GET /api/bookings/:id/payment-status
	}
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
