package bookings

import (
	"errors"
	"net/http"

	"github.com/hackload-kz/rorobotics/internal/payments"
	"github.com/hackload-kz/rorobotics/internal/shared/middleware"
	"github.com/hackload-kz/rorobotics/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// Create handles POST /api/bookings
func (c *Controller) Create(ctx *gin.Context) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.EventID <= 0 {
		response.Error(ctx, http.StatusBadRequest, "event_id должен быть > 0")
		return
	}

	booking, err := c.service.CreateBooking(ctx.Request.Context(), user.UserID, req.EventID)
	switch {
	case err == nil:
		ctx.JSON(http.StatusCreated, CreateBookingResponse{ID: booking.ID})
	case errors.Is(err, ErrEventNotFound):
		response.Error(ctx, http.StatusBadRequest, "Событие не найдено")
	default:
		response.Error(ctx, http.StatusInternalServerError, "Не удалось создать бронирование")
	}
}

// List handles GET /api/bookings
func (c *Controller) List(ctx *gin.Context) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "Unauthorized")
		return
	}

	views, err := c.service.GetUserBookings(ctx.Request.Context(), user.UserID)
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Не удалось получить список бронирований")
		return
	}

	ctx.JSON(http.StatusOK, views)
}

// Cancel handles PATCH /api/bookings/cancel
func (c *Controller) Cancel(ctx *gin.Context) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CancelBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.BookingID <= 0 {
		response.Error(ctx, http.StatusBadRequest, "booking_id должен быть > 0")
		return
	}

	err := c.service.CancelBooking(ctx.Request.Context(), user.UserID, req.BookingID)
	switch {
	case err == nil:
		response.Message(ctx, http.StatusOK, "Бронь успешно отменена")
	case errors.Is(err, ErrBookingNotFound), errors.Is(err, ErrNotOwner):
		response.Error(ctx, http.StatusForbidden, "Бронирование не найдено или не принадлежит вам")
	case errors.Is(err, ErrBookingPaid):
		response.Error(ctx, http.StatusConflict, "Оплаченную бронь нельзя отменить")
	default:
		response.Error(ctx, http.StatusInternalServerError, "Не удалось отменить бронирование")
	}
}

// InitiatePayment handles PATCH /api/bookings/initiatePayment
func (c *Controller) InitiatePayment(ctx *gin.Context) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req InitiatePaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.BookingID <= 0 {
		response.Error(ctx, http.StatusBadRequest, "booking_id должен быть > 0")
		return
	}

	result, err := c.service.InitiatePayment(ctx.Request.Context(), user.UserID, req.BookingID)
	if err == nil {
		ctx.JSON(http.StatusOK, result)
		return
	}

	var declined *GatewayDeclinedError
	switch {
	case errors.Is(err, ErrEmptyBooking):
		response.Error(ctx, http.StatusNotFound, "Booking not found or empty")
	case errors.Is(err, ErrInvalidAmount):
		response.Error(ctx, http.StatusBadRequest, "Invalid booking price")
	case errors.Is(err, payments.ErrCircuitOpen):
		response.Error(ctx, http.StatusServiceUnavailable, "Payment service temporarily unavailable. Please try again later.")
	case errors.As(err, &declined):
		response.Error(ctx, payments.HTTPStatusForGatewayCode(declined.Code), declined.Message)
	default:
		response.Error(ctx, http.StatusBadGateway, "Payment gateway connection error")
	}
}

// PaymentStatus handles GET /api/bookings/:id/payment-status
func (c *Controller) PaymentStatus(ctx *gin.Context) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "Unauthorized")
		return
	}

	bookingID, ok := parseID(ctx.Param("id"))
	if !ok {
		response.Error(ctx, http.StatusBadRequest, "Invalid booking id")
		return
	}

	result, err := c.service.GetPaymentStatus(ctx.Request.Context(), user.UserID, bookingID)
	switch {
	case err == nil:
		ctx.JSON(http.StatusOK, result)
	case errors.Is(err, ErrBookingNotFound):
		response.Error(ctx, http.StatusNotFound, "Payment for this booking not found")
	default:
		response.Error(ctx, http.StatusInternalServerError, "Database error")
	}
}
