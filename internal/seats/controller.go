package seats

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/hackload-kz/rorobotics/internal/shared/middleware"
	"github.com/hackload-kz/rorobotics/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

// StatusSeatConflict is the non-standard code the API uses to signal
// seat contention distinctly from 409.
const StatusSeatConflict = 419

const msgSeatTaken = "Место уже зарезервировано"

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// List handles GET /api/seats
func (c *Controller) List(ctx *gin.Context) {
	eventID, err := strconv.ParseInt(ctx.Query("event_id"), 10, 64)
	if err != nil || eventID <= 0 {
		response.Error(ctx, http.StatusBadRequest, "event_id is required")
		return
	}

	query := ListQuery{EventID: eventID, Status: ctx.Query("status")}

	if pageStr := ctx.Query("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			response.Error(ctx, http.StatusBadRequest, "Invalid page")
			return
		}
		query.Page = page
	}

	if sizeStr := ctx.Query("pageSize"); sizeStr != "" {
		size, err := strconv.Atoi(sizeStr)
		if err != nil || size < 1 {
			response.Error(ctx, http.StatusBadRequest, "Invalid pageSize")
			return
		}
		query.PageSize = size
	}

	if rowStr := ctx.Query("row"); rowStr != "" {
		row, err := strconv.Atoi(rowStr)
		if err != nil || row < 1 {
			response.Error(ctx, http.StatusBadRequest, "Invalid row")
			return
		}
		query.Row = row
	}

	seats, err := c.service.ListSeats(ctx.Request.Context(), query)
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to load seats")
		return
	}

	ctx.JSON(http.StatusOK, seats)
}

// Select handles PATCH /api/seats/select
func (c *Controller) Select(ctx *gin.Context) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req SelectSeatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := c.service.SelectSeat(ctx.Request.Context(), user.UserID, req.BookingID, req.SeatID)
	switch {
	case err == nil:
		response.Message(ctx, http.StatusOK, "Место выбрано")
	case errors.Is(err, ErrSeatHeld), errors.Is(err, ErrBookingConflict):
		response.Error(ctx, StatusSeatConflict, msgSeatTaken)
	default:
		response.Error(ctx, http.StatusInternalServerError, "Failed to select seat")
	}
}

// Release handles PATCH /api/seats/release
func (c *Controller) Release(ctx *gin.Context) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req ReleaseSeatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := c.service.ReleaseSeat(ctx.Request.Context(), user.UserID, req.SeatID)
	switch {
	case err == nil:
		response.Message(ctx, http.StatusOK, "Место освобождено")
	case errors.Is(err, ErrNotOwner):
		response.Error(ctx, http.StatusForbidden, "Место принадлежит другому пользователю")
	case errors.Is(err, ErrSeatNotFound):
		response.Error(ctx, http.StatusNotFound, "Место не найдено")
	case errors.Is(err, ErrSeatNotReserved):
		response.Error(ctx, StatusSeatConflict, "Место не зарезервировано")
	default:
		response.Error(ctx, http.StatusInternalServerError, "Failed to release seat")
	}
}
