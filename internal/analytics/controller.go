package analytics

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/hackload-kz/rorobotics/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// Get handles GET /api/analytics?id={event_id}
func (c *Controller) Get(ctx *gin.Context) {
	eventID, err := strconv.ParseInt(ctx.Query("id"), 10, 64)
	if err != nil || eventID <= 0 {
		response.Error(ctx, http.StatusBadRequest, "ID события должен быть > 0")
		return
	}

	result, err := c.service.GetEventAnalytics(ctx.Request.Context(), eventID)
	switch {
	case err == nil:
		ctx.JSON(http.StatusOK, result)
	case errors.Is(err, ErrEventNotFound):
		response.Error(ctx, http.StatusNotFound, "Событие не найдено")
	default:
		response.Error(ctx, http.StatusInternalServerError, "Не удалось получить аналитику")
	}
}
