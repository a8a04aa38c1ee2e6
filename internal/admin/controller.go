package admin

import (
	"net/http"

	"github.com/hackload-kz/rorobotics/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// Reset handles POST /api/reset
//
// Load testing hook: drops bookings, payments, and seat assignments
// while preserving users and events.
func (c *Controller) Reset(ctx *gin.Context) {
	report, err := c.service.ResetTestData(ctx.Request.Context())
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Не удалось сбросить данные")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Все тестовые данные успешно сброшены",
		"details": report,
		"preserved": gin.H{
			"users":  "kept",
			"events": "kept",
		},
	})
}
