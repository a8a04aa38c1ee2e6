package analytics

import (
	"github.com/gin-gonic/gin"
)

func SetupAnalyticsRoutes(rg *gin.RouterGroup, controller *Controller) {
	rg.GET("/analytics", controller.Get) // GET /api/analytics?id={event_id}
}
