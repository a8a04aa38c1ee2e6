package events

import "github.com/gin-gonic/gin"

// SetupEventRoutes configures event browsing routes
func SetupEventRoutes(rg *gin.RouterGroup, controller *Controller) {
	rg.GET("/events", controller.Search) // GET /api/events
}
