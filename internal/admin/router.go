package admin

import (
	"github.com/gin-gonic/gin"
)

// SetupAdminRoutes wires the test data reset endpoint. It is left
// unauthenticated on purpose: load test harnesses call it between
// runs and the deployment keeps it off public ingress.
func SetupAdminRoutes(rg *gin.RouterGroup, controller *Controller) {
	rg.POST("/reset", controller.Reset) // POST /api/reset
}
