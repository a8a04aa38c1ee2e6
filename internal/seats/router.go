package seats

import (
	"github.com/gin-gonic/gin"
)

// SetupSeatRoutes configures seat listing and the contended
// select/release operations. The auth middleware is supplied by the
// caller so listing can stay public.
func SetupSeatRoutes(rg *gin.RouterGroup, controller *Controller, auth gin.HandlerFunc) {
	seats := rg.Group("/seats")
	{
		seats.GET("", controller.List)                        // GET /api/seats
		seats.PATCH("/select", auth, controller.Select)       // PATCH /api/seats/select
		seats.PATCH("/release", auth, controller.Release)     // PATCH /api/seats/release
	}
}
