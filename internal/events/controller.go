package events

import (
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

// Search handles GET /api/events
func (c *Controller) Search(ctx *gin.Context) {
	query := SearchQuery{
		Query: ctx.Query("query"),
		Date:  ctx.Query("date"),
	}

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

	events, fromCache, err := c.service.Search(ctx.Request.Context(), query)
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to search events")
		return
	}

	if fromCache {
		ctx.Header("X-Cache", "HIT")
	} else {
		ctx.Header("X-Cache", "MISS")
	}

	ctx.JSON(http.StatusOK, events)
}
