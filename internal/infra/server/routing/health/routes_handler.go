package health

import (
	"net/http"

	"github.com/gin-gonic/gin"

	healthController "github.com/openappconfig/openappconfig/internal/api/controllers/health"
)

var subPath = "health"

type RoutesHandler struct {
	Controller healthController.Controller
}

func (h *RoutesHandler) RegisterRoutes(routerGroup *gin.RouterGroup) {
	routerGroup.GET(subPath, h.check)
}

// @Summary Health check
// @ID health-check
// @Tags health
// @Description Reports whether the service is up
// @Produce  json
// @Success 200 {object} health.Status
// @Router /health [get]
func (h *RoutesHandler) check(c *gin.Context) {
	c.JSON(http.StatusOK, h.Controller.Check(c.Request.Context()))
}
