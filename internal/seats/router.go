package seats

import (
	"github.com/gin-gonic/gin"
)

func SetupSeatRoutes(rg *gin.RouterGroup, controller *Controller) {
	rg.GET("/showtimes/:id/seats", controller.GetSeatMap) // GET /api/v1/showtimes/:id/seats
	rg.GET("/screens/:id/seats", controller.GetLayout)    // GET /api/v1/screens/:id/seats
}
