package theaters

import (
	"github.com/gin-gonic/gin"
)

func SetupTheaterRoutes(router *gin.RouterGroup, controller Controller, adminOnly ...gin.HandlerFunc) {
	publicTheaters := router.Group("/theaters")
	{
		publicTheaters.GET("", controller.ListTheaters)   // GET /api/v1/theaters?city=Hanoi
		publicTheaters.GET("/:id", controller.GetTheater) // GET /api/v1/theaters/:id
	}

	adminTheaters := router.Group("/admin/theaters")
	adminTheaters.Use(adminOnly...)
	{
		adminTheaters.POST("", controller.CreateTheater)            // POST /api/v1/admin/theaters
		adminTheaters.POST("/:id/screens", controller.CreateScreen) // POST /api/v1/admin/theaters/:id/screens
	}
}
