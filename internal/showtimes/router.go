package showtimes

import (
	"github.com/gin-gonic/gin"
)

// SetupShowtimeRoutes registers the catalog routes. The seat map lives in
// the seats package under the same prefix.
func SetupShowtimeRoutes(router *gin.RouterGroup, controller Controller, adminOnly ...gin.HandlerFunc) {
	publicShowtimes := router.Group("/showtimes")
	{
		publicShowtimes.GET("", controller.ListShowtimes)   // GET /api/v1/showtimes?movieId=&theaterId=&date=
		publicShowtimes.GET("/:id", controller.GetShowtime) // GET /api/v1/showtimes/:id
	}

	adminShowtimes := router.Group("/admin/showtimes")
	adminShowtimes.Use(adminOnly...)
	{
		adminShowtimes.POST("", controller.CreateShowtime)        // POST /api/v1/admin/showtimes
		adminShowtimes.PATCH("/:id/active", controller.SetActive) // PATCH /api/v1/admin/showtimes/:id/active
	}
}
