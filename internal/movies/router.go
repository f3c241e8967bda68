package movies

import (
	"github.com/gin-gonic/gin"
)

func SetupMovieRoutes(router *gin.RouterGroup, controller Controller, adminOnly ...gin.HandlerFunc) {
	// Public catalog
	publicMovies := router.Group("/movies")
	{
		publicMovies.GET("", controller.ListMovies)   // GET /api/v1/movies?status=now_showing&genre=Action
		publicMovies.GET("/:id", controller.GetMovie) // GET /api/v1/movies/:id
	}

	adminMovies := router.Group("/admin/movies")
	adminMovies.Use(adminOnly...)
	{
		adminMovies.POST("", controller.CreateMovie)    // POST /api/v1/admin/movies
		adminMovies.PUT("/:id", controller.UpdateMovie) // PUT /api/v1/admin/movies/:id
	}
}
