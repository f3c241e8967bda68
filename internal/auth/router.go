package auth

import (
	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes registers all auth routes
func SetupAuthRoutes(rg *gin.RouterGroup, controller *Controller, requireAuth gin.HandlerFunc) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", controller.Register) // POST /api/v1/auth/register
		auth.POST("/login", controller.Login)       // POST /api/v1/auth/login
		auth.POST("/refresh", controller.RefreshToken)

		protected := auth.Group("")
		protected.Use(requireAuth)
		{
			protected.PUT("/change-password", controller.ChangePassword)
			protected.GET("/me", controller.GetMe)
		}
	}
}
