package promotions

import (
	"github.com/gin-gonic/gin"
)

func SetupPromotionRoutes(rg *gin.RouterGroup, controller *Controller, adminOnly ...gin.HandlerFunc) {
	public := rg.Group("/promotions")
	{
		public.GET("", controller.ListActive)
		public.POST("/validate", controller.Preview)
	}

	admin := rg.Group("/admin/promotions")
	admin.Use(adminOnly...)
	{
		admin.POST("", controller.CreatePromotion)
		admin.DELETE("/:id", controller.Deactivate)
	}
}
