package analytics

import (
	"github.com/gin-gonic/gin"
)

func SetupAnalyticsRoutes(rg *gin.RouterGroup, controller Controller, adminOnly ...gin.HandlerFunc) {
	admin := rg.Group("/admin/analytics")
	admin.Use(adminOnly...)

	admin.GET("/dashboard", controller.GetDashboardAnalytics)
	admin.POST("/dashboard/refresh", controller.RefreshDashboard)
}
