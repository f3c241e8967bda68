package analytics

import (
	"net/http"

	"cineplex/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller interface {
	GetDashboardAnalytics(c *gin.Context)
	RefreshDashboard(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

// GetDashboardAnalytics handles GET /api/v1/admin/analytics/dashboard
func (ctrl *controller) GetDashboardAnalytics(c *gin.Context) {
	dashboard, err := ctrl.service.GetDashboardAnalytics(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Dashboard analytics retrieved successfully", dashboard, nil)
}

// RefreshDashboard handles POST /api/v1/admin/analytics/dashboard/refresh
func (ctrl *controller) RefreshDashboard(c *gin.Context) {
	if err := ctrl.service.RefreshDashboard(c.Request.Context()); err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Dashboard cache cleared", nil, nil)
}
