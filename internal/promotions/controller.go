package promotions

import (
	"net/http"

	"cineplex/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// ListActive handles GET /api/v1/promotions
func (ctrl *Controller) ListActive(c *gin.Context) {
	list, err := ctrl.service.ListActive(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Promotions retrieved successfully", list, nil)
}

// Preview handles POST /api/v1/promotions/validate
func (ctrl *Controller) Preview(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	preview, err := ctrl.service.Preview(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Promotion evaluated", preview, nil)
}

func (ctrl *Controller) CreatePromotion(c *gin.Context) {
	var req CreatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	p, err := ctrl.service.CreatePromotion(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusCreated, "Promotion created successfully", p, nil)
}

func (ctrl *Controller) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid promotion ID", nil, err.Error())
		return
	}

	if err := ctrl.service.Deactivate(c.Request.Context(), id); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Promotion deactivated", nil, nil)
}
