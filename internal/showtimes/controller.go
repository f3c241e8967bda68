package showtimes

import (
	"net/http"

	"cineplex/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller interface {
	CreateShowtime(c *gin.Context)
	GetShowtime(c *gin.Context)
	ListShowtimes(c *gin.Context)
	SetActive(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func (ctrl *controller) CreateShowtime(c *gin.Context) {
	var req CreateShowtimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	st, err := ctrl.service.CreateShowtime(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Showtime created successfully", st, nil)
}

func (ctrl *controller) GetShowtime(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid showtime ID", nil, err.Error())
		return
	}

	st, err := ctrl.service.GetShowtime(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Showtime retrieved successfully", st, nil)
}

func (ctrl *controller) ListShowtimes(c *gin.Context) {
	var query ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	list, err := ctrl.service.ListShowtimes(c.Request.Context(), query)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Showtimes retrieved successfully", list, nil)
}

type setActiveRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

func (ctrl *controller) SetActive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid showtime ID", nil, err.Error())
		return
	}

	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := ctrl.service.SetActive(c.Request.Context(), id, *req.IsActive); err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Showtime updated successfully", nil, nil)
}
