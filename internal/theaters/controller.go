package theaters

import (
	"net/http"

	"cineplex/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller interface {
	CreateTheater(c *gin.Context)
	GetTheater(c *gin.Context)
	ListTheaters(c *gin.Context)
	CreateScreen(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func (ctrl *controller) CreateTheater(c *gin.Context) {
	var req CreateTheaterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	theater, err := ctrl.service.CreateTheater(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Theater created successfully", theater, nil)
}

func (ctrl *controller) GetTheater(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid theater ID", nil, err.Error())
		return
	}

	theater, err := ctrl.service.GetTheater(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Theater retrieved successfully", theater, nil)
}

func (ctrl *controller) ListTheaters(c *gin.Context) {
	var query ListTheatersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	list, err := ctrl.service.ListTheaters(c.Request.Context(), query)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Theaters retrieved successfully", list, nil)
}

func (ctrl *controller) CreateScreen(c *gin.Context) {
	theaterID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid theater ID", nil, err.Error())
		return
	}

	var req CreateScreenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	screen, err := ctrl.service.CreateScreen(c.Request.Context(), theaterID, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Screen created successfully", screen, nil)
}
