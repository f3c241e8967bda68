package seats

import (
	"net/http"

	"cineplex/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	store Store
}

func NewController(store Store) *Controller {
	return &Controller{store: store}
}

// GetSeatMap handles GET /api/v1/showtimes/:id/seats
func (ctrl *Controller) GetSeatMap(c *gin.Context) {
	showtimeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid showtime ID", nil, err.Error())
		return
	}

	m, err := ctrl.store.GetSeatMap(c.Request.Context(), showtimeID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Seat map retrieved successfully", m, nil)
}

// GetLayout handles GET /api/v1/screens/:id/seats
func (ctrl *Controller) GetLayout(c *gin.Context) {
	screenID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid screen ID", nil, err.Error())
		return
	}

	layout, err := ctrl.store.GetSeatLayout(c.Request.Context(), screenID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Seat layout retrieved successfully", layout, nil)
}
