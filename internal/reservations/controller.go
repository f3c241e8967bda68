package reservations

import (
	"net/http"

	"cineplex/internal/bookings"
	"cineplex/internal/shared/middleware"
	"cineplex/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	coordinator Coordinator
}

func NewController(coordinator Coordinator) *Controller {
	return &Controller{coordinator: coordinator}
}

// CreateBooking handles POST /api/v1/bookings
func (ctrl *Controller) CreateBooking(c *gin.Context) {
	principal, err := middleware.CurrentUser(c)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	result, err := ctrl.coordinator.ClaimSeats(c.Request.Context(), ClaimRequest{
		ShowtimeID:    uuid.MustParse(req.ShowtimeID),
		Seats:         req.Seats,
		UserID:        principal.UserID,
		PromoCode:     req.PromoCode,
		PaymentMethod: bookings.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Seats reserved, complete payment before the hold expires", result, nil)
}
