package bookings

import (
	"net/http"

	"cineplex/internal/shared/middleware"
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

func requester(c *gin.Context) (Requester, bool) {
	principal, err := middleware.CurrentUser(c)
	if err != nil {
		response.RespondError(c, err)
		return Requester{}, false
	}
	return Requester{UserID: principal.UserID, Admin: principal.IsAdmin()}, true
}

func bookingID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return uuid.Nil, false
	}
	return id, true
}

// GetMyBookings handles GET /api/v1/bookings
func (ctrl *Controller) GetMyBookings(c *gin.Context) {
	who, ok := requester(c)
	if !ok {
		return
	}

	var query ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	page, err := ctrl.service.ListByUser(c.Request.Context(), who.UserID, query)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Bookings retrieved successfully", page, nil)
}

// GetBooking handles GET /api/v1/bookings/:id
func (ctrl *Controller) GetBooking(c *gin.Context) {
	who, ok := requester(c)
	if !ok {
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	b, err := ctrl.service.GetByID(c.Request.Context(), id, who)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Booking retrieved successfully", b, nil)
}

// GetByReference handles GET /api/v1/bookings/reference/:ref
func (ctrl *Controller) GetByReference(c *gin.Context) {
	who, ok := requester(c)
	if !ok {
		return
	}

	b, err := ctrl.service.GetByReference(c.Request.Context(), c.Param("ref"), who)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Booking retrieved successfully", b, nil)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func (ctrl *Controller) CancelBooking(c *gin.Context) {
	who, ok := requester(c)
	if !ok {
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var req CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
			return
		}
	}

	b, err := ctrl.service.Cancel(c.Request.Context(), id, req.Reason, who)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Booking cancelled successfully", b, nil)
}

// GetTicketQR handles GET /api/v1/bookings/:id/qrcode
func (ctrl *Controller) GetTicketQR(c *gin.Context) {
	who, ok := requester(c)
	if !ok {
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	png, err := ctrl.service.TicketQR(c.Request.Context(), id, who)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// ListAllBookings handles GET /api/v1/admin/bookings
func (ctrl *Controller) ListAllBookings(c *gin.Context) {
	var query ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	page, err := ctrl.service.ListAll(c.Request.Context(), query)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Bookings retrieved successfully", page, nil)
}
