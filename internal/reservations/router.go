package reservations

import (
	"github.com/gin-gonic/gin"
)

func SetupReservationRoutes(rg *gin.RouterGroup, controller *Controller, requireAuth gin.HandlerFunc) {
	rg.POST("/bookings", requireAuth, controller.CreateBooking) // POST /api/v1/bookings
}
