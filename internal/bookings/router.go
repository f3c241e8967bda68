package bookings

import (
	"github.com/gin-gonic/gin"
)

// SetupBookingRoutes registers the ledger routes. Seat claims (POST /bookings)
// are registered by the reservations package on the same group. adminOnly
// must authenticate on its own; it is not preceded by requireAuth.
func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller, requireAuth gin.HandlerFunc, adminOnly ...gin.HandlerFunc) {
	bookings := rg.Group("/bookings")
	bookings.Use(requireAuth)
	{
		bookings.GET("", controller.GetMyBookings)                 // GET /api/v1/bookings?paymentStatus=paid
		bookings.GET("/:id", controller.GetBooking)                // GET /api/v1/bookings/:id
		bookings.GET("/reference/:ref", controller.GetByReference) // GET /api/v1/bookings/reference/TML...
		bookings.POST("/:id/cancel", controller.CancelBooking)     // POST /api/v1/bookings/:id/cancel
		bookings.GET("/:id/qrcode", controller.GetTicketQR)        // GET /api/v1/bookings/:id/qrcode
	}

	admin := rg.Group("/admin/bookings")
	admin.Use(adminOnly...)
	{
		admin.GET("", controller.ListAllBookings)
		admin.POST("/:id/cancel", controller.CancelBooking)
	}
}
