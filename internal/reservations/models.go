package reservations

import (
	"cineplex/internal/bookings"
	"cineplex/internal/promotions"
	"cineplex/internal/seats"

	"github.com/google/uuid"
)

// MaxSeatsPerClaim caps how many seats one booking may hold.
const MaxSeatsPerClaim = 10

type ClaimRequest struct {
	ShowtimeID    uuid.UUID
	Seats         []seats.SeatKey
	UserID        uuid.UUID
	PromoCode     string
	PaymentMethod bookings.PaymentMethod
}

type ClaimResult struct {
	Booking  *bookings.Booking    `json:"booking"`
	Warnings []promotions.Warning `json:"warnings"`
}

// CreateBookingRequest is the body of POST /bookings.
type CreateBookingRequest struct {
	ShowtimeID    string          `json:"showtimeId" binding:"required,uuid"`
	Seats         []seats.SeatKey `json:"seats" binding:"required,min=1,max=10,dive"`
	PromoCode     string          `json:"promoCode" binding:"omitempty,max=50"`
	PaymentMethod string          `json:"paymentMethod" binding:"required,oneof=momo zalopay cash"`
}
