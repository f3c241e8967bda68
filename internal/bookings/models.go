package bookings

import (
	"time"

	"cineplex/internal/seats"

	"github.com/google/uuid"
)

type Booking struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BookingReference string    `json:"bookingReference" gorm:"size:16;not null;uniqueIndex"`
	UserID           uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	ShowtimeID       uuid.UUID `json:"showtimeId" gorm:"type:uuid;not null;index"`

	// Denormalised from the showtime at claim time
	MovieID          uuid.UUID `json:"movieId" gorm:"type:uuid;not null"`
	TheaterID        uuid.UUID `json:"theaterId" gorm:"type:uuid;not null"`
	ScreenID         uuid.UUID `json:"screenId" gorm:"type:uuid;not null"`
	ShowtimeStartsAt time.Time `json:"showtimeStartsAt" gorm:"not null"`
	ShowtimeEndsAt   time.Time `json:"showtimeEndsAt" gorm:"not null;index"`

	Seats []BookedSeat `json:"seats" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE;"`

	TotalAmount    float64    `json:"totalAmount" gorm:"type:numeric(12,2);not null"`
	DiscountAmount float64    `json:"discountAmount" gorm:"type:numeric(12,2);not null;default:0"`
	FinalAmount    float64    `json:"finalAmount" gorm:"type:numeric(12,2);not null"`
	PromotionID    *uuid.UUID `json:"promotionId,omitempty" gorm:"type:uuid"`
	PromotionCode  string     `json:"promotionCode,omitempty" gorm:"size:50"`

	PaymentStatus        PaymentStatus `json:"paymentStatus" gorm:"type:varchar(20);not null;default:'pending';index"`
	PaymentMethod        PaymentMethod `json:"paymentMethod" gorm:"type:varchar(20);not null"`
	PaymentTransactionID string        `json:"paymentTransactionId,omitempty" gorm:"size:100"`
	Status               Status        `json:"status" gorm:"type:varchar(20);not null;default:'confirmed';index"`

	HoldExpiresAt      time.Time  `json:"holdExpiresAt" gorm:"not null;index"`
	PaidAt             *time.Time `json:"paidAt,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	CancellationReason string     `json:"cancellationReason,omitempty" gorm:"size:255"`

	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (Booking) TableName() string {
	return "bookings"
}

// HoldsSeats reports whether the booking currently occupies its seats.
func (b *Booking) HoldsSeats() bool {
	return b.Status == StatusConfirmed && b.PaymentStatus.HoldsSeats()
}

func (b *Booking) SeatKeys() []seats.SeatKey {
	keys := make([]seats.SeatKey, len(b.Seats))
	for i, s := range b.Seats {
		keys[i] = seats.SeatKey{Row: s.Row, Number: s.Number}
	}
	return keys
}

// BookedSeat is the price snapshot of one claimed seat. Active rows are
// unique per (showtime, row, number); releasing a booking clears Active.
type BookedSeat struct {
	ID         uuid.UUID `json:"-" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BookingID  uuid.UUID `json:"-" gorm:"type:uuid;not null;index"`
	ShowtimeID uuid.UUID `json:"-" gorm:"type:uuid;not null;index"`
	Row        string    `json:"row" gorm:"column:seat_row;size:2;not null"`
	Number     int       `json:"number" gorm:"column:seat_number;not null"`
	Category   string    `json:"category" gorm:"type:varchar(20);not null"`
	Price      float64   `json:"price" gorm:"type:numeric(12,2);not null"`
	Active     bool      `json:"-" gorm:"not null;default:true"`
}

func (BookedSeat) TableName() string {
	return "booked_seats"
}

// ListQuery is bound from the query string of booking list endpoints.
type ListQuery struct {
	Page          int    `form:"page" binding:"omitempty,min=1"`
	Limit         int    `form:"limit" binding:"omitempty,min=1,max=100"`
	PaymentStatus string `form:"paymentStatus" binding:"omitempty,oneof=pending paid failed refunded"`
	Status        string `form:"status" binding:"omitempty,oneof=confirmed cancelled completed"`
}

// ListFilter narrows a ledger listing. A nil UserID lists every user.
type ListFilter struct {
	UserID        *uuid.UUID
	ShowtimeID    *uuid.UUID
	PaymentStatus PaymentStatus
	Status        Status
	Limit         int
	Offset        int
}

type CancelRequest struct {
	Reason string `json:"reason" binding:"max=255"`
}

type PaginatedBookings struct {
	Bookings   []Booking `json:"bookings"`
	TotalCount int64     `json:"totalCount"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"totalPages"`
}
