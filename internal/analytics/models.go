package analytics

import (
	"time"

	"github.com/google/uuid"
)

// DashboardAnalytics is the admin overview served at /admin/analytics/dashboard.
type DashboardAnalytics struct {
	Overview        OverviewMetrics      `json:"overview"`
	PaymentStatuses []PaymentStatusCount `json:"paymentStatuses"`
	TopShowtimes    []ShowtimeOccupancy  `json:"topShowtimes"`
	RecentBookings  []RecentBookingItem  `json:"recentBookings"`
	GeneratedAt     time.Time            `json:"generatedAt"`
}

type OverviewMetrics struct {
	TotalMovies       int64   `json:"totalMovies"`
	ActiveTheaters    int64   `json:"activeTheaters"`
	UpcomingShowtimes int64   `json:"upcomingShowtimes"`
	TotalBookings     int64   `json:"totalBookings"`
	PaidRevenue       float64 `json:"paidRevenue"`
	TicketsSold       int64   `json:"ticketsSold"`
}

type PaymentStatusCount struct {
	PaymentStatus string  `json:"paymentStatus"`
	Bookings      int64   `json:"bookings"`
	Amount        float64 `json:"amount"`
}

// ShowtimeOccupancy ranks showtimes by the share of seats sold.
type ShowtimeOccupancy struct {
	ShowtimeID     uuid.UUID `json:"showtimeId"`
	MovieTitle     string    `json:"movieTitle"`
	TheaterName    string    `json:"theaterName"`
	Date           time.Time `json:"date"`
	StartTime      string    `json:"startTime"`
	TotalSeats     int       `json:"totalSeats"`
	AvailableSeats int       `json:"availableSeats"`
	OccupancyRate  float64   `json:"occupancyRate"`
}

type RecentBookingItem struct {
	ID               uuid.UUID `json:"id"`
	BookingReference string    `json:"bookingReference"`
	MovieTitle       string    `json:"movieTitle"`
	UserEmail        string    `json:"userEmail"`
	Seats            int       `json:"seats"`
	FinalAmount      float64   `json:"finalAmount"`
	PaymentStatus    string    `json:"paymentStatus"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
}
