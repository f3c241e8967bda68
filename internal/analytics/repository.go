package analytics

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	topShowtimesLimit   = 10
	recentBookingsLimit = 20
)

// Repository defines the analytics repository interface
type Repository interface {
	GetOverviewMetrics(ctx context.Context, now time.Time) (*OverviewMetrics, error)
	GetPaymentStatusBreakdown(ctx context.Context) ([]PaymentStatusCount, error)
	GetTopShowtimes(ctx context.Context, now time.Time, limit int) ([]ShowtimeOccupancy, error)
	GetRecentBookings(ctx context.Context, limit int) ([]RecentBookingItem, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetOverviewMetrics(ctx context.Context, now time.Time) (*OverviewMetrics, error) {
	var overview OverviewMetrics
	db := r.db.WithContext(ctx)

	if err := db.Table("movies").Where("is_active = ?", true).Count(&overview.TotalMovies).Error; err != nil {
		return nil, fmt.Errorf("failed to count movies: %w", err)
	}

	if err := db.Table("theaters").Where("is_active = ?", true).Count(&overview.ActiveTheaters).Error; err != nil {
		return nil, fmt.Errorf("failed to count theaters: %w", err)
	}

	err := db.Table("showtimes").
		Where("is_active = ? AND date >= ?", true, now.Format("2006-01-02")).
		Count(&overview.UpcomingShowtimes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count upcoming showtimes: %w", err)
	}

	if err := db.Table("bookings").Count(&overview.TotalBookings).Error; err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}

	err = db.Table("bookings").
		Where("payment_status = ?", "paid").
		Select("COALESCE(SUM(final_amount), 0)").
		Scan(&overview.PaidRevenue).Error
	if err != nil {
		return nil, fmt.Errorf("failed to calculate paid revenue: %w", err)
	}

	err = db.Table("booked_seats").
		Joins("JOIN bookings ON bookings.id = booked_seats.booking_id").
		Where("bookings.payment_status = ? AND booked_seats.active = ?", "paid", true).
		Count(&overview.TicketsSold).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count tickets sold: %w", err)
	}

	return &overview, nil
}

func (r *repository) GetPaymentStatusBreakdown(ctx context.Context) ([]PaymentStatusCount, error) {
	var rows []PaymentStatusCount
	err := r.db.WithContext(ctx).Table("bookings").
		Select("payment_status, COUNT(*) AS bookings, COALESCE(SUM(final_amount), 0) AS amount").
		Group("payment_status").
		Order("payment_status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group bookings by payment status: %w", err)
	}
	return rows, nil
}

func (r *repository) GetTopShowtimes(ctx context.Context, now time.Time, limit int) ([]ShowtimeOccupancy, error) {
	var rows []ShowtimeOccupancy
	err := r.db.WithContext(ctx).Table("showtimes").
		Select(`showtimes.id AS showtime_id, movies.title AS movie_title, theaters.name AS theater_name,
			showtimes.date, showtimes.start_time, showtimes.total_seats, showtimes.available_seats,
			ROUND((showtimes.total_seats - showtimes.available_seats) * 100.0 / NULLIF(showtimes.total_seats, 0), 2) AS occupancy_rate`).
		Joins("JOIN movies ON movies.id = showtimes.movie_id").
		Joins("JOIN theaters ON theaters.id = showtimes.theater_id").
		Where("showtimes.is_active = ? AND showtimes.date >= ?", true, now.Format("2006-01-02")).
		Order("occupancy_rate DESC NULLS LAST, showtimes.date, showtimes.start_time").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to rank showtimes: %w", err)
	}
	return rows, nil
}

func (r *repository) GetRecentBookings(ctx context.Context, limit int) ([]RecentBookingItem, error) {
	var rows []RecentBookingItem
	err := r.db.WithContext(ctx).Table("bookings").
		Select(`bookings.id, bookings.booking_reference, movies.title AS movie_title, users.email AS user_email,
			(SELECT COUNT(*) FROM booked_seats WHERE booked_seats.booking_id = bookings.id) AS seats,
			bookings.final_amount, bookings.payment_status, bookings.status, bookings.created_at`).
		Joins("JOIN movies ON movies.id = bookings.movie_id").
		Joins("JOIN users ON users.id = bookings.user_id").
		Order("bookings.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get recent bookings: %w", err)
	}
	return rows, nil
}
