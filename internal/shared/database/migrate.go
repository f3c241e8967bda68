package database

import (
	"fmt"

	"cineplex/internal/bookings"
	"cineplex/internal/movies"
	"cineplex/internal/payments"
	"cineplex/internal/promotions"
	"cineplex/internal/showtimes"
	"cineplex/internal/theaters"
	"cineplex/internal/users"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("failed to enable uuid-ossp: %w", err)
	}

	return db.AutoMigrate(
		&users.User{},
		&movies.Movie{},
		&theaters.Theater{},
		&theaters.Screen{},
		&theaters.Seat{},
		&showtimes.Showtime{},
		&promotions.Promotion{},
		&bookings.Booking{},
		&bookings.BookedSeat{},
		&payments.Transaction{},
	)
}
