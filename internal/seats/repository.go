package seats

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository reads seat occupancy. Layout reads go through theaters.Repository.
type Repository interface {
	OccupiedSeats(ctx context.Context, showtimeID uuid.UUID) (SeatSet, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) OccupiedSeats(ctx context.Context, showtimeID uuid.UUID) (SeatSet, error) {
	return QueryOccupied(r.db.WithContext(ctx), showtimeID)
}

// QueryOccupied lists the seats held by confirmed bookings whose payment is
// pending or paid. Pass a transaction handle to read inside a claim.
func QueryOccupied(db *gorm.DB, showtimeID uuid.UUID) (SeatSet, error) {
	var rows []struct {
		SeatRow    string
		SeatNumber int
	}
	err := db.Table("booked_seats AS bs").
		Select("bs.seat_row, bs.seat_number").
		Joins("JOIN bookings b ON b.id = bs.booking_id").
		Where("bs.showtime_id = ? AND bs.active = ?", showtimeID, true).
		Where("b.status = ? AND b.payment_status IN ?", "confirmed", []string{"pending", "paid"}).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	set := make(SeatSet, len(rows))
	for _, row := range rows {
		set[SeatKey{Row: row.SeatRow, Number: row.SeatNumber}] = struct{}{}
	}
	return set, nil
}
