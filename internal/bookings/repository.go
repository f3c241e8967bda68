package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cineplex/internal/promotions"
	"cineplex/internal/seats"
	"cineplex/internal/showtimes"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Tx is the view of the ledger inside a showtime-locked transaction. Every
// mutation of seat occupancy or the availableSeats counter goes through it.
type Tx interface {
	// Showtime is the locked showtime row as of the start of the transaction,
	// kept in step with AdjustAvailable.
	Showtime() *showtimes.Showtime
	OccupiedSeats() (seats.SeatSet, error)
	ReferenceTaken(ref string) (bool, error)
	Create(b *Booking) error
	LockBooking(id uuid.UUID) (*Booking, error)
	Update(b *Booking) error
	// ReleaseSeats deactivates the booking's active seats and returns how many changed.
	ReleaseSeats(bookingID uuid.UUID) (int, error)
	AdjustAvailable(delta int) error
	PromotionByCode(code string) (*promotions.Promotion, error)
	ConsumePromotion(id uuid.UUID) (bool, error)
}

type Repository interface {
	// WithShowtimeLock runs fn in a transaction holding the showtime row lock.
	// fn's error rolls everything back.
	WithShowtimeLock(ctx context.Context, showtimeID uuid.UUID, fn func(tx Tx) error) error

	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByReference(ctx context.Context, ref string) (*Booking, error)
	List(ctx context.Context, filter ListFilter) ([]Booking, int64, error)

	// ExpiredPending lists pending bookings whose hold ended before now.
	ExpiredPending(ctx context.Context, now time.Time, limit int) ([]Booking, error)
	// MarkCompleted closes paid bookings whose showtime ended before now.
	MarkCompleted(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

func NewRepository(db *gorm.DB, lockTimeout time.Duration) Repository {
	return &repository{db: db, lockTimeout: lockTimeout}
}

func (r *repository) WithShowtimeLock(ctx context.Context, showtimeID uuid.UUID, fn func(tx Tx) error) error {
	err := r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		if r.lockTimeout > 0 {
			if err := db.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())).Error; err != nil {
				return err
			}
		}

		var st showtimes.Showtime
		err := db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", showtimeID).First(&st).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return showtimes.ErrShowtimeNotFound
			}
			return err
		}

		return fn(&gormTx{db: db, showtime: &st})
	})
	return mapPgError(err)
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var b Booking
	err := r.db.WithContext(ctx).Preload("Seats", orderSeats).Where("id = ?", id).First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *repository) GetByReference(ctx context.Context, ref string) (*Booking, error) {
	var b Booking
	err := r.db.WithContext(ctx).Preload("Seats", orderSeats).Where("booking_reference = ?", ref).First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Booking, int64, error) {
	var list []Booking
	var total int64

	db := r.db.WithContext(ctx).Model(&Booking{})
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.ShowtimeID != nil {
		db = db.Where("showtime_id = ?", *filter.ShowtimeID)
	}
	if filter.PaymentStatus != "" {
		db = db.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Seats", orderSeats).
		Order("created_at DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&list).Error
	return list, total, err
}

func (r *repository) ExpiredPending(ctx context.Context, now time.Time, limit int) ([]Booking, error) {
	var list []Booking
	err := r.db.WithContext(ctx).
		Select("id", "showtime_id").
		Where("status = ? AND payment_status = ? AND hold_expires_at <= ?", StatusConfirmed, PaymentPending, now).
		Order("hold_expires_at ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *repository) MarkCompleted(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&Booking{}).
		Where("status = ? AND payment_status = ? AND showtime_ends_at < ?", StatusConfirmed, PaymentPaid, now).
		Update("status", StatusCompleted)
	return result.RowsAffected, result.Error
}

func orderSeats(db *gorm.DB) *gorm.DB {
	return db.Order("seat_row ASC, seat_number ASC")
}

type gormTx struct {
	db       *gorm.DB
	showtime *showtimes.Showtime
}

func (t *gormTx) Showtime() *showtimes.Showtime {
	return t.showtime
}

func (t *gormTx) OccupiedSeats() (seats.SeatSet, error) {
	return seats.QueryOccupied(t.db, t.showtime.ID)
}

func (t *gormTx) ReferenceTaken(ref string) (bool, error) {
	var count int64
	err := t.db.Model(&Booking{}).Where("booking_reference = ?", ref).Count(&count).Error
	return count > 0, err
}

func (t *gormTx) Create(b *Booking) error {
	for i := range b.Seats {
		b.Seats[i].ShowtimeID = b.ShowtimeID
		b.Seats[i].Active = true
	}
	return t.db.Create(b).Error
}

func (t *gormTx) LockBooking(id uuid.UUID) (*Booking, error) {
	var b Booking
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if err := t.db.Where("booking_id = ?", id).Order("seat_row ASC, seat_number ASC").Find(&b.Seats).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (t *gormTx) Update(b *Booking) error {
	return t.db.Model(&Booking{}).Where("id = ?", b.ID).Updates(map[string]interface{}{
		"payment_status":         b.PaymentStatus,
		"payment_transaction_id": b.PaymentTransactionID,
		"status":                 b.Status,
		"paid_at":                b.PaidAt,
		"cancelled_at":           b.CancelledAt,
		"cancellation_reason":    b.CancellationReason,
	}).Error
}

func (t *gormTx) ReleaseSeats(bookingID uuid.UUID) (int, error) {
	result := t.db.Model(&BookedSeat{}).
		Where("booking_id = ? AND active = ?", bookingID, true).
		Update("active", false)
	return int(result.RowsAffected), result.Error
}

func (t *gormTx) AdjustAvailable(delta int) error {
	result := t.db.Model(&showtimes.Showtime{}).
		Where("id = ? AND available_seats + ? BETWEEN 0 AND total_seats", t.showtime.ID, delta).
		UpdateColumn("available_seats", gorm.Expr("available_seats + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != 1 {
		return ErrInventoryInvariant.WithDetails(map[string]int{"available": t.showtime.AvailableSeats, "delta": delta})
	}
	t.showtime.AvailableSeats += delta
	return nil
}

func (t *gormTx) PromotionByCode(code string) (*promotions.Promotion, error) {
	return promotions.FindByCode(t.db.Clauses(clause.Locking{Strength: "UPDATE"}), code)
}

func (t *gormTx) ConsumePromotion(id uuid.UUID) (bool, error) {
	return promotions.Consume(t.db, id)
}
