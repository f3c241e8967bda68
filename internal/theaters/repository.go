package theaters

import (
	"context"
	"errors"

	"cineplex/internal/shared/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrTheaterNotFound = apperror.New(apperror.KindNotFound, "THEATER_NOT_FOUND", "theater not found")
	ErrScreenNotFound  = apperror.New(apperror.KindNotFound, "SCREEN_NOT_FOUND", "screen not found")
)

type Repository interface {
	CreateTheater(ctx context.Context, theater *Theater) error
	GetTheater(ctx context.Context, id uuid.UUID) (*Theater, error)
	ListTheaters(ctx context.Context, query ListTheatersQuery) ([]Theater, error)

	// CreateScreen inserts the screen and its seat templates in one transaction.
	CreateScreen(ctx context.Context, screen *Screen) error
	GetScreen(ctx context.Context, id uuid.UUID) (*Screen, error)
	GetScreenSeats(ctx context.Context, screenID uuid.UUID) ([]Seat, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateTheater(ctx context.Context, theater *Theater) error {
	return r.db.WithContext(ctx).Create(theater).Error
}

func (r *repository) GetTheater(ctx context.Context, id uuid.UUID) (*Theater, error) {
	var theater Theater
	err := r.db.WithContext(ctx).
		Preload("Screens", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Where("id = ?", id).
		First(&theater).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTheaterNotFound
		}
		return nil, err
	}
	return &theater, nil
}

func (r *repository) ListTheaters(ctx context.Context, query ListTheatersQuery) ([]Theater, error) {
	var list []Theater
	db := r.db.WithContext(ctx).Where("is_active = ?", true)
	if query.City != "" {
		db = db.Where("LOWER(city) = LOWER(?)", query.City)
	}
	err := db.Order("name ASC").Find(&list).Error
	return list, err
}

func (r *repository) CreateScreen(ctx context.Context, screen *Screen) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Theater{}).Where("id = ?", screen.TheaterID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrTheaterNotFound
		}
		// Seats are created through the association
		return tx.Create(screen).Error
	})
}

func (r *repository) GetScreen(ctx context.Context, id uuid.UUID) (*Screen, error) {
	var screen Screen
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&screen).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScreenNotFound
		}
		return nil, err
	}
	return &screen, nil
}

func (r *repository) GetScreenSeats(ctx context.Context, screenID uuid.UUID) ([]Seat, error) {
	var seats []Seat
	err := r.db.WithContext(ctx).
		Where("screen_id = ?", screenID).
		Order("seat_row ASC, seat_number ASC").
		Find(&seats).Error
	return seats, err
}
