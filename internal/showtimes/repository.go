package showtimes

import (
	"context"
	"errors"
	"time"

	"cineplex/internal/shared/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrShowtimeNotFound = apperror.New(apperror.KindNotFound, "SHOWTIME_NOT_FOUND", "showtime not found")

type Repository interface {
	Create(ctx context.Context, showtime *Showtime) error
	GetByID(ctx context.Context, id uuid.UUID) (*Showtime, error)
	List(ctx context.Context, query ListQuery, from time.Time) ([]Showtime, error)
	ListForScreenOnDate(ctx context.Context, screenID uuid.UUID, date time.Time) ([]Showtime, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, showtime *Showtime) error {
	return r.db.WithContext(ctx).Omit("Movie", "Theater", "Screen").Create(showtime).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Showtime, error) {
	var st Showtime
	err := r.db.WithContext(ctx).
		Preload("Movie").Preload("Theater").Preload("Screen").
		Where("id = ?", id).
		First(&st).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShowtimeNotFound
		}
		return nil, err
	}
	return &st, nil
}

// List returns active showtimes on or after from's date, earliest first.
func (r *repository) List(ctx context.Context, query ListQuery, from time.Time) ([]Showtime, error) {
	var list []Showtime
	db := r.db.WithContext(ctx).
		Preload("Movie").Preload("Theater").Preload("Screen").
		Where("is_active = ?", true)

	if query.MovieID != "" {
		db = db.Where("movie_id = ?", query.MovieID)
	}
	if query.TheaterID != "" {
		db = db.Where("theater_id = ?", query.TheaterID)
	}
	if query.Date != "" {
		db = db.Where("date = ?", query.Date)
	} else {
		db = db.Where("date >= ?", from.Format("2006-01-02"))
	}

	err := db.Order("date ASC, start_time ASC").Limit(200).Find(&list).Error
	return list, err
}

func (r *repository) ListForScreenOnDate(ctx context.Context, screenID uuid.UUID, date time.Time) ([]Showtime, error) {
	var list []Showtime
	err := r.db.WithContext(ctx).
		Where("screen_id = ? AND date = ? AND is_active = ?", screenID, date.Format("2006-01-02"), true).
		Find(&list).Error
	return list, err
}

func (r *repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result := r.db.WithContext(ctx).Model(&Showtime{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrShowtimeNotFound
	}
	return nil
}
