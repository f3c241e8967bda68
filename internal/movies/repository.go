package movies

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"cineplex/internal/shared/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrMovieNotFound = apperror.New(apperror.KindNotFound, "MOVIE_NOT_FOUND", "movie not found")

type Repository interface {
	Create(ctx context.Context, movie *Movie) error
	GetByID(ctx context.Context, id uuid.UUID) (*Movie, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*Movie, error)
	List(ctx context.Context, query ListQuery) ([]Movie, int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, movie *Movie) error {
	return r.db.WithContext(ctx).Create(movie).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Movie, error) {
	var movie Movie
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&movie).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return &movie, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*Movie, error) {
	db := r.db.WithContext(ctx)
	result := db.Model(&Movie{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrMovieNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *repository) List(ctx context.Context, query ListQuery) ([]Movie, int64, error) {
	var movies []Movie
	var total int64

	db := r.db.WithContext(ctx).Model(&Movie{}).Where("is_active = ?", true)

	if query.Search != "" {
		term := "%" + strings.ToLower(query.Search) + "%"
		db = db.Where("LOWER(title) LIKE ? OR LOWER(director) LIKE ?", term, term)
	}
	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}
	if query.Genre != "" {
		// jsonb containment: genre @> '["Action"]'
		raw, _ := json.Marshal([]string{query.Genre})
		db = db.Where("genre @> ?::jsonb", string(raw))
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (query.Page - 1) * query.Limit
	err := db.Order("release_date DESC").Offset(offset).Limit(query.Limit).Find(&movies).Error
	return movies, total, err
}
