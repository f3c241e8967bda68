package promotions

import (
	"context"
	"errors"
	"strings"
	"time"

	"cineplex/internal/shared/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrPromotionNotFound = apperror.New(apperror.KindNotFound, "PROMOTION_NOT_FOUND", "promotion not found")
	ErrDuplicateCode     = apperror.New(apperror.KindConflict, "PROMOTION_CODE_TAKEN", "promotion code already exists")
)

type Repository interface {
	Create(ctx context.Context, p *Promotion) error
	GetByCode(ctx context.Context, code string) (*Promotion, error)
	ListActive(ctx context.Context, now time.Time) ([]Promotion, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r *repository) Create(ctx context.Context, p *Promotion) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Promotion{}).Where("code = ?", p.Code).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateCode
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Promotion, error) {
	return FindByCode(r.db.WithContext(ctx), code)
}

func (r *repository) ListActive(ctx context.Context, now time.Time) ([]Promotion, error) {
	var list []Promotion
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND start_date <= ? AND end_date >= ?", true, now, now).
		Where("usage_limit IS NULL OR used_count < usage_limit").
		Order("end_date ASC").
		Find(&list).Error
	return list, err
}

func (r *repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&Promotion{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPromotionNotFound
	}
	return nil
}

// FindByCode loads a promotion by code on db, which may be a transaction.
func FindByCode(db *gorm.DB, code string) (*Promotion, error) {
	var p Promotion
	if err := db.Where("code = ?", NormalizeCode(code)).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPromotionNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Consume increments usedCount unless the usage limit has been reached.
// It reports false when the limit won the race.
func Consume(db *gorm.DB, id uuid.UUID) (bool, error) {
	result := db.Model(&Promotion{}).
		Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", id).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
