package promotions

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypePercentage   Type = "percentage"
	TypeFixed        Type = "fixed"
	TypeBuyOneGetOne Type = "buy_one_get_one"
)

type Promotion struct {
	ID                uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Code              string    `json:"code" gorm:"not null;size:50;uniqueIndex"`
	Name              string    `json:"name" gorm:"not null;size:255"`
	Description       string    `json:"description" gorm:"type:text"`
	Type              Type      `json:"type" gorm:"type:varchar(20);not null"`
	Value             float64   `json:"value" gorm:"type:numeric(12,2);not null;default:0"`
	MinOrderAmount    *float64  `json:"minOrderAmount,omitempty" gorm:"type:numeric(12,2)"`
	MaxDiscountAmount *float64  `json:"maxDiscountAmount,omitempty" gorm:"type:numeric(12,2)"`
	UsageLimit        *int      `json:"usageLimit,omitempty"`
	UsedCount         int       `json:"usedCount" gorm:"not null;default:0"`
	StartDate         time.Time `json:"startDate" gorm:"not null"`
	EndDate           time.Time `json:"endDate" gorm:"not null"`
	IsActive          bool      `json:"isActive" gorm:"default:true"`
	CreatedAt         time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt         time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (Promotion) TableName() string {
	return "promotions"
}

type CreatePromotionRequest struct {
	Code              string    `json:"code" binding:"required,min=3,max=50,alphanum"`
	Name              string    `json:"name" binding:"required,max=255"`
	Description       string    `json:"description" binding:"max=2000"`
	Type              Type      `json:"type" binding:"required"`
	Value             float64   `json:"value" binding:"min=0"`
	MinOrderAmount    *float64  `json:"minOrderAmount" binding:"omitempty,min=0"`
	MaxDiscountAmount *float64  `json:"maxDiscountAmount" binding:"omitempty,gt=0"`
	UsageLimit        *int      `json:"usageLimit" binding:"omitempty,min=1"`
	StartDate         time.Time `json:"startDate" binding:"required"`
	EndDate           time.Time `json:"endDate" binding:"required,gtfield=StartDate"`
}

type ValidateRequest struct {
	Code       string    `json:"code" binding:"required"`
	SeatPrices []float64 `json:"seatPrices" binding:"required,min=1,dive,min=0"`
}
