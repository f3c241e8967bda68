package theaters

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ScreenType string

const (
	Screen2D   ScreenType = "2D"
	Screen3D   ScreenType = "3D"
	ScreenIMAX ScreenType = "IMAX"
	Screen4DX  ScreenType = "4DX"
)

type SeatCategory string

const (
	CategoryRegular    SeatCategory = "regular"
	CategoryPremium    SeatCategory = "premium"
	CategoryVIP        SeatCategory = "vip"
	CategoryWheelchair SeatCategory = "wheelchair"
)

func (c SeatCategory) IsValid() bool {
	switch c {
	case CategoryRegular, CategoryPremium, CategoryVIP, CategoryWheelchair:
		return true
	}
	return false
}

type Theater struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name       string    `json:"name" gorm:"not null;size:255"`
	Address    string    `json:"address" gorm:"not null;size:500"`
	City       string    `json:"city" gorm:"not null;size:100;index"`
	State      string    `json:"state" gorm:"size:100"`
	ZipCode    string    `json:"zipCode" gorm:"size:20"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	Phone      string    `json:"phone" gorm:"size:30"`
	Email      string    `json:"email" gorm:"size:255"`
	Facilities []string  `json:"facilities" gorm:"serializer:json;type:jsonb"`
	IsActive   bool      `json:"isActive" gorm:"default:true"`
	CreatedAt  time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	Screens []Screen `json:"screens,omitempty" gorm:"foreignKey:TheaterID;constraint:OnDelete:CASCADE;"`
}

func (Theater) TableName() string {
	return "theaters"
}

type Screen struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	TheaterID  uuid.UUID  `json:"theaterId" gorm:"type:uuid;not null;index"`
	Name       string     `json:"name" gorm:"not null;size:100"`
	ScreenType ScreenType `json:"screenType" gorm:"type:varchar(10);not null;default:'2D'"`
	Capacity   int        `json:"capacity" gorm:"not null;check:capacity > 0"`
	IsActive   bool       `json:"isActive" gorm:"default:true"`
	CreatedAt  time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt  time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`

	Seats []Seat `json:"seats,omitempty" gorm:"foreignKey:ScreenID;constraint:OnDelete:CASCADE;"`
}

func (Screen) TableName() string {
	return "screens"
}

// Seat is template data for a screen. Occupancy lives in bookings.
type Seat struct {
	ID       uuid.UUID    `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ScreenID uuid.UUID    `json:"screenId" gorm:"type:uuid;not null;uniqueIndex:idx_screen_seat"`
	Row      string       `json:"row" gorm:"column:seat_row;size:2;not null;uniqueIndex:idx_screen_seat"`
	Number   int          `json:"number" gorm:"column:seat_number;not null;uniqueIndex:idx_screen_seat;check:seat_number > 0"`
	Category SeatCategory `json:"category" gorm:"type:varchar(20);not null;default:'regular'"`
	Price    float64      `json:"price" gorm:"type:numeric(12,2);not null;check:price >= 0"`
}

func (Seat) TableName() string {
	return "screen_seats"
}

// Label renders the seat as shown on tickets, e.g. "F7".
func (s Seat) Label() string {
	return fmt.Sprintf("%s%d", s.Row, s.Number)
}
