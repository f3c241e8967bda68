package showtimes

import (
	"fmt"
	"time"

	"cineplex/internal/movies"
	"cineplex/internal/theaters"

	"github.com/google/uuid"
)

const clockLayout = "15:04"

// PriceTable holds the per-category ticket price for one showtime.
// A zero entry means "use the seat template price".
type PriceTable struct {
	Regular    float64 `json:"regular" gorm:"column:regular;type:numeric(12,2);default:0"`
	Premium    float64 `json:"premium" gorm:"column:premium;type:numeric(12,2);default:0"`
	VIP        float64 `json:"vip" gorm:"column:vip;type:numeric(12,2);default:0"`
	Wheelchair float64 `json:"wheelchair" gorm:"column:wheelchair;type:numeric(12,2);default:0"`
}

// PriceFor returns the showtime price for category, falling back to the
// seat template price when the table has no entry.
func (p PriceTable) PriceFor(category theaters.SeatCategory, templatePrice float64) float64 {
	var v float64
	switch category {
	case theaters.CategoryRegular:
		v = p.Regular
	case theaters.CategoryPremium:
		v = p.Premium
	case theaters.CategoryVIP:
		v = p.VIP
	case theaters.CategoryWheelchair:
		v = p.Wheelchair
	}
	if v > 0 {
		return v
	}
	return templatePrice
}

type Showtime struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	MovieID        uuid.UUID  `json:"movieId" gorm:"type:uuid;not null;index"`
	TheaterID      uuid.UUID  `json:"theaterId" gorm:"type:uuid;not null;index"`
	ScreenID       uuid.UUID  `json:"screenId" gorm:"type:uuid;not null;index:idx_showtime_screen_date"`
	Date           time.Time  `json:"date" gorm:"type:date;not null;index:idx_showtime_screen_date"`
	StartTime      string     `json:"startTime" gorm:"type:varchar(5);not null"`
	EndTime        string     `json:"endTime" gorm:"type:varchar(5);not null"`
	Prices         PriceTable `json:"prices" gorm:"embedded;embeddedPrefix:price_"`
	TotalSeats     int        `json:"totalSeats" gorm:"not null"`
	AvailableSeats int        `json:"availableSeats" gorm:"not null"`
	IsActive       bool       `json:"isActive" gorm:"default:true"`
	CreatedAt      time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`

	Movie   *movies.Movie     `json:"movie,omitempty" gorm:"foreignKey:MovieID"`
	Theater *theaters.Theater `json:"theater,omitempty" gorm:"foreignKey:TheaterID"`
	Screen  *theaters.Screen  `json:"screen,omitempty" gorm:"foreignKey:ScreenID"`
}

func (Showtime) TableName() string {
	return "showtimes"
}

// StartsAt is the wall-clock start of the showtime in loc.
func (s *Showtime) StartsAt(loc *time.Location) time.Time {
	return atClock(s.Date, s.StartTime, loc)
}

// EndsAt is the wall-clock end; an end time before the start rolls over midnight.
func (s *Showtime) EndsAt(loc *time.Location) time.Time {
	end := atClock(s.Date, s.EndTime, loc)
	if end.Before(s.StartsAt(loc)) {
		end = end.AddDate(0, 0, 1)
	}
	return end
}

func atClock(date time.Time, clock string, loc *time.Location) time.Time {
	t, err := time.Parse(clockLayout, clock)
	if err != nil {
		t = time.Time{}
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}

func formatClock(t time.Time) string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

type CreateShowtimeRequest struct {
	MovieID   string     `json:"movieId" binding:"required,uuid"`
	ScreenID  string     `json:"screenId" binding:"required,uuid"`
	Date      string     `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime string     `json:"startTime" binding:"required,datetime=15:04"`
	EndTime   string     `json:"endTime" binding:"omitempty,datetime=15:04"`
	Prices    PriceTable `json:"prices"`
}

type ListQuery struct {
	MovieID   string `form:"movieId" binding:"omitempty,uuid"`
	TheaterID string `form:"theaterId" binding:"omitempty,uuid"`
	Date      string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}
