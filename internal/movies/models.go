package movies

import (
	"time"

	"github.com/google/uuid"
)

type Movie struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Title         string     `json:"title" gorm:"not null;size:255;index"`
	Description   string     `json:"description" gorm:"type:text"`
	Genre         []string   `json:"genre" gorm:"serializer:json;type:jsonb"`
	Duration      int        `json:"duration" gorm:"not null;check:duration > 0"` // minutes
	ReleaseDate   time.Time  `json:"releaseDate" gorm:"not null"`
	EndDate       *time.Time `json:"endDate"`
	Director      string     `json:"director" gorm:"size:255"`
	Cast          []string   `json:"cast" gorm:"serializer:json;type:jsonb"`
	TrailerURL    string     `json:"trailerUrl" gorm:"size:500"`
	PosterImage   string     `json:"posterImage" gorm:"size:500"`
	BackdropImage string     `json:"backdropImage" gorm:"size:500"`
	Rating        float64    `json:"rating" gorm:"default:0;check:rating >= 0 AND rating <= 10"`
	AgeRating     string     `json:"ageRating" gorm:"size:10"`
	Language      string     `json:"language" gorm:"size:50"`
	Subtitles     []string   `json:"subtitles" gorm:"serializer:json;type:jsonb"`
	Status        Status     `json:"status" gorm:"type:varchar(20);default:'upcoming';index"`
	IsActive      bool       `json:"isActive" gorm:"default:true"`
	CreatedAt     time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (Movie) TableName() string {
	return "movies"
}

type CreateMovieRequest struct {
	Title         string     `json:"title" binding:"required,min=1,max=255"`
	Description   string     `json:"description" binding:"max=5000"`
	Genre         []string   `json:"genre" binding:"required,min=1,dive,required"`
	Duration      int        `json:"duration" binding:"required,min=1,max=600"`
	ReleaseDate   time.Time  `json:"releaseDate" binding:"required"`
	EndDate       *time.Time `json:"endDate"`
	Director      string     `json:"director" binding:"max=255"`
	Cast          []string   `json:"cast"`
	TrailerURL    string     `json:"trailerUrl" binding:"omitempty,url"`
	PosterImage   string     `json:"posterImage" binding:"omitempty,url"`
	BackdropImage string     `json:"backdropImage" binding:"omitempty,url"`
	Rating        float64    `json:"rating" binding:"min=0,max=10"`
	AgeRating     string     `json:"ageRating" binding:"omitempty,oneof=G PG PG-13 R NC-17"`
	Language      string     `json:"language" binding:"max=50"`
	Subtitles     []string   `json:"subtitles"`
	Status        Status     `json:"status" binding:"omitempty,oneof=upcoming now_showing ended"`
}

type UpdateMovieRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=1,max=255"`
	Description *string    `json:"description" binding:"omitempty,max=5000"`
	Genre       []string   `json:"genre" binding:"omitempty,dive,required"`
	Duration    *int       `json:"duration" binding:"omitempty,min=1,max=600"`
	EndDate     *time.Time `json:"endDate"`
	PosterImage *string    `json:"posterImage" binding:"omitempty,url"`
	Rating      *float64   `json:"rating" binding:"omitempty,min=0,max=10"`
	Status      *Status    `json:"status" binding:"omitempty,oneof=upcoming now_showing ended"`
	IsActive    *bool      `json:"isActive"`
}

type ListQuery struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Search string `form:"search"`
	Genre  string `form:"genre"`
	Status string `form:"status" binding:"omitempty,oneof=upcoming now_showing ended"`
}

type PaginatedMovies struct {
	Movies     []Movie `json:"movies"`
	TotalCount int64   `json:"totalCount"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int     `json:"totalPages"`
}
