package theaters

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Service interface {
	CreateTheater(ctx context.Context, req CreateTheaterRequest) (*Theater, error)
	GetTheater(ctx context.Context, id uuid.UUID) (*Theater, error)
	ListTheaters(ctx context.Context, query ListTheatersQuery) ([]Theater, error)
	CreateScreen(ctx context.Context, theaterID uuid.UUID, req CreateScreenRequest) (*Screen, error)
	GetScreen(ctx context.Context, id uuid.UUID) (*Screen, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateTheater(ctx context.Context, req CreateTheaterRequest) (*Theater, error) {
	theater := &Theater{
		Name:       strings.TrimSpace(req.Name),
		Address:    req.Address,
		City:       req.City,
		State:      req.State,
		ZipCode:    req.ZipCode,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Phone:      req.Phone,
		Email:      req.Email,
		Facilities: req.Facilities,
		IsActive:   true,
	}
	if err := s.repo.CreateTheater(ctx, theater); err != nil {
		return nil, fmt.Errorf("failed to create theater: %w", err)
	}
	return theater, nil
}

func (s *service) GetTheater(ctx context.Context, id uuid.UUID) (*Theater, error) {
	return s.repo.GetTheater(ctx, id)
}

func (s *service) ListTheaters(ctx context.Context, query ListTheatersQuery) ([]Theater, error) {
	return s.repo.ListTheaters(ctx, query)
}

// CreateScreen builds the seat templates from row blocks. Capacity always
// equals the number of generated seats.
func (s *service) CreateScreen(ctx context.Context, theaterID uuid.UUID, req CreateScreenRequest) (*Screen, error) {
	seats, err := ExpandRows(req.Rows)
	if err != nil {
		return nil, err
	}

	screen := &Screen{
		TheaterID:  theaterID,
		Name:       strings.TrimSpace(req.Name),
		ScreenType: req.ScreenType,
		Capacity:   len(seats),
		IsActive:   true,
		Seats:      seats,
	}
	if err := s.repo.CreateScreen(ctx, screen); err != nil {
		return nil, err
	}
	return screen, nil
}

func (s *service) GetScreen(ctx context.Context, id uuid.UUID) (*Screen, error) {
	return s.repo.GetScreen(ctx, id)
}
