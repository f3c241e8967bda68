package showtimes

import (
	"context"
	"fmt"
	"time"

	"cineplex/internal/movies"
	"cineplex/internal/shared/apperror"
	"cineplex/internal/theaters"

	"github.com/google/uuid"
)

var (
	ErrScreenInactive   = apperror.New(apperror.KindValidation, "SCREEN_NOT_ACTIVE", "screen is not active")
	ErrScheduleConflict = apperror.New(apperror.KindConflict, "SCHEDULE_CONFLICT", "screen already has a showtime in that slot")
	ErrEmptyScreen      = apperror.New(apperror.KindValidation, "SCREEN_HAS_NO_SEATS", "screen has no seats")
)

type Service interface {
	CreateShowtime(ctx context.Context, req CreateShowtimeRequest) (*Showtime, error)
	GetShowtime(ctx context.Context, id uuid.UUID) (*Showtime, error)
	ListShowtimes(ctx context.Context, query ListQuery) ([]Showtime, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type service struct {
	repo     Repository
	movies   movies.Repository
	theaters theaters.Repository
	loc      *time.Location
	now      func() time.Time
}

func NewService(repo Repository, movieRepo movies.Repository, theaterRepo theaters.Repository, loc *time.Location) Service {
	return &service{repo: repo, movies: movieRepo, theaters: theaterRepo, loc: loc, now: time.Now}
}

func (s *service) CreateShowtime(ctx context.Context, req CreateShowtimeRequest) (*Showtime, error) {
	movieID, err := uuid.Parse(req.MovieID)
	if err != nil {
		return nil, apperror.New(apperror.KindValidation, "INVALID_MOVIE_ID", "invalid movie id")
	}
	screenID, err := uuid.Parse(req.ScreenID)
	if err != nil {
		return nil, apperror.New(apperror.KindValidation, "INVALID_SCREEN_ID", "invalid screen id")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, apperror.New(apperror.KindValidation, "INVALID_DATE", "date must be YYYY-MM-DD")
	}

	movie, err := s.movies.GetByID(ctx, movieID)
	if err != nil {
		return nil, err
	}
	screen, err := s.theaters.GetScreen(ctx, screenID)
	if err != nil {
		return nil, err
	}
	if !screen.IsActive {
		return nil, ErrScreenInactive
	}

	seats, err := s.theaters.GetScreenSeats(ctx, screenID)
	if err != nil {
		return nil, fmt.Errorf("failed to load screen seats: %w", err)
	}
	if len(seats) == 0 {
		return nil, ErrEmptyScreen
	}

	st := &Showtime{
		MovieID:        movie.ID,
		TheaterID:      screen.TheaterID,
		ScreenID:       screen.ID,
		Date:           date,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Prices:         req.Prices,
		TotalSeats:     len(seats),
		AvailableSeats: len(seats),
		IsActive:       true,
	}
	if st.EndTime == "" {
		st.EndTime = formatClock(st.StartsAt(s.loc).Add(time.Duration(movie.Duration) * time.Minute))
	}

	if !st.StartsAt(s.loc).After(s.now()) {
		return nil, apperror.New(apperror.KindValidation, "SHOWTIME_IN_PAST", "showtime must start in the future")
	}

	existing, err := s.repo.ListForScreenOnDate(ctx, screenID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to check schedule: %w", err)
	}
	for i := range existing {
		if overlaps(st, &existing[i], s.loc) {
			return nil, ErrScheduleConflict.WithDetails(existing[i].ID.String())
		}
	}

	if err := s.repo.Create(ctx, st); err != nil {
		return nil, fmt.Errorf("failed to create showtime: %w", err)
	}
	return st, nil
}

func overlaps(a, b *Showtime, loc *time.Location) bool {
	return a.StartsAt(loc).Before(b.EndsAt(loc)) && b.StartsAt(loc).Before(a.EndsAt(loc))
}

func (s *service) GetShowtime(ctx context.Context, id uuid.UUID) (*Showtime, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListShowtimes(ctx context.Context, query ListQuery) ([]Showtime, error) {
	return s.repo.List(ctx, query, s.now().In(s.loc))
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}
