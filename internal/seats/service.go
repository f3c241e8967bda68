package seats

import (
	"context"
	"fmt"

	"cineplex/internal/shared/constants"
	"cineplex/internal/showtimes"
	"cineplex/internal/theaters"
	"cineplex/pkg/cache"

	"github.com/google/uuid"
)

// Store is the read side of seat inventory: immutable screen layouts and
// per-showtime occupancy. Occupancy is only ever mutated by the
// reservation and booking transactions.
type Store interface {
	GetSeatLayout(ctx context.Context, screenID uuid.UUID) ([]theaters.Seat, error)
	GetOccupiedSeats(ctx context.Context, showtimeID uuid.UUID) (SeatSet, error)
	GetSeatMap(ctx context.Context, showtimeID uuid.UUID) (*SeatMap, error)
}

type store struct {
	repo      Repository
	theaters  theaters.Repository
	showtimes showtimes.Repository
	cache     cache.Service
}

func NewStore(repo Repository, theaterRepo theaters.Repository, showtimeRepo showtimes.Repository, cacheService cache.Service) Store {
	return &store{repo: repo, theaters: theaterRepo, showtimes: showtimeRepo, cache: cacheService}
}

// GetSeatLayout returns the seat templates ordered by row and number.
// Layouts never change after a screen is created, so they are cached.
func (s *store) GetSeatLayout(ctx context.Context, screenID uuid.UUID) ([]theaters.Seat, error) {
	var layout []theaters.Seat
	err := s.cache.GetOrSet(ctx, constants.BuildScreenLayoutKey(screenID.String()), constants.TTL_STATIC_LONG,
		func(ctx context.Context) (interface{}, error) {
			if _, err := s.theaters.GetScreen(ctx, screenID); err != nil {
				return nil, err
			}
			seats, err := s.theaters.GetScreenSeats(ctx, screenID)
			if err != nil {
				return nil, fmt.Errorf("failed to load layout: %w", err)
			}
			return seats, nil
		}, &layout)
	if err != nil {
		return nil, err
	}
	return layout, nil
}

func (s *store) GetOccupiedSeats(ctx context.Context, showtimeID uuid.UUID) (SeatSet, error) {
	occupied, err := s.repo.OccupiedSeats(ctx, showtimeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load occupancy: %w", err)
	}
	return occupied, nil
}

func (s *store) GetSeatMap(ctx context.Context, showtimeID uuid.UUID) (*SeatMap, error) {
	st, err := s.showtimes.GetByID(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	layout, err := s.GetSeatLayout(ctx, st.ScreenID)
	if err != nil {
		return nil, err
	}
	occupied, err := s.GetOccupiedSeats(ctx, showtimeID)
	if err != nil {
		return nil, err
	}

	m := &SeatMap{
		ShowtimeID:     st.ID,
		ScreenID:       st.ScreenID,
		TotalSeats:     st.TotalSeats,
		AvailableSeats: st.AvailableSeats,
	}
	for _, seat := range layout {
		if n := len(m.Rows); n == 0 || m.Rows[n-1].Row != seat.Row {
			m.Rows = append(m.Rows, MapRow{Row: seat.Row})
		}
		status := SeatAvailable
		if occupied.Has(KeyOf(seat)) {
			status = SeatOccupied
		}
		row := &m.Rows[len(m.Rows)-1]
		row.Seats = append(row.Seats, MapSeat{
			Row:      seat.Row,
			Number:   seat.Number,
			Label:    seat.Label(),
			Category: seat.Category,
			Price:    st.Prices.PriceFor(seat.Category, seat.Price),
			Status:   status,
		})
	}
	return m, nil
}
