package showtimes

import (
	"context"
	"testing"
	"time"

	"cineplex/internal/movies"
	"cineplex/internal/theaters"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMovies struct {
	movies.Repository
	movie *movies.Movie
}

func (f fakeMovies) GetByID(_ context.Context, id uuid.UUID) (*movies.Movie, error) {
	if f.movie == nil || f.movie.ID != id {
		return nil, movies.ErrMovieNotFound
	}
	return f.movie, nil
}

type fakeTheaters struct {
	theaters.Repository
	screen *theaters.Screen
	seats  []theaters.Seat
}

func (f fakeTheaters) GetScreen(_ context.Context, id uuid.UUID) (*theaters.Screen, error) {
	if f.screen == nil || f.screen.ID != id {
		return nil, theaters.ErrScreenNotFound
	}
	return f.screen, nil
}

func (f fakeTheaters) GetScreenSeats(context.Context, uuid.UUID) ([]theaters.Seat, error) {
	return f.seats, nil
}

type fakeRepo struct {
	Repository
	existing []Showtime
	created  *Showtime
}

func (f *fakeRepo) Create(_ context.Context, st *Showtime) error {
	st.ID = uuid.New()
	f.created = st
	return nil
}

func (f *fakeRepo) ListForScreenOnDate(context.Context, uuid.UUID, time.Time) ([]Showtime, error) {
	return f.existing, nil
}

var hcm = time.FixedZone("ICT", 7*3600)

func fixture() (*service, *fakeRepo, *movies.Movie, *theaters.Screen) {
	movie := &movies.Movie{ID: uuid.New(), Title: "Lat Mat 7", Duration: 138}
	screen := &theaters.Screen{ID: uuid.New(), TheaterID: uuid.New(), IsActive: true}
	seats := make([]theaters.Seat, 48)
	repo := &fakeRepo{}
	svc := NewService(repo, fakeMovies{movie: movie}, fakeTheaters{screen: screen, seats: seats}, hcm).(*service)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, hcm) }
	return svc, repo, movie, screen
}

func TestCreateShowtimeCopiesSeatCount(t *testing.T) {
	svc, repo, movie, screen := fixture()

	st, err := svc.CreateShowtime(context.Background(), CreateShowtimeRequest{
		MovieID:   movie.ID.String(),
		ScreenID:  screen.ID.String(),
		Date:      "2026-03-02",
		StartTime: "19:30",
		Prices:    PriceTable{Regular: 90000, VIP: 150000},
	})

	require.NoError(t, err)
	assert.Equal(t, 48, st.TotalSeats)
	assert.Equal(t, 48, st.AvailableSeats)
	assert.Equal(t, screen.TheaterID, st.TheaterID)
	assert.Equal(t, "21:48", st.EndTime)
	assert.Same(t, st, repo.created)
}

func TestCreateShowtimeRejectsOverlap(t *testing.T) {
	svc, repo, movie, screen := fixture()
	repo.existing = []Showtime{{
		ID:        uuid.New(),
		Date:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		StartTime: "18:00",
		EndTime:   "20:00",
	}}

	_, err := svc.CreateShowtime(context.Background(), CreateShowtimeRequest{
		MovieID: movie.ID.String(), ScreenID: screen.ID.String(), Date: "2026-03-02", StartTime: "19:30",
	})
	assert.ErrorIs(t, err, ErrScheduleConflict)
	assert.Nil(t, repo.created)
}

func TestCreateShowtimeRejectsPast(t *testing.T) {
	svc, _, movie, screen := fixture()

	_, err := svc.CreateShowtime(context.Background(), CreateShowtimeRequest{
		MovieID: movie.ID.String(), ScreenID: screen.ID.String(), Date: "2026-03-01", StartTime: "08:00",
	})
	assert.Error(t, err)
}

func TestEndsAtRollsOverMidnight(t *testing.T) {
	st := Showtime{Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), StartTime: "23:15", EndTime: "01:05"}

	assert.Equal(t, time.Date(2026, 3, 2, 23, 15, 0, 0, hcm), st.StartsAt(hcm))
	assert.Equal(t, time.Date(2026, 3, 3, 1, 5, 0, 0, hcm), st.EndsAt(hcm))
}

func TestPriceForFallsBackToTemplate(t *testing.T) {
	p := PriceTable{Regular: 12, VIP: 20}

	assert.Equal(t, 12.0, p.PriceFor(theaters.CategoryRegular, 9))
	assert.Equal(t, 20.0, p.PriceFor(theaters.CategoryVIP, 9))
	assert.Equal(t, 9.0, p.PriceFor(theaters.CategoryPremium, 9))
}
