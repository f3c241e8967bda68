package theaters

import (
	"context"
	"testing"

	"cineplex/internal/shared/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) CreateTheater(ctx context.Context, theater *Theater) error {
	return m.Called(ctx, theater).Error(0)
}

func (m *mockRepository) GetTheater(ctx context.Context, id uuid.UUID) (*Theater, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*Theater)
	return t, args.Error(1)
}

func (m *mockRepository) ListTheaters(ctx context.Context, query ListTheatersQuery) ([]Theater, error) {
	args := m.Called(ctx, query)
	list, _ := args.Get(0).([]Theater)
	return list, args.Error(1)
}

func (m *mockRepository) CreateScreen(ctx context.Context, screen *Screen) error {
	return m.Called(ctx, screen).Error(0)
}

func (m *mockRepository) GetScreen(ctx context.Context, id uuid.UUID) (*Screen, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*Screen)
	return s, args.Error(1)
}

func (m *mockRepository) GetScreenSeats(ctx context.Context, screenID uuid.UUID) ([]Seat, error) {
	args := m.Called(ctx, screenID)
	seats, _ := args.Get(0).([]Seat)
	return seats, args.Error(1)
}

func TestExpandRows(t *testing.T) {
	seats, err := ExpandRows([]RowBlock{
		{RowStart: "A", RowEnd: "B", SeatsPerRow: 3, Category: CategoryRegular, Price: 8},
		{RowStart: "C", RowEnd: "C", SeatsPerRow: 2, Category: CategoryVIP, Price: 15},
	})
	require.NoError(t, err)
	require.Len(t, seats, 8)

	assert.Equal(t, "A1", seats[0].Label())
	assert.Equal(t, "B3", seats[5].Label())
	assert.Equal(t, Seat{Row: "C", Number: 2, Category: CategoryVIP, Price: 15}, seats[7])
}

func TestExpandRowsRejectsBadLayouts(t *testing.T) {
	cases := map[string][]RowBlock{
		"reversed range": {{RowStart: "D", RowEnd: "B", SeatsPerRow: 3, Category: CategoryRegular}},
		"overlap": {
			{RowStart: "A", RowEnd: "C", SeatsPerRow: 3, Category: CategoryRegular},
			{RowStart: "C", RowEnd: "D", SeatsPerRow: 3, Category: CategoryPremium},
		},
		"unknown category": {{RowStart: "A", RowEnd: "A", SeatsPerRow: 3, Category: "balcony"}},
		"empty":            {},
	}
	for name, blocks := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ExpandRows(blocks)
			assert.ErrorIs(t, err, ErrInvalidLayout)
			assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
		})
	}
}

func TestCreateScreenSetsCapacityFromSeats(t *testing.T) {
	repo := &mockRepository{}
	svc := NewService(repo)
	theaterID := uuid.New()

	repo.On("CreateScreen", mock.Anything, mock.MatchedBy(func(s *Screen) bool {
		return s.TheaterID == theaterID && s.Capacity == 20 && len(s.Seats) == 20
	})).Return(nil)

	screen, err := svc.CreateScreen(context.Background(), theaterID, CreateScreenRequest{
		Name:       "Screen 1",
		ScreenType: ScreenIMAX,
		Rows:       []RowBlock{{RowStart: "A", RowEnd: "D", SeatsPerRow: 5, Category: CategoryRegular, Price: 10}},
	})

	require.NoError(t, err)
	assert.Equal(t, 20, screen.Capacity)
	repo.AssertExpectations(t)
}

func TestCreateScreenUnknownTheater(t *testing.T) {
	repo := &mockRepository{}
	repo.On("CreateScreen", mock.Anything, mock.Anything).Return(ErrTheaterNotFound)

	_, err := NewService(repo).CreateScreen(context.Background(), uuid.New(), CreateScreenRequest{
		Name:       "Screen 9",
		ScreenType: Screen2D,
		Rows:       []RowBlock{{RowStart: "A", RowEnd: "A", SeatsPerRow: 1, Category: CategoryRegular, Price: 5}},
	})
	assert.ErrorIs(t, err, ErrTheaterNotFound)
}
