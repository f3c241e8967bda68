package movies

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cineplex/internal/shared/constants"
	"cineplex/pkg/cache"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, movie *Movie) error {
	return m.Called(ctx, movie).Error(0)
}

func (m *mockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Movie, error) {
	args := m.Called(ctx, id)
	movie, _ := args.Get(0).(*Movie)
	return movie, args.Error(1)
}

func (m *mockRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*Movie, error) {
	args := m.Called(ctx, id, updates)
	movie, _ := args.Get(0).(*Movie)
	return movie, args.Error(1)
}

func (m *mockRepository) List(ctx context.Context, query ListQuery) ([]Movie, int64, error) {
	args := m.Called(ctx, query)
	list, _ := args.Get(0).([]Movie)
	return list, args.Get(1).(int64), args.Error(2)
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestGetMovieServedFromCache(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	repo := &mockRepository{}
	svc := NewService(repo, cache.NewService(client, quiet), quiet)

	id := uuid.New()
	redisMock.ExpectGet(constants.BuildMovieDetailKey(id.String())).
		SetVal(`{"id":"` + id.String() + `","title":"Dune: Part Two","duration":166}`)

	movie, err := svc.GetMovie(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, "Dune: Part Two", movie.Title)
	assert.Equal(t, 166, movie.Duration)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestGetMovieNotFound(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	repo := &mockRepository{}
	svc := NewService(repo, cache.NewService(client, quiet), quiet)

	id := uuid.New()
	redisMock.ExpectGet(constants.BuildMovieDetailKey(id.String())).RedisNil()
	repo.On("GetByID", mock.Anything, id).Return(nil, ErrMovieNotFound)

	_, err := svc.GetMovie(context.Background(), id)
	assert.ErrorIs(t, err, ErrMovieNotFound)
}

func TestUpdateMovieInvalidatesDetail(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	repo := &mockRepository{}
	svc := NewService(repo, cache.NewService(client, quiet), quiet)

	id := uuid.New()
	status := StatusNowShowing
	repo.On("Update", mock.Anything, id, map[string]interface{}{"status": status}).
		Return(&Movie{ID: id, Status: status}, nil)
	redisMock.ExpectDel(constants.BuildMovieDetailKey(id.String())).SetVal(1)

	movie, err := svc.UpdateMovie(context.Background(), id, UpdateMovieRequest{Status: &status})

	require.NoError(t, err)
	assert.Equal(t, StatusNowShowing, movie.Status)
	assert.NoError(t, redisMock.ExpectationsWereMet())
	repo.AssertExpectations(t)
}

func TestListMoviesDefaultsPaging(t *testing.T) {
	client, _ := redismock.NewClientMock()
	repo := &mockRepository{}
	svc := NewService(repo, cache.NewService(client, quiet), quiet)

	repo.On("List", mock.Anything, ListQuery{Page: 1, Limit: 20, Status: "now_showing"}).
		Return([]Movie{{Title: "Mai"}}, int64(41), nil)

	page, err := svc.ListMovies(context.Background(), ListQuery{Status: "now_showing"})

	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Movies, 1)
}

func TestCreateMovieRejectsUnknownAgeRating(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	SetupMovieRoutes(r.Group("/api/v1"), NewController(NewService(&mockRepository{}, nil, quiet)))

	body := `{"title":"X","genre":["Drama"],"duration":100,"releaseDate":"` + time.Now().Format(time.RFC3339) + `","ageRating":"M18"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/movies", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
