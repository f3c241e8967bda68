package movies

import (
	"context"
	"fmt"
	"log/slog"

	"cineplex/internal/shared/constants"
	"cineplex/pkg/cache"

	"github.com/google/uuid"
)

type Service interface {
	CreateMovie(ctx context.Context, req CreateMovieRequest) (*Movie, error)
	GetMovie(ctx context.Context, id uuid.UUID) (*Movie, error)
	UpdateMovie(ctx context.Context, id uuid.UUID, req UpdateMovieRequest) (*Movie, error)
	ListMovies(ctx context.Context, query ListQuery) (*PaginatedMovies, error)
}

type service struct {
	repo  Repository
	cache cache.Service
	log   *slog.Logger
}

func NewService(repo Repository, cacheService cache.Service, log *slog.Logger) Service {
	return &service{repo: repo, cache: cacheService, log: log}
}

func (s *service) CreateMovie(ctx context.Context, req CreateMovieRequest) (*Movie, error) {
	status := req.Status
	if status == "" {
		status = StatusUpcoming
	}

	movie := &Movie{
		Title:         req.Title,
		Description:   req.Description,
		Genre:         req.Genre,
		Duration:      req.Duration,
		ReleaseDate:   req.ReleaseDate,
		EndDate:       req.EndDate,
		Director:      req.Director,
		Cast:          req.Cast,
		TrailerURL:    req.TrailerURL,
		PosterImage:   req.PosterImage,
		BackdropImage: req.BackdropImage,
		Rating:        req.Rating,
		AgeRating:     req.AgeRating,
		Language:      req.Language,
		Subtitles:     req.Subtitles,
		Status:        status,
		IsActive:      true,
	}

	if err := s.repo.Create(ctx, movie); err != nil {
		return nil, fmt.Errorf("failed to create movie: %w", err)
	}
	return movie, nil
}

func (s *service) GetMovie(ctx context.Context, id uuid.UUID) (*Movie, error) {
	var movie Movie
	err := s.cache.GetOrSet(ctx, constants.BuildMovieDetailKey(id.String()), constants.TTL_SEMI_STATIC_MEDIUM,
		func(ctx context.Context) (interface{}, error) {
			return s.repo.GetByID(ctx, id)
		}, &movie)
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

func (s *service) UpdateMovie(ctx context.Context, id uuid.UUID, req UpdateMovieRequest) (*Movie, error) {
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Genre != nil {
		updates["genre"] = req.Genre
	}
	if req.Duration != nil {
		updates["duration"] = *req.Duration
	}
	if req.EndDate != nil {
		updates["end_date"] = *req.EndDate
	}
	if req.PosterImage != nil {
		updates["poster_image"] = *req.PosterImage
	}
	if req.Rating != nil {
		updates["rating"] = *req.Rating
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) == 0 {
		return s.repo.GetByID(ctx, id)
	}

	movie, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Delete(ctx, constants.BuildMovieDetailKey(id.String())); err != nil {
		s.log.WarnContext(ctx, "failed to invalidate movie cache", slog.String("movie_id", id.String()), slog.String("error", err.Error()))
	}
	return movie, nil
}

func (s *service) ListMovies(ctx context.Context, query ListQuery) (*PaginatedMovies, error) {
	if query.Page == 0 {
		query.Page = 1
	}
	if query.Limit == 0 {
		query.Limit = 20
	}

	list, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}

	totalPages := int(total) / query.Limit
	if int(total)%query.Limit != 0 {
		totalPages++
	}

	return &PaginatedMovies{
		Movies:     list,
		TotalCount: total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: totalPages,
	}, nil
}
