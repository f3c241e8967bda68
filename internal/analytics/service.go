package analytics

import (
	"context"
	"fmt"
	"time"

	"cineplex/internal/shared/constants"
	"cineplex/pkg/cache"
)

type Service interface {
	GetDashboardAnalytics(ctx context.Context) (*DashboardAnalytics, error)
	RefreshDashboard(ctx context.Context) error
}

type service struct {
	repo         Repository
	cacheService cache.Service
	now          func() time.Time
}

// NewService creates the analytics service. cacheService may be nil.
func NewService(repo Repository, cacheService cache.Service) Service {
	return &service{repo: repo, cacheService: cacheService, now: time.Now}
}

func (s *service) GetDashboardAnalytics(ctx context.Context) (*DashboardAnalytics, error) {
	if s.cacheService == nil {
		return s.buildDashboard(ctx)
	}

	var dashboard DashboardAnalytics
	err := s.cacheService.GetOrSet(ctx, constants.CACHE_KEY_ADMIN_DASHBOARD, constants.TTL_DYNAMIC_MEDIUM,
		func(ctx context.Context) (interface{}, error) {
			return s.buildDashboard(ctx)
		}, &dashboard)
	if err != nil {
		return nil, err
	}
	return &dashboard, nil
}

// RefreshDashboard drops the cached dashboard.
func (s *service) RefreshDashboard(ctx context.Context) error {
	if s.cacheService == nil {
		return nil
	}
	return s.cacheService.Delete(ctx, constants.CACHE_KEY_ADMIN_DASHBOARD)
}

func (s *service) buildDashboard(ctx context.Context) (*DashboardAnalytics, error) {
	now := s.now()

	overview, err := s.repo.GetOverviewMetrics(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get overview metrics: %w", err)
	}

	statuses, err := s.repo.GetPaymentStatusBreakdown(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment breakdown: %w", err)
	}

	top, err := s.repo.GetTopShowtimes(ctx, now, topShowtimesLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top showtimes: %w", err)
	}

	recent, err := s.repo.GetRecentBookings(ctx, recentBookingsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent bookings: %w", err)
	}

	return &DashboardAnalytics{
		Overview:        *overview,
		PaymentStatuses: statuses,
		TopShowtimes:    top,
		RecentBookings:  recent,
		GeneratedAt:     now.UTC(),
	}, nil
}
