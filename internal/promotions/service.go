package promotions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cineplex/internal/shared/utils/money"

	"github.com/google/uuid"
)

type Service interface {
	CreatePromotion(ctx context.Context, req CreatePromotionRequest) (*Promotion, error)
	ListActive(ctx context.Context) ([]Promotion, error)
	Preview(ctx context.Context, req ValidateRequest) (*PreviewResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type PreviewResponse struct {
	Code        string   `json:"code"`
	Subtotal    float64  `json:"subtotal"`
	Discount    float64  `json:"discount"`
	FinalAmount float64  `json:"finalAmount"`
	Warning     *Warning `json:"warning,omitempty"`
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) CreatePromotion(ctx context.Context, req CreatePromotionRequest) (*Promotion, error) {
	p := &Promotion{
		Code:              NormalizeCode(req.Code),
		Name:              req.Name,
		Description:       req.Description,
		Type:              req.Type,
		Value:             req.Value,
		MinOrderAmount:    req.MinOrderAmount,
		MaxDiscountAmount: req.MaxDiscountAmount,
		UsageLimit:        req.UsageLimit,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		IsActive:          true,
	}
	// Unknown types and out-of-range values never reach the table
	if _, err := RuleOf(p); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) ListActive(ctx context.Context) ([]Promotion, error) {
	return s.repo.ListActive(ctx, s.now())
}

// Preview prices a code without consuming it.
func (s *service) Preview(ctx context.Context, req ValidateRequest) (*PreviewResponse, error) {
	p, err := s.repo.GetByCode(ctx, req.Code)
	if err != nil && !errors.Is(err, ErrPromotionNotFound) {
		return nil, fmt.Errorf("failed to load promotion: %w", err)
	}

	q := Quote{SeatPrices: req.SeatPrices}
	out := Evaluate(p, q, s.now())
	subtotal := q.Subtotal()
	return &PreviewResponse{
		Code:        NormalizeCode(req.Code),
		Subtotal:    subtotal,
		Discount:    out.Discount,
		FinalAmount: money.Round(subtotal - out.Discount),
		Warning:     out.Warning,
	}, nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.Deactivate(ctx, id)
}
