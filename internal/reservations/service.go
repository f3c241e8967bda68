package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cineplex/internal/bookings"
	"cineplex/internal/promotions"
	"cineplex/internal/seats"
	"cineplex/internal/shared/config"
	"cineplex/internal/shared/utils/money"
	"cineplex/internal/showtimes"
	"cineplex/internal/theaters"
	"cineplex/pkg/logger"
	"cineplex/pkg/telemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type ShowtimeReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*showtimes.Showtime, error)
}

type LayoutSource interface {
	GetSeatLayout(ctx context.Context, screenID uuid.UUID) ([]theaters.Seat, error)
}

// Coordinator turns a seat selection into a pending booking. All checks that
// depend on occupancy run inside the showtime guard.
type Coordinator interface {
	ClaimSeats(ctx context.Context, req ClaimRequest) (*ClaimResult, error)
}

type coordinator struct {
	guard     *bookings.Guard
	showtimes ShowtimeReader
	layouts   LayoutSource
	cfg       config.BookingConfig
	log       *logger.Logger
	newRef    bookings.ReferenceGenerator
	now       func() time.Time
}

func NewCoordinator(guard *bookings.Guard, showtimeReader ShowtimeReader, layouts LayoutSource, cfg config.BookingConfig, log *logger.Logger) Coordinator {
	return &coordinator{
		guard:     guard,
		showtimes: showtimeReader,
		layouts:   layouts,
		cfg:       cfg,
		log:       log,
		newRef:    bookings.NewReferenceGenerator(cfg.ReferencePrefix),
		now:       time.Now,
	}
}

func (c *coordinator) ClaimSeats(ctx context.Context, req ClaimRequest) (*ClaimResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "reservations.ClaimSeats",
		attribute.String("showtime.id", req.ShowtimeID.String()),
		attribute.Int("seats.count", len(req.Seats)),
	)
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	if err = validate(req); err != nil {
		return nil, err
	}

	// Fail fast on the unlocked row; the locked row is checked again below.
	st, err := c.showtimes.GetByID(ctx, req.ShowtimeID)
	if err != nil {
		return nil, err
	}
	if err = c.checkOpen(st); err != nil {
		return nil, err
	}

	layout, err := c.layouts.GetSeatLayout(ctx, st.ScreenID)
	if err != nil {
		return nil, fmt.Errorf("failed to load layout: %w", err)
	}
	templates, err := matchLayout(layout, req.Seats)
	if err != nil {
		return nil, err
	}

	var result *ClaimResult
	err = c.guard.Do(ctx, req.ShowtimeID, func(tx bookings.Tx) error {
		r, err := c.claimLocked(tx, req, templates)
		result = r
		return err
	})
	if err != nil {
		return nil, err
	}

	b := result.Booking
	c.log.LogBookingCreated(ctx, b.ID.String(), b.BookingReference, b.ShowtimeID.String(), b.UserID.String(), len(b.Seats))
	return result, nil
}

func (c *coordinator) claimLocked(tx bookings.Tx, req ClaimRequest, templates []theaters.Seat) (*ClaimResult, error) {
	st := tx.Showtime()
	if err := c.checkOpen(st); err != nil {
		return nil, err
	}

	occupied, err := tx.OccupiedSeats()
	if err != nil {
		return nil, fmt.Errorf("load occupancy: %w", err)
	}
	var taken []seats.SeatKey
	for _, k := range req.Seats {
		if occupied.Has(k) {
			taken = append(taken, k)
		}
	}
	if len(taken) > 0 {
		seats.SortKeys(taken)
		return nil, bookings.ErrSeatTaken.WithDetails(map[string][]string{"seats": seats.Labels(taken)})
	}
	if st.AvailableSeats < len(req.Seats) {
		return nil, ErrInsufficientInventory.WithDetails(map[string]int{"available": st.AvailableSeats, "requested": len(req.Seats)})
	}

	now := c.now()
	loc := c.cfg.Location()
	b := &bookings.Booking{
		UserID:           req.UserID,
		ShowtimeID:       st.ID,
		MovieID:          st.MovieID,
		TheaterID:        st.TheaterID,
		ScreenID:         st.ScreenID,
		ShowtimeStartsAt: st.StartsAt(loc),
		ShowtimeEndsAt:   st.EndsAt(loc),
		PaymentStatus:    bookings.PaymentPending,
		PaymentMethod:    req.PaymentMethod,
		Status:           bookings.StatusConfirmed,
		HoldExpiresAt:    now.Add(c.cfg.HoldWindow),
	}

	prices := make([]float64, len(templates))
	for i, t := range templates {
		prices[i] = money.Round(st.Prices.PriceFor(t.Category, t.Price))
		b.Seats = append(b.Seats, bookings.BookedSeat{
			Row:      t.Row,
			Number:   t.Number,
			Category: string(t.Category),
			Price:    prices[i],
			Active:   true,
		})
	}
	b.TotalAmount = money.Sum(prices...)

	var warnings []promotions.Warning
	if req.PromoCode != "" {
		w, err := c.applyPromotion(tx, b, req.PromoCode, promotions.Quote{SeatPrices: prices}, now)
		if err != nil {
			return nil, err
		}
		if w != nil {
			warnings = append(warnings, *w)
		}
	}
	b.FinalAmount = money.Round(b.TotalAmount - b.DiscountAmount)

	ref, err := c.assignReference(tx)
	if err != nil {
		return nil, err
	}
	b.BookingReference = ref

	if err := tx.Create(b); err != nil {
		return nil, err
	}
	if err := tx.AdjustAvailable(-len(b.Seats)); err != nil {
		return nil, err
	}

	return &ClaimResult{Booking: b, Warnings: warnings}, nil
}

// applyPromotion prices the code and consumes one use when it applies. Codes
// that do not apply only produce a warning.
func (c *coordinator) applyPromotion(tx bookings.Tx, b *bookings.Booking, code string, q promotions.Quote, now time.Time) (*promotions.Warning, error) {
	p, err := tx.PromotionByCode(code)
	if err != nil && !errors.Is(err, promotions.ErrPromotionNotFound) {
		return nil, fmt.Errorf("load promotion: %w", err)
	}

	outcome := promotions.Evaluate(p, q, now)
	if !outcome.Applied() {
		return outcome.Warning, nil
	}

	ok, err := tx.ConsumePromotion(p.ID)
	if err != nil {
		return nil, fmt.Errorf("consume promotion: %w", err)
	}
	if !ok {
		return &promotions.Warning{Code: promotions.WarningExhausted, Message: "promo code usage limit reached"}, nil
	}

	b.DiscountAmount = money.Round(outcome.Discount)
	b.PromotionID = &p.ID
	b.PromotionCode = p.Code
	return nil, nil
}

func (c *coordinator) assignReference(tx bookings.Tx) (string, error) {
	for i := 0; i < bookings.MaxReferenceAttempts; i++ {
		ref, err := c.newRef()
		if err != nil {
			return "", err
		}
		taken, err := tx.ReferenceTaken(ref)
		if err != nil {
			return "", fmt.Errorf("check reference: %w", err)
		}
		if !taken {
			return ref, nil
		}
	}
	return "", bookings.ErrReferenceExhausted
}

func (c *coordinator) checkOpen(st *showtimes.Showtime) error {
	if !st.IsActive {
		return ErrShowtimeNotActive
	}
	if !c.now().Before(st.StartsAt(c.cfg.Location())) {
		return ErrShowtimeStarted
	}
	return nil
}

func validate(req ClaimRequest) error {
	if len(req.Seats) == 0 {
		return ErrNoSeats
	}
	if len(req.Seats) > MaxSeatsPerClaim {
		return ErrTooManySeats
	}
	if !req.PaymentMethod.IsValid() {
		return ErrInvalidPaymentMethod
	}
	seen := make(seats.SeatSet, len(req.Seats))
	for _, k := range req.Seats {
		if seen.Has(k) {
			return ErrDuplicateSeat.WithDetails(map[string]string{"seat": k.String()})
		}
		seen[k] = struct{}{}
	}
	return nil
}

// matchLayout resolves the selection against the screen's seat templates,
// keeping the caller's order.
func matchLayout(layout []theaters.Seat, selection []seats.SeatKey) ([]theaters.Seat, error) {
	byKey := make(map[seats.SeatKey]theaters.Seat, len(layout))
	for _, s := range layout {
		byKey[seats.KeyOf(s)] = s
	}

	out := make([]theaters.Seat, 0, len(selection))
	var unknown []seats.SeatKey
	for _, k := range selection {
		s, ok := byKey[k]
		if !ok {
			unknown = append(unknown, k)
			continue
		}
		out = append(out, s)
	}
	if len(unknown) > 0 {
		return nil, ErrInvalidSeatReference.WithDetails(map[string][]string{"seats": seats.Labels(unknown)})
	}
	return out, nil
}
