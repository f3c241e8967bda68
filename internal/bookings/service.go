package bookings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cineplex/internal/shared/config"
	"cineplex/pkg/logger"
	"cineplex/pkg/telemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Notifier receives booking events after they commit. Each call runs on its
// own goroutine; delivery failures never affect the booking.
type Notifier interface {
	BookingConfirmed(ctx context.Context, b Booking)
	BookingCancelled(ctx context.Context, b Booking)
}

// Requester is who is asking; non-admins only see their own bookings.
type Requester struct {
	UserID uuid.UUID
	Admin  bool
}

type Service interface {
	GetByID(ctx context.Context, id uuid.UUID, who Requester) (*Booking, error)
	GetByReference(ctx context.Context, ref string, who Requester) (*Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID, query ListQuery) (*PaginatedBookings, error)
	ListAll(ctx context.Context, query ListQuery) (*PaginatedBookings, error)

	// TransitionPayment moves the payment state machine. Entering failed or
	// refunded cancels the booking and releases its seats.
	TransitionPayment(ctx context.Context, id uuid.UUID, next PaymentStatus, transactionID string) (*Booking, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string, who Requester) (*Booking, error)
	// Expire releases a pending booking whose hold has lapsed. It returns the
	// number of seats released, 0 when there was nothing to do.
	Expire(ctx context.Context, id uuid.UUID) (int, error)

	ExpireOverdue(ctx context.Context) (int, error)
	CompleteFinished(ctx context.Context) (int64, error)

	TicketQR(ctx context.Context, id uuid.UUID, who Requester) ([]byte, error)
}

type service struct {
	repo     Repository
	guard    *Guard
	cfg      config.BookingConfig
	log      *logger.Logger
	notifier Notifier
	now      func() time.Time
}

func NewService(repo Repository, guard *Guard, cfg config.BookingConfig, log *logger.Logger, notifier Notifier) Service {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &service{repo: repo, guard: guard, cfg: cfg, log: log, notifier: notifier, now: time.Now}
}

type noopNotifier struct{}

func (noopNotifier) BookingConfirmed(context.Context, Booking) {}
func (noopNotifier) BookingCancelled(context.Context, Booking) {}

func (s *service) GetByID(ctx context.Context, id uuid.UUID, who Requester) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !who.Admin && b.UserID != who.UserID {
		return nil, ErrBookingNotFound
	}
	return b, nil
}

func (s *service) GetByReference(ctx context.Context, ref string, who Requester) (*Booking, error) {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	if !ValidReference(s.cfg.ReferencePrefix, ref) {
		return nil, ErrBookingNotFound
	}
	b, err := s.repo.GetByReference(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !who.Admin && b.UserID != who.UserID {
		return nil, ErrBookingNotFound
	}
	return b, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, query ListQuery) (*PaginatedBookings, error) {
	return s.list(ctx, &userID, query)
}

func (s *service) ListAll(ctx context.Context, query ListQuery) (*PaginatedBookings, error) {
	return s.list(ctx, nil, query)
}

func (s *service) list(ctx context.Context, userID *uuid.UUID, query ListQuery) (*PaginatedBookings, error) {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	list, total, err := s.repo.List(ctx, ListFilter{
		UserID:        userID,
		PaymentStatus: PaymentStatus(query.PaymentStatus),
		Status:        Status(query.Status),
		Limit:         query.Limit,
		Offset:        (query.Page - 1) * query.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	return &PaginatedBookings{
		Bookings:   list,
		TotalCount: total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: int((total + int64(query.Limit) - 1) / int64(query.Limit)),
	}, nil
}

func (s *service) TransitionPayment(ctx context.Context, id uuid.UUID, next PaymentStatus, transactionID string) (*Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "bookings.TransitionPayment",
		attribute.String("booking.id", id.String()),
		attribute.String("payment.next", next.String()),
	)
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var out *Booking
	var released int
	err = s.guard.Do(ctx, current.ShowtimeID, func(tx Tx) error {
		b, err := tx.LockBooking(id)
		if err != nil {
			return err
		}
		if b.Status != StatusConfirmed || !b.PaymentStatus.CanTransitionTo(next) {
			return ErrInvalidTransition.WithDetails(map[string]string{
				"status": b.Status.String(), "paymentStatus": b.PaymentStatus.String(), "requested": next.String(),
			})
		}
		released, err = s.applyLocked(tx, b, next, transactionID, "payment "+next.String())
		out = b
		return err
	})
	if err != nil {
		return nil, err
	}

	if next.ReleasesSeats() {
		s.log.LogBookingReleased(ctx, out.ID.String(), out.ShowtimeID.String(), "payment "+next.String(), released)
	}
	if next == PaymentPaid {
		go s.notifier.BookingConfirmed(context.WithoutCancel(ctx), *out)
	}
	return out, nil
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID, reason string, who Requester) (*Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "bookings.Cancel", attribute.String("booking.id", id.String()))
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	current, err := s.GetByID(ctx, id, who)
	if err != nil {
		return nil, err
	}
	if reason == "" {
		reason = "cancelled by user"
		if who.Admin && current.UserID != who.UserID {
			reason = "cancelled by admin"
		}
	}

	var out *Booking
	var released int
	err = s.guard.Do(ctx, current.ShowtimeID, func(tx Tx) error {
		b, err := tx.LockBooking(id)
		if err != nil {
			return err
		}
		if b.Status != StatusConfirmed {
			return ErrInvalidTransition.WithDetails(map[string]string{"status": b.Status.String()})
		}

		var next PaymentStatus
		switch b.PaymentStatus {
		case PaymentPending:
			next = PaymentFailed
		case PaymentPaid:
			if !s.now().Before(b.ShowtimeStartsAt.Add(-s.cfg.CancellationCutoff)) {
				return ErrCancellationClosed
			}
			next = PaymentRefunded
		default:
			return ErrInvalidTransition.WithDetails(map[string]string{"paymentStatus": b.PaymentStatus.String()})
		}

		released, err = s.applyLocked(tx, b, next, "", reason)
		out = b
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.LogBookingReleased(ctx, out.ID.String(), out.ShowtimeID.String(), reason, released)
	go s.notifier.BookingCancelled(context.WithoutCancel(ctx), *out)
	return out, nil
}

func (s *service) Expire(ctx context.Context, id uuid.UUID) (int, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}

	var released int
	err = s.guard.Do(ctx, current.ShowtimeID, func(tx Tx) error {
		b, err := tx.LockBooking(id)
		if err != nil {
			return err
		}
		// Paid, cancelled or still within the hold: nothing to do.
		if b.Status != StatusConfirmed || b.PaymentStatus != PaymentPending || b.HoldExpiresAt.After(s.now()) {
			return nil
		}
		released, err = s.applyLocked(tx, b, PaymentFailed, "", "hold expired")
		return err
	})
	if err != nil {
		return 0, err
	}

	if released > 0 {
		s.log.LogBookingReleased(ctx, id.String(), current.ShowtimeID.String(), "hold expired", released)
	}
	return released, nil
}

// applyLocked writes the payment transition on a locked booking and runs the
// release path when the new state gives the seats back.
func (s *service) applyLocked(tx Tx, b *Booking, next PaymentStatus, transactionID, reason string) (int, error) {
	now := s.now()
	b.PaymentStatus = next

	released := 0
	switch next {
	case PaymentPaid:
		b.PaidAt = &now
		if transactionID != "" {
			b.PaymentTransactionID = transactionID
		}
	case PaymentFailed, PaymentRefunded:
		b.Status = StatusCancelled
		b.CancelledAt = &now
		b.CancellationReason = reason
		n, err := ReleaseLocked(tx, b.ID)
		if err != nil {
			return 0, err
		}
		released = n
		for i := range b.Seats {
			b.Seats[i].Active = false
		}
	}

	if err := tx.Update(b); err != nil {
		return 0, fmt.Errorf("update booking: %w", err)
	}
	return released, nil
}

func (s *service) ExpireOverdue(ctx context.Context) (int, error) {
	batch := s.cfg.SweepBatchSize
	if batch <= 0 {
		batch = 100
	}

	due, err := s.repo.ExpiredPending(ctx, s.now(), batch)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired holds: %w", err)
	}

	expired := 0
	for _, b := range due {
		n, err := s.Expire(ctx, b.ID)
		if err != nil {
			s.log.ErrorContext(ctx, "failed to expire booking", "booking_id", b.ID.String(), "error", err.Error())
			continue
		}
		if n > 0 {
			expired++
		}
	}
	return expired, nil
}

func (s *service) CompleteFinished(ctx context.Context) (int64, error) {
	return s.repo.MarkCompleted(ctx, s.now())
}

func (s *service) TicketQR(ctx context.Context, id uuid.UUID, who Requester) ([]byte, error) {
	b, err := s.GetByID(ctx, id, who)
	if err != nil {
		return nil, err
	}
	if b.PaymentStatus != PaymentPaid || b.Status == StatusCancelled {
		return nil, ErrTicketNotAvailable
	}
	return TicketQRCode(b, 256)
}
