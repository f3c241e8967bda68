package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cineplex/internal/bookings"
	"cineplex/internal/shared/apperror"
	"cineplex/internal/shared/config"
	"cineplex/internal/shared/utils/money"
	"cineplex/pkg/logger"
	"cineplex/pkg/telemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrNotPayable       = apperror.New(apperror.KindInvalidTransition, "BOOKING_NOT_PAYABLE", "booking is not awaiting payment")
	ErrHoldExpired      = apperror.New(apperror.KindInvalidTransition, "HOLD_EXPIRED", "seat hold has expired, please book again")
	ErrMethodMismatch   = apperror.New(apperror.KindValidation, "PAYMENT_METHOD_MISMATCH", "booking was created for a different payment method")
	ErrNothingToCharge  = apperror.New(apperror.KindValidation, "NOTHING_TO_CHARGE", "booking amount must be positive")
	ErrFractionalAmount = apperror.New(apperror.KindValidation, "AMOUNT_NOT_CHARGEABLE", "wallets only charge whole currency units")
)

// Ledger is the part of the booking ledger the gateway drives.
type Ledger interface {
	GetByID(ctx context.Context, id uuid.UUID, who bookings.Requester) (*bookings.Booking, error)
	TransitionPayment(ctx context.Context, id uuid.UUID, next bookings.PaymentStatus, transactionID string) (*bookings.Booking, error)
}

// Gateway starts wallet payments and reconciles provider callbacks against
// the ledger. Callbacks are idempotent: replays are acknowledged without
// touching the booking.
type Gateway interface {
	CreatePayment(ctx context.Context, provider ProviderName, bookingID uuid.UUID, who bookings.Requester) (*CreatePaymentResponse, error)
	HandleCallback(ctx context.Context, provider ProviderName, body []byte, contentType string) (Ack, error)
}

type gateway struct {
	providers map[ProviderName]Provider
	ledger    Ledger
	repo      Repository
	cfg       config.PaymentConfig
	log       *logger.Logger
	now       func() time.Time
}

func NewGateway(ledger Ledger, repo Repository, cfg config.PaymentConfig, log *logger.Logger, providers ...Provider) Gateway {
	g := &gateway{
		providers: make(map[ProviderName]Provider, len(providers)),
		ledger:    ledger,
		repo:      repo,
		cfg:       cfg,
		log:       log.WithComponent("payments"),
		now:       time.Now,
	}
	for _, p := range providers {
		g.providers[p.Name()] = p
	}
	return g
}

func (g *gateway) CreatePayment(ctx context.Context, name ProviderName, bookingID uuid.UUID, who bookings.Requester) (*CreatePaymentResponse, error) {
	p, ok := g.providers[name]
	if !ok {
		return nil, ErrUnknownProvider
	}

	b, err := g.ledger.GetByID(ctx, bookingID, who)
	if err != nil {
		return nil, err
	}
	if b.Status != bookings.StatusConfirmed || b.PaymentStatus != bookings.PaymentPending {
		return nil, ErrNotPayable
	}
	if !g.now().Before(b.HoldExpiresAt) {
		return nil, ErrHoldExpired
	}
	if string(b.PaymentMethod) != string(name) {
		return nil, ErrMethodMismatch
	}
	amount, whole := money.WholeUnits(b.FinalAmount)
	if !whole {
		return nil, ErrFractionalAmount
	}
	if amount <= 0 {
		return nil, ErrNothingToCharge
	}

	now := g.now()
	suffix := b.BookingReference + strconv.FormatInt(now.UnixMilli(), 10)
	orderID := suffix
	if z, ok := p.(*ZaloPay); ok {
		orderID = z.AppTransID(suffix)
	}
	order := Order{
		OrderID:     orderID,
		RequestID:   uuid.NewString(),
		BookingID:   b.ID,
		Amount:      amount,
		Description: "Cineplex booking " + b.BookingReference,
		ReturnURL:   g.cfg.ReturnURL,
		CallbackURL: strings.TrimRight(g.cfg.CallbackBaseURL, "/") + "/" + string(name) + "/callback",
	}

	checkout, err := p.CreatePayment(ctx, order)
	if err != nil {
		return nil, err
	}

	if err := g.repo.Create(ctx, &Transaction{
		BookingID: b.ID,
		Provider:  name,
		OrderID:   order.OrderID,
		RequestID: order.RequestID,
		Amount:    amount,
		PayURL:    checkout.PayURL,
		Status:    TransactionCreated,
	}); err != nil {
		return nil, fmt.Errorf("failed to record payment transaction: %w", err)
	}

	return &CreatePaymentResponse{
		Provider:  name,
		OrderID:   order.OrderID,
		Amount:    amount,
		PayURL:    checkout.PayURL,
		Deeplink:  checkout.Deeplink,
		ExpiresAt: b.HoldExpiresAt,
	}, nil
}

// HandleCallback applies one provider callback. The returned error is set
// only when the provider should retry; every other outcome is acknowledged.
func (g *gateway) HandleCallback(ctx context.Context, name ProviderName, body []byte, contentType string) (Ack, error) {
	ctx, span := telemetry.StartSpan(ctx, "payments.HandleCallback", attribute.String("payment.provider", string(name)))
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	p, ok := g.providers[name]
	if !ok {
		err = ErrUnknownProvider
		return Ack{}, err
	}

	cb, parseErr := p.ParseCallback(body, contentType)
	switch {
	case errors.Is(parseErr, ErrInvalidSignature):
		g.log.LogSecurityEvent(ctx, "invalid_payment_signature", string(name))
		return p.Ack(parseErr), nil
	case parseErr != nil:
		g.log.WarnContext(ctx, "malformed payment callback", "provider", string(name), "error", parseErr.Error())
		return p.Ack(nil), nil
	}
	span.SetAttributes(attribute.String("booking.id", cb.BookingID.String()))

	outcome, err := g.reconcile(ctx, cb)
	if err != nil {
		g.log.ErrorContext(ctx, "payment callback failed", "provider", string(name), "booking_id", cb.BookingID.String(), "error", err.Error())
		return p.Ack(err), err
	}

	g.audit(ctx, cb, outcome, string(body))
	g.log.LogPaymentCallback(ctx, string(name), cb.BookingID.String(), outcome)
	return p.Ack(nil), nil
}

const (
	outcomePaid      = "paid"
	outcomeFailed    = "failed"
	outcomeDuplicate = "duplicate"
	outcomeIgnored   = "ignored"
	outcomeMismatch  = "amount_mismatch"
	outcomeUnknown   = "unknown_booking"
)

// reconcile maps a verified callback onto the booking state machine.
func (g *gateway) reconcile(ctx context.Context, cb *Callback) (string, error) {
	b, err := g.ledger.GetByID(ctx, cb.BookingID, bookings.Requester{Admin: true})
	if errors.Is(err, bookings.ErrBookingNotFound) {
		return outcomeUnknown, nil
	}
	if err != nil {
		return "", err
	}

	next := bookings.PaymentFailed
	if cb.Success {
		next = bookings.PaymentPaid
	}

	if b.PaymentStatus == next && (next != bookings.PaymentPaid || b.PaymentTransactionID == cb.TransactionID) {
		return outcomeDuplicate, nil
	}
	if expected, whole := money.WholeUnits(b.FinalAmount); cb.Success && (!whole || cb.Amount != expected) {
		g.log.WarnContext(ctx, "payment amount mismatch",
			"booking_id", b.ID.String(), "expected", b.FinalAmount, "received", cb.Amount)
		return outcomeMismatch, nil
	}

	if _, err := g.ledger.TransitionPayment(ctx, b.ID, next, cb.TransactionID); err != nil {
		if errors.Is(err, bookings.ErrInvalidTransition) {
			g.log.WarnContext(ctx, "payment callback out of order",
				"booking_id", b.ID.String(), "payment_status", b.PaymentStatus.String(), "requested", next.String())
			return outcomeIgnored, nil
		}
		return "", err
	}
	return next.String(), nil
}

func (g *gateway) audit(ctx context.Context, cb *Callback, outcome, raw string) {
	status := TransactionIgnored
	switch outcome {
	case outcomePaid:
		status = TransactionSucceeded
	case outcomeFailed:
		status = TransactionFailed
	case outcomeDuplicate:
		return
	}
	err := g.repo.RecordCallback(ctx, cb.OrderID, status, cb.TransactionID, cb.ResultCode, raw, g.now())
	if err != nil && !errors.Is(err, ErrTransactionNotFound) {
		g.log.WarnContext(ctx, "failed to record payment callback", "order_id", cb.OrderID, "error", err.Error())
	}
}
