package notifications

import (
	"context"
	"time"

	"cineplex/internal/bookings"
	"cineplex/internal/movies"
	"cineplex/internal/seats"
	"cineplex/pkg/logger"

	"github.com/google/uuid"
)

// RecipientLookup resolves the mail address of a booking's owner.
type RecipientLookup interface {
	Recipient(ctx context.Context, userID uuid.UUID) (email, name string, err error)
}

// MovieCatalog supplies titles for mail bodies.
type MovieCatalog interface {
	GetMovie(ctx context.Context, id uuid.UUID) (*movies.Movie, error)
}

// Notifier turns booking events into emails. It implements bookings.Notifier.
type Notifier struct {
	publisher  Publisher
	recipients RecipientLookup
	catalog    MovieCatalog
	log        *logger.Logger
	timeout    time.Duration
	loc        *time.Location
}

var _ bookings.Notifier = (*Notifier)(nil)

func NewNotifier(publisher Publisher, recipients RecipientLookup, catalog MovieCatalog, loc *time.Location, log *logger.Logger) *Notifier {
	if loc == nil {
		loc = time.UTC
	}
	return &Notifier{
		publisher:  publisher,
		recipients: recipients,
		catalog:    catalog,
		log:        log.WithComponent("notifier"),
		timeout:    30 * time.Second,
		loc:        loc,
	}
}

func (n *Notifier) BookingConfirmed(ctx context.Context, b bookings.Booking) {
	n.send(ctx, NotificationTypeBookingConfirmed, "Your Cineplex tickets: "+b.BookingReference, b)
}

func (n *Notifier) BookingCancelled(ctx context.Context, b bookings.Booking) {
	n.send(ctx, NotificationTypeBookingCancelled, "Booking cancelled: "+b.BookingReference, b)
}

func (n *Notifier) send(ctx context.Context, typ NotificationType, subject string, b bookings.Booking) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	notification, err := n.build(ctx, typ, subject, b)
	if err != nil {
		n.log.WarnContext(ctx, "skipping booking notification",
			"type", string(typ), "booking_id", b.ID.String(), "error", err)
		return
	}

	if err := n.publisher.Publish(ctx, notification); err != nil {
		n.log.ErrorContext(ctx, "failed to publish booking notification",
			"type", string(typ), "booking_id", b.ID.String(), "error", err)
	}
}

func (n *Notifier) build(ctx context.Context, typ NotificationType, subject string, b bookings.Booking) (*EmailNotification, error) {
	email, name, err := n.recipients.Recipient(ctx, b.UserID)
	if err != nil {
		return nil, err
	}

	title := "your movie"
	if n.catalog != nil {
		if movie, err := n.catalog.GetMovie(ctx, b.MovieID); err == nil {
			title = movie.Title
		}
	}

	details := BookingDetails{
		Reference:   b.BookingReference,
		MovieTitle:  title,
		StartsAt:    b.ShowtimeStartsAt.In(n.loc),
		Seats:       seats.Labels(b.SeatKeys()),
		FinalAmount: b.FinalAmount,
		PromoCode:   b.PromotionCode,
	}
	if typ == NotificationTypeBookingCancelled {
		details.CancelReason = b.CancellationReason
	}

	builder := NewNotificationBuilder().
		WithType(typ).
		WithRecipient(b.UserID, email, name).
		WithSubject(subject).
		WithBooking(b.ID, details)
	if typ == NotificationTypeBookingConfirmed {
		// A ticket mail is pointless once the show has ended.
		builder = builder.WithExpiration(b.ShowtimeEndsAt)
	}
	return builder.Build(), nil
}
