package bookings

import (
	"errors"

	"cineplex/internal/shared/apperror"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrBookingNotFound    = apperror.New(apperror.KindNotFound, "BOOKING_NOT_FOUND", "booking not found")
	ErrInvalidTransition  = apperror.New(apperror.KindInvalidTransition, "INVALID_STATE_TRANSITION", "booking cannot move to the requested state")
	ErrCancellationClosed = apperror.New(apperror.KindInvalidTransition, "CANCELLATION_WINDOW_CLOSED", "bookings can only be cancelled up to 2 hours before the showtime")
	ErrSeatTaken          = apperror.New(apperror.KindConflict, "SEAT_UNAVAILABLE", "one or more seats are no longer available")
	ErrInventoryInvariant = apperror.New(apperror.KindInternal, "INVENTORY_INVARIANT", "seat counter would leave [0, totalSeats]")
	ErrReferenceExhausted = apperror.New(apperror.KindInternal, "REFERENCE_EXHAUSTED", "could not assign a unique booking reference")
	ErrTicketNotAvailable = apperror.New(apperror.KindValidation, "TICKET_NOT_AVAILABLE", "tickets are issued once the booking is paid")
)

const (
	pgUniqueViolation = "23505"
	pgLockTimeout     = "55P03"
	pgDeadlock        = "40P01"

	activeSeatIndex = "idx_booked_seats_active"
)

// mapPgError converts driver errors that carry domain meaning.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		if pgErr.ConstraintName == activeSeatIndex {
			return ErrSeatTaken.Wrap(err)
		}
	case pgLockTimeout, pgDeadlock:
		return apperror.ErrBusy.Wrap(err)
	}
	return err
}
