package reservations

import (
	"cineplex/internal/shared/apperror"
)

var (
	ErrShowtimeNotActive     = apperror.New(apperror.KindValidation, "SHOWTIME_NOT_ACTIVE", "showtime is not open for booking")
	ErrShowtimeStarted       = apperror.New(apperror.KindValidation, "SHOWTIME_STARTED", "showtime has already started")
	ErrInvalidSeatReference  = apperror.New(apperror.KindValidation, "INVALID_SEAT_REFERENCE", "one or more seats do not exist on this screen")
	ErrInsufficientInventory = apperror.New(apperror.KindConflict, "INSUFFICIENT_INVENTORY", "not enough seats left for this showtime")
	ErrNoSeats               = apperror.New(apperror.KindValidation, "NO_SEATS_SELECTED", "select at least one seat")
	ErrTooManySeats          = apperror.New(apperror.KindValidation, "TOO_MANY_SEATS", "too many seats in one booking")
	ErrDuplicateSeat         = apperror.New(apperror.KindValidation, "DUPLICATE_SEAT", "a seat was selected more than once")
	ErrInvalidPaymentMethod  = apperror.New(apperror.KindValidation, "INVALID_PAYMENT_METHOD", "unsupported payment method")
)
