package bookings

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

func (p PaymentStatus) String() string {
	return string(p)
}

// CanTransitionTo reports whether the payment state machine allows p -> next:
// pending -> paid|failed, paid -> refunded.
func (p PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch p {
	case PaymentPending:
		return next == PaymentPaid || next == PaymentFailed
	case PaymentPaid:
		return next == PaymentRefunded
	}
	return false
}

// HoldsSeats reports whether a confirmed booking in this payment state occupies its seats.
func (p PaymentStatus) HoldsSeats() bool {
	return p == PaymentPending || p == PaymentPaid
}

// ReleasesSeats reports whether entering this state gives the seats back.
func (p PaymentStatus) ReleasesSeats() bool {
	return p == PaymentFailed || p == PaymentRefunded
}

type PaymentMethod string

const (
	MethodMoMo    PaymentMethod = "momo"
	MethodZaloPay PaymentMethod = "zalopay"
	MethodCash    PaymentMethod = "cash"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodMoMo, MethodZaloPay, MethodCash:
		return true
	}
	return false
}
