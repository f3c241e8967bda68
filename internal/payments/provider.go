package payments

import (
	"context"
	"net/http"

	"cineplex/internal/shared/apperror"

	"github.com/google/uuid"
)

type ProviderName string

const (
	ProviderMoMo    ProviderName = "momo"
	ProviderZaloPay ProviderName = "zalopay"
)

var (
	ErrInvalidSignature = apperror.New(apperror.KindPaymentVerification, "INVALID_SIGNATURE", "payment callback signature mismatch")
	ErrMalformed        = apperror.New(apperror.KindValidation, "MALFORMED_CALLBACK", "payment callback could not be parsed")
	ErrUnknownProvider  = apperror.New(apperror.KindNotFound, "UNKNOWN_PROVIDER", "unknown payment provider")
	ErrProviderRejected = apperror.New(apperror.KindValidation, "PROVIDER_REJECTED", "payment provider rejected the request")
	ErrNotConfigured    = apperror.New(apperror.KindInternal, "PROVIDER_NOT_CONFIGURED", "payment provider is not configured")
)

// Order is what the core asks a provider to collect.
type Order struct {
	OrderID     string
	RequestID   string
	BookingID   uuid.UUID
	Amount      int64
	Description string
	ReturnURL   string
	CallbackURL string
}

type Checkout struct {
	PayURL   string
	Deeplink string
	Token    string
}

// Callback is a verified provider notification.
type Callback struct {
	OrderID       string
	BookingID     uuid.UUID
	TransactionID string
	Amount        int64
	Success       bool
	ResultCode    string
}

// Ack is the response body and status a provider expects back.
type Ack struct {
	Status int
	Body   any
}

// Provider is one wallet integration.
type Provider interface {
	Name() ProviderName
	CreatePayment(ctx context.Context, order Order) (*Checkout, error)
	// ParseCallback verifies and decodes a callback body. It returns
	// ErrInvalidSignature or ErrMalformed for bodies that must not be applied.
	ParseCallback(body []byte, contentType string) (*Callback, error)
	Ack(err error) Ack
}

func jsonAck(body any) Ack {
	return Ack{Status: http.StatusOK, Body: body}
}
