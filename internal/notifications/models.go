package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTypeBookingConfirmed NotificationType = "BOOKING_CONFIRMED"
	NotificationTypeBookingCancelled NotificationType = "BOOKING_CANCELLED"
)

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "PENDING"
	NotificationStatusQueued  NotificationStatus = "QUEUED"
	NotificationStatusSending NotificationStatus = "SENDING"
	NotificationStatusSent    NotificationStatus = "SENT"
	NotificationStatusFailed  NotificationStatus = "FAILED"
)

// BookingDetails is the template data for booking emails.
type BookingDetails struct {
	Reference    string    `json:"reference"`
	MovieTitle   string    `json:"movie_title"`
	StartsAt     time.Time `json:"starts_at"`
	Seats        []string  `json:"seats"`
	FinalAmount  float64   `json:"final_amount"`
	PromoCode    string    `json:"promo_code,omitempty"`
	CancelReason string    `json:"cancel_reason,omitempty"`
}

type EmailNotification struct {
	ID   uuid.UUID        `json:"id"`
	Type NotificationType `json:"type"`

	RecipientID    uuid.UUID `json:"recipient_id"`
	RecipientEmail string    `json:"recipient_email"`
	RecipientName  string    `json:"recipient_name"`

	Subject   string         `json:"subject"`
	Booking   BookingDetails `json:"booking"`
	BookingID uuid.UUID      `json:"booking_id"`

	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	Status    NotificationStatus `json:"status"`
	LastError *string            `json:"last_error,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	SentAt    *time.Time         `json:"sent_at,omitempty"`
}

type NotificationBuilder struct {
	notification *EmailNotification
}

func NewNotificationBuilder() *NotificationBuilder {
	now := time.Now()
	return &NotificationBuilder{
		notification: &EmailNotification{
			ID:        uuid.New(),
			Status:    NotificationStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

func (nb *NotificationBuilder) WithType(notType NotificationType) *NotificationBuilder {
	nb.notification.Type = notType
	return nb
}

func (nb *NotificationBuilder) WithRecipient(userID uuid.UUID, email, name string) *NotificationBuilder {
	nb.notification.RecipientID = userID
	nb.notification.RecipientEmail = email
	nb.notification.RecipientName = name
	return nb
}

func (nb *NotificationBuilder) WithSubject(subject string) *NotificationBuilder {
	nb.notification.Subject = subject
	return nb
}

func (nb *NotificationBuilder) WithBooking(bookingID uuid.UUID, details BookingDetails) *NotificationBuilder {
	nb.notification.BookingID = bookingID
	nb.notification.Booking = details
	return nb
}

// WithExpiration drops the notification if it is still undelivered at expiresAt.
func (nb *NotificationBuilder) WithExpiration(expiresAt time.Time) *NotificationBuilder {
	nb.notification.ExpiresAt = &expiresAt
	return nb
}

func (nb *NotificationBuilder) Build() *EmailNotification {
	return nb.notification
}

// GetPartitionKey keeps one booking's messages on one partition, in order.
func (en *EmailNotification) GetPartitionKey() string {
	return en.BookingID.String()
}

func (en *EmailNotification) ToJSON() ([]byte, error) {
	return json.Marshal(en)
}

func (en *EmailNotification) IsExpired() bool {
	return en.ExpiresAt != nil && time.Now().After(*en.ExpiresAt)
}

func (en *EmailNotification) MarkSent() {
	now := time.Now()
	en.Status = NotificationStatusSent
	en.SentAt = &now
	en.UpdatedAt = now
}

func (en *EmailNotification) MarkFailed(err error) {
	en.Status = NotificationStatusFailed
	en.UpdatedAt = time.Now()
	msg := err.Error()
	en.LastError = &msg
}
