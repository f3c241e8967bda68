package payments

import (
	"time"

	"github.com/google/uuid"
)

type TransactionStatus string

const (
	TransactionCreated   TransactionStatus = "created"
	TransactionSucceeded TransactionStatus = "succeeded"
	TransactionFailed    TransactionStatus = "failed"
	TransactionIgnored   TransactionStatus = "ignored"
)

// Transaction is the audit record of one provider order and its callback.
type Transaction struct {
	ID                    uuid.UUID         `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BookingID             uuid.UUID         `json:"bookingId" gorm:"type:uuid;not null;index"`
	Provider              ProviderName      `json:"provider" gorm:"type:varchar(20);not null"`
	OrderID               string            `json:"orderId" gorm:"size:100;not null;uniqueIndex"`
	RequestID             string            `json:"requestId" gorm:"size:100"`
	Amount                int64             `json:"amount" gorm:"not null"`
	PayURL                string            `json:"payUrl" gorm:"type:text"`
	Status                TransactionStatus `json:"status" gorm:"type:varchar(20);not null;default:'created'"`
	ProviderTransactionID string            `json:"providerTransactionId,omitempty" gorm:"size:100"`
	ResultCode            string            `json:"resultCode,omitempty" gorm:"size:20"`
	RawCallback           string            `json:"-" gorm:"type:text"`
	CallbackAt            *time.Time        `json:"callbackAt,omitempty"`
	CreatedAt             time.Time         `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt             time.Time         `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (Transaction) TableName() string {
	return "payment_transactions"
}

type CreatePaymentRequest struct {
	BookingID string `json:"bookingId" binding:"required,uuid"`
}

type CreatePaymentResponse struct {
	Provider  ProviderName `json:"provider"`
	OrderID   string       `json:"orderId"`
	Amount    int64        `json:"amount"`
	PayURL    string       `json:"payUrl"`
	Deeplink  string       `json:"deeplink,omitempty"`
	ExpiresAt time.Time    `json:"expiresAt"`
}
