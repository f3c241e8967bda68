package payments

import (
	"context"
	"errors"
	"time"

	"cineplex/internal/shared/apperror"

	"gorm.io/gorm"
)

var ErrTransactionNotFound = apperror.New(apperror.KindNotFound, "TRANSACTION_NOT_FOUND", "payment transaction not found")

type Repository interface {
	Create(ctx context.Context, tx *Transaction) error
	GetByOrderID(ctx context.Context, orderID string) (*Transaction, error)
	RecordCallback(ctx context.Context, orderID string, status TransactionStatus, providerTxID, resultCode, raw string, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, tx *Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *repository) GetByOrderID(ctx context.Context, orderID string) (*Transaction, error) {
	var tx Transaction
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &tx, nil
}

func (r *repository) RecordCallback(ctx context.Context, orderID string, status TransactionStatus, providerTxID, resultCode, raw string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&Transaction{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"status":                  status,
			"provider_transaction_id": providerTxID,
			"result_code":             resultCode,
			"raw_callback":            raw,
			"callback_at":             at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}
