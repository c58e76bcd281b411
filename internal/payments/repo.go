package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quansahdev/datamart-backend/pkg/db/models"
	"github.com/quansahdev/datamart-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("reference = ?", reference).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// ClaimForSettlement is the settlement race arbiter. Both settlement paths
// (client verify and webhook) issue the same conditional update; exactly one
// of them sees RowsAffected == 1.
func (r *repository) ClaimForSettlement(ctx context.Context, reference string, gatewayRef *string) (bool, error) {
	updates := map[string]any{
		"status":         enums.OrderStatusConfirmed,
		"payment_status": enums.PaymentStatusPaid,
		"updated_at":     time.Now().UTC(),
	}
	if gatewayRef != nil {
		updates["payment_reference"] = *gatewayRef
	}
	res := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("reference = ? AND status NOT IN ?", reference,
			[]enums.OrderStatus{enums.OrderStatusCompleted, enums.OrderStatusDelivered}).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ?", id).
		Update("status", enums.OrderStatusCompleted).Error
}

func (r *repository) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, enums.OrderStatusCompleted).
		Update("status", enums.OrderStatusDelivered).Error
}

func (r *repository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus, reason *string) error {
	updates := map[string]any{
		"payment_status": status,
		"updated_at":     time.Now().UTC(),
	}
	if reason != nil {
		updates["failure_reason"] = *reason
	}
	return r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) RecordDispatchFailure(ctx context.Context, id uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"delivery_status": enums.DeliveryStatusFailed,
			"failure_reason":  reason,
			"updated_at":      time.Now().UTC(),
		}).Error
}
