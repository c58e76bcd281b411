package fulfillment

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

// NewRepository builds a fulfillment repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ClaimCredential races other settlements for the same pool; the conditional
// update on sold=false guarantees each credential is sold once.
func (r *repository) ClaimCredential(ctx context.Context, examType enums.ExamType, examYear int, transactionID uuid.UUID) (*models.ResultCheckerCredential, error) {
	var cred models.ResultCheckerCredential
	err := r.db.WithContext(ctx).
		Where("exam_type = ? AND exam_year = ? AND sold = ?", examType, examYear, false).
		Order("created_at ASC").
		First(&cred).Error
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.ResultCheckerCredential{}).
		Where("id = ? AND sold = ?", cred.ID, false).
		Updates(map[string]any{
			"sold":           true,
			"transaction_id": transactionID,
			"sold_at":        now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// lost the race, caller retries or synthesizes
		return nil, gorm.ErrRecordNotFound
	}

	cred.Sold = true
	cred.TransactionID = &transactionID
	cred.SoldAt = &now
	return &cred, nil
}

func (r *repository) CreateCredential(ctx context.Context, cred *models.ResultCheckerCredential) error {
	return r.db.WithContext(ctx).Create(cred).Error
}

func (r *repository) FindCredentialByTransaction(ctx context.Context, transactionID uuid.UUID) (*models.ResultCheckerCredential, error) {
	var cred models.ResultCheckerCredential
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&cred).Error
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

func (r *repository) UpdateOrderItem(ctx context.Context, itemID uuid.UUID, status enums.DeliveryStatus, detail *string) error {
	updates := map[string]any{"status": status, "updated_at": time.Now().UTC()}
	if detail != nil {
		updates["detail"] = *detail
	}
	return r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id = ?", itemID).
		Updates(updates).Error
}

func (r *repository) UpdateTransactionDelivery(ctx context.Context, transactionID uuid.UUID, status enums.DeliveryStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ?", transactionID).
		Update("delivery_status", status).Error
}
