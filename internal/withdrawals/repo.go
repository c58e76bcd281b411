package withdrawals

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quansahdev/datamart-backend/pkg/db/models"
	"github.com/quansahdev/datamart-backend/pkg/enums"
	"github.com/quansahdev/datamart-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a withdrawals repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, w *models.Withdrawal) (*models.Withdrawal, error) {
	if err := r.db.WithContext(ctx).Create(w).Error; err != nil {
		return nil, err
	}
	return w, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	var w models.Withdrawal
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Withdrawal, error) {
	var ws []models.Withdrawal
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&ws).Error
	if err != nil {
		return nil, err
	}
	return ws, nil
}

func (r *repository) ListByStatus(ctx context.Context, status enums.WithdrawalStatus, limit int) ([]models.Withdrawal, error) {
	var ws []models.Withdrawal
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&ws).Error
	if err != nil {
		return nil, err
	}
	return ws, nil
}

// Transition moves a withdrawal between statuses with the current status as
// the guard predicate; concurrent reviewers race on RowsAffected.
func (r *repository) Transition(ctx context.Context, id uuid.UUID, from, to enums.WithdrawalStatus, fields TransitionFields) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	if fields.ReviewedBy != nil {
		updates["reviewed_by"] = *fields.ReviewedBy
	}
	if fields.Reason != nil {
		updates["reason"] = *fields.Reason
	}
	if fields.TransferReference != nil {
		updates["transfer_reference"] = *fields.TransferReference
	}
	res := r.db.WithContext(ctx).
		Model(&models.Withdrawal{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
