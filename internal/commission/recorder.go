package commission

import (
	"context"

	"gorm.io/gorm"

	"github.com/quansahdev/datamart-backend/pkg/db/models"
)

type gormRecorder struct {
	db *gorm.DB
}

// NewRecorder builds a Recorder that writes admin revenue rows with the
// caller's transaction when one is passed.
func NewRecorder(db *gorm.DB) Recorder {
	return &gormRecorder{db: db}
}

func (r *gormRecorder) CreateTransaction(ctx context.Context, tx *gorm.DB, txn *models.Transaction) (*models.Transaction, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	if err := conn.WithContext(ctx).Create(txn).Error; err != nil {
		return nil, err
	}
	return txn, nil
}
