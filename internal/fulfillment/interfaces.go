package fulfillment

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quansahdev/datamart-backend/pkg/db/models"
	"github.com/quansahdev/datamart-backend/pkg/enums"
)

// Repository defines persistence operations behind dispatching.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	// ClaimCredential marks one unsold credential for the pool as sold and
	// returns it; gorm.ErrRecordNotFound when the pool is empty.
	ClaimCredential(ctx context.Context, examType enums.ExamType, examYear int, transactionID uuid.UUID) (*models.ResultCheckerCredential, error)
	CreateCredential(ctx context.Context, cred *models.ResultCheckerCredential) error
	FindCredentialByTransaction(ctx context.Context, transactionID uuid.UUID) (*models.ResultCheckerCredential, error)
	UpdateOrderItem(ctx context.Context, itemID uuid.UUID, status enums.DeliveryStatus, detail *string) error
	UpdateTransactionDelivery(ctx context.Context, transactionID uuid.UUID, status enums.DeliveryStatus) error
}
