package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quansahdev/datamart-backend/pkg/db/models"
	"github.com/quansahdev/datamart-backend/pkg/pagination"
)

// TransactionPage wraps one page of transactions plus the next page cursor.
type TransactionPage struct {
	Transactions []models.Transaction
	NextCursor   string
}

// Repository defines persistence operations for transactions and items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateTransaction(ctx context.Context, txn *models.Transaction) (*models.Transaction, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	FindByReference(ctx context.Context, reference string) (*models.Transaction, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*TransactionPage, error)
}
