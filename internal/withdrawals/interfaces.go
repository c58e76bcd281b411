package withdrawals

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quansahdev/datamart-backend/pkg/db/models"
	"github.com/quansahdev/datamart-backend/pkg/enums"
)

// Repository defines persistence operations for withdrawal requests.
// Transition is a conditional single-row update guarded by the current
// status; a false result means another actor moved the row first.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, w *models.Withdrawal) (*models.Withdrawal, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Withdrawal, error)
	ListByStatus(ctx context.Context, status enums.WithdrawalStatus, limit int) ([]models.Withdrawal, error)
	Transition(ctx context.Context, id uuid.UUID, from, to enums.WithdrawalStatus, fields TransitionFields) (bool, error)
}

// TransitionFields carries the optional columns written alongside a status
// transition.
type TransitionFields struct {
	ReviewedBy        *uuid.UUID
	Reason            *string
	TransferReference *string
}
