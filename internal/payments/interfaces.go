package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quansahdev/datamart-backend/pkg/db/models"
	"github.com/quansahdev/datamart-backend/pkg/enums"
)

// Repository defines persistence operations for payment reconciliation.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByReference(ctx context.Context, reference string) (*models.Transaction, error)
	// ClaimForSettlement flips the row to confirmed/paid iff it has not
	// reached a terminal order status. False means another path settled
	// first and the caller must treat the settlement as a no-op.
	ClaimForSettlement(ctx context.Context, reference string, gatewayRef *string) (bool, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	MarkDelivered(ctx context.Context, id uuid.UUID) error
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus, reason *string) error
	RecordDispatchFailure(ctx context.Context, id uuid.UUID, reason string) error
}
