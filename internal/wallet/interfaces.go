package wallet

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quansahdev/datamart-backend/pkg/db/models"
	"github.com/quansahdev/datamart-backend/pkg/money"
)

// Repository defines persistence operations for spending and profit
// wallets. All debits are conditional single-row updates; the boolean
// result reports whether the balance predicate held.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	FindProfitWallet(ctx context.Context, userID uuid.UUID) (*models.ProfitWallet, error)
	EnsureWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	EnsureProfitWallet(ctx context.Context, userID uuid.UUID) (*models.ProfitWallet, error)
	DebitWallet(ctx context.Context, userID uuid.UUID, amount money.Amount) (bool, error)
	CreditWallet(ctx context.Context, userID uuid.UUID, amount money.Amount) error
	CreditProfit(ctx context.Context, userID uuid.UUID, amount money.Amount) error
	DebitProfitAvailable(ctx context.Context, userID uuid.UUID, amount money.Amount) (bool, error)
}
