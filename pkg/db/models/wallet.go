package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/quansahdev/datamart-backend/pkg/money"
)

// Wallet is a principal's spending balance, debited on internal-balance
// purchases and credited by gateway-settled topups.
type Wallet struct {
	ID        uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID    `gorm:"column:user_id;type:uuid;not null;unique"`
	Balance   money.Amount `gorm:"column:balance;type:bigint;not null;default:0"`
	CreatedAt time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

// ProfitWallet accumulates a reseller's commission. AvailableBalance only
// decreases when a withdrawal transitions to paid; TotalEarned never
// decreases.
type ProfitWallet struct {
	ID               uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID    `gorm:"column:user_id;type:uuid;not null;unique"`
	AvailableBalance money.Amount `gorm:"column:available_balance;type:bigint;not null;default:0"`
	PendingBalance   money.Amount `gorm:"column:pending_balance;type:bigint;not null;default:0"`
	TotalEarned      money.Amount `gorm:"column:total_earned;type:bigint;not null;default:0"`
	CreatedAt        time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}
