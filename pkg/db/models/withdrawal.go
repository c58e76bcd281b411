package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/quansahdev/datamart-backend/pkg/enums"
	"github.com/quansahdev/datamart-backend/pkg/money"
)

// Withdrawal converts withdrawable profit into an external payout request.
// The profit wallet is debited only on the approved→paid transition, so a
// rejected or failed withdrawal never needs a refund.
type Withdrawal struct {
	ID     uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	Amount money.Amount           `gorm:"column:amount;type:bigint;not null"`
	Status enums.WithdrawalStatus `gorm:"column:status;type:withdrawal_status;not null;default:'pending'"`

	AccountName   string `gorm:"column:account_name;not null"`
	AccountNumber string `gorm:"column:account_number;not null"`
	Channel       string `gorm:"column:channel;not null;default:'momo'"`

	TransferReference *string    `gorm:"column:transfer_reference"`
	ReviewedBy        *uuid.UUID `gorm:"column:reviewed_by;type:uuid"`
	Reason            *string    `gorm:"column:reason"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
