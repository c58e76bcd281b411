package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/quansahdev/datamart-backend/pkg/enums"
	"github.com/quansahdev/datamart-backend/pkg/money"
)

// Transaction is the single source of truth for one purchase attempt. The
// reference is the idempotency key for every downstream operation; rows are
// never deleted, only superseded by new transactions.
type Transaction struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Reference string                `gorm:"column:reference;not null;unique"`
	Type      enums.TransactionType `gorm:"column:type;type:transaction_type;not null"`

	Amount      money.Amount `gorm:"column:amount;type:bigint;not null"`
	Profit      money.Amount `gorm:"column:profit;type:bigint;not null;default:0"`
	AgentProfit money.Amount `gorm:"column:agent_profit;type:bigint;not null;default:0"`

	Status         enums.OrderStatus    `gorm:"column:status;type:order_status;not null;default:'pending'"`
	PaymentStatus  enums.PaymentStatus  `gorm:"column:payment_status;type:payment_status;not null;default:'pending'"`
	DeliveryStatus enums.DeliveryStatus `gorm:"column:delivery_status;type:delivery_status;not null;default:'pending'"`
	PaymentMethod  enums.PaymentMethod  `gorm:"column:payment_method;type:payment_method;not null"`

	IsBulkOrder bool        `gorm:"column:is_bulk_order;not null;default:false"`
	Items       []OrderItem `gorm:"foreignKey:TransactionID"`

	UserID  *uuid.UUID `gorm:"column:user_id;type:uuid;index"`
	AgentID *uuid.UUID `gorm:"column:agent_id;type:uuid;index"`

	CustomerPhone string  `gorm:"column:customer_phone;not null"`
	CustomerEmail *string `gorm:"column:customer_email"`

	// Gateway's own id, set only after successful verification.
	PaymentReference *string `gorm:"column:payment_reference"`
	// Diagnostic text, never parsed programmatically.
	FailureReason *string `gorm:"column:failure_reason"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is one recipient line inside a transaction. BaseCost snapshots
// the role floor at purchase time so commission checks stay reproducible.
type OrderItem struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TransactionID  uuid.UUID            `gorm:"column:transaction_id;type:uuid;not null;index"`
	ProductID      uuid.UUID            `gorm:"column:product_id;type:uuid;not null"`
	RecipientPhone string               `gorm:"column:recipient_phone;not null"`
	UnitPrice      money.Amount         `gorm:"column:unit_price;type:bigint;not null"`
	BaseCost       money.Amount         `gorm:"column:base_cost;type:bigint;not null"`
	Status         enums.DeliveryStatus `gorm:"column:status;type:delivery_status;not null;default:'pending'"`
	Detail         *string              `gorm:"column:detail"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
