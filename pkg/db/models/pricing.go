package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/quansahdev/datamart-backend/pkg/enums"
	"github.com/quansahdev/datamart-backend/pkg/money"
)

// RoleBasePrice is the administrator-set cost floor for a role on a product.
type RoleBasePrice struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID           `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_role_base_prices_product_role"`
	Role      enums.PrincipalRole `gorm:"column:role;type:principal_role;not null;uniqueIndex:idx_role_base_prices_product_role"`
	BasePrice money.Amount        `gorm:"column:base_price;type:bigint;not null"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// PriceOverride is a principal's own selling price for a product; absent
// means fall back to the role base price.
type PriceOverride struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID    uuid.UUID           `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_price_overrides_product_principal"`
	Role         enums.PrincipalRole `gorm:"column:role;type:principal_role;not null"`
	PrincipalID  uuid.UUID           `gorm:"column:principal_id;type:uuid;not null;uniqueIndex:idx_price_overrides_product_principal"`
	SellingPrice money.Amount        `gorm:"column:selling_price;type:bigint;not null"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
