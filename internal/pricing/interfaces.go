package pricing

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quansahdev/datamart-backend/pkg/db/models"
	"github.com/quansahdev/datamart-backend/pkg/enums"
)

// Repository defines persistence operations for products and price rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindRoleBasePrice(ctx context.Context, productID uuid.UUID, role enums.PrincipalRole) (*models.RoleBasePrice, error)
	FindPriceOverride(ctx context.Context, productID, principalID uuid.UUID) (*models.PriceOverride, error)
	UpsertRoleBasePrice(ctx context.Context, row *models.RoleBasePrice) error
	UpsertPriceOverride(ctx context.Context, row *models.PriceOverride) error
}
