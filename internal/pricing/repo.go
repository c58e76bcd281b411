package pricing

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quansahdev/datamart-backend/pkg/db/models"
	"github.com/quansahdev/datamart-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a pricing repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindRoleBasePrice(ctx context.Context, productID uuid.UUID, role enums.PrincipalRole) (*models.RoleBasePrice, error) {
	var row models.RoleBasePrice
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND role = ?", productID, role).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindPriceOverride(ctx context.Context, productID, principalID uuid.UUID) (*models.PriceOverride, error) {
	var row models.PriceOverride
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND principal_id = ?", productID, principalID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) UpsertRoleBasePrice(ctx context.Context, row *models.RoleBasePrice) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "role"}},
			DoUpdates: clause.AssignmentColumns([]string{"base_price", "updated_at"}),
		}).
		Create(row).Error
}

func (r *repository) UpsertPriceOverride(ctx context.Context, row *models.PriceOverride) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "principal_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"selling_price", "role", "updated_at"}),
		}).
		Create(row).Error
}
