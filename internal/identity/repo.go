package identity

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quansahdev/datamart-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an identity repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindRoleOverride(ctx context.Context, userID uuid.UUID) (*models.RoleOverride, error) {
	var override models.RoleOverride
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&override).Error; err != nil {
		return nil, err
	}
	return &override, nil
}

func (r *repository) UpsertRoleOverride(ctx context.Context, override *models.RoleOverride) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "created_by", "updated_at"}),
		}).
		Create(override).Error
}
