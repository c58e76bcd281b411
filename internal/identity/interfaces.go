package identity

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quansahdev/datamart-backend/pkg/db/models"
)

// Repository defines persistence operations for users and role overrides.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindRoleOverride(ctx context.Context, userID uuid.UUID) (*models.RoleOverride, error)
	UpsertRoleOverride(ctx context.Context, override *models.RoleOverride) error
}
