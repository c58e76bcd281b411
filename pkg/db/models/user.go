package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/quansahdev/datamart-backend/pkg/enums"
)

// User mirrors a principal known to the external identity provider. The role
// column is the provider's claim; RoleOverride rows take precedence over it.
type User struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string              `gorm:"column:email;not null;unique"`
	Phone     *string             `gorm:"column:phone"`
	Name      string              `gorm:"column:name;not null"`
	Role      enums.PrincipalRole `gorm:"column:role;type:principal_role;not null;default:'user'"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// RoleOverride promotes a principal without involving the identity provider.
type RoleOverride struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID           `gorm:"column:user_id;type:uuid;not null;unique"`
	Role      enums.PrincipalRole `gorm:"column:role;type:principal_role;not null"`
	CreatedBy *uuid.UUID          `gorm:"column:created_by;type:uuid"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
