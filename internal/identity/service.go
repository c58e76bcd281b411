package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quansahdev/datamart-backend/pkg/db/models"
	"github.com/quansahdev/datamart-backend/pkg/enums"
	pkgerrors "github.com/quansahdev/datamart-backend/pkg/errors"
)

// Service resolves a principal's effective role. A RoleOverride row wins
// over the role claim minted by the identity provider, so promotions take
// effect without waiting for token refresh.
type Service interface {
	EffectiveRole(ctx context.Context, userID uuid.UUID, claimedRole enums.PrincipalRole) (enums.PrincipalRole, error)
	Promote(ctx context.Context, tx *gorm.DB, userID uuid.UUID, role enums.PrincipalRole, promotedBy *uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("identity repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) EffectiveRole(ctx context.Context, userID uuid.UUID, claimedRole enums.PrincipalRole) (enums.PrincipalRole, error) {
	if userID == uuid.Nil {
		return enums.RoleGuest, nil
	}

	override, err := s.repo.FindRoleOverride(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if claimedRole.IsValid() {
				return claimedRole, nil
			}
			return enums.RoleUser, nil
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load role override")
	}
	return override.Role, nil
}

func (s *service) Promote(ctx context.Context, tx *gorm.DB, userID uuid.UUID, role enums.PrincipalRole, promotedBy *uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	override := &models.RoleOverride{
		UserID:    userID,
		Role:      role,
		CreatedBy: promotedBy,
	}
	if err := repo.UpsertRoleOverride(ctx, override); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write role override")
	}
	return nil
}
