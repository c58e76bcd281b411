package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quansahdev/datamart-backend/pkg/db/models"
	"github.com/quansahdev/datamart-backend/pkg/enums"
	pkgerrors "github.com/quansahdev/datamart-backend/pkg/errors"
	"github.com/quansahdev/datamart-backend/pkg/money"
)

// Quote is a resolved price for one principal on one product. BaseCost is
// the role floor the margin is computed against; Margin never goes below
// zero even when a principal undercuts their own floor.
type Quote struct {
	Product   *models.Product
	Selling   money.Amount
	BaseCost  money.Amount
	Margin    money.Amount
	FromOwner bool
}

// Service resolves selling prices and manages the price rows behind them.
type Service interface {
	Resolve(ctx context.Context, productID uuid.UUID, role enums.PrincipalRole, principalID *uuid.UUID) (*Quote, error)
	SetRoleBasePrice(ctx context.Context, productID uuid.UUID, role enums.PrincipalRole, basePrice money.Amount) error
	SetPriceOverride(ctx context.Context, productID, principalID uuid.UUID, role enums.PrincipalRole, sellingPrice money.Amount) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pricing repository required")
	}
	return &service{repo: repo}, nil
}

// Resolve walks override → role floor → default price. Guests never see
// role pricing. The repository used is whichever the service was built
// with, so callers inside a transaction pass a tx-scoped service.
func (s *service) Resolve(ctx context.Context, productID uuid.UUID, role enums.PrincipalRole, principalID *uuid.UUID) (*Quote, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.Active {
		return nil, pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found")
	}

	if role == enums.RoleGuest || role == "" {
		return &Quote{
			Product:  product,
			Selling:  product.DefaultPrice,
			BaseCost: product.DefaultPrice,
			Margin:   0,
		}, nil
	}

	baseCost := product.DefaultPrice
	floor, err := s.repo.FindRoleBasePrice(ctx, productID, role)
	switch {
	case err == nil:
		baseCost = floor.BasePrice
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no floor for this role, default price stands in
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load role base price")
	}

	selling := baseCost
	fromOwner := false
	if principalID != nil && *principalID != uuid.Nil {
		override, err := s.repo.FindPriceOverride(ctx, productID, *principalID)
		switch {
		case err == nil:
			selling = override.SellingPrice
			fromOwner = true
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load price override")
		}
	}

	return &Quote{
		Product:   product,
		Selling:   selling,
		BaseCost:  baseCost,
		Margin:    money.ClampMargin(selling, baseCost),
		FromOwner: fromOwner,
	}, nil
}

func (s *service) SetRoleBasePrice(ctx context.Context, productID uuid.UUID, role enums.PrincipalRole, basePrice money.Amount) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if !role.IsValid() || role == enums.RoleGuest {
		return pkgerrors.New(pkgerrors.CodeValidation, "role must be a priced role")
	}
	if basePrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "base price cannot be negative")
	}

	if _, err := s.repo.FindProduct(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	row := &models.RoleBasePrice{
		ProductID: productID,
		Role:      role,
		BasePrice: basePrice,
	}
	if err := s.repo.UpsertRoleBasePrice(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write role base price")
	}
	return nil
}

// SetPriceOverride stores a principal's own selling price. Undercutting the
// role floor is allowed; the margin clamp keeps commission at zero instead
// of negative.
func (s *service) SetPriceOverride(ctx context.Context, productID, principalID uuid.UUID, role enums.PrincipalRole, sellingPrice money.Amount) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if principalID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !role.IsReseller() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only resellers can set prices")
	}
	if sellingPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "selling price cannot be negative")
	}

	if _, err := s.repo.FindProduct(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	row := &models.PriceOverride{
		ProductID:    productID,
		PrincipalID:  principalID,
		Role:         role,
		SellingPrice: sellingPrice,
	}
	if err := s.repo.UpsertPriceOverride(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write price override")
	}
	return nil
}
