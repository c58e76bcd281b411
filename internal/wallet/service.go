package wallet

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/quansahdev/datamart-backend/pkg/db/models"
	pkgerrors "github.com/quansahdev/datamart-backend/pkg/errors"
)

// Service exposes read access to a principal's wallets. Mutations go
// through the repository inside payment/withdrawal transactions, never
// through this surface.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	GetProfit(ctx context.Context, userID uuid.UUID) (*models.ProfitWallet, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	w, err := s.repo.EnsureWallet(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}
	return w, nil
}

func (s *service) GetProfit(ctx context.Context, userID uuid.UUID) (*models.ProfitWallet, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	w, err := s.repo.EnsureProfitWallet(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profit wallet")
	}
	return w, nil
}
