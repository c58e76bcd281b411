package commission

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quansahdev/datamart-backend/internal/wallet"
	"github.com/quansahdev/datamart-backend/pkg/db/models"
	"github.com/quansahdev/datamart-backend/pkg/enums"
	pkgerrors "github.com/quansahdev/datamart-backend/pkg/errors"
	"github.com/quansahdev/datamart-backend/pkg/logger"
	"github.com/quansahdev/datamart-backend/pkg/money"
)

type referenceMinter interface {
	Next() string
}

// Recorder persists the admin_revenue side of a settlement split.
type Recorder interface {
	CreateTransaction(ctx context.Context, tx *gorm.DB, txn *models.Transaction) (*models.Transaction, error)
}

// Service splits a settled transaction's value between the attributed
// agent's profit wallet and platform revenue. Settle runs inside the
// settlement claim transaction, so it executes at most once per reference.
type Service interface {
	Settle(ctx context.Context, tx *gorm.DB, txn *models.Transaction) error
}

type service struct {
	wallets  wallet.Repository
	recorder Recorder
	refs     referenceMinter
	logger   *logger.Logger
}

// NewService builds a commission service with the required dependencies.
func NewService(wallets wallet.Repository, recorder Recorder, refs referenceMinter, logg *logger.Logger) (Service, error) {
	if wallets == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("transaction recorder required")
	}
	if refs == nil {
		return nil, fmt.Errorf("reference minter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{wallets: wallets, recorder: recorder, refs: refs, logger: logg}, nil
}

// Settle verifies the stored agent profit against the margin recomputed
// from the item snapshots, credits the agent, and records the platform's
// share. A drifted split aborts the whole settlement: paying out a wrong
// commission is worse than delaying the payment.
func (s *service) Settle(ctx context.Context, tx *gorm.DB, txn *models.Transaction) error {
	if txn == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	ctx = s.logger.WithReference(ctx, txn.Reference)

	expected := expectedMargin(txn.Items)
	if txn.AgentProfit != expected {
		err := pkgerrors.New(pkgerrors.CodeAccountingMismatch,
			fmt.Sprintf("stored agent profit %s does not match recomputed margin %s", txn.AgentProfit, expected))
		s.logger.Error(ctx, "commission split aborted", err)
		return err
	}

	if txn.AgentID != nil && *txn.AgentID != uuid.Nil && txn.AgentProfit.IsPositive() {
		wallets := s.wallets.WithTx(tx)
		if _, err := wallets.EnsureProfitWallet(ctx, *txn.AgentID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure profit wallet")
		}
		if err := wallets.CreditProfit(ctx, *txn.AgentID, txn.AgentProfit); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit agent profit")
		}
	}

	adminRevenue := txn.Amount - txn.AgentProfit
	if adminRevenue.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeAccountingMismatch,
			fmt.Sprintf("agent profit %s exceeds transaction amount %s", txn.AgentProfit, txn.Amount))
	}

	record := &models.Transaction{
		Reference:     s.refs.Next(),
		Type:          enums.TransactionTypeAdminRevenue,
		Amount:        adminRevenue,
		Status:        enums.OrderStatusCompleted,
		PaymentStatus: enums.PaymentStatusPaid,
		PaymentMethod: txn.PaymentMethod,
		AgentID:       txn.AgentID,
		CustomerPhone: txn.CustomerPhone,
	}
	if _, err := s.recorder.CreateTransaction(ctx, tx, record); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record admin revenue")
	}

	s.logger.Info(ctx, "commission settled")
	return nil
}

func expectedMargin(items []models.OrderItem) money.Amount {
	var total money.Amount
	for _, item := range items {
		total += money.ClampMargin(item.UnitPrice, item.BaseCost)
	}
	return total
}
