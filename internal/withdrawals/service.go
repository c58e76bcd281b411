package withdrawals

import (
	"context"
	"errors"
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

const defaultChannel = "momo"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RequestInput describes a new payout request.
type RequestInput struct {
	UserID        uuid.UUID
	Amount        money.Amount
	AccountName   string
	AccountNumber string
	Channel       string
}

// Service runs the withdrawal state machine. Requesting places no hold on
// the profit wallet; the only debit happens on the approved→paid
// transition, so rejections and failures never refund anything.
type Service interface {
	Request(ctx context.Context, input RequestInput) (*models.Withdrawal, error)
	Approve(ctx context.Context, id, reviewedBy uuid.UUID) (*models.Withdrawal, error)
	Reject(ctx context.Context, id, reviewedBy uuid.UUID, reason string) (*models.Withdrawal, error)
	MarkPaid(ctx context.Context, id uuid.UUID, transferReference string) (*models.Withdrawal, error)
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) (*models.Withdrawal, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Withdrawal, error)
	ListPending(ctx context.Context, limit int) ([]models.Withdrawal, error)
}

type service struct {
	repo    Repository
	wallets wallet.Repository
	tx      txRunner
	logger  *logger.Logger
}

// NewService builds the withdrawal service.
func NewService(repo Repository, wallets wallet.Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("withdrawals repository required")
	}
	if wallets == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, wallets: wallets, tx: tx, logger: logg}, nil
}

func (s *service) Request(ctx context.Context, input RequestInput) (*models.Withdrawal, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal amount must be positive")
	}
	if input.AccountName == "" || input.AccountNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout account details required")
	}
	channel := input.Channel
	if channel == "" {
		channel = defaultChannel
	}

	// bound by the current available balance; no hold is placed, the
	// paid transition re-checks before any money moves
	pw, err := s.wallets.FindProfitWallet(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientBalance, "no withdrawable profit")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profit wallet")
	}
	if pw.AvailableBalance < input.Amount {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientBalance, "amount exceeds withdrawable profit")
	}

	w := &models.Withdrawal{
		UserID:        input.UserID,
		Amount:        input.Amount,
		Status:        enums.WithdrawalStatusPending,
		AccountName:   input.AccountName,
		AccountNumber: input.AccountNumber,
		Channel:       channel,
	}
	created, err := s.repo.Create(ctx, w)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create withdrawal")
	}
	s.logger.Info(s.logger.WithUserID(ctx, input.UserID.String()), "withdrawal requested")
	return created, nil
}

func (s *service) Approve(ctx context.Context, id, reviewedBy uuid.UUID) (*models.Withdrawal, error) {
	return s.review(ctx, id, enums.WithdrawalStatusApproved, reviewedBy, nil)
}

func (s *service) Reject(ctx context.Context, id, reviewedBy uuid.UUID, reason string) (*models.Withdrawal, error) {
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
	}
	return s.review(ctx, id, enums.WithdrawalStatusRejected, reviewedBy, &reason)
}

// review handles the pending→approved and pending→rejected transitions.
// Neither touches the profit wallet.
func (s *service) review(ctx context.Context, id uuid.UUID, to enums.WithdrawalStatus, reviewedBy uuid.UUID, reason *string) (*models.Withdrawal, error) {
	if reviewedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reviewer required")
	}
	w, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !w.Status.CanTransitionTo(to) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("withdrawal is %s, cannot move to %s", w.Status, to))
	}

	ok, err := s.repo.Transition(ctx, id, w.Status, to, TransitionFields{
		ReviewedBy: &reviewedBy,
		Reason:     reason,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition withdrawal")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "withdrawal was reviewed concurrently")
	}
	return s.load(ctx, id)
}

// MarkPaid finalizes the payout. The status transition and the profit
// debit run in one DB transaction, so a balance that dropped since
// approval rolls the whole thing back and the row stays approved.
func (s *service) MarkPaid(ctx context.Context, id uuid.UUID, transferReference string) (*models.Withdrawal, error) {
	if transferReference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transfer reference required")
	}
	w, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !w.Status.CanTransitionTo(enums.WithdrawalStatusPaid) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("withdrawal is %s, cannot be paid", w.Status))
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.Transition(ctx, id, enums.WithdrawalStatusApproved, enums.WithdrawalStatusPaid, TransitionFields{
			TransferReference: &transferReference,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition withdrawal")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "withdrawal was reviewed concurrently")
		}

		debited, err := s.wallets.WithTx(tx).DebitProfitAvailable(ctx, w.UserID, w.Amount)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit profit wallet")
		}
		if !debited {
			return pkgerrors.New(pkgerrors.CodeInsufficientBalance, "withdrawable profit no longer covers the amount")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

func (s *service) MarkFailed(ctx context.Context, id uuid.UUID, reason string) (*models.Withdrawal, error) {
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "failure reason required")
	}
	w, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !w.Status.CanTransitionTo(enums.WithdrawalStatusFailed) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("withdrawal is %s, cannot be failed", w.Status))
	}

	ok, err := s.repo.Transition(ctx, id, enums.WithdrawalStatusApproved, enums.WithdrawalStatusFailed, TransitionFields{
		Reason: &reason,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition withdrawal")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "withdrawal was reviewed concurrently")
	}
	return s.load(ctx, id)
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	return s.load(ctx, id)
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Withdrawal, error) {
	ws, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list withdrawals")
	}
	return ws, nil
}

func (s *service) ListPending(ctx context.Context, limit int) ([]models.Withdrawal, error) {
	ws, err := s.repo.ListByStatus(ctx, enums.WithdrawalStatusPending, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending withdrawals")
	}
	return ws, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal id required")
	}
	w, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load withdrawal")
	}
	return w, nil
}
