package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quansahdev/datamart-backend/internal/commission"
	"github.com/quansahdev/datamart-backend/internal/fulfillment"
	"github.com/quansahdev/datamart-backend/internal/identity"
	"github.com/quansahdev/datamart-backend/internal/wallet"
	"github.com/quansahdev/datamart-backend/pkg/config"
	"github.com/quansahdev/datamart-backend/pkg/db/models"
	"github.com/quansahdev/datamart-backend/pkg/enums"
	pkgerrors "github.com/quansahdev/datamart-backend/pkg/errors"
	"github.com/quansahdev/datamart-backend/pkg/logger"
	"github.com/quansahdev/datamart-backend/pkg/metrics"
	"github.com/quansahdev/datamart-backend/pkg/paystack"
)

const webhookConsumer = "paystack-webhook"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gatewayClient interface {
	Initialize(ctx context.Context, params paystack.InitializeParams) (*paystack.Authorization, error)
	Verify(ctx context.Context, reference string) (*paystack.VerifyData, error)
}

type replayGuard interface {
	CheckAndMark(ctx context.Context, consumer, eventID string) (bool, error)
	Delete(ctx context.Context, consumer, eventID string) error
}

// Service reconciles transactions against money actually received, over
// two paths: internal wallet balance (Path A) and the external gateway
// (Path B). Both converge on the same conditional settlement claim.
type Service interface {
	PayWithWallet(ctx context.Context, reference string, userID uuid.UUID) (*models.Transaction, error)
	InitializeGateway(ctx context.Context, reference string) (*paystack.Authorization, error)
	Verify(ctx context.Context, reference string) (*models.Transaction, error)
	HandleWebhook(ctx context.Context, event paystack.WebhookEvent) error
}

type service struct {
	repo       Repository
	wallets    wallet.Repository
	commission commission.Service
	dispatcher fulfillment.Dispatcher
	identity   identity.Service
	gateway    gatewayClient
	guard      replayGuard
	tx         txRunner
	cfg        config.PaymentsConfig
	logger     *logger.Logger
	metrics    *metrics.PaymentMetrics
}

// NewService builds the payment reconciler with the required dependencies.
func NewService(
	repo Repository,
	wallets wallet.Repository,
	commissionSvc commission.Service,
	dispatcher fulfillment.Dispatcher,
	identitySvc identity.Service,
	gateway gatewayClient,
	guard replayGuard,
	tx txRunner,
	cfg config.PaymentsConfig,
	logg *logger.Logger,
	pm *metrics.PaymentMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if wallets == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if commissionSvc == nil {
		return nil, fmt.Errorf("commission service required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("fulfillment dispatcher required")
	}
	if identitySvc == nil {
		return nil, fmt.Errorf("identity service required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	if guard == nil {
		return nil, fmt.Errorf("replay guard required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:       repo,
		wallets:    wallets,
		commission: commissionSvc,
		dispatcher: dispatcher,
		identity:   identitySvc,
		gateway:    gateway,
		guard:      guard,
		tx:         tx,
		cfg:        cfg,
		logger:     logg,
		metrics:    pm,
	}, nil
}

// PayWithWallet settles a transaction from the buyer's spending balance.
// Storefront-attributed transactions are rejected: attribution implies a
// guest buyer, and guests have no wallet.
func (s *service) PayWithWallet(ctx context.Context, reference string, userID uuid.UUID) (*models.Transaction, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	ctx = s.logger.WithReference(ctx, reference)

	txn, err := s.loadByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if txn.PaymentMethod != enums.PaymentMethodWallet {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction does not use wallet payment")
	}
	if txn.UserID == nil || *txn.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "transaction does not belong to caller")
	}
	if txn.AgentID != nil && *txn.AgentID != uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storefront transactions cannot be settled from a wallet")
	}
	if txn.Status.IsTerminal() {
		return txn, nil
	}

	claimed := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.ClaimForSettlement(ctx, reference, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim transaction")
		}
		if !ok {
			return nil
		}
		claimed = true

		wallets := s.wallets.WithTx(tx)
		if _, err := wallets.EnsureWallet(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure wallet")
		}
		debited, err := wallets.DebitWallet(ctx, userID, txn.Amount)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit wallet")
		}
		if !debited {
			return pkgerrors.New(pkgerrors.CodeInsufficientBalance, "wallet balance is insufficient")
		}

		if err := s.settleInTx(ctx, tx, txn); err != nil {
			return err
		}
		return repo.MarkCompleted(ctx, txn.ID)
	})
	if err != nil {
		s.metrics.IncFailure(failureReason(err))
		if pkgerrors.HasCode(err, pkgerrors.CodeInsufficientBalance) {
			reason := "wallet balance is insufficient"
			if dbErr := s.repo.UpdatePaymentStatus(ctx, txn.ID, enums.PaymentStatusFailed, &reason); dbErr != nil {
				s.logger.Error(ctx, "failed to mark payment failed", dbErr)
			}
		}
		return nil, err
	}
	if !claimed {
		// a concurrent settler won the claim; nothing to dispatch
		s.logger.Info(ctx, "settlement already claimed, skipping")
		return s.loadByReference(ctx, reference)
	}

	s.metrics.IncSettlement("wallet")
	s.dispatch(ctx, txn)
	return s.loadByReference(ctx, reference)
}

// InitializeGateway opens a gateway charge for the transaction. The
// transaction reference doubles as the charge reference, so calling this
// twice resumes the same charge instead of double-billing.
func (s *service) InitializeGateway(ctx context.Context, reference string) (*paystack.Authorization, error) {
	ctx = s.logger.WithReference(ctx, reference)

	txn, err := s.loadByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if txn.PaymentMethod != enums.PaymentMethodGateway {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction does not use gateway payment")
	}
	if txn.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "transaction already settled")
	}
	if txn.PaymentStatus == enums.PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "transaction already paid")
	}

	email := "guest@datamart.local"
	if txn.CustomerEmail != nil && *txn.CustomerEmail != "" {
		email = *txn.CustomerEmail
	}

	auth, err := s.gateway.Initialize(ctx, paystack.InitializeParams{
		AmountMinor: int64(txn.Amount),
		Email:       email,
		Reference:   txn.Reference,
		Metadata: map[string]any{
			"transaction_id":  txn.ID.String(),
			"is_bulk_order":   txn.IsBulkOrder,
			"recipient_count": len(txn.Items),
		},
	})
	if err != nil {
		reason := "gateway charge initialization failed"
		if dbErr := s.repo.UpdatePaymentStatus(ctx, txn.ID, enums.PaymentStatusFailed, &reason); dbErr != nil {
			s.logger.Error(ctx, "failed to mark payment failed", dbErr)
		}
		s.metrics.IncFailure("gateway_init_failed")
		return nil, err
	}
	return auth, nil
}

// Verify asks the gateway for the authoritative charge state and converges
// the transaction to it. Already-settled transactions short-circuit without
// a gateway call.
func (s *service) Verify(ctx context.Context, reference string) (*models.Transaction, error) {
	ctx = s.logger.WithReference(ctx, reference)

	txn, err := s.loadByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if txn.Status.IsTerminal() {
		return txn, nil
	}
	if txn.PaymentMethod != enums.PaymentMethodGateway {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction does not use gateway payment")
	}

	data, err := s.verifyWithRetry(ctx, reference)
	if err != nil {
		// the gateway being unreachable is not a verdict on the charge; the
		// webhook path can still settle it, so report the transaction as-is
		s.logger.Error(ctx, "gateway verify unavailable, payment still reconciling", err)
		s.metrics.IncFailure("verify_unavailable")
		return txn, nil
	}

	switch data.Status {
	case paystack.StatusSuccess:
		if err := s.settle(ctx, txn, data.ChargeRef(), data.AmountMinor); err != nil {
			return nil, err
		}
	case paystack.StatusAbandoned:
		// the buyer walked away; order status stays pending
		if err := s.repo.UpdatePaymentStatus(ctx, txn.ID, enums.PaymentStatusCancelled, nil); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment cancelled")
		}
		s.metrics.IncFailure("abandoned")
	default:
		reason := fmt.Sprintf("gateway reported %s", data.Status)
		if err := s.repo.UpdatePaymentStatus(ctx, txn.ID, enums.PaymentStatusFailed, &reason); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment failed")
		}
		s.metrics.IncFailure("gateway_failed")
	}

	return s.loadByReference(ctx, reference)
}

// HandleWebhook converges a transaction from a gateway event. The redis
// guard drops replays cheaply; the settlement claim is still the authority
// when the guard and a concurrent verify disagree.
func (s *service) HandleWebhook(ctx context.Context, event paystack.WebhookEvent) error {
	reference := event.Data.Reference
	if reference == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "webhook event has no reference")
	}
	ctx = s.logger.WithReference(ctx, reference)

	eventID := fmt.Sprintf("%s:%s", event.Event, reference)
	fresh, err := s.guard.CheckAndMark(ctx, webhookConsumer, eventID)
	if err != nil {
		s.logger.Error(ctx, "webhook replay guard unavailable", err)
		// fall through: the DB claim still dedupes
	} else if !fresh {
		s.logger.Info(ctx, "webhook replay dropped")
		return nil
	}

	handlerErr := s.processWebhook(ctx, event)
	if handlerErr != nil && err == nil {
		// let the gateway's retry redeliver a failed event
		if delErr := s.guard.Delete(ctx, webhookConsumer, eventID); delErr != nil {
			s.logger.Error(ctx, "failed to unmark webhook event", delErr)
		}
	}
	return handlerErr
}

func (s *service) processWebhook(ctx context.Context, event paystack.WebhookEvent) error {
	txn, err := s.loadByReference(ctx, event.Data.Reference)
	if err != nil {
		return err
	}
	if txn.Status.IsTerminal() {
		return nil
	}

	switch event.Event {
	case paystack.EventChargeSuccess:
		return s.settle(ctx, txn, event.Data.ChargeRef(), event.Data.AmountMinor)
	case paystack.EventChargeFailed:
		reason := "gateway reported charge failure"
		if err := s.repo.UpdatePaymentStatus(ctx, txn.ID, enums.PaymentStatusFailed, &reason); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment failed")
		}
		s.metrics.IncFailure("gateway_failed")
		return nil
	default:
		s.logger.Info(ctx, fmt.Sprintf("ignoring webhook event %s", event.Event))
		return nil
	}
}

// settle claims the transaction and runs the money movement in one DB
// transaction, then dispatches delivery outside it. A lost claim means the
// other settlement path won; that is success, not an error.
func (s *service) settle(ctx context.Context, txn *models.Transaction, gatewayRef *string, amountMinor int64) error {
	if amountMinor != 0 && amountMinor != int64(txn.Amount) {
		reason := fmt.Sprintf("gateway amount %d does not match transaction amount %d", amountMinor, int64(txn.Amount))
		if err := s.repo.UpdatePaymentStatus(ctx, txn.ID, enums.PaymentStatusFailed, &reason); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment failed")
		}
		s.metrics.IncFailure("amount_mismatch")
		return nil
	}

	claimed := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.ClaimForSettlement(ctx, txn.Reference, gatewayRef)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim transaction")
		}
		if !ok {
			return nil
		}
		claimed = true

		if err := s.settleInTx(ctx, tx, txn); err != nil {
			return err
		}
		return repo.MarkCompleted(ctx, txn.ID)
	})
	if err != nil {
		s.metrics.IncFailure(failureReason(err))
		return err
	}
	if !claimed {
		s.logger.Info(ctx, "settlement already claimed, skipping")
		return nil
	}

	s.metrics.IncSettlement("gateway")
	s.dispatch(ctx, txn)
	return nil
}

// settleInTx runs the per-type money movement under the settlement claim.
func (s *service) settleInTx(ctx context.Context, tx *gorm.DB, txn *models.Transaction) error {
	switch txn.Type {
	case enums.TransactionTypeDataBundle, enums.TransactionTypeResultChecker:
		return s.commission.Settle(ctx, tx, txn)

	case enums.TransactionTypeWalletTopup:
		if txn.UserID == nil {
			return pkgerrors.New(pkgerrors.CodeInternal, "topup transaction has no user")
		}
		wallets := s.wallets.WithTx(tx)
		if _, err := wallets.EnsureWallet(ctx, *txn.UserID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure wallet")
		}
		if err := wallets.CreditWallet(ctx, *txn.UserID, txn.Amount); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit wallet topup")
		}
		return nil

	case enums.TransactionTypeAgentActivation:
		if txn.UserID == nil {
			return pkgerrors.New(pkgerrors.CodeInternal, "activation transaction has no user")
		}
		return s.identity.Promote(ctx, tx, *txn.UserID, enums.RoleAgent, nil)

	default:
		return pkgerrors.New(pkgerrors.CodeInternal,
			fmt.Sprintf("transaction type %s cannot settle", txn.Type))
	}
}

// dispatch hands the settled transaction to delivery. Payment is final at
// this point; a dispatch failure is recorded on the transaction but never
// reverts it.
func (s *service) dispatch(ctx context.Context, txn *models.Transaction) {
	switch txn.Type {
	case enums.TransactionTypeDataBundle, enums.TransactionTypeResultChecker:
	default:
		return
	}

	outcome, err := s.dispatcher.Dispatch(ctx, txn)
	if err != nil {
		s.logger.Error(ctx, "fulfillment dispatch failed", err)
		if dbErr := s.repo.RecordDispatchFailure(ctx, txn.ID, err.Error()); dbErr != nil {
			s.logger.Error(ctx, "failed to record dispatch failure", dbErr)
		}
		return
	}
	if outcome.Status == enums.DeliveryStatusDelivered {
		if err := s.repo.MarkDelivered(ctx, txn.ID); err != nil {
			s.logger.Error(ctx, "failed to mark transaction delivered", err)
		}
	}
}

func (s *service) verifyWithRetry(ctx context.Context, reference string) (*paystack.VerifyData, error) {
	attempts := s.cfg.VerifyRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "verify cancelled")
			case <-time.After(s.cfg.VerifyBackoff):
			}
		}
		data, err := s.gateway.Verify(ctx, reference)
		if err == nil {
			return data, nil
		}
		lastErr = err
		s.logger.Warn(ctx, fmt.Sprintf("gateway verify attempt %d failed", i+1))
	}
	return nil, lastErr
}

func (s *service) loadByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference required")
	}
	txn, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	return txn, nil
}

func failureReason(err error) string {
	if domainErr := pkgerrors.As(err); domainErr != nil {
		return string(domainErr.Code())
	}
	return "internal"
}
