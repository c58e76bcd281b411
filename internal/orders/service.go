package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quansahdev/datamart-backend/internal/pricing"
	"github.com/quansahdev/datamart-backend/pkg/db"
	"github.com/quansahdev/datamart-backend/pkg/db/models"
	"github.com/quansahdev/datamart-backend/pkg/enums"
	pkgerrors "github.com/quansahdev/datamart-backend/pkg/errors"
	"github.com/quansahdev/datamart-backend/pkg/money"
	"github.com/quansahdev/datamart-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type referenceMinter interface {
	Next() string
}

// Service builds priced, immutable orders. A built order is a Transaction
// in pending/pending; nothing here touches payment.
type Service interface {
	Build(ctx context.Context, input BuildInput) (*models.Transaction, error)
	CreateTopup(ctx context.Context, input TopupInput) (*models.Transaction, error)
	CreateActivation(ctx context.Context, input ActivationInput) (*models.Transaction, error)
	GetByReference(ctx context.Context, reference string) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*TransactionPage, error)
}

type service struct {
	repo    Repository
	pricing pricing.Service
	tx      txRunner
	refs    referenceMinter
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, pricingSvc pricing.Service, tx txRunner, refs referenceMinter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if pricingSvc == nil {
		return nil, fmt.Errorf("pricing service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if refs == nil {
		return nil, fmt.Errorf("reference minter required")
	}
	return &service{repo: repo, pricing: pricingSvc, tx: tx, refs: refs}, nil
}

func (s *service) Build(ctx context.Context, input BuildInput) (*models.Transaction, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if len(input.Recipients) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one recipient required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	phones := make([]string, 0, len(input.Recipients))
	for _, raw := range input.Recipients {
		normalized, err := NormalizePhone(raw)
		if err != nil {
			return nil, err
		}
		phones = append(phones, normalized)
	}

	// The product is priced once; the attributed storefront agent's role and
	// overrides win over the buyer's own when present.
	role := input.Role
	principalID := input.UserID
	if input.AgentID != nil && *input.AgentID != uuid.Nil {
		role = enums.RoleAgent
		principalID = input.AgentID
	}
	quote, quoteErr := s.pricing.Resolve(ctx, input.ProductID, role, principalID)

	if quoteErr == nil && quote.Product.Network != nil {
		for _, phone := range phones {
			if !MatchesNetwork(phone, *quote.Product.Network) {
				return nil, pkgerrors.New(pkgerrors.CodeNetworkMismatch,
					fmt.Sprintf("recipient %s is not on the %s network", phone, quote.Product.Network.String()))
			}
		}
	}

	seen := make(map[string]struct{}, len(phones))
	for _, phone := range phones {
		if _, dup := seen[phone]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicateRecipient,
				fmt.Sprintf("recipient %s appears more than once", phone))
		}
		seen[phone] = struct{}{}
	}

	isBulk := len(phones) > 1
	if quoteErr == nil && isBulk && quote.Product.Network != nil && !quote.Product.Network.AllowsBulk() {
		return nil, pkgerrors.New(pkgerrors.CodeBulkNotAllowed,
			fmt.Sprintf("%s does not support bulk orders", quote.Product.Network.String()))
	}
	if quoteErr != nil {
		return nil, quoteErr
	}

	var amount, agentProfit money.Amount
	items := make([]models.OrderItem, 0, len(phones))
	for _, phone := range phones {
		amount += quote.Selling
		agentProfit += quote.Margin
		items = append(items, models.OrderItem{
			ProductID:      input.ProductID,
			RecipientPhone: phone,
			UnitPrice:      quote.Selling,
			BaseCost:       quote.BaseCost,
			Status:         enums.DeliveryStatusPending,
		})
	}
	if input.AgentID == nil || *input.AgentID == uuid.Nil {
		agentProfit = 0
	}

	txn := &models.Transaction{
		Reference:     s.refs.Next(),
		Type:          quote.Product.Type.TransactionType(),
		Amount:        amount,
		Profit:        agentProfit,
		AgentProfit:   agentProfit,
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: input.PaymentMethod,
		IsBulkOrder:   isBulk,
		UserID:        input.UserID,
		AgentID:       input.AgentID,
		CustomerPhone: input.CustomerPhone,
		CustomerEmail: input.CustomerEmail,
	}
	if txn.CustomerPhone == "" {
		txn.CustomerPhone = phones[0]
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		created, err := repo.CreateTransaction(ctx, txn)
		if err != nil {
			if db.IsUniqueViolation(err, "transactions_reference_key") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order reference collision, retry the request")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create transaction")
		}
		for i := range items {
			items[i].TransactionID = created.ID
		}
		if err := repo.CreateOrderItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	txn.Items = items
	return txn, nil
}

func (s *service) CreateTopup(ctx context.Context, input TopupInput) (*models.Transaction, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "topup amount must be positive")
	}

	userID := input.UserID
	txn := &models.Transaction{
		Reference:     s.refs.Next(),
		Type:          enums.TransactionTypeWalletTopup,
		Amount:        input.Amount,
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: enums.PaymentMethodGateway,
		UserID:        &userID,
		CustomerPhone: input.CustomerPhone,
		CustomerEmail: input.CustomerEmail,
	}
	if _, err := s.repo.CreateTransaction(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create topup transaction")
	}
	return txn, nil
}

func (s *service) CreateActivation(ctx context.Context, input ActivationInput) (*models.Transaction, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Fee.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "activation fee must be positive")
	}

	userID := input.UserID
	txn := &models.Transaction{
		Reference:     s.refs.Next(),
		Type:          enums.TransactionTypeAgentActivation,
		Amount:        input.Fee,
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: enums.PaymentMethodGateway,
		UserID:        &userID,
		CustomerPhone: input.CustomerPhone,
		CustomerEmail: input.CustomerEmail,
	}
	if _, err := s.repo.CreateTransaction(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create activation transaction")
	}
	return txn, nil
}

func (s *service) GetByReference(ctx context.Context, reference string) (*models.Transaction, error) {
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

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*TransactionPage, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	page, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	return page, nil
}
