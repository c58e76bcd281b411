package orders

import (
	"github.com/google/uuid"

	"github.com/quansahdev/datamart-backend/pkg/enums"
	"github.com/quansahdev/datamart-backend/pkg/money"
)

// BuildInput captures one purchase request before pricing. A single order
// carries exactly one recipient; bulk orders carry several. AgentID is set
// when the purchase came through a reseller's storefront link.
type BuildInput struct {
	ProductID  uuid.UUID
	Recipients []string

	UserID *uuid.UUID
	Role   enums.PrincipalRole

	AgentID *uuid.UUID

	CustomerPhone string
	CustomerEmail *string

	PaymentMethod enums.PaymentMethod
}

// TopupInput creates a wallet_topup transaction; topups settle through the
// gateway only.
type TopupInput struct {
	UserID        uuid.UUID
	Amount        money.Amount
	CustomerPhone string
	CustomerEmail *string
}

// ActivationInput creates an agent_activation transaction for the fixed
// activation fee.
type ActivationInput struct {
	UserID        uuid.UUID
	Fee           money.Amount
	CustomerPhone string
	CustomerEmail *string
}
