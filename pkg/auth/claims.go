package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/quansahdev/datamart-backend/pkg/enums"
)

// IdentityClaims is the typed JWT issued by the external identity provider.
// The role claim is the provider's view; the identity service merges it with
// the local role-override store before it is trusted for pricing.
type IdentityClaims struct {
	UserID uuid.UUID           `json:"user_id"`
	Email  string              `json:"email"`
	Role   enums.PrincipalRole `json:"role"`
	jwt.RegisteredClaims
}
