package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/quansahdev/datamart-backend/pkg/enums"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated caller as seen by this request, with the
// role already merged against the local override store. A guest request
// carries a zero UserID and RoleGuest.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   enums.PrincipalRole
}

// IsGuest reports whether the request carries no verified identity.
func (p Principal) IsGuest() bool {
	return p.UserID == uuid.Nil
}

// WithPrincipal seeds the context with a caller; auth middleware and
// handler tests are the only writers.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom extracts the caller from the request context. The boolean
// is false on routes that never passed through an auth middleware.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
