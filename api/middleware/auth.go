package middleware

import (
	"net/http"
	"strings"

	"github.com/quansahdev/datamart-backend/api/responses"
	"github.com/quansahdev/datamart-backend/internal/identity"
	pkgAuth "github.com/quansahdev/datamart-backend/pkg/auth"
	"github.com/quansahdev/datamart-backend/pkg/config"
	"github.com/quansahdev/datamart-backend/pkg/enums"
	pkgerrors "github.com/quansahdev/datamart-backend/pkg/errors"
	"github.com/quansahdev/datamart-backend/pkg/logger"
)

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}

// Auth validates a bearer token, merges the role claim with the local
// override store and seeds the request context with the principal.
func Auth(cfg config.JWTConfig, identitySvc identity.Service, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseIdentityToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			role, err := identitySvc.EffectiveRole(r.Context(), claims.UserID, claims.Role)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve role"))
				return
			}

			ctx := WithPrincipal(r.Context(), Principal{
				UserID: claims.UserID,
				Email:  claims.Email,
				Role:   role,
			})
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    claims.UserID.String(),
					"actor_role": string(role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth behaves like Auth when a token is present and lets the
// request through as a guest when it is not. A present-but-invalid token
// is still rejected, never silently downgraded.
func OptionalAuth(cfg config.JWTConfig, identitySvc identity.Service, logg *logger.Logger) func(http.Handler) http.Handler {
	required := Auth(cfg, identitySvc, logg)
	return func(next http.Handler) http.Handler {
		authed := required(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bearerToken(r) != "" {
				authed.ServeHTTP(w, r)
				return
			}
			ctx := WithPrincipal(r.Context(), Principal{Role: enums.RoleGuest})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
