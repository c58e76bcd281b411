package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quansahdev/datamart-backend/api/middleware"
	"github.com/quansahdev/datamart-backend/api/responses"
	"github.com/quansahdev/datamart-backend/api/validators"
	"github.com/quansahdev/datamart-backend/internal/pricing"
	"github.com/quansahdev/datamart-backend/pkg/enums"
	pkgerrors "github.com/quansahdev/datamart-backend/pkg/errors"
	"github.com/quansahdev/datamart-backend/pkg/logger"
	"github.com/quansahdev/datamart-backend/pkg/money"
)

type priceView struct {
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name"`
	SellingPrice string    `json:"selling_price"`
	Margin       string    `json:"margin,omitempty"`
}

// GetPrice resolves the product price the caller would pay right now.
// Guests see the default price; resellers see their own resolved price
// and margin.
func GetPrice(pricingSvc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}

		principal, _ := middleware.PrincipalFrom(r.Context())
		var principalID *uuid.UUID
		role := enums.RoleGuest
		if !principal.IsGuest() {
			userID := principal.UserID
			principalID = &userID
			role = principal.Role
		}

		quote, err := pricingSvc.Resolve(r.Context(), productID, role, principalID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view := priceView{
			ProductID:    quote.Product.ID,
			ProductName:  quote.Product.Name,
			SellingPrice: quote.Selling.String(),
		}
		if role.IsReseller() {
			view.Margin = quote.Margin.String()
		}
		responses.WriteSuccess(w, view)
	}
}

type priceOverrideRequest struct {
	SellingPrice string `json:"selling_price" validate:"required"`
}

// SetPriceOverride lets a reseller set their own selling price for a
// product. Undercutting the floor is allowed; the margin just clamps to
// zero at sale time.
func SetPriceOverride(pricingSvc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}

		var req priceOverrideRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sellingPrice, err := money.Parse(req.SellingPrice)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid selling price"))
			return
		}

		principal, _ := middleware.PrincipalFrom(r.Context())
		if err := pricingSvc.SetPriceOverride(r.Context(), productID, principal.UserID, principal.Role, sellingPrice); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

type rolePriceRequest struct {
	Role      string `json:"role" validate:"required"`
	BasePrice string `json:"base_price" validate:"required"`
}

// SetRolePrice sets the admin-managed floor for one role on one product.
func SetRolePrice(pricingSvc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}

		var req rolePriceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role, err := enums.ParsePrincipalRole(req.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}
		basePrice, err := money.Parse(req.BasePrice)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid base price"))
			return
		}

		if err := pricingSvc.SetRoleBasePrice(r.Context(), productID, role, basePrice); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}
