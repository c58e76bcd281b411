package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quansahdev/datamart-backend/api/middleware"
	"github.com/quansahdev/datamart-backend/api/responses"
	"github.com/quansahdev/datamart-backend/api/validators"
	"github.com/quansahdev/datamart-backend/internal/orders"
	"github.com/quansahdev/datamart-backend/internal/payments"
	"github.com/quansahdev/datamart-backend/pkg/enums"
	pkgerrors "github.com/quansahdev/datamart-backend/pkg/errors"
	"github.com/quansahdev/datamart-backend/pkg/logger"
	"github.com/quansahdev/datamart-backend/pkg/pagination"
)

type createOrderRequest struct {
	ProductID      string  `json:"product_id" validate:"required,uuid"`
	RecipientPhone string  `json:"recipient_phone" validate:"required"`
	CustomerPhone  string  `json:"customer_phone" validate:"required"`
	CustomerEmail  *string `json:"customer_email,omitempty" validate:"omitempty,email"`
	PaymentMethod  string  `json:"payment_method" validate:"required,oneof=wallet gateway"`
	AgentID        *string `json:"agent_id,omitempty" validate:"omitempty,uuid"`
}

type createBulkOrderRequest struct {
	ProductID     string   `json:"product_id" validate:"required,uuid"`
	Recipients    []string `json:"recipients" validate:"required,min=2,max=50,dive,required"`
	CustomerPhone string   `json:"customer_phone" validate:"required"`
	CustomerEmail *string  `json:"customer_email,omitempty" validate:"omitempty,email"`
	PaymentMethod string   `json:"payment_method" validate:"required,oneof=wallet gateway"`
	AgentID       *string  `json:"agent_id,omitempty" validate:"omitempty,uuid"`
}

type checkoutResponse struct {
	Transaction      transactionView `json:"transaction"`
	AuthorizationURL string          `json:"authorization_url,omitempty"`
}

// CreateOrder builds a single-recipient order and immediately starts its
// payment: wallet orders settle inline, gateway orders return a checkout
// URL.
func CreateOrder(ordersSvc orders.Service, paymentsSvc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		createAndPay(w, r, ordersSvc, paymentsSvc, logg, orderParams{
			productID:     req.ProductID,
			recipients:    []string{req.RecipientPhone},
			customerPhone: req.CustomerPhone,
			customerEmail: req.CustomerEmail,
			paymentMethod: req.PaymentMethod,
			agentID:       req.AgentID,
		})
	}
}

// CreateBulkOrder is the multi-recipient variant of CreateOrder.
func CreateBulkOrder(ordersSvc orders.Service, paymentsSvc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createBulkOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		createAndPay(w, r, ordersSvc, paymentsSvc, logg, orderParams{
			productID:     req.ProductID,
			recipients:    req.Recipients,
			customerPhone: req.CustomerPhone,
			customerEmail: req.CustomerEmail,
			paymentMethod: req.PaymentMethod,
			agentID:       req.AgentID,
		})
	}
}

type orderParams struct {
	productID     string
	recipients    []string
	customerPhone string
	customerEmail *string
	paymentMethod string
	agentID       *string
}

func createAndPay(w http.ResponseWriter, r *http.Request, ordersSvc orders.Service, paymentsSvc payments.Service, logg *logger.Logger, params orderParams) {
	ctx := r.Context()

	productID, err := uuid.Parse(params.productID)
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
		return
	}
	method, err := enums.ParsePaymentMethod(params.paymentMethod)
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
		return
	}

	input := orders.BuildInput{
		ProductID:     productID,
		Recipients:    params.recipients,
		CustomerPhone: params.customerPhone,
		CustomerEmail: params.customerEmail,
		PaymentMethod: method,
	}

	principal, _ := middleware.PrincipalFrom(ctx)
	if !principal.IsGuest() {
		userID := principal.UserID
		input.UserID = &userID
		input.Role = principal.Role
	} else {
		input.Role = enums.RoleGuest
	}
	if params.agentID != nil {
		agentID, err := uuid.Parse(*params.agentID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid agent id"))
			return
		}
		input.AgentID = &agentID
	}

	txn, err := ordersSvc.Build(ctx, input)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}

	switch method {
	case enums.PaymentMethodWallet:
		settled, err := paymentsSvc.PayWithWallet(ctx, txn.Reference, principal.UserID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{Transaction: newTransactionView(settled)})
	default:
		auth, err := paymentsSvc.InitializeGateway(ctx, txn.Reference)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			Transaction:      newTransactionView(txn),
			AuthorizationURL: auth.AuthorizationURL,
		})
	}
}

// GetOrder returns one transaction by its reference.
func GetOrder(ordersSvc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reference := chi.URLParam(r, "reference")
		txn, err := ordersSvc.GetByReference(r.Context(), reference)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newTransactionView(txn))
	}
}

// ListOrders returns the caller's own transactions, newest first.
func ListOrders(ordersSvc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := middleware.PrincipalFrom(r.Context())
		if !ok || principal.IsGuest() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		page, err := ordersSvc.ListByUser(r.Context(), principal.UserID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]transactionView, 0, len(page.Transactions))
		for i := range page.Transactions {
			views = append(views, newTransactionView(&page.Transactions[i]))
		}
		responses.WriteSuccess(w, transactionListView{Transactions: views, NextCursor: page.NextCursor})
	}
}
