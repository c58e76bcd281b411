package controllers

import (
	"net/http"

	"github.com/quansahdev/datamart-backend/api/middleware"
	"github.com/quansahdev/datamart-backend/api/responses"
	"github.com/quansahdev/datamart-backend/api/validators"
	"github.com/quansahdev/datamart-backend/internal/orders"
	"github.com/quansahdev/datamart-backend/internal/payments"
	"github.com/quansahdev/datamart-backend/internal/wallet"
	pkgerrors "github.com/quansahdev/datamart-backend/pkg/errors"
	"github.com/quansahdev/datamart-backend/pkg/logger"
	"github.com/quansahdev/datamart-backend/pkg/money"
)

type walletView struct {
	Balance          string `json:"balance"`
	AvailableProfit  string `json:"available_profit"`
	PendingProfit    string `json:"pending_profit"`
	TotalProfitEarned string `json:"total_profit_earned"`
}

// GetWallet returns the caller's spending and profit balances.
func GetWallet(walletSvc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := middleware.PrincipalFrom(r.Context())

		spending, err := walletSvc.Get(r.Context(), principal.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profit, err := walletSvc.GetProfit(r.Context(), principal.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, walletView{
			Balance:           spending.Balance.String(),
			AvailableProfit:   profit.AvailableBalance.String(),
			PendingProfit:     profit.PendingBalance.String(),
			TotalProfitEarned: profit.TotalEarned.String(),
		})
	}
}

type topupRequest struct {
	Amount        string  `json:"amount" validate:"required"`
	CustomerPhone string  `json:"customer_phone" validate:"required"`
	CustomerEmail *string `json:"customer_email,omitempty" validate:"omitempty,email"`
}

// TopupWallet opens a gateway charge that credits the caller's spending
// wallet when it settles.
func TopupWallet(ordersSvc orders.Service, paymentsSvc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req topupRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		amount, err := money.Parse(req.Amount)
		if err != nil || !amount.IsPositive() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid topup amount"))
			return
		}

		principal, _ := middleware.PrincipalFrom(r.Context())
		txn, err := ordersSvc.CreateTopup(r.Context(), orders.TopupInput{
			UserID:        principal.UserID,
			Amount:        amount,
			CustomerPhone: req.CustomerPhone,
			CustomerEmail: req.CustomerEmail,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		auth, err := paymentsSvc.InitializeGateway(r.Context(), txn.Reference)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			Transaction:      newTransactionView(txn),
			AuthorizationURL: auth.AuthorizationURL,
		})
	}
}

type activateAgentRequest struct {
	CustomerPhone string  `json:"customer_phone" validate:"required"`
	CustomerEmail *string `json:"customer_email,omitempty" validate:"omitempty,email"`
}

// ActivateAgent opens a gateway charge for the fixed activation fee; the
// caller is promoted to agent when it settles.
func ActivateAgent(ordersSvc orders.Service, paymentsSvc payments.Service, fee money.Amount, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req activateAgentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		principal, _ := middleware.PrincipalFrom(r.Context())
		if principal.Role.IsReseller() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeStateConflict, "account is already a reseller"))
			return
		}

		txn, err := ordersSvc.CreateActivation(r.Context(), orders.ActivationInput{
			UserID:        principal.UserID,
			Fee:           fee,
			CustomerPhone: req.CustomerPhone,
			CustomerEmail: req.CustomerEmail,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		auth, err := paymentsSvc.InitializeGateway(r.Context(), txn.Reference)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			Transaction:      newTransactionView(txn),
			AuthorizationURL: auth.AuthorizationURL,
		})
	}
}
